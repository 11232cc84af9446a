package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu   sync.Mutex
	seen []string
	fail map[string]bool
}

func (h *recordingHandler) Handle(_ context.Context, msg redis.XMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	kind, _ := msg.Values["type"].(string)
	h.seen = append(h.seen, kind)
	if h.fail[kind] {
		return errors.New("boom")
	}
	return nil
}

func newConsumer(t *testing.T, handler MessageHandler) (*Consumer, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewConsumer(client, Options{
		Stream:   "lagimmo:tasks",
		Group:    "lagimmo-workers",
		Consumer: "worker-1",
		Block:    10 * time.Millisecond,
	}, zerolog.Nop(), handler)
	return c, client
}

func TestEnsureGroupIsIdempotent(t *testing.T) {
	c, _ := newConsumer(t, &recordingHandler{})
	ctx := context.Background()

	require.NoError(t, c.EnsureGroup(ctx))
	require.NoError(t, c.EnsureGroup(ctx))
}

func TestReadAcksHandledEntries(t *testing.T) {
	handler := &recordingHandler{fail: map[string]bool{"mail": true}}
	c, client := newConsumer(t, handler)
	ctx := context.Background()

	require.NoError(t, c.EnsureGroup(ctx))
	for _, kind := range []string{"tokens.prune", "mail", "sessions.purge"} {
		require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
			Stream: "lagimmo:tasks",
			Values: map[string]any{"type": kind},
		}).Err())
	}

	require.NoError(t, c.read(ctx))
	assert.Equal(t, []string{"tokens.prune", "mail", "sessions.purge"}, handler.seen)

	pending, err := client.XPending(ctx, "lagimmo:tasks", "lagimmo-workers").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending.Count)
}

func TestStartStopsWithContext(t *testing.T) {
	c, _ := newConsumer(t, &recordingHandler{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
