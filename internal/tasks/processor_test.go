package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lagimmo/api/internal/mailer"
)

type recordingSender struct {
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fakePruner struct {
	calls int
}

func (f *fakePruner) Prune(context.Context) (int, error) {
	f.calls++
	return 3, nil
}

type fakePurger struct {
	cutoff time.Time
	err    error
}

func (f *fakePurger) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 2, f.err
}

func newProcessor() (*Processor, *recordingSender, *fakePruner, *fakePurger) {
	sender := &recordingSender{}
	pruner := &fakePruner{}
	purger := &fakePurger{}
	return NewProcessor(sender, pruner, purger, zerolog.Nop()), sender, pruner, purger
}

func TestHandleMail(t *testing.T) {
	p, sender, _, _ := newProcessor()

	err := p.Handle(context.Background(), redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"type":    TypeMail,
			"payload": `{"to":["a@example.com"],"subject":"Hello","text":"hi"}`,
		},
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"a@example.com"}, sender.sent[0].To)
	assert.Equal(t, "Hello", sender.sent[0].Subject)
}

func TestHandleMailFailures(t *testing.T) {
	p, sender, _, _ := newProcessor()
	ctx := context.Background()

	err := p.Handle(ctx, redis.XMessage{ID: "1-0", Values: map[string]interface{}{"type": TypeMail}})
	assert.EqualError(t, err, "mail task without payload")

	err = p.Handle(ctx, redis.XMessage{ID: "1-1", Values: map[string]interface{}{"type": TypeMail, "payload": "{"}})
	assert.ErrorContains(t, err, "decode mail")

	sender.err = errors.New("sendgrid down")
	err = p.Handle(ctx, redis.XMessage{ID: "1-2", Values: map[string]interface{}{
		"type":    TypeMail,
		"payload": `{"to":["a@example.com"],"subject":"Hello","text":"hi"}`,
	}})
	assert.ErrorContains(t, err, "sendgrid down")
}

func TestHandleMaintenance(t *testing.T) {
	p, _, pruner, purger := newProcessor()
	fixed := time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, p.Handle(ctx, redis.XMessage{ID: "1-0", Values: map[string]interface{}{"type": TypeTokensPrune}}))
	assert.Equal(t, 1, pruner.calls)

	require.NoError(t, p.Handle(ctx, redis.XMessage{ID: "1-1", Values: map[string]interface{}{"type": TypeSessionsPurge}}))
	assert.Equal(t, fixed, purger.cutoff)

	purger.err = errors.New("db gone")
	assert.ErrorContains(t, p.Handle(ctx, redis.XMessage{ID: "1-2", Values: map[string]interface{}{"type": TypeSessionsPurge}}), "purge sessions")
}

func TestHandleUnknownTypeIsDropped(t *testing.T) {
	p, _, _, _ := newProcessor()
	assert.NoError(t, p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]interface{}{"type": "nsfw"}}))
}
