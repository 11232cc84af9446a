package tokens

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAllowList(t *testing.T) (*AllowList, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAllowList(client, time.Second), mr
}

func TestEntryKeyShape(t *testing.T) {
	e := Entry{Role: "ADMIN", UserID: "u1", Kind: KindAccess, Token: "tok"}
	assert.Equal(t, "USERS/ADMIN/u1/TOKENS/ACCESS/tok", e.Key())
}

func TestInsertAndFind(t *testing.T) {
	ctx := context.Background()
	al, mr := newAllowList(t)

	require.NoError(t, al.Insert(ctx, Entry{Role: "ADMIN", UserID: "u1", Kind: KindAccess, Token: "a1"}, time.Minute))
	require.NoError(t, al.Insert(ctx, Entry{Role: "ADMIN", UserID: "u1", Kind: KindRefresh, Token: "r1"}, time.Hour))

	got, err := mr.Get("USERS/ADMIN/u1/TOKENS/ACCESS/a1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got)
	assert.Equal(t, time.Minute, mr.TTL("USERS/ADMIN/u1/TOKENS/ACCESS/a1"))

	ok, err := al.Exists(ctx, Lookup{UserID: "u1", Token: "a1"})
	require.NoError(t, err)
	assert.True(t, ok, "any-kind lookup finds the access token")

	ok, err = al.Exists(ctx, Lookup{UserID: "u1", Kind: KindRefresh, Token: "a1"})
	require.NoError(t, err)
	assert.False(t, ok, "kind is part of the match")

	ok, err = al.Exists(ctx, Lookup{UserID: "u2", Token: "a1"})
	require.NoError(t, err)
	assert.False(t, ok, "user is part of the match")

	keys, err := al.Find(ctx, Lookup{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestTokenSuffixIsExact(t *testing.T) {
	ctx := context.Background()
	al, _ := newAllowList(t)

	require.NoError(t, al.Insert(ctx, Entry{Role: "ADMIN", UserID: "u1", Kind: KindAccess, Token: "xabc"}, time.Minute))

	ok, err := al.Exists(ctx, Lookup{UserID: "u1", Token: "abc"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpiredEntryIsNotFoundAndIndexIsCleaned(t *testing.T) {
	ctx := context.Background()
	al, mr := newAllowList(t)

	require.NoError(t, al.Insert(ctx, Entry{Role: "ADMIN", UserID: "u1", Kind: KindAccess, Token: "short"}, time.Minute))
	require.NoError(t, al.Insert(ctx, Entry{Role: "ADMIN", UserID: "u1", Kind: KindAccess, Token: "long"}, time.Hour))

	mr.FastForward(2 * time.Minute)

	ok, err := al.Exists(ctx, Lookup{UserID: "u1", Token: "short"})
	require.NoError(t, err)
	assert.False(t, ok)

	members, err := mr.Members("INDEX/USERS/u1/TOKENS/ACCESS")
	require.NoError(t, err)
	assert.Equal(t, []string{"USERS/ADMIN/u1/TOKENS/ACCESS/long"}, members)
}

func TestPurgeByKind(t *testing.T) {
	ctx := context.Background()
	al, mr := newAllowList(t)

	for _, tok := range []string{"reset-1", "reset-2"} {
		require.NoError(t, al.Insert(ctx, Entry{Role: "ADMIN", UserID: "u1", Kind: KindResetPassword, Token: tok}, time.Hour))
	}
	require.NoError(t, al.Insert(ctx, Entry{Role: "ADMIN", UserID: "u1", Kind: KindAccess, Token: "acc"}, time.Hour))

	n, err := al.Purge(ctx, Lookup{UserID: "u1", Kind: KindResetPassword})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.False(t, mr.Exists("USERS/ADMIN/u1/TOKENS/RESET_PASSWORD/reset-1"))
	assert.True(t, mr.Exists("USERS/ADMIN/u1/TOKENS/ACCESS/acc"))

	n, err = al.Purge(ctx, Lookup{UserID: "u1", Kind: KindResetPassword})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConcurrentPurgeRemovesTokenOnce(t *testing.T) {
	ctx := context.Background()
	al, _ := newAllowList(t)
	require.NoError(t, al.Insert(ctx, Entry{Role: "ADMIN", UserID: "u1", Kind: KindResetPassword, Token: "reset"}, time.Hour))

	const workers = 8
	var (
		wg      sync.WaitGroup
		removed atomic.Int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := al.Purge(ctx, Lookup{UserID: "u1", Kind: KindResetPassword, Token: "reset"})
			assert.NoError(t, err)
			removed.Add(int64(n))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), removed.Load())
}

func TestPruneRemovesStaleMembers(t *testing.T) {
	ctx := context.Background()
	al, mr := newAllowList(t)

	require.NoError(t, al.Insert(ctx, Entry{Role: "ADMIN", UserID: "u1", Kind: KindAccess, Token: "a"}, time.Minute))
	require.NoError(t, al.Insert(ctx, Entry{Role: "ADMIN", UserID: "u2", Kind: KindRefresh, Token: "r"}, time.Hour))
	// simulate an entry evicted before its index
	mr.Del("USERS/ADMIN/u2/TOKENS/REFRESH/r")

	removed, err := al.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	members, err := mr.Members("INDEX/USERS/u1/TOKENS/ACCESS")
	require.NoError(t, err)
	assert.Len(t, members, 1)
}
