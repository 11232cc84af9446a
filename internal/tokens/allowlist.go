// Package tokens keeps the redis allow-list every issued token must appear in.
//
// Entries live under USERS/{role}/{userId}/TOKENS/{kind}/{token} with the
// token lifetime as TTL. Each entry key is also recorded in the set
// INDEX/USERS/{userId}/TOKENS/{kind} so lookups never scan the keyspace.
package tokens

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Kind string

const (
	KindAccess            Kind = "ACCESS"
	KindRefresh           Kind = "REFRESH"
	KindResetPassword     Kind = "RESET_PASSWORD"
	KindEmailVerification Kind = "EMAIL_VERIFICATION"
)

// Kinds lists every kind, in lookup order.
var Kinds = []Kind{KindAccess, KindRefresh, KindResetPassword, KindEmailVerification}

const indexPrefix = "INDEX/USERS/"

type Entry struct {
	Role   string
	UserID string
	Kind   Kind
	Token  string
}

func (e Entry) Key() string {
	return fmt.Sprintf("USERS/%s/%s/TOKENS/%s/%s", e.Role, e.UserID, e.Kind, e.Token)
}

func indexKey(userID string, kind Kind) string {
	return fmt.Sprintf("%s%s/TOKENS/%s", indexPrefix, userID, kind)
}

// Lookup selects entries of one user. Zero Kind matches any kind and an empty
// Token matches any token.
type Lookup struct {
	UserID string
	Kind   Kind
	Token  string
}

func (l Lookup) kinds() []Kind {
	if l.Kind == "" {
		return Kinds
	}
	return []Kind{l.Kind}
}

func (l Lookup) matches(member string, kind Kind) bool {
	if l.Token == "" {
		return true
	}
	return strings.HasSuffix(member, "/TOKENS/"+string(kind)+"/"+l.Token)
}

type AllowList struct {
	client  redis.Cmdable
	timeout time.Duration
}

func NewAllowList(client redis.Cmdable, timeout time.Duration) *AllowList {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &AllowList{client: client, timeout: timeout}
}

// Insert stores the entry with ttl and records it in the user's index.
func (a *AllowList) Insert(ctx context.Context, entry Entry, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	key := entry.Key()
	idx := indexKey(entry.UserID, entry.Kind)
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, entry.UserID, ttl)
		pipe.SAdd(ctx, idx, key)
		// index lives as long as its newest entry
		pipe.Expire(ctx, idx, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("allow-list insert: %w", err)
	}
	return nil
}

// Find returns the live entry keys matching l. Index members whose entry has
// expired are dropped from the index on the way.
func (a *AllowList) Find(ctx context.Context, l Lookup) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var live []string
	for _, kind := range l.kinds() {
		idx := indexKey(l.UserID, kind)
		members, err := a.client.SMembers(ctx, idx).Result()
		if err != nil {
			return nil, fmt.Errorf("allow-list index: %w", err)
		}

		var candidates []string
		for _, m := range members {
			if l.matches(m, kind) {
				candidates = append(candidates, m)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		found, stale, err := a.partition(ctx, candidates)
		if err != nil {
			return nil, err
		}
		live = append(live, found...)
		if len(stale) > 0 {
			if err := a.client.SRem(ctx, idx, toAny(stale)...).Err(); err != nil {
				return nil, fmt.Errorf("allow-list index cleanup: %w", err)
			}
		}
	}
	return live, nil
}

// Exists reports whether at least one entry matches l.
func (a *AllowList) Exists(ctx context.Context, l Lookup) (bool, error) {
	keys, err := a.Find(ctx, l)
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}

// Purge deletes every entry matching l and returns how many were removed.
// The count comes from DEL itself, so of two concurrent purges of the same
// token only one sees it removed.
func (a *AllowList) Purge(ctx context.Context, l Lookup) (int, error) {
	keys, err := a.Find(ctx, l)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var del *redis.IntCmd
	_, err = a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, keys...)
		for _, kind := range l.kinds() {
			pipe.SRem(ctx, indexKey(l.UserID, kind), toAny(keys)...)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("allow-list delete: %w", err)
	}
	return int(del.Val()), nil
}

// Prune walks every index set and removes members whose entry is gone. It
// returns the number of members removed.
func (a *AllowList) Prune(ctx context.Context) (int, error) {
	removed := 0
	var cursor uint64
	for {
		keys, next, err := a.client.Scan(ctx, cursor, indexPrefix+"*", 200).Result()
		if err != nil {
			return removed, fmt.Errorf("allow-list scan: %w", err)
		}
		for _, idx := range keys {
			n, err := a.pruneIndex(ctx, idx)
			if err != nil {
				return removed, err
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (a *AllowList) pruneIndex(ctx context.Context, idx string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	members, err := a.client.SMembers(ctx, idx).Result()
	if err != nil {
		return 0, fmt.Errorf("allow-list index: %w", err)
	}
	if len(members) == 0 {
		return 0, nil
	}
	_, stale, err := a.partition(ctx, members)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := a.client.SRem(ctx, idx, toAny(stale)...).Err(); err != nil {
		return 0, fmt.Errorf("allow-list prune: %w", err)
	}
	return len(stale), nil
}

// partition splits keys into those that still exist and those that do not.
func (a *AllowList) partition(ctx context.Context, keys []string) (live, stale []string, err error) {
	cmds, err := a.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Exists(ctx, k)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("allow-list exists: %w", err)
	}
	for i, cmd := range cmds {
		if cmd.(*redis.IntCmd).Val() > 0 {
			live = append(live, keys[i])
		} else {
			stale = append(stale, keys[i])
		}
	}
	return live, stale, nil
}

func toAny(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
