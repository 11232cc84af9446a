package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSearchAndStatus(t *testing.T) {
	status := "PENDING"
	f := NewFilter().
		Search("Alice", "r.first_name", "r.last_name", "r.email").
		Eq("r.status", &status)

	assert.Equal(t,
		"WHERE (r.first_name ILIKE $1 OR r.last_name ILIKE $1 OR r.email ILIKE $1) AND r.status = $2",
		f.Clause())
	assert.Equal(t, []any{"%Alice%", "PENDING"}, f.Args())

	assert.Equal(t, "LIMIT $3 OFFSET $4", f.Page(Options{Page: 2, Limit: 10}))
	assert.Equal(t, []any{"%Alice%", "PENDING", 10, 10}, f.Args())
}

func TestFilterSkipsEmptyPredicates(t *testing.T) {
	var status *string
	var featured *bool
	f := NewFilter().
		Search("   ", "title").
		Eq("status", status).
		Eq("is_featured", featured).
		In("subject", nil).
		Range("price", nil, nil).
		NullIf("answered_at", nil)

	assert.Equal(t, "", f.Clause())
	assert.Empty(t, f.Args())
}

func TestFilterEscapesLikeWildcards(t *testing.T) {
	f := NewFilter().Search("50%_off", "title")
	assert.Equal(t, []any{`%50\%\_off%`}, f.Args())
}

func TestFilterWhereBindsPlaceholders(t *testing.T) {
	min, max := 500.0, 1200.0
	answered := true
	f := NewFilter().
		Where("p.is_featured = ?", true).
		Range("p.monthly_price", &min, &max).
		NullIf("s.answered_at", &answered).
		In("s.subject", []string{"ORDER", "PAYMENT"})

	assert.Equal(t,
		"WHERE p.is_featured = $1 AND p.monthly_price >= $2 AND p.monthly_price <= $3 AND s.answered_at IS NOT NULL AND s.subject = ANY($4)",
		f.Clause())
	assert.Equal(t, []any{true, 500.0, 1200.0, []string{"ORDER", "PAYMENT"}}, f.Args())
}

func TestOrderByAllowList(t *testing.T) {
	allowed := map[string]string{"createdAt": "r.created_at", "firstName": "r.first_name"}

	assert.Equal(t, "ORDER BY r.first_name ASC", OrderBy("firstName", "ASC", allowed, "r.created_at"))
	assert.Equal(t, "ORDER BY r.created_at ASC", OrderBy("password; DROP TABLE users", "ASC", allowed, "r.created_at"))
	assert.Equal(t, "ORDER BY r.created_at DESC", OrderBy("unknown", "", allowed, "r.created_at"))
	assert.Equal(t, "ORDER BY r.created_at DESC", OrderBy("", "nonsense", allowed, "r.created_at"))
}

func TestParseDateRangeDateOnlyIsInclusive(t *testing.T) {
	r, err := ParseDateRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)

	f := NewFilter().DateRange("created_at", r)
	assert.Equal(t, "WHERE created_at >= $1 AND created_at < $2", f.Clause())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), f.Args()[0])
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), f.Args()[1])
}

func TestParseDateRangeTimestamp(t *testing.T) {
	r, err := ParseDateRange("", "2024-03-31T12:00:00Z")
	require.NoError(t, err)
	f := NewFilter().DateRange("created_at", r)
	assert.Equal(t, "WHERE created_at <= $1", f.Clause())
}

func TestParseDateRangeRejects(t *testing.T) {
	_, err := ParseDateRange("yesterday", "")
	assert.Error(t, err)

	_, err = ParseDateRange("2024-03-10", "2024-03-01")
	assert.Error(t, err)
}
