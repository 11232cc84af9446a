package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lagimmo/api/internal/apperr"
)

func TestNewPageBoundaries(t *testing.T) {
	rows := make([]int, 25)

	first := NewPage(rows[:10], 25, Options{Page: 1, Limit: 10})
	assert.Len(t, first.Items, 10)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.HasNextPage)
	assert.False(t, first.HasPreviousPage)

	last := NewPage(rows[20:], 25, Options{Page: 3, Limit: 10})
	assert.Len(t, last.Items, 5)
	assert.Equal(t, 25, last.Total)
	assert.False(t, last.HasNextPage)
	assert.True(t, last.HasPreviousPage)
}

func TestNewPageEmpty(t *testing.T) {
	page := NewPage[string](nil, 0, Defaults())
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, page.TotalPages)
	assert.False(t, page.HasNextPage)
	assert.False(t, page.HasPreviousPage)
}

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := ParseOptions(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, Options{Page: 1, Limit: 10, SortOrder: SortDesc}, opts)
	assert.Equal(t, 0, opts.Offset())
}

func TestParseOptionsValues(t *testing.T) {
	opts, err := ParseOptions(url.Values{
		"page":      {"3"},
		"limit":     {"20"},
		"search":    {"  alice "},
		"sortBy":    {"firstName"},
		"sortOrder": {"asc"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.Page)
	assert.Equal(t, 40, opts.Offset())
	assert.Equal(t, "alice", opts.Search)
	assert.Equal(t, SortAsc, opts.SortOrder)
}

func TestParseOptionsRejectsInvalid(t *testing.T) {
	cases := []url.Values{
		{"limit": {"0"}},
		{"limit": {"-5"}},
		{"limit": {"abc"}},
		{"limit": {"101"}},
		{"page": {"0"}},
		{"page": {"9223372036854775807"}, "limit": {"100"}},
		{"page": {"21474838"}, "limit": {"100"}},
		{"sortOrder": {"sideways"}},
	}
	for _, q := range cases {
		_, err := ParseOptions(q)
		require.Error(t, err, q.Encode())
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), q.Encode())
	}
}

func TestParseOptionsLargestPageKeepsOffsetPositive(t *testing.T) {
	_, err := ParseOptions(url.Values{"page": {"21474838"}, "limit": {"100"}})
	require.Error(t, err)
	assert.Equal(t, "page is too large", apperr.Message(err))

	opts, err := ParseOptions(url.Values{"page": {"21474837"}, "limit": {"100"}})
	require.NoError(t, err)
	assert.Equal(t, 2147483600, opts.Offset())
}
