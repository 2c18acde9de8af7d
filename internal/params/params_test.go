package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantPage   int
		wantOffset int
	}{
		{name: "defaults", query: "", wantLimit: 10, wantPage: 1, wantOffset: 0},
		{name: "explicit page and limit", query: "limit=2&page=2", wantLimit: 2, wantPage: 2, wantOffset: 2},
		{name: "limit capped at 100", query: "limit=500", wantLimit: 100, wantPage: 1, wantOffset: 0},
		{name: "zero limit falls back", query: "limit=0", wantLimit: 10, wantPage: 1, wantOffset: 0},
		{name: "negative page ignored", query: "page=-3", wantLimit: 10, wantPage: 1, wantOffset: 0},
		{name: "malformed values ignored", query: "limit=abc&page=xyz", wantLimit: 10, wantPage: 1, wantOffset: 0},
		{name: "deep page offset", query: "limit=25&page=4", wantLimit: 25, wantPage: 4, wantOffset: 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			p := ParsePagination(q)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestComputeMeta(t *testing.T) {
	p := Pagination{Limit: 10, Page: 2, Offset: 10}
	p.ComputeMeta(35)

	assert.Equal(t, 35, p.Total)
	assert.Equal(t, 4, p.TotalPages)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)

	last := Pagination{Limit: 10, Page: 4, Offset: 30}
	last.ComputeMeta(35)
	assert.False(t, last.HasNext)
	assert.True(t, last.HasPrev)

	empty := Pagination{Limit: 10, Page: 1}
	empty.ComputeMeta(0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}

func TestParseBoolFlag(t *testing.T) {
	tests := []struct {
		in   string
		want *bool
	}{
		{in: "true", want: ptr(true)},
		{in: "false", want: ptr(false)},
		{in: " true ", want: ptr(true)},
		{in: "TRUE", want: nil},
		{in: "1", want: nil},
		{in: "yes", want: nil},
		{in: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseBoolFlag(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestParseID(t *testing.T) {
	assert.Nil(t, ParseID(""))
	assert.Nil(t, ParseID("abc"))
	assert.Nil(t, ParseID("0"))
	assert.Nil(t, ParseID("-7"))

	got := ParseID("42")
	require.NotNil(t, got)
	assert.Equal(t, int64(42), *got)
}

func TestParsePublicProductFilter(t *testing.T) {
	// Adversarial listed/flag parameters must never leak unlisted rows.
	q, err := url.ParseQuery("listed=false&bestSeller=true&trending=true&category=3&brand=bad&search=lamp")
	require.NoError(t, err)

	f := ParsePublicProductFilter(q)
	require.NotNil(t, f.Listed)
	assert.True(t, *f.Listed)
	assert.Nil(t, f.BestSeller)
	assert.Nil(t, f.Trending)
	require.NotNil(t, f.CategoryID)
	assert.Equal(t, int64(3), *f.CategoryID)
	assert.Nil(t, f.BrandID)
	assert.Equal(t, "lamp", f.Search)
}

func ptr(b bool) *bool { return &b }
