package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name                 string
		page, perPage, total int
		want                 Pagination
		offset               int
	}{
		{"defaults", 0, 0, 0, Pagination{Page: 1, PerPage: 25}, 0},
		{"partial last page", 3, 10, 21, Pagination{Page: 3, PerPage: 10, Total: 21, TotalPages: 3}, 20},
		{"oversized page falls back", 2, 500, 60, Pagination{Page: 2, PerPage: 25, Total: 60, TotalPages: 3}, 25},
		{"exact fit", 1, 20, 40, Pagination{Page: 1, PerPage: 20, Total: 40, TotalPages: 2}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewPagination(tc.page, tc.perPage, tc.total)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.offset, got.Offset())
		})
	}
}

func TestPageFromQuery(t *testing.T) {
	page, perPage := PageFromQuery(url.Values{"page": {"4"}, "per_page": {"x"}})
	require.Equal(t, 4, page)
	require.Zero(t, perPage)
}
