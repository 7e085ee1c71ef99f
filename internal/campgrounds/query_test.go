package campgrounds

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/campground-backend/internal/repo"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
)

func TestParseListQueryDefaults(t *testing.T) {
	q, err := ParseListQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, repo.Page{Page: 1, Limit: 25}, q.Page)
	assert.Equal(t, []repo.SortField{{Column: "created_at", Desc: true}}, q.Sort)
	assert.Empty(t, q.Fields)
	assert.Empty(t, q.Filters)
}

func TestParseListQuerySelectSortAndFilters(t *testing.T) {
	values, err := url.ParseQuery("select=name,price,bogus&sort=price,-name&page=2&limit=500&price[gte]=100&price[lt]=900.5&province=Chiang%20Mai&region[in]=North,East&unknown=1")
	require.NoError(t, err)

	q, err := ParseListQuery(values)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "price"}, q.Fields)
	assert.Equal(t, []repo.SortField{{Column: "price"}, {Column: "name", Desc: true}}, q.Sort)
	assert.Equal(t, repo.Page{Page: 2, Limit: repo.MaxLimit}, q.Page)

	require.Len(t, q.Filters, 4)
	byKey := map[string]Filter{}
	for _, f := range q.Filters {
		byKey[f.Column+":"+string(f.Op)] = f
	}
	gte := byKey["price:gte"]
	require.Len(t, gte.Values, 1)
	assert.True(t, gte.Values[0].(decimal.Decimal).Equal(decimal.NewFromInt(100)))
	assert.Contains(t, byKey, "price:lt")
	assert.Equal(t, []any{"Chiang Mai"}, byKey["province:eq"].Values)
	assert.Equal(t, []any{"North", "East"}, byKey["region:in"].Values)
}

func TestParseListQueryRejectsBadInput(t *testing.T) {
	cases := []string{
		"price[gte]=cheap",
		"price[between]=1",
		"page=two",
	}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			values, err := url.ParseQuery(raw)
			require.NoError(t, err)
			_, err = ParseListQuery(values)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestPagination(t *testing.T) {
	cases := []struct {
		name     string
		page     repo.Page
		total    int64
		wantNext *repo.Page
		wantPrev *repo.Page
	}{
		{"single page", repo.Page{Page: 1, Limit: 25}, 10, nil, nil},
		{"first of many", repo.Page{Page: 1, Limit: 2}, 5, &repo.Page{Page: 2, Limit: 2}, nil},
		{"middle", repo.Page{Page: 2, Limit: 2}, 5, &repo.Page{Page: 3, Limit: 2}, &repo.Page{Page: 1, Limit: 2}},
		{"last exact", repo.Page{Page: 3, Limit: 2}, 6, nil, &repo.Page{Page: 2, Limit: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, prev := Pagination(tc.page, tc.total)
			assert.Equal(t, tc.wantNext, next)
			assert.Equal(t, tc.wantPrev, prev)
		})
	}
}
