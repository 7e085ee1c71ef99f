package campgrounds

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/campground-backend/internal/repo"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
)

const defaultSort = "-createdAt"

// columns maps public field names to database columns.
var columns = map[string]string{
	"id":         "id",
	"name":       "name",
	"address":    "address",
	"district":   "district",
	"province":   "province",
	"postalcode": "postal_code",
	"tel":        "tel",
	"region":     "region",
	"price":      "price",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

// reserved query keys are never treated as filters.
var reserved = map[string]struct{}{
	"select": {},
	"sort":   {},
	"page":   {},
	"limit":  {},
}

// Operator is a comparison applied by a Filter.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

var sqlOperators = map[Operator]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
	OpIn:  "IN",
}

// Filter is one WHERE term on a known column.
type Filter struct {
	Column string
	Op     Operator
	Values []any
}

// ListQuery is the parsed campground list request.
type ListQuery struct {
	Fields  []string
	Sort    []repo.SortField
	Filters []Filter
	Page    repo.Page
}

// ParseListQuery reads select, sort, page, limit and field filters such as
// price[gte]=100 or province=Chiang%20Mai.
func ParseListQuery(values url.Values) (ListQuery, error) {
	q := ListQuery{}

	if raw := strings.TrimSpace(values.Get("select")); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			f = strings.TrimSpace(f)
			if _, ok := columns[f]; ok && f != "id" {
				q.Fields = append(q.Fields, f)
			}
		}
	}

	rawSort := strings.TrimSpace(values.Get("sort"))
	if rawSort == "" {
		rawSort = defaultSort
	}
	q.Sort = repo.ParseSort(rawSort, columns)
	if len(q.Sort) == 0 {
		q.Sort = repo.ParseSort(defaultSort, columns)
	}

	page, err := parsePositive(values, "page")
	if err != nil {
		return ListQuery{}, err
	}
	limit, err := parsePositive(values, "limit")
	if err != nil {
		return ListQuery{}, err
	}
	q.Page = repo.Page{Page: page, Limit: limit}.Normalize()

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, skip := reserved[key]; skip {
			continue
		}
		field, op, ok := splitFilterKey(key)
		if !ok {
			return ListQuery{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported filter operator").
				WithDetails(map[string]any{"field": key})
		}
		column, known := columns[field]
		if !known {
			continue
		}
		filter, err := buildFilter(field, column, op, values.Get(key))
		if err != nil {
			return ListQuery{}, err
		}
		q.Filters = append(q.Filters, filter)
	}
	return q, nil
}

func parsePositive(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithDetails(map[string]any{"field": key})
	}
	return n, nil
}

// splitFilterKey turns "price[gte]" into ("price", OpGte).
func splitFilterKey(key string) (string, Operator, bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, true
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", false
	}
	op := Operator(key[open+1 : len(key)-1])
	if _, ok := sqlOperators[op]; !ok {
		return "", "", false
	}
	return key[:open], op, true
}

func buildFilter(field, column string, op Operator, raw string) (Filter, error) {
	parts := []string{raw}
	if op == OpIn {
		parts = strings.Split(raw, ",")
	}
	values := make([]any, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if field != "price" {
			values = append(values, part)
			continue
		}
		price, err := decimal.NewFromString(part)
		if err != nil {
			return Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "price filter must be numeric").
				WithDetails(map[string]any{"field": field, "value": part})
		}
		values = append(values, price)
	}
	return Filter{Column: column, Op: op, Values: values}, nil
}

// Pagination computes next/prev pages from the window and filtered total.
func Pagination(page repo.Page, total int64) (next, prev *repo.Page) {
	page = page.Normalize()
	start := page.Offset()
	end := page.Page * page.Limit
	if int64(end) < total {
		next = &repo.Page{Page: page.Page + 1, Limit: page.Limit}
	}
	if start > 0 {
		prev = &repo.Page{Page: page.Page - 1, Limit: page.Limit}
	}
	return next, prev
}
