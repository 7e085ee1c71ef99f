package repo

import "testing"

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in     Page
		want   Page
		offset int
	}{
		{in: Page{}, want: Page{Page: 1, Limit: 25}, offset: 0},
		{in: Page{Page: 3, Limit: 10}, want: Page{Page: 3, Limit: 10}, offset: 20},
		{in: Page{Page: -2, Limit: 500}, want: Page{Page: 1, Limit: 100}, offset: 0},
	}
	for _, tc := range tests {
		got := tc.in.Normalize()
		if got != tc.want {
			t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
		if got.Offset() != tc.offset {
			t.Fatalf("Offset(%+v) = %d, want %d", got, got.Offset(), tc.offset)
		}
	}
}

func TestParseSort(t *testing.T) {
	allowed := map[string]string{"name": "name", "price": "price", "createdAt": "created_at"}

	fields := ParseSort("name, -price,bogus,,-createdAt", allowed)
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %+v", fields)
	}
	if fields[0] != (SortField{Column: "name"}) {
		t.Fatalf("unexpected first field %+v", fields[0])
	}
	if fields[1] != (SortField{Column: "price", Desc: true}) {
		t.Fatalf("unexpected second field %+v", fields[1])
	}
	if fields[2] != (SortField{Column: "created_at", Desc: true}) {
		t.Fatalf("unexpected third field %+v", fields[2])
	}

	if got := ParseSort("", allowed); len(got) != 0 {
		t.Fatalf("expected no fields for empty input, got %+v", got)
	}
}
