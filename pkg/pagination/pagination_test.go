package pagination

import "testing"

func TestParseDefaultsAndClamps(t *testing.T) {
	cases := []struct {
		page, limit  string
		wantP, wantL int
		wantOffset   int
	}{
		{"", "", 1, 10, 0},
		{"3", "20", 3, 20, 40},
		{"0", "500", 1, 100, 0},
		{"abc", "-4", 1, 10, 0},
	}
	for _, tc := range cases {
		got := Parse(tc.page, tc.limit)
		if got.Page != tc.wantP || got.Limit != tc.wantL {
			t.Fatalf("Parse(%q,%q) = %+v", tc.page, tc.limit, got)
		}
		if got.Offset() != tc.wantOffset {
			t.Fatalf("offset for %+v = %d, want %d", got, got.Offset(), tc.wantOffset)
		}
	}
}

func TestMeta(t *testing.T) {
	meta := Params{Page: 2}.Meta(35)
	if meta.Page != 2 || meta.Limit != DefaultLimit || meta.Total != 35 {
		t.Fatalf("unexpected meta %+v", meta)
	}
}
