package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"x", 5, 5},
		{" 42", 7, 7}, // no trimming
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct{ in, want int }{{0, 50}, {-1, 50}, {10, 10}, {200, 200}, {500, 200}}
	for _, c := range cases {
		if got := ClampLimit(c.in, 50, 200); got != c.want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPageSize(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{{"", 10}, {"abc", 10}, {"-4", 10}, {"25", 25}, {"1000", 100}}
	for _, c := range cases {
		if got := PageSize(c.raw, 10, 100); got != c.want {
			t.Fatalf("PageSize(%q) = %d, want %d", c.raw, got, c.want)
		}
	}
}
