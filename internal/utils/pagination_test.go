package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	if got := AtoiDefault("7", 50); got != 7 {
		t.Fatalf("got %d", got)
	}
	if got := AtoiDefault("", 50); got != 50 {
		t.Fatalf("got %d", got)
	}
	if got := AtoiDefault("junk", 50); got != 50 {
		t.Fatalf("got %d", got)
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct{ n, def, max, want int }{
		{0, 50, 100, 50},
		{-5, 50, 100, 50},
		{1, 50, 100, 1},
		{100, 50, 100, 100},
		{101, 50, 100, 100},
	}
	for _, tc := range cases {
		if got := ClampLimit(tc.n, tc.def, tc.max); got != tc.want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestClampOffset(t *testing.T) {
	if got := ClampOffset(-1); got != 0 {
		t.Fatalf("got %d", got)
	}
	if got := ClampOffset(25); got != 25 {
		t.Fatalf("got %d", got)
	}
}
