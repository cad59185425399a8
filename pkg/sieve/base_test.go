package sieve

import (
	"slices"
	"testing"
)

func TestSimpleSieve(t *testing.T) {
	tests := []struct {
		limit int
		want  []uint32
	}{
		{-3, []uint32{}},
		{0, []uint32{}},
		{1, []uint32{}},
		{2, []uint32{2}},
		{3, []uint32{2, 3}},
		{4, []uint32{2, 3}},
		{10, []uint32{2, 3, 5, 7}},
		{30, []uint32{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}},
	}
	for _, tt := range tests {
		got := SimpleSieve(tt.limit)
		if got == nil {
			t.Errorf("SimpleSieve(%d) = nil, want empty slice", tt.limit)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("SimpleSieve(%d) = %v, want %v", tt.limit, got, tt.want)
		}
	}
}

func TestSimpleSieveCounts(t *testing.T) {
	// pi(x) for powers of ten.
	counts := map[int]int{
		100:       25,
		1000:      168,
		10_000:    1229,
		100_000:   9592,
		1_000_000: 78_498,
	}
	for limit, want := range counts {
		got := SimpleSieve(limit)
		if len(got) != want {
			t.Errorf("len(SimpleSieve(%d)) = %d, want %d", limit, len(got), want)
		}
		if !slices.IsSorted(got) {
			t.Errorf("SimpleSieve(%d) not ascending", limit)
		}
	}
}
