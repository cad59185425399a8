package utils

import "testing"

func TestISqrt(t *testing.T) {
	tests := []struct {
		n    int64
		want int64
	}{
		{-4, 0},
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 1},
		{4, 2},
		{15, 3},
		{16, 4},
		{17, 4},
		{999_999, 999},
		{1_000_000, 1000},
		{(1 << 31) * (1 << 31), 1 << 31},
		{(1<<31)*(1<<31) - 1, 1<<31 - 1},
		{9_223_372_036_854_775_807, 3_037_000_499},
	}
	for _, tt := range tests {
		if got := ISqrt(tt.n); got != tt.want {
			t.Errorf("ISqrt(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestIsPrime(t *testing.T) {
	primes := []int64{2, 3, 5, 7, 11, 13, 97, 7919, 104_743, 1_299_721, 15_485_863}
	for _, p := range primes {
		if !IsPrime(p) {
			t.Errorf("IsPrime(%d) = false, want true", p)
		}
	}

	composites := []int64{-7, 0, 1, 4, 9, 25, 49, 91, 7917, 1_299_723, 15_485_865}
	for _, c := range composites {
		if IsPrime(c) {
			t.Errorf("IsPrime(%d) = true, want false", c)
		}
	}
}
