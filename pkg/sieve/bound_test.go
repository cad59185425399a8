package sieve

import "testing"

func TestEstimateBound(t *testing.T) {
	tests := []struct {
		n         int64
		limit     int64
		sqrtLimit int64
	}{
		{0, 15, 4},
		{1, 15, 4},
		{5, 15, 4},
		{6, 14, 4},
		{100, 613, 25},
		{1_000_000, 16_441_302, 4055},
	}
	for _, tt := range tests {
		limit, sqrtLimit, ok := EstimateBound(tt.n)
		if !ok {
			t.Fatalf("EstimateBound(%d) not ok", tt.n)
		}
		if limit != tt.limit || sqrtLimit != tt.sqrtLimit {
			t.Errorf("EstimateBound(%d) = (%d, %d), want (%d, %d)", tt.n, limit, sqrtLimit, tt.limit, tt.sqrtLimit)
		}
	}
}

func TestEstimateBoundCoversNthPrime(t *testing.T) {
	primes := SimpleSieve(100_000)
	for n := int64(1); n <= int64(len(primes)); n++ {
		limit, _, ok := EstimateBound(n)
		if !ok {
			t.Fatalf("EstimateBound(%d) not ok", n)
		}
		if limit < int64(primes[n-1]) {
			t.Fatalf("EstimateBound(%d) = %d, below prime %d", n, limit, primes[n-1])
		}
	}
}

func TestEstimateBoundOverflow(t *testing.T) {
	if _, _, ok := EstimateBound(1 << 62); ok {
		t.Error("EstimateBound(1<<62) ok, want overflow")
	}
	limit, _, ok := EstimateBound(1 << 40)
	if !ok || limit <= 0 || limit > MaxLimit {
		t.Errorf("EstimateBound(1<<40) = %d, %v", limit, ok)
	}
}
