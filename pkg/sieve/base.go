package sieve

import "math"

// SimpleSieve returns every prime p with 2 <= p <= limit in ascending order.
// It allocates limit+1 flags, so callers keep limit near sqrt of the range
// they actually want to sieve.
//
//	SimpleSieve(10) // [2 3 5 7]
func SimpleSieve(limit int) []uint32 {
	if limit < 2 {
		return []uint32{}
	}

	composite := make([]bool, limit+1)
	for p := 2; p*p <= limit; p++ {
		if composite[p] {
			continue
		}
		// Multiples below p*p were crossed off by smaller primes.
		for j := p * p; j <= limit; j += p {
			composite[j] = true
		}
	}

	primes := make([]uint32, 0, estimateCount(limit))
	for i := 2; i <= limit; i++ {
		if !composite[i] {
			primes = append(primes, uint32(i))
		}
	}
	return primes
}

// estimateCount is a rough capacity hint for the number of primes <= limit.
func estimateCount(limit int) int {
	if limit < 100 {
		return 25
	}
	return int(1.26 * float64(limit) / math.Log(float64(limit)))
}
