package utils

import "math"

// ISqrt returns floor(sqrt(n)) for n >= 0 and 0 for negative n.
func ISqrt(n int64) int64 {
	if n < 2 {
		if n < 0 {
			return 0
		}
		return n
	}

	// Float estimate, then correct for rounding in either direction.
	r := int64(math.Sqrt(float64(n)))
	for r > 0 && r > n/r {
		r--
	}
	for r+1 <= n/(r+1) {
		r++
	}
	return r
}

// IsPrime checks if a number is prime
func IsPrime(n int64) bool {
	if n <= 1 {
		return false
	}
	if n <= 3 {
		return true
	}
	if n%2 == 0 || n%3 == 0 {
		return false
	}

	for i := int64(5); i <= n/i; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}
