package sieve

import (
	"math"

	"github.com/bigneek/primeflare/pkg/utils"
)

const (
	// smallBound covers the first five primes, where ln(ln(n)) is negative
	// or undefined and the asymptotic estimate below is unreliable.
	smallBound = 15

	// MaxLimit is the largest search limit EstimateBound will produce. It
	// leaves headroom so that position + stride arithmetic in the segmented
	// pass cannot overflow int64.
	MaxLimit = math.MaxInt64 / 2
)

// EstimateBound returns a limit such that [2, limit] holds at least n primes,
// and sqrtLimit = floor(sqrt(limit)) + 1 for the base-prime pass. n is a
// 1-based count. ok is false when the limit would exceed MaxLimit.
//
// For n >= 6 the estimate is n(ln n + ln ln n), which is an upper bound on the
// n-th prime (Rosser's theorem).
func EstimateBound(n int64) (limit, sqrtLimit int64, ok bool) {
	if n < 6 {
		limit = smallBound
	} else {
		nn := float64(n)
		est := nn * (math.Log(nn) + math.Log(math.Log(nn)))
		if est >= float64(MaxLimit) {
			return 0, 0, false
		}
		limit = int64(est)
	}
	return limit, utils.ISqrt(limit) + 1, true
}
