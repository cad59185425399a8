package sieve

import "go.uber.org/zap"

// segmentCounter walks [2, limit] one segment at a time, counting primes.
type segmentCounter struct {
	basePrimes []uint32 // ascending, up to sqrt(limit)
	size       int64
	logger     *zap.Logger
}

// find returns the n-th prime (1-based) in [2, limit] and the number of
// segments sieved. prime is 0 when the range holds fewer than n primes, in
// which case count is how many it did hold.
func (c *segmentCounter) find(limit, n int64) (prime int64, segments int, count int64) {
	for low := int64(2); low <= limit; low += c.size {
		high := min(low+c.size-1, limit)
		segments++

		// composite[i] covers low+i; a fresh slice per segment keeps peak
		// memory at one segment.
		composite := make([]bool, high-low+1)
		c.mark(composite, low, high)

		for i, isComposite := range composite {
			if isComposite {
				continue
			}
			count++
			if count == n {
				return low + int64(i), segments, count
			}
		}

		if ce := c.logger.Check(zap.DebugLevel, "segment sieved"); ce != nil {
			ce.Write(
				zap.Int64("low", low),
				zap.Int64("high", high),
				zap.Int64("count", count),
			)
		}
	}
	return 0, segments, count
}

// mark crosses off multiples of every base prime within [low, high].
func (c *segmentCounter) mark(composite []bool, low, high int64) {
	for _, bp := range c.basePrimes {
		p := int64(bp)
		sq := p * p
		if sq > high {
			// Base primes ascend, so no later prime has a multiple to mark.
			break
		}
		// First multiple of p in the segment, never below p*p so that p
		// itself stays unmarked.
		start := max(sq, (low+p-1)/p*p)
		for j := start; j <= high; j += p {
			composite[j-low] = true
		}
	}
}
