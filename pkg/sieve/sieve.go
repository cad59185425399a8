// Package sieve finds the N-th prime with a segmented sieve of Eratosthenes.
//
// Peak memory is bounded by the segment size plus the base primes up to
// sqrt(limit), independent of how far the search range extends.
package sieve

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// DefaultSegmentSize is the number of integers sieved per segment when the
// config leaves it unset.
const DefaultSegmentSize = 1_000_000

// MaxSegmentSize caps the per-segment allocation.
const MaxSegmentSize = 1 << 30

// Sieve returns the prime at a given position in the ascending sequence of
// primes. Indexes are zero-based: NthPrime(0) is 2, NthPrime(1) is 3.
type Sieve interface {
	NthPrime(index int64) (int64, error)
}

// Config tunes a Segmented sieve.
type Config struct {
	// SegmentSize is how many integers each segment covers. Values <= 0
	// select DefaultSegmentSize; larger than MaxSegmentSize are clamped.
	SegmentSize int
}

// Result describes one NthPrime computation.
type Result struct {
	Index       int64 // zero-based index requested
	Prime       int64
	Limit       int64 // estimated upper bound of the search range
	SqrtLimit   int64
	BasePrimes  int   // number of base primes used to sieve each segment
	Segments    int   // segments sieved before the prime was found
	SegmentSize int64 // integers per segment
	Elapsed     time.Duration
}

// Segmented implements Sieve. It holds no per-call state and is safe for
// concurrent use.
type Segmented struct {
	segmentSize int64
	logger      *zap.Logger

	// estimate is swapped in tests to force an undersized bound.
	estimate func(n int64) (limit, sqrtLimit int64, ok bool)
}

var _ Sieve = (*Segmented)(nil)

// New creates a segmented sieve. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) *Segmented {
	size := int64(cfg.SegmentSize)
	if size <= 0 {
		size = DefaultSegmentSize
	}
	size = min(size, MaxSegmentSize)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Segmented{
		segmentSize: size,
		logger:      logger,
		estimate:    EstimateBound,
	}
}

// SegmentSize returns the number of integers covered by each segment.
func (s *Segmented) SegmentSize() int64 {
	return s.segmentSize
}

// NthPrime returns the prime at the zero-based index.
func (s *Segmented) NthPrime(index int64) (int64, error) {
	res, err := s.Compute(index)
	if err != nil {
		return 0, err
	}
	return res.Prime, nil
}

// Compute runs the sieve for the zero-based index and reports the work done.
func (s *Segmented) Compute(index int64) (Result, error) {
	l := s.logger.With(zap.Int64("index", index))
	l.Debug("Compute: entered")

	if index < 0 {
		return Result{}, &InvalidArgumentError{Index: index, Reason: "index must not be negative"}
	}
	if index == math.MaxInt64 {
		return Result{}, &InvalidArgumentError{Index: index, Reason: "index exceeds int64 prime count"}
	}

	start := time.Now()
	n := index + 1

	limit, sqrtLimit, ok := s.estimate(n)
	if !ok {
		return Result{}, &InvalidArgumentError{Index: index, Reason: "search limit would overflow int64"}
	}

	basePrimes := SimpleSieve(int(sqrtLimit))
	l.Debug("Compute: base primes ready",
		zap.Int64("limit", limit),
		zap.Int64("sqrt_limit", sqrtLimit),
		zap.Int("base_primes", len(basePrimes)),
	)

	c := &segmentCounter{
		basePrimes: basePrimes,
		size:       s.segmentSize,
		logger:     l,
	}
	prime, segments, found := c.find(limit, n)
	if prime == 0 {
		l.Error("Compute: bound estimate exhausted",
			zap.Int64("limit", limit),
			zap.Int64("found", found),
		)
		return Result{}, &InsufficientBoundError{Index: index, Limit: limit, Found: found}
	}

	res := Result{
		Index:       index,
		Prime:       prime,
		Limit:       limit,
		SqrtLimit:   sqrtLimit,
		BasePrimes:  len(basePrimes),
		Segments:    segments,
		SegmentSize: s.segmentSize,
		Elapsed:     time.Since(start),
	}
	l.Debug("Compute: exit",
		zap.Int64("prime", res.Prime),
		zap.Int("segments", res.Segments),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}
