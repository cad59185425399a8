package sieve

import "fmt"

// InvalidArgumentError reports an index outside the domain NthPrime accepts.
// It is returned before any sieving happens.
type InvalidArgumentError struct {
	Index  int64
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("sieve: invalid index %d: %s", e.Index, e.Reason)
}

// InsufficientBoundError means the estimated limit held fewer primes than
// requested. It indicates a defect in the bound estimate, not bad input.
type InsufficientBoundError struct {
	Index int64
	Limit int64
	Found int64 // primes counted in [2, Limit]
}

func (e *InsufficientBoundError) Error() string {
	return fmt.Sprintf("sieve: upper bound %d too small for index %d (found %d primes)", e.Limit, e.Index, e.Found)
}
