package errors

import (
	"fmt"
	"strings"
	"time"
)

/*
DegradedError signals that a remote collaborator failed or timed out and the
component substituted its documented fallback value (empty recall set,
summary-based response, ...). Callers may log or alert on it, but it is never
fatal to the request that observed it.
*/
type DegradedError struct {
	Component string
	Fallback  string
	Err       error
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("%s degraded (fallback: %s): %v", e.Component, e.Fallback, e.Err)
}

func (e *DegradedError) Unwrap() error { return e.Err }

/*
NewDegraded wraps a remote failure with the component that absorbed it and the
fallback that was used in its place.
*/
func NewDegraded(component, fallback string, err error) *DegradedError {
	return &DegradedError{Component: component, Fallback: fallback, Err: err}
}

/*
TriadBrokenError is the hard precondition failure raised when the triad gate
finds one or more seats unavailable. It is fatal to the orchestrate call that
observed it and must name the failed seats so callers can make a
machine-checkable distinction from ordinary degradation.
*/
type TriadBrokenError struct {
	FailedSeats []string
}

func (e *TriadBrokenError) Error() string {
	return fmt.Sprintf("triad broken: seats unavailable: %s", strings.Join(e.FailedSeats, ", "))
}

// TriadBroken creates a TriadBrokenError naming the failed seat IDs.
func TriadBroken(seats ...string) *TriadBrokenError {
	return &TriadBrokenError{FailedSeats: seats}
}

/*
CacheLoadError is delivered to every waiter of a single-flight load group when
the underlying fetch fails. The cache must not retain a placeholder for it; a
later load retries the fetch from scratch.
*/
type CacheLoadError struct {
	ConstructID string
	Err         error
}

func (e *CacheLoadError) Error() string {
	return fmt.Sprintf("capsule load failed for %s: %v", e.ConstructID, e.Err)
}

func (e *CacheLoadError) Unwrap() error { return e.Err }

func NewCacheLoad(constructID string, err error) *CacheLoadError {
	return &CacheLoadError{ConstructID: constructID, Err: err}
}

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a sensible default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  250 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryWithBackoff executes a function with exponential backoff retry logic.
func RetryWithBackoff(config *RetryConfig, fn func() error) error {
	var err error
	delay := config.InitialDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		time.Sleep(delay)
		delay = time.Duration(float64(delay) * config.BackoffFactor)
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return fmt.Errorf("after %d attempts, last error: %w", config.MaxAttempts, err)
}
