package api

import (
	"math/rand"
	"time"
)

// BackoffStrategy selects how the retry delay grows across attempts.
type BackoffStrategy int

const (
	// BackoffConstant waits Base between every attempt.
	BackoffConstant BackoffStrategy = iota
	// BackoffLinear waits Base * attempt.
	BackoffLinear
	// BackoffExponential waits Base * 2^(attempt-1).
	BackoffExponential
)

// BackoffPolicy describes the delay between retry attempts.
type BackoffPolicy struct {
	Strategy BackoffStrategy

	// Base is the delay for the first retry.
	Base time.Duration

	// Max caps the computed delay; zero means no cap.
	Max time.Duration

	// Jitter, when true, scales each delay by a random factor in
	// [0.5, 1.5) to spread out contending retries. Off by default so retry
	// schedules are deterministic.
	Jitter bool
}

// Delay returns the sleep before retrying after the given 1-based attempt.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if p.Base <= 0 || attempt < 1 {
		return 0
	}

	var d time.Duration
	switch p.Strategy {
	case BackoffLinear:
		d = p.Base * time.Duration(attempt)
	case BackoffExponential:
		d = p.Base << uint(attempt-1)
	default:
		d = p.Base
	}

	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	if p.Jitter {
		d = time.Duration(float64(d) * (0.5 + rand.Float64()))
		if p.Max > 0 && d > p.Max {
			d = p.Max
		}
	}
	return d
}
