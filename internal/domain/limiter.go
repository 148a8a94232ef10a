package domain

import "time"

// LimitDecision is the outcome of one login attempt check. ResetTime is only
// set when the attempt was denied.
type LimitDecision struct {
	Allowed           bool
	RemainingAttempts int
	ResetTime         time.Time
}
