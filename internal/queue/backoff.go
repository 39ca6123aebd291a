package queue

import (
	"time"

	"sevalink/internal/constants"
)

// BackoffSchedule maps a retry count onto a fixed ladder of delays,
// clamped to the last tier. An item with retryCount n becomes eligible
// DelayFor(n) after its last attempt (or its creation, if never attempted).
type BackoffSchedule struct {
	delays []time.Duration
}

// NewBackoffSchedule builds a schedule from delays in seconds. An empty
// slice falls back to the default ladder.
func NewBackoffSchedule(delaysSec []int) BackoffSchedule {
	if len(delaysSec) == 0 {
		delaysSec = constants.RetryDelaysSec
	}
	delays := make([]time.Duration, len(delaysSec))
	for i, s := range delaysSec {
		delays[i] = time.Duration(s) * time.Second
	}
	return BackoffSchedule{delays: delays}
}

// DefaultBackoffSchedule returns the fixed production ladder.
func DefaultBackoffSchedule() BackoffSchedule {
	return NewBackoffSchedule(constants.RetryDelaysSec)
}

// DelayFor returns the minimum wait before the next attempt for an item
// with the given retry count.
func (s BackoffSchedule) DelayFor(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount >= len(s.delays) {
		retryCount = len(s.delays) - 1
	}
	return s.delays[retryCount]
}

// NextAttemptAt computes the eligibility time in epoch milliseconds for an
// item whose last attempt (or creation) happened at baseMs.
func (s BackoffSchedule) NextAttemptAt(baseMs int64, retryCount int) int64 {
	return baseMs + s.DelayFor(retryCount).Milliseconds()
}
