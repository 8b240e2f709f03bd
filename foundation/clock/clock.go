// Package clock provides context-aware sleeping and wall clock sanity
// checks against an NTP reference.
package clock

import (
	"context"
	"time"

	"github.com/beevik/ntp"
)

// SleepWithContext sleeps for the specified duration but unwinds early if
// the context is canceled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Drift queries the specified NTP host and returns the offset between the
// local wall clock and the reference. Block timestamps are ordered by wall
// clock time, so a node with heavy drift mints blocks other nodes reject.
func Drift(host string) (time.Duration, error) {
	rsp, err := ntp.Query(host)
	if err != nil {
		return 0, err
	}

	if err := rsp.Validate(); err != nil {
		return 0, err
	}

	return rsp.ClockOffset, nil
}
