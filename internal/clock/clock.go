// Package clock supplies the time source and scheduling used by the timer.
package clock

import (
	"fmt"
	"time"
)

// MinWakeDelay bounds how soon the countdown may reschedule itself.
const MinWakeDelay = 16 * time.Millisecond

// Timer is a pending AfterFunc callback.
type Timer interface {
	Stop() bool
}

// Clock reports the current time and schedules deferred callbacks.
// Durations between two Now readings use the monotonic clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type system struct{}

// System returns the process clock.
func System() Clock {
	return system{}
}

func (system) Now() time.Time {
	return time.Now()
}

func (system) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NextWakeDelay returns the delay until the next whole-second boundary of now,
// never shorter than MinWakeDelay.
func NextWakeDelay(now time.Time) time.Duration {
	intoSecond := time.Duration(now.UnixNano() % int64(time.Second))
	if intoSecond < 0 {
		intoSecond += time.Second
	}
	delay := time.Second - intoSecond
	if delay < MinWakeDelay {
		return MinWakeDelay
	}
	return delay
}

// WholeSeconds returns floor((now - since) / 1s), or 0 when now is not after since.
func WholeSeconds(since, now time.Time) int {
	elapsed := now.Sub(since)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / time.Second)
}

// FormatSeconds renders a countdown as MM:SS. Negative values are overtime
// and render as -MM:SS counting up.
func FormatSeconds(remaining int) string {
	sign := ""
	if remaining < 0 {
		sign = "-"
		remaining = -remaining
	}
	return fmt.Sprintf("%s%02d:%02d", sign, remaining/60, remaining%60)
}
