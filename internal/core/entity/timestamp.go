package entity

import "time"

// TimestampLayout is the persisted creation/modification stamp format.
// Values are local time, zero padded, and stored as text on both halves.
const TimestampLayout = "2006-01-02 15:04:05"

// Clock returns the current time. Coordinators take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the wall clock in the process' local zone.
func SystemClock() time.Time { return time.Now() }

// Stamp formats t in local time using TimestampLayout.
func Stamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// ParseStamp parses a persisted stamp in the local zone.
func ParseStamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}
