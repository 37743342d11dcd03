// Package hktime normalizes every timestamp the service touches to the
// operator's fixed UTC+8 offset. All duration comparisons go through Now
// so that the cancellation window and reminder offsets are computed
// against the same clock the reservations were created with.
package hktime

import (
	"fmt"
	"time"
)

// Zone is the single fixed offset the operator serves. Kept as one named
// value so a future multi-timezone rollout touches exactly one place.
var Zone = time.FixedZone("UTC+8", 8*60*60)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
	// Route arrival times carry seconds.
	clockSecondsLayout = "15:04:05"
)

// Now returns the current instant expressed in Zone.
func Now() time.Time {
	return time.Now().In(Zone)
}

// Combine merges a calendar date ("2006-01-02") and a wall-clock time
// ("15:04" or "15:04:05") into a single absolute instant in Zone.
func Combine(dateStr, clockStr string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, dateStr, Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return CombineClock(day, clockStr)
}

// CombineClock merges the calendar day of date (interpreted in Zone) with
// a wall-clock string. Used both at reservation creation and when turning
// a stop's "HH:MM:SS" arrival entry into an absolute instant.
func CombineClock(date time.Time, clockStr string) (time.Time, error) {
	clock, err := time.Parse(clockSecondsLayout, clockStr)
	if err != nil {
		clock, err = time.Parse(clockLayout, clockStr)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clockStr, err)
	}

	d := date.In(Zone)
	return time.Date(d.Year(), d.Month(), d.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, Zone), nil
}
