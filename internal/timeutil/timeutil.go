// Package timeutil resolves local civil time against the configured
// school timezone. All calculations go through a time.Location so DST
// shifts are handled by the zone database, never by a fixed offset.
package timeutil

import "time"

// CutoffHour is the local civil hour at which lingering open sessions
// are force-closed.
const CutoffHour = 23

// LocalDate is a calendar date in the school timezone.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// LocalDateOf returns the calendar date of the instant in loc.
func LocalDateOf(instant time.Time, loc *time.Location) LocalDate {
	y, m, d := instant.In(loc).Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// SameLocalDay reports whether two instants fall on the same calendar
// day in loc.
func SameLocalDay(a, b time.Time, loc *time.Location) bool {
	return LocalDateOf(a, loc) == LocalDateOf(b, loc)
}

// LocalCutoffInstant returns the absolute instant of 23:00 local civil
// time on the given date. time.Date resolves the UTC offset in effect
// at that wall time on that date, which keeps the result correct
// across DST transitions.
func LocalCutoffInstant(date LocalDate, loc *time.Location) time.Time {
	return time.Date(date.Year, date.Month, date.Day, CutoffHour, 0, 0, 0, loc)
}

// CutoffFor is the cutoff instant of the calendar day the run instant
// falls on, in loc.
func CutoffFor(runInstant time.Time, loc *time.Location) time.Time {
	return LocalCutoffInstant(LocalDateOf(runInstant, loc), loc)
}

// StartOfLocalDay returns midnight local time of the instant's day.
func StartOfLocalDay(instant time.Time, loc *time.Location) time.Time {
	d := LocalDateOf(instant, loc)
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Clock supplies the current instant; injectable for tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always reports the same instant.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time { return c.Instant }
