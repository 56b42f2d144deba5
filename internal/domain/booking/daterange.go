package booking

import (
	"fmt"
	"time"

	"github.com/rentify/service-booking/internal/platform/apperror"
)

// DateLayout is the wire format for rental dates.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	start time.Time
	end   time.Time
}

// DateOf returns the calendar day of t, in t's location, as a UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDateRange builds a range from two days. start must not be after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	s, e := DateOf(start), DateOf(end)
	if s.After(e) {
		return DateRange{}, apperror.NewInvariantViolation("start date must be on or before end date")
	}
	return DateRange{start: s, end: e}, nil
}

// ParseDateRange parses two YYYY-MM-DD dates.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, apperror.NewValidationError(fmt.Sprintf("invalid start date %q", start))
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, apperror.NewValidationError(fmt.Sprintf("invalid end date %q", end))
	}
	return NewDateRange(s, e)
}

func (r DateRange) Start() time.Time { return r.start }
func (r DateRange) End() time.Time { return r.end }
func (r DateRange) IsZero() bool { return r.start.IsZero() && r.end.IsZero() }

const secondsPerDay = 24 * 60 * 60

// Days is the inclusive number of rental days. Both bounds are UTC midnights,
// so the count comes from Unix seconds; time.Duration saturates after ~292 years.
func (r DateRange) Days() int {
	return int((r.end.Unix()-r.start.Unix())/secondsPerDay) + 1
}

// exclusiveEnd is the comparison bound used by Overlaps. The end day is the
// handover day, except for single-day ranges which occupy their one day.
func (r DateRange) exclusiveEnd() time.Time {
	if r.end.After(r.start) {
		return r.end
	}
	return r.start.AddDate(0, 0, 1)
}

// Overlaps reports whether two ranges conflict: start < other.end && other.start < end.
// A range ending on the day another starts does not conflict.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.start.Before(other.exclusiveEnd()) && other.start.Before(r.exclusiveEnd())
}

// Contains reports whether day falls inside the inclusive range.
func (r DateRange) Contains(day time.Time) bool {
	d := DateOf(day)
	return !d.Before(r.start) && !d.After(r.end)
}

// ExtendBy returns the range with its end moved days later.
func (r DateRange) ExtendBy(days int) DateRange {
	return DateRange{start: r.start, end: r.end.AddDate(0, 0, days)}
}

func (r DateRange) String() string {
	return r.start.Format(DateLayout) + ".." + r.end.Format(DateLayout)
}
