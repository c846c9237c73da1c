// Package clock maps physical timestamps onto logical homework dates.
//
// A submission made before the cutover hour (default 03:00 local) still
// counts toward the previous calendar day, so a student finishing homework
// at 1 AM is not marked as submitting "tomorrow".
package clock

import (
	"fmt"
	"time"
)

// DateLayout is the logical date format stamped onto submissions.
const DateLayout = "2006-01-02"

// DefaultCutoverHour is the local hour at which a new logical day begins.
const DefaultCutoverHour = 3

// DefaultOffsetHours is the fixed regional UTC offset. The system serves a
// single region with no DST rules, so a fixed offset replaces a full
// timezone database.
const DefaultOffsetHours = 9

// Clock converts timestamps to logical dates using a fixed cutover hour and
// regional offset. The zero value is not usable; use New.
type Clock struct {
	cutoverHour int
	offset      *time.Location
}

// New returns a Clock with the given cutover hour (0..23) and UTC offset in
// hours.
func New(cutoverHour, offsetHours int) Clock {
	name := fmt.Sprintf("UTC+%d", offsetHours)
	if offsetHours < 0 {
		name = fmt.Sprintf("UTC%d", offsetHours)
	}
	return Clock{
		cutoverHour: cutoverHour,
		offset:      time.FixedZone(name, offsetHours*3600),
	}
}

// Default returns a Clock with the standard 03:00 cutover at UTC+9.
func Default() Clock {
	return New(DefaultCutoverHour, DefaultOffsetHours)
}

// LogicalDate returns the homework date the timestamp counts toward.
// A local hour strictly before the cutover belongs to the previous day; the
// exact cutover instant starts the new day.
func (c Clock) LogicalDate(t time.Time) string {
	local := t.In(c.offset)
	if local.Hour() < c.cutoverHour {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format(DateLayout)
}

// Deadline returns the instant at which submissions for the given logical
// date stop being accepted: the cutover hour on the following calendar day.
func (c Clock) Deadline(logicalDate string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, logicalDate, c.offset)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse logical date %q: %w", logicalDate, err)
	}
	return day.AddDate(0, 0, 1).Add(time.Duration(c.cutoverHour) * time.Hour), nil
}

// IsBeforeDeadline reports whether now is still within the submission window
// for the given logical date. Malformed dates are never before any deadline.
func (c Clock) IsBeforeDeadline(logicalDate string, now time.Time) bool {
	deadline, err := c.Deadline(logicalDate)
	if err != nil {
		return false
	}
	return now.Before(deadline)
}
