// Package retention derives "retain until" dates for personnel file entries
// and for whole personnel files.
package retention

import (
	"fmt"
	"time"
)

// Trigger is the event a retention period is counted from.
type Trigger string

const (
	TriggerCreation     Trigger = "CREATION"
	TriggerExit         Trigger = "EXIT"
	TriggerDocumentDate Trigger = "DOCUMENT_DATE"
)

// ParseTrigger validates a stored trigger value.
func ParseTrigger(s string) (Trigger, error) {
	switch t := Trigger(s); t {
	case TriggerCreation, TriggerExit, TriggerDocumentDate:
		return t, nil
	default:
		return "", fmt.Errorf("unknown retention trigger %q", s)
	}
}

// Rule is the retention policy of a file category. Years == 0 means the
// record is kept indefinitely.
type Rule struct {
	Years   int
	Trigger Trigger
}

// Events carries the dates a rule may be counted from.
type Events struct {
	Created      time.Time
	DocumentDate *time.Time
	Closed       *time.Time
}

// Until returns the retention date for one entry, or nil when retention is
// unbounded or the trigger event (file closure) has not happened yet.
func Until(rule Rule, ev Events) *time.Time {
	if rule.Years <= 0 {
		return nil
	}

	switch rule.Trigger {
	case TriggerExit:
		if ev.Closed == nil {
			return nil
		}
		return addYears(*ev.Closed, rule.Years)
	case TriggerCreation:
		return addYears(ev.Created, rule.Years)
	case TriggerDocumentDate:
		if ev.DocumentDate != nil {
			return addYears(*ev.DocumentDate, rule.Years)
		}
		return addYears(ev.Created, rule.Years)
	default:
		return nil
	}
}

// Entry is the retention-relevant view of a filed entry.
type Entry struct {
	Rule         Rule
	Created      time.Time
	DocumentDate *time.Time
}

// FileUntil returns the latest retention date across entries. When the file
// is closed and no entry yields a date, it falls back to closed plus
// fallbackYears; a fallbackYears of zero disables the fallback.
func FileUntil(closed *time.Time, entries []Entry, fallbackYears int) *time.Time {
	var latest *time.Time

	for _, e := range entries {
		d := Until(e.Rule, Events{Created: e.Created, DocumentDate: e.DocumentDate, Closed: closed})
		if d != nil && (latest == nil || d.After(*latest)) {
			latest = d
		}
	}

	if latest == nil && closed != nil && fallbackYears > 0 {
		return addYears(*closed, fallbackYears)
	}
	return latest
}

// Date truncates t to a calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addYears adds calendar years to the date of t, clamping to the last day of
// the month so that Feb 29 plus one year is Feb 28.
func addYears(t time.Time, years int) *time.Time {
	y, m, d := t.Date()
	y += years

	if last := daysIn(y, m); d > last {
		d = last
	}

	out := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &out
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
