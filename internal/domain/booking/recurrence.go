package booking

import (
	"strings"

	"github.com/teambition/rrule-go"
)

// RecurringEventIDPrefix groups instances of externally-synced recurring
// events without colliding with internally generated recurring ids.
const RecurringEventIDPrefix = "recur_"

// RecurrencePattern holds the iCalendar recurrence components as reported by
// the provider. Values are stored without their "KEY:" prefix.
type RecurrencePattern struct {
	RRule  string `json:"RRULE,omitempty"`
	ExRule string `json:"EXRULE,omitempty"`
	RDate  string `json:"RDATE,omitempty"`
	ExDate string `json:"EXDATE,omitempty"`
}

func (p RecurrencePattern) IsZero() bool {
	return p == RecurrencePattern{}
}

// ParseRecurrenceLines extracts the known recurrence components from
// provider-reported lines such as "RRULE:FREQ=WEEKLY;COUNT=4". Unknown
// component keys are ignored; an RRULE that does not parse as a valid rule
// is dropped rather than stored.
func ParseRecurrenceLines(lines []string) RecurrencePattern {
	var p RecurrencePattern
	for _, line := range lines {
		key, value, found := strings.Cut(line, ":")
		if !found || key == "" {
			continue
		}
		switch key {
		case "RRULE":
			if _, err := rrule.StrToRRule(value); err != nil {
				continue
			}
			p.RRule = value
		case "EXRULE":
			p.ExRule = value
		case "RDATE":
			p.RDate = value
		case "EXDATE":
			p.ExDate = value
		}
	}
	return p
}

// ExternalRecurringEventID derives the grouping id for a recurring external
// event from its provider event id.
func ExternalRecurringEventID(externalID string) string {
	return RecurringEventIDPrefix + externalID
}
