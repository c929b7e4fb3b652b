//go:build unit

package booking_test

import (
	"testing"

	"schedcore/internal/domain/booking"

	"github.com/stretchr/testify/assert"
)

func TestParseRecurrenceLines(t *testing.T) {
	t.Run("full component set", func(t *testing.T) {
		p := booking.ParseRecurrenceLines([]string{
			"RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=10",
			"EXDATE:20260302T100000Z",
			"RDATE:20260401T100000Z",
		})
		assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO;COUNT=10", p.RRule)
		assert.Equal(t, "20260302T100000Z", p.ExDate)
		assert.Equal(t, "20260401T100000Z", p.RDate)
	})

	t.Run("invalid rrule dropped", func(t *testing.T) {
		p := booking.ParseRecurrenceLines([]string{"RRULE:FREQ=SOMETIMES"})
		assert.Empty(t, p.RRule)
		assert.True(t, p.IsZero())
	})

	t.Run("unknown keys ignored", func(t *testing.T) {
		p := booking.ParseRecurrenceLines([]string{"DTSTART:20260301T100000Z", "no-colon-line"})
		assert.True(t, p.IsZero())
	})
}

func TestExternalRecurringEventID(t *testing.T) {
	assert.Equal(t, "recur_evt123", booking.ExternalRecurringEventID("evt123"))
}
