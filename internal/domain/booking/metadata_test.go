//go:build unit

package booking_test

import (
	"testing"

	"schedcore/internal/domain/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	t.Run("known fields", func(t *testing.T) {
		raw := []byte(`{"videoCallUrl":"https://meet.example.com/x","isExternalEvent":true}`)
		m, err := booking.ParseMetadata(raw)
		require.NoError(t, err)
		assert.Equal(t, "https://meet.example.com/x", m.VideoCallURL)
		assert.True(t, m.IsExternalEvent)
		assert.Nil(t, m.RecurrencePattern)
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		raw := []byte(`{"videoCallUrl":"x","legacyField":1}`)
		_, err := booking.ParseMetadata(raw)
		assert.Error(t, err)
	})

	t.Run("empty and null both yield zero metadata", func(t *testing.T) {
		for _, raw := range [][]byte{nil, []byte("null")} {
			m, err := booking.ParseMetadata(raw)
			require.NoError(t, err)
			assert.Equal(t, booking.Metadata{}, m)
		}
	})

	t.Run("recurrence pattern round trip", func(t *testing.T) {
		src := booking.Metadata{
			IsExternalEvent:   true,
			RecurrencePattern: &booking.RecurrencePattern{RRule: "FREQ=WEEKLY;COUNT=4"},
		}
		raw, err := src.MarshalBytes()
		require.NoError(t, err)

		parsed, err := booking.ParseMetadata(raw)
		require.NoError(t, err)
		assert.True(t, parsed.Equal(src))
	})
}

func TestMetadataEqual(t *testing.T) {
	pattern := &booking.RecurrencePattern{RRule: "FREQ=DAILY"}

	t.Run("equal values", func(t *testing.T) {
		a := booking.Metadata{VideoCallURL: "x", RecurrencePattern: pattern}
		b := booking.Metadata{VideoCallURL: "x", RecurrencePattern: &booking.RecurrencePattern{RRule: "FREQ=DAILY"}}
		assert.True(t, a.Equal(b))
	})

	t.Run("sync marker differs", func(t *testing.T) {
		a := booking.Metadata{CalendarSyncPending: true}
		assert.False(t, a.Equal(booking.Metadata{}))
	})

	t.Run("one side missing pattern", func(t *testing.T) {
		a := booking.Metadata{RecurrencePattern: pattern}
		assert.False(t, a.Equal(booking.Metadata{}))
	})
}
