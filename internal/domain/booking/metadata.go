package booking

import (
	"bytes"
	"encoding/json"

	"schedcore/internal/pkg/errs"
)

// Metadata is the typed replacement for the former open key-value bag.
// Unknown keys are rejected at the repository boundary so shape drift
// surfaces as an error instead of silently persisting.
type Metadata struct {
	VideoCallURL        string             `json:"videoCallUrl,omitempty"`
	IsExternalEvent     bool               `json:"isExternalEvent,omitempty"`
	CalendarSyncPending bool               `json:"calendarSyncPending,omitempty"`
	RecurrencePattern   *RecurrencePattern `json:"recurrencePattern,omitempty"`
}

func ParseMetadata(raw []byte) (Metadata, error) {
	var m Metadata
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return m, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return Metadata{}, errs.Wrap(err, "invalid booking metadata shape")
	}
	return m, nil
}

func (m Metadata) MarshalBytes() ([]byte, error) {
	return json.Marshal(m)
}

func (m Metadata) Equal(other Metadata) bool {
	if m.VideoCallURL != other.VideoCallURL ||
		m.IsExternalEvent != other.IsExternalEvent ||
		m.CalendarSyncPending != other.CalendarSyncPending {
		return false
	}
	switch {
	case m.RecurrencePattern == nil && other.RecurrencePattern == nil:
		return true
	case m.RecurrencePattern == nil || other.RecurrencePattern == nil:
		return false
	default:
		return *m.RecurrencePattern == *other.RecurrencePattern
	}
}
