package assignment

import (
	"fmt"
	"strings"
	"time"
)

type ReasonEnum string

const (
	ReasonRoutingFormRouting ReasonEnum = "ROUTING_FORM_ROUTING"
	ReasonCRMOwnership       ReasonEnum = "CRM_OWNERSHIP"
	ReasonReassigned         ReasonEnum = "REASSIGNED"
)

// Reason rows are append-only: a booking accumulates one row per assignment
// event and no row is ever updated in place.
type Reason struct {
	ID        int64
	BookingID int64
	Enum      ReasonEnum
	Text      string
	CreatedAt time.Time
}

type AttributeMatch struct {
	Name  string
	Value string
}

// BuildRoutingFormText renders the attribute matches that routed a booking
// to its organizer, e.g. "Region: EMEA, Tier: Enterprise".
func BuildRoutingFormText(matches []AttributeMatch) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("%s: %s", m.Name, m.Value))
	}
	return strings.Join(parts, ", ")
}

// BuildReassignmentText renders the audit line for a manual reassignment.
// The username falls back to "team member" when the reassigner has none.
func BuildReassignmentText(username, reason string) string {
	if username == "" {
		username = "team member"
	}
	text := "Reassigned by: " + username
	if reason != "" {
		text += ". Reason: " + reason
	}
	return text
}
