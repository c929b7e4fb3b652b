package response

import (
	"schedcore/internal/usecase/commands"
	"schedcore/internal/usecase/queries"
)

type ReassignmentResponse struct {
	BookingID      int64  `json:"booking_id"`
	PreviousUserID int64  `json:"previous_user_id,omitempty"`
	NewUserID      int64  `json:"new_user_id"`
	Reason         string `json:"reason"`
	// SyncPending reports that the local change committed but the provider
	// calendar has not been updated yet.
	SyncPending bool `json:"sync_pending,omitempty"`
}

func FromReassignmentResult(r *commands.ReassignmentResult, syncPending bool) *ReassignmentResponse {
	return &ReassignmentResponse{
		BookingID:      r.BookingID,
		PreviousUserID: r.PreviousUserID,
		NewUserID:      r.NewUserID,
		Reason:         r.ReasonText,
		SyncPending:    syncPending,
	}
}

type BookingResponse struct {
	*queries.BookingView
}

func FromBookingView(v *queries.BookingView) *BookingResponse {
	return &BookingResponse{BookingView: v}
}

type AssignmentReasonListResponse struct {
	Reasons []queries.AssignmentReasonView `json:"reasons"`
}

// AssignmentReasonRecordedResponse reports whether a reason row was written;
// recorded=false is a deliberate no-op, not an error.
type AssignmentReasonRecordedResponse struct {
	Recorded bool   `json:"recorded"`
	Text     string `json:"text,omitempty"`
}

func FromRecordResult(r *commands.RecordResult) *AssignmentReasonRecordedResponse {
	return &AssignmentReasonRecordedResponse{Recorded: r.Recorded, Text: r.Text}
}
