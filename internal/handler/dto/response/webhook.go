package response

import "schedcore/internal/usecase/commands"

type SettlementResponse struct {
	PaymentID int64 `json:"payment_id"`
	BookingID int64 `json:"booking_id"`
	Replayed  bool  `json:"replayed"`
	Confirmed bool  `json:"confirmed"`
}

func FromSettlementResult(r *commands.SettlementResult) *SettlementResponse {
	return &SettlementResponse{
		PaymentID: r.PaymentID,
		BookingID: r.BookingID,
		Replayed:  r.Replayed,
		Confirmed: r.Confirmed,
	}
}

type SyncSummaryResponse struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Cancelled int `json:"cancelled"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func FromSyncSummary(s *commands.SyncSummary) *SyncSummaryResponse {
	return &SyncSummaryResponse{
		Created:   s.Created,
		Updated:   s.Updated,
		Cancelled: s.Cancelled,
		Skipped:   s.Skipped,
		Failed:    s.Failed,
	}
}
