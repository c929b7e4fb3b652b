package payment

import (
	"encoding/json"
	"errors"
)

var (
	ErrAlreadySettled = errors.New("payment already settled")
	ErrRefunded       = errors.New("payment was refunded")
)

type Option string

const (
	OptionOnBooking Option = "ON_BOOKING"
	OptionHold      Option = "HOLD"
)

// Payment is created pending (success=false) at checkout-session creation
// and flipped to success exactly once by the settlement handler.
type Payment struct {
	ID         int64
	UID        string
	BookingID  int64
	Amount     int64
	Currency   string
	ExternalID string
	Success    bool
	Refunded   bool
	Data       json.RawMessage
	Option     Option
}

// CanSettle is the idempotence boundary for webhook redelivery: an already
// successful payment must short-circuit before any side effect runs, and a
// refunded payment is never resurrected.
func (p *Payment) CanSettle() error {
	if p.Refunded {
		return ErrRefunded
	}
	if p.Success {
		return ErrAlreadySettled
	}
	return nil
}

// MergeData layers the provider's settlement payload over the payload stored
// at checkout, preserving keys the webhook does not resend.
func (p *Payment) MergeData(update map[string]any) (json.RawMessage, error) {
	merged := map[string]any{}
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &merged); err != nil {
			return nil, err
		}
	}
	for k, v := range update {
		merged[k] = v
	}
	return json.Marshal(merged)
}
