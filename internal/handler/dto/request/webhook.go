package request

// PaymentWebhookRequest is the normalized body posted by the payment
// provider's webhook relay. Payload is passed through onto the payment row.
type PaymentWebhookRequest struct {
	ExternalID string         `json:"external_id" binding:"required"`
	Payload    map[string]any `json:"payload"`
}
