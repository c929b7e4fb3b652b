package repository

import (
	"context"

	"schedcore/internal/domain/payment"
	"schedcore/internal/infra/db"
)

const paymentColumns = `id, uid, booking_id, amount, currency, external_id,
	success, refunded, data, payment_option`

type PaymentRepository struct {
	db db.DBTX
}

func NewPaymentRepository(dbtx db.DBTX) *PaymentRepository {
	return &PaymentRepository{db: dbtx}
}

func (r *PaymentRepository) FindByIDForUpdate(ctx context.Context, id int64) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

func (r *PaymentRepository) FindByExternalID(ctx context.Context, externalID string) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_id = $1`
	return r.scanOne(ctx, query, externalID)
}

func (r *PaymentRepository) scanOne(ctx context.Context, query string, arg any) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.UID, &p.BookingID, &p.Amount, &p.Currency, &p.ExternalID,
		&p.Success, &p.Refunded, &p.Data, &p.Option,
	)
	if err != nil {
		return nil, classifyErr("failed to find payment", err)
	}
	return &p, nil
}

func (r *PaymentRepository) MarkSuccess(ctx context.Context, id int64, data []byte) error {
	_, err := r.db.Exec(ctx,
		`UPDATE payments SET success = true, data = $2 WHERE id = $1`, id, data)
	if err != nil {
		return classifyErr("failed to mark payment success", err)
	}
	return nil
}
