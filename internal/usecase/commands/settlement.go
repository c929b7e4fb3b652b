package commands

import (
	"context"
	"encoding/json"
	"log/slog"

	"schedcore/internal/domain/booking"
	"schedcore/internal/domain/payment"
	"schedcore/internal/infra"
	"schedcore/internal/pkg/clock"
	"schedcore/internal/pkg/errs"
	"schedcore/internal/pkg/metrics"
	"schedcore/internal/usecase/shared"
)

const defaultCalendarID = "primary"

type SettlementResult struct {
	PaymentID int64
	BookingID int64
	// Replayed marks a webhook redelivery that found the payment already
	// settled; no state changed.
	Replayed bool
	// Confirmed marks that settlement also moved the booking to ACCEPTED.
	Confirmed bool
}

type SettlementCommands interface {
	Settle(ctx context.Context, paymentID int64, payload map[string]any) (*SettlementResult, error)
	// SettleByExternalRef resolves the provider's payment reference first,
	// for webhooks that only carry their own id.
	SettleByExternalRef(ctx context.Context, externalID string, payload map[string]any) (*SettlementResult, error)
}

type settlementUseCaseImpl struct {
	uow         shared.UnitOfWork
	payments    PaymentReader
	eventTypes  EventTypeReader
	credentials CredentialReader
	calendar    CalendarService
	metrics     *metrics.Metrics
	clock       clock.Clock
}

func NewSettlementUseCase(
	uow shared.UnitOfWork,
	payments PaymentReader,
	eventTypes EventTypeReader,
	credentials CredentialReader,
	calendar CalendarService,
	m *metrics.Metrics,
	clk clock.Clock,
) SettlementCommands {
	return &settlementUseCaseImpl{
		uow:         uow,
		payments:    payments,
		eventTypes:  eventTypes,
		credentials: credentials,
		calendar:    calendar,
		metrics:     m,
		clock:       clk,
	}
}

func (s *settlementUseCaseImpl) SettleByExternalRef(ctx context.Context, externalID string, payload map[string]any) (*SettlementResult, error) {
	p, err := s.payments.FindByExternalID(ctx, externalID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrPaymentNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return s.Settle(ctx, p.ID, payload)
}

func (s *settlementUseCaseImpl) Settle(ctx context.Context, paymentID int64, payload map[string]any) (*SettlementResult, error) {
	var (
		result *SettlementResult
		b      *booking.Booking
		et     *booking.EventType
		hasRef bool
	)
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		p, err := tx.Payments().FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.ErrPaymentNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		if err := p.CanSettle(); err != nil {
			if errs.Is(err, payment.ErrAlreadySettled) {
				// Webhook redelivery: acknowledge without touching state.
				slog.Warn("payment already settled, ignoring duplicate settlement",
					"payment_id", p.ID, "booking_id", p.BookingID)
				result = &SettlementResult{PaymentID: p.ID, BookingID: p.BookingID, Replayed: true}
				return nil
			}
			return err
		}

		b, err = tx.Bookings().FindByIDForUpdate(ctx, p.BookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, errs.ErrDataIntegrity)
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		if b.EventTypeID != 0 {
			et, err = s.eventTypes.FindWithHosts(ctx, b.EventTypeID)
			if err != nil && !infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}

		merged, err := p.MergeData(payload)
		if err != nil {
			return errs.Mark(err, errs.ErrDataIntegrity)
		}
		if err := tx.Payments().MarkSuccess(ctx, p.ID, merged); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		// The booking stays PENDING when the event type wants a manual
		// confirmation step after payment.
		upd := shared.SettlementUpdate{Paid: true}
		confirmed := false
		if b.Status == booking.StatusPending && et != nil && !et.RequiresConfirmation {
			accepted := booking.StatusAccepted
			upd.Status = &accepted
			confirmed = true
		}
		if err := tx.Bookings().UpdateSettlement(ctx, b.ID, upd); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		b.Paid = true
		if confirmed {
			b.Status = booking.StatusAccepted
		}

		if err := s.enqueueSettlementNotice(ctx, tx, b, p, confirmed); err != nil {
			return err
		}

		if _, err := tx.Bookings().FindCalendarReference(ctx, b.ID); err == nil {
			hasRef = true
		} else if !infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		result = &SettlementResult{PaymentID: p.ID, BookingID: b.ID, Confirmed: confirmed}
		return nil
	})
	if err != nil {
		s.metrics.Settlements.WithLabelValues("error").Inc()
		return nil, err
	}

	if result.Replayed {
		s.metrics.Settlements.WithLabelValues("noop").Inc()
		return result, nil
	}

	if result.Confirmed && !hasRef {
		// Settlement is committed; a provider failure here must not bounce
		// the webhook, so the booking is only flagged for later sync.
		if err := s.pushCalendarEvent(ctx, b, et); err != nil {
			slog.Error("calendar event creation failed after settlement",
				"booking_id", b.ID, "error", err.Error())
			s.markSyncPending(ctx, b)
		}
	}

	s.metrics.Settlements.WithLabelValues("ok").Inc()
	return result, nil
}

func (s *settlementUseCaseImpl) enqueueSettlementNotice(ctx context.Context, tx shared.Tx, b *booking.Booking, p *payment.Payment, confirmed bool) error {
	payload, err := json.Marshal(map[string]any{
		"booking_uid": b.UID,
		"payment_uid": p.UID,
		"type":        "booking_paid",
	})
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if err := tx.Notifications().CreateJob(ctx, "email", "booking_paid", payload, s.clock.Now()); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	// A paid booking still waiting for manual confirmation asks the organizer
	// to act instead of announcing the confirmed meeting.
	if !confirmed && b.Status == booking.StatusPending {
		payload, err := json.Marshal(map[string]any{
			"booking_uid": b.UID,
			"user_email":  b.UserEmail,
			"type":        "booking_confirmation_requested",
		})
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := tx.Notifications().CreateJob(ctx, "email", "booking_confirmation_requested", payload, s.clock.Now()); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
	}
	return nil
}

func (s *settlementUseCaseImpl) pushCalendarEvent(ctx context.Context, b *booking.Booking, et *booking.EventType) error {
	cred, err := s.credentials.FindForUser(ctx, b.UserID, googleCredentialType)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			slog.Info("skipping calendar event creation, organizer has no calendar credential",
				"booking_id", b.ID, "user_id", b.UserID)
			return nil
		}
		return err
	}

	organizer := booking.Host{UserID: b.UserID, Email: b.UserEmail}
	if et != nil {
		if h := et.HostByUserID(b.UserID); h != nil {
			organizer = *h
		}
	}

	ref, err := s.calendar.CreateEvent(ctx, cred, defaultCalendarID, buildCalendarInput(b, organizer))
	if err != nil {
		return err
	}

	err = s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Bookings().AddCalendarReference(ctx, b.ID, *ref)
	})
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}

func (s *settlementUseCaseImpl) markSyncPending(ctx context.Context, b *booking.Booking) {
	m := b.Metadata
	m.CalendarSyncPending = true
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Bookings().UpdateMetadata(ctx, b.ID, m)
	})
	if err != nil {
		slog.Error("failed to flag booking for calendar sync retry",
			"booking_id", b.ID, "error", err.Error())
		return
	}
	b.Metadata = m
}
