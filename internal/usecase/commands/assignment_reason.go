package commands

import (
	"context"
	"log/slog"

	"schedcore/internal/domain/assignment"
	"schedcore/internal/infra"
	"schedcore/internal/pkg/errs"
	"schedcore/internal/usecase/shared"
)

// RecordResult reports whether an assignment reason row was written; most
// no-record paths are deliberate no-ops, not failures.
type RecordResult struct {
	Recorded bool
	Text     string
}

type AssignmentReasonCommands interface {
	// RecordRoutingFormRoute records which attribute matches routed the
	// booking to its organizer. Missing responses, routes without an
	// attribute query, and empty match sets record nothing.
	RecordRoutingFormRoute(ctx context.Context, bookingID, responseID int64) (*RecordResult, error)
	// RecordCRMOwnership asks the CRM app registered under appSlug why it
	// owns the routed contact. Unregistered slugs record nothing.
	RecordCRMOwnership(ctx context.Context, bookingID int64, appSlug string, args assignment.OwnershipArgs) (*RecordResult, error)
}

type assignmentReasonUseCaseImpl struct {
	uow          shared.UnitOfWork
	routingForms RoutingFormReader
	eventTypes   EventTypeReader
	registry     *assignment.OwnershipRegistry
}

func NewAssignmentReasonUseCase(
	uow shared.UnitOfWork,
	routingForms RoutingFormReader,
	eventTypes EventTypeReader,
	registry *assignment.OwnershipRegistry,
) AssignmentReasonCommands {
	return &assignmentReasonUseCaseImpl{
		uow:          uow,
		routingForms: routingForms,
		eventTypes:   eventTypes,
		registry:     registry,
	}
}

func (a *assignmentReasonUseCaseImpl) RecordRoutingFormRoute(ctx context.Context, bookingID, responseID int64) (*RecordResult, error) {
	resp, err := a.routingForms.FindResponse(ctx, responseID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			slog.Debug("routing form response not found, nothing to record",
				"booking_id", bookingID, "response_id", responseID)
			return &RecordResult{}, nil
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	route := resp.ChosenRoute()
	if route == nil || len(route.AttributeFilters) == 0 {
		return &RecordResult{}, nil
	}

	result := &RecordResult{}
	err = a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.ErrBookingNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		et, err := a.eventTypes.FindWithHosts(ctx, b.EventTypeID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if et.TeamID == nil {
			return nil
		}

		attrs, err := a.routingForms.UserAttributes(ctx, b.UserID, *et.TeamID)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		matches := assignment.MatchOrganizerAttributes(route, attrs)
		if len(matches) == 0 {
			return nil
		}

		text := assignment.BuildRoutingFormText(matches)
		if _, err := tx.AssignmentReasons().Create(ctx, b.ID, assignment.ReasonRoutingFormRouting, text); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		result.Recorded = true
		result.Text = text
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *assignmentReasonUseCaseImpl) RecordCRMOwnership(ctx context.Context, bookingID int64, appSlug string, args assignment.OwnershipArgs) (*RecordResult, error) {
	handler := a.registry.Lookup(appSlug)
	if handler == nil {
		slog.Debug("no ownership handler registered for app", "app_slug", appSlug)
		return &RecordResult{}, nil
	}

	res, err := handler.ResolveOwnership(ctx, args)
	if err != nil {
		return nil, errs.Wrap(err, "ownership handler failed")
	}
	if res == nil {
		return &RecordResult{}, nil
	}

	err = a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, err := tx.AssignmentReasons().Create(ctx, bookingID, res.Enum, res.Text); err != nil {
			if infra.IsKind(err, infra.KindForeignKeyViolated) {
				return errs.ErrBookingNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &RecordResult{Recorded: true, Text: res.Text}, nil
}
