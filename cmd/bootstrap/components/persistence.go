package components

import (
	"schedcore/internal/infra/calendar"
	"schedcore/internal/infra/db"
	"schedcore/internal/infra/repository"
	"schedcore/internal/infra/uow"
	"schedcore/internal/usecase/commands"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		// UnitOfWork
		uow.NewPostgresUoW,
		// Pool-backed readers for the command side
		fx.Annotate(
			repository.NewEventTypeRepository,
			fx.As(new(commands.EventTypeReader)),
		),
		fx.Annotate(
			repository.NewUserRepository,
			fx.As(new(commands.UserReader)),
		),
		fx.Annotate(
			repository.NewCredentialRepository,
			fx.As(new(commands.CredentialReader)),
		),
		fx.Annotate(
			repository.NewSelectedCalendarRepository,
			fx.As(new(commands.SelectedCalendarReader)),
		),
		fx.Annotate(
			repository.NewPaymentRepository,
			fx.As(new(commands.PaymentReader)),
		),
		fx.Annotate(
			repository.NewRoutingFormRepository,
			fx.As(new(commands.RoutingFormReader)),
		),
		// Calendar provider
		fx.Annotate(
			calendar.NewGoogleClient,
			fx.As(new(commands.CalendarService)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
