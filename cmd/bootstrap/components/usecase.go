package components

import (
	"schedcore/internal/domain/assignment"
	"schedcore/internal/pkg/clock"
	"schedcore/internal/pkg/metrics"
	"schedcore/internal/usecase/commands"
	"schedcore/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	metrics.NewDefault,
	assignment.NewOwnershipRegistry,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewReassignmentUseCase,
		commands.NewSettlementUseCase,
		commands.NewCalendarSyncUseCase,
		commands.NewAssignmentReasonUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
	),
)
