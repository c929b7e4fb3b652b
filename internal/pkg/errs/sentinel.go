package errs

import "errors"

// Domain-specific sentinel errors shared across usecase layers
var (
	// Booking errors
	ErrBookingNotFound      = errors.New("booking not found")
	ErrBookingTerminal      = errors.New("booking is in a terminal state")
	ErrBookingNotAssignable = errors.New("booking event type is not host-assignable")

	// Assignment errors
	ErrInvalidAssignment = errors.New("invalid assignment")
	ErrHostNotInPool     = errors.New("host is not in the event type host pool")
	ErrHostIsFixed       = errors.New("host is a fixed host")
	ErrHostDoubleBooked  = errors.New("host is double-booked for the time window")
	ErrAlreadyAssigned   = errors.New("host is already the organizer")
	ErrNoAvailableHost   = errors.New("no available host in pool")

	// Payment errors
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAlreadySettled  = errors.New("payment already settled")

	// Calendar / credential errors
	ErrCredentialNotFound       = errors.New("credential not found")
	ErrSelectedCalendarNotFound = errors.New("selected calendar not found")
	ErrCalendarSyncFailed       = errors.New("calendar sync failed")

	// Consistency errors
	ErrDataIntegrity           = errors.New("data integrity violation")
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
