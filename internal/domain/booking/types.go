package booking

import "schedcore/internal/pkg/errs"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusCancelled Status = "CANCELLED"
	StatusRejected  Status = "REJECTED"
)

// Terminal statuses admit no further mutation except audit records.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusRejected
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", errs.Newf("unknown booking status %q", raw)
	}
	return s, nil
}

type SchedulingType string

const (
	SchedulingRoundRobin SchedulingType = "ROUND_ROBIN"
	SchedulingCollective SchedulingType = "COLLECTIVE"
	SchedulingManaged    SchedulingType = "MANAGED"
)

// HostAssignable reports whether the organizer role can be moved between
// hosts after booking. Managed event types lock the organizer to the member
// the child type belongs to.
func (t SchedulingType) HostAssignable() bool {
	return t == SchedulingRoundRobin || t == SchedulingCollective
}
