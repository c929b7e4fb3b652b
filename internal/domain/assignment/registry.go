package assignment

import (
	"context"
	"sync"
)

// OwnershipArgs identify the CRM record whose ownership routed a booking.
type OwnershipArgs struct {
	RecordType            string
	TeamMemberEmail       string
	RoutingFormResponseID int64
}

// OwnershipResult carries the CRM's own reason kind and rendered text.
// A nil result means the handler has nothing to record.
type OwnershipResult struct {
	Enum ReasonEnum
	Text string
}

type OwnershipHandler interface {
	ResolveOwnership(ctx context.Context, args OwnershipArgs) (*OwnershipResult, error)
}

type OwnershipHandlerFunc func(ctx context.Context, args OwnershipArgs) (*OwnershipResult, error)

func (f OwnershipHandlerFunc) ResolveOwnership(ctx context.Context, args OwnershipArgs) (*OwnershipResult, error) {
	return f(ctx, args)
}

// OwnershipRegistry maps a CRM app slug to its ownership handler. Lookups
// for unregistered slugs return nil, which callers treat as a no-op.
type OwnershipRegistry struct {
	mu       sync.RWMutex
	handlers map[string]OwnershipHandler
}

func NewOwnershipRegistry() *OwnershipRegistry {
	return &OwnershipRegistry{handlers: make(map[string]OwnershipHandler)}
}

func (r *OwnershipRegistry) Register(appSlug string, handler OwnershipHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[appSlug] = handler
}

func (r *OwnershipRegistry) Lookup(appSlug string) OwnershipHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[appSlug]
}
