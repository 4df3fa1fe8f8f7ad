package policy

import (
	"context"

	"github.com/diewo77/scanpos/gate"
)

// Ownable is implemented by models that record the user who created them.
type Ownable interface {
	GetUserID() uint
}

// OwnershipPolicy restricts the listed actions to the resource owner. Other
// actions pass, since the profile check already allowed them.
type OwnershipPolicy struct {
	guarded map[gate.Action]bool
}

func NewOwnershipPolicy(guarded ...gate.Action) *OwnershipPolicy {
	p := &OwnershipPolicy{guarded: make(map[gate.Action]bool, len(guarded))}
	for _, a := range guarded {
		p.guarded[a] = true
	}
	return p
}

func (p *OwnershipPolicy) Can(_ context.Context, userID uint, action gate.Action, resource any) bool {
	if !p.guarded[action] {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == userID
}

// AdminBypassPolicy lets admins through before consulting inner.
type AdminBypassPolicy struct {
	inner   gate.Policy[uint]
	isAdmin func(ctx context.Context, userID uint) bool
}

func NewAdminBypassPolicy(inner gate.Policy[uint], isAdmin func(ctx context.Context, userID uint) bool) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner, isAdmin: isAdmin}
}

func (p *AdminBypassPolicy) Can(ctx context.Context, userID uint, action gate.Action, resource any) bool {
	if p.isAdmin(ctx, userID) {
		return true
	}
	return p.inner.Can(ctx, userID, action, resource)
}
