// Package gate is a small authorization layer: subjects resolve to profiles
// holding "resource:action" permissions, and optional per-resource policies
// refine the decision once a concrete resource is loaded. It does not depend
// on any domain model.
package gate

import (
	"context"
	"fmt"
	"sync"
)

// Gate checks profile permissions first, then the policy registered for the
// resource type when a resource is given.
type Gate[U comparable] struct {
	resolver ProfileResolver[U]

	mu       sync.RWMutex
	policies map[string]Policy[U]
}

// New creates a gate backed by resolver.
func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver, policies: make(map[string]Policy[U])}
}

// Register sets the policy for a resource type, replacing any previous one.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.mu.Lock()
	g.policies[resourceType] = p
	g.mu.Unlock()
}

// Authorize returns nil when subject may perform action on the resource type
// (and on resource, when non-nil). Denials wrap ErrUnauthenticated or
// ErrForbidden; resolver failures are returned wrapped as they are.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, action Action, resourceType string, resource any) error {
	var zero U
	if subject == zero {
		return ErrUnauthenticated
	}
	profile, err := g.resolver.Resolve(ctx, subject)
	if err != nil {
		return fmt.Errorf("gate: resolve profile: %w", err)
	}
	if profile == nil {
		return ErrUnauthenticated
	}
	perm := NewPermission(resourceType, action)
	if !profile.HasPermission(perm) {
		return fmt.Errorf("%w: missing %s", ErrForbidden, perm)
	}
	if resource == nil {
		return nil
	}
	g.mu.RLock()
	policy, ok := g.policies[resourceType]
	g.mu.RUnlock()
	if ok && !policy.Can(ctx, subject, action, resource) {
		return fmt.Errorf("%w: %s denied by policy", ErrForbidden, perm)
	}
	return nil
}

// Can is Authorize as a bool.
func (g *Gate[U]) Can(ctx context.Context, subject U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, subject, action, resourceType, resource) == nil
}

// CanProfile checks only the profile permission. Front-ends use it to decide
// what to offer before a resource is loaded.
func (g *Gate[U]) CanProfile(ctx context.Context, subject U, action Action, resourceType string) bool {
	return g.Authorize(ctx, subject, action, resourceType, nil) == nil
}
