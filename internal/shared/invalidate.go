package shared

import "context"

// Invalidator drops cached read models after a mutation.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// NopInvalidator is used when no cache is configured.
type NopInvalidator struct{}

// Bump implements Invalidator.
func (NopInvalidator) Bump(context.Context) error { return nil }
