package strategy

import (
	"context"
	"fmt"
)

// Func adapts plain functions to the Strategy interface. It is the extension
// point for externally supplied hooks. Nil DeactivateFunc is a no-op and nil
// HealthyFunc always reports healthy.
type Func struct {
	Desc           Descriptor
	ActivateFunc   func(ctx context.Context, sink Sink) (Handle, error)
	DeactivateFunc func(h Handle) error
	HealthyFunc    func(h Handle) bool
}

// Describe returns the configured descriptor.
func (f *Func) Describe() Descriptor {
	return f.Desc
}

// Activate calls ActivateFunc.
func (f *Func) Activate(ctx context.Context, sink Sink) (Handle, error) {
	if f.ActivateFunc == nil {
		return nil, fmt.Errorf("%s: no activate func: %w", f.Desc.ID, ErrUnavailable)
	}
	return f.ActivateFunc(ctx, sink)
}

// Deactivate calls DeactivateFunc when set.
func (f *Func) Deactivate(h Handle) error {
	if f.DeactivateFunc == nil {
		return nil
	}
	return f.DeactivateFunc(h)
}

// Healthy calls HealthyFunc when set.
func (f *Func) Healthy(h Handle) bool {
	if f.HealthyFunc == nil {
		return true
	}
	return f.HealthyFunc(h)
}
