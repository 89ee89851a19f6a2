// Package notify delivers order side effects: buyer and seller emails and
// order events for downstream consumers. Every dispatcher is best-effort;
// callers log the error and carry on.
package notify

import (
	"context"
	"errors"

	"campusmart/internal/domain"
)

type Dispatcher interface {
	NotifyOrderCreated(ctx context.Context, o domain.Order, p domain.Product) error
	NotifyOrderCancelled(ctx context.Context, o domain.Order, p domain.Product, reason string) error
}

// Nop is used when neither SMTP nor Kafka is configured.
type Nop struct{}

func (Nop) NotifyOrderCreated(context.Context, domain.Order, domain.Product) error { return nil }
func (Nop) NotifyOrderCancelled(context.Context, domain.Order, domain.Product, string) error {
	return nil
}

// Multi fans out to every dispatcher; one failure does not stop the others.
type Multi []Dispatcher

func (m Multi) NotifyOrderCreated(ctx context.Context, o domain.Order, p domain.Product) error {
	var errs []error
	for _, d := range m {
		errs = append(errs, d.NotifyOrderCreated(ctx, o, p))
	}
	return errors.Join(errs...)
}

func (m Multi) NotifyOrderCancelled(ctx context.Context, o domain.Order, p domain.Product, reason string) error {
	var errs []error
	for _, d := range m {
		errs = append(errs, d.NotifyOrderCancelled(ctx, o, p, reason))
	}
	return errors.Join(errs...)
}

// New picks dispatchers from what is configured.
func New(ds ...Dispatcher) Dispatcher {
	var out Multi
	for _, d := range ds {
		if d != nil {
			out = append(out, d)
		}
	}
	switch len(out) {
	case 0:
		return Nop{}
	case 1:
		return out[0]
	}
	return out
}
