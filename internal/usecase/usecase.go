// Package usecase is the boundary every operation runs through. It reports
// start, success and failure to an Observer, recovers panics and turns any
// unclassified error into an internal failure, so each call yields exactly
// one response.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
	"github.com/matheusmosca/orders-inventory/internal/auth"
	"github.com/matheusmosca/orders-inventory/internal/response"
)

// Operation describes one use case invocation.
type Operation struct {
	Name    string
	Caller  auth.Identity
	Started time.Time
	// ResourceID is the target of the call, zero when there is none.
	ResourceID int64
}

// Observer receives the lifecycle of every operation. Started may return a
// derived context that is passed to the operation and to the final hook.
type Observer interface {
	Started(ctx context.Context, op Operation) context.Context
	Succeeded(ctx context.Context, op Operation)
	Failed(ctx context.Context, op Operation, err error)
}

type NopObserver struct{}

func (NopObserver) Started(ctx context.Context, _ Operation) context.Context { return ctx }
func (NopObserver) Succeeded(context.Context, Operation)                     {}
func (NopObserver) Failed(context.Context, Operation, error)                 {}

// Run executes fn as op and converts the outcome into a response. message is
// the success message.
func Run[T any](ctx context.Context, obs Observer, op Operation, message string, fn func(ctx context.Context) (T, error)) (resp response.Response[T]) {
	if obs == nil {
		obs = NopObserver{}
	}
	op.Started = time.Now()
	ctx = obs.Started(ctx, op)

	defer func() {
		if r := recover(); r != nil {
			err := apperr.Internal(op.Name, fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
			obs.Failed(ctx, op, err)
			resp = response.FromError[T](err)
		}
	}()

	data, err := fn(ctx)
	if err != nil {
		err = classify(op.Name, err)
		obs.Failed(ctx, op, err)
		return response.FromError[T](err)
	}

	obs.Succeeded(ctx, op)
	return response.OK(message, data)
}

func classify(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Internal(op, err)
}
