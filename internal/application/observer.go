package application

import (
	"context"
	"time"

	"github.com/ahrav/go-criteria/internal/ports"
)

var _ ports.StepObserver = MultiObserver(nil)

// MultiObserver fans every step callback out to several observers in
// order. The context returned by one OnStepStart is handed to the next, so
// a tracing observer placed first makes its span visible to the rest.
type MultiObserver []ports.StepObserver

// NewMultiObserver combines observers, skipping nil entries.
func NewMultiObserver(observers ...ports.StepObserver) MultiObserver {
	m := make(MultiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

// OnStepStart implements ports.StepObserver.
func (m MultiObserver) OnStepStart(ctx context.Context, info ports.StepInfo) context.Context {
	for _, o := range m {
		ctx = o.OnStepStart(ctx, info)
	}
	return ctx
}

// OnStepEnd implements ports.StepObserver. Observers are called in reverse
// order so nested spans close innermost first.
func (m MultiObserver) OnStepEnd(ctx context.Context, info ports.StepInfo, elapsed time.Duration, err error) {
	for i := len(m) - 1; i >= 0; i-- {
		m[i].OnStepEnd(ctx, info, elapsed, err)
	}
}
