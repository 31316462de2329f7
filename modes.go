package stateless

import (
	"context"
	"sync"
	"sync/atomic"
)

// FiringMode selects how a StateMachine processes a trigger fired while it
// is already mid-dispatch (spec §5).
type FiringMode uint8

const (
	// FiringModeQueued serializes nested Fire calls behind a FIFO so the
	// machine runs one trigger to completion before starting the next. This
	// is the recommended mode and NewStateMachine's default.
	FiringModeQueued FiringMode = iota
	// FiringModeImmediate processes a nested Fire call the instant it is
	// issued, reentrantly, before the outer Fire's remaining steps resume.
	// Care is needed: there is no run-to-completion guarantee in this mode.
	FiringModeImmediate
)

// fireMode is the firing-mode abstraction from spec §5: Immediate recurses
// straight through nested Fire calls, Queued serializes them behind a FIFO
// so a trigger fired from inside an action runs only after the current one
// has fully committed (run-to-completion).
type fireMode[S State, T Trigger] interface {
	Fire(ctx context.Context, trigger T, args ...any) error
	Firing() bool
}

// fireModeImmediate backs FiringModeImmediate: a nested Fire call (e.g. one issued
// from an entry action) runs to completion immediately, reentrantly, before
// the outer Fire's remaining steps resume.
type fireModeImmediate[S State, T Trigger] struct {
	ops atomic.Uint64
	sm  *StateMachine[S, T]
}

func (f *fireModeImmediate[S, T]) Firing() bool {
	return f.ops.Load() > 0
}

func (f *fireModeImmediate[S, T]) Fire(ctx context.Context, trigger T, args ...any) error {
	f.ops.Add(1)
	defer f.ops.Add(^uint64(0))
	return f.sm.internalFireOne(ctx, trigger, args...)
}

type queuedTrigger[T Trigger] struct {
	Context context.Context
	Trigger T
	Args    []any
}

// fireModeQueued appends every Fire call (nested or top-level) to a FIFO and
// lets only one goroutine-equivalent call chain drain it at a time: the
// first Fire to find the queue idle claims the "firing" flag and processes
// entries, including ones appended by actions it triggers along the way,
// until the queue is empty.
type fireModeQueued[S State, T Trigger] struct {
	firing atomic.Bool
	sm     *StateMachine[S, T]

	triggers []queuedTrigger[T]
	mu       sync.Mutex // guards triggers
}

func (f *fireModeQueued[S, T]) Firing() bool {
	return f.firing.Load()
}

func (f *fireModeQueued[S, T]) Fire(ctx context.Context, trigger T, args ...any) error {
	f.enqueue(ctx, trigger, args...)
	for {
		et, ok := f.fetch()
		if !ok {
			break
		}
		if err := f.execute(et); err != nil {
			return err
		}
	}
	return nil
}

func (f *fireModeQueued[S, T]) enqueue(ctx context.Context, trigger T, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.triggers = append(f.triggers, queuedTrigger[T]{Context: ctx, Trigger: trigger, Args: args})
}

func (f *fireModeQueued[S, T]) fetch() (et queuedTrigger[T], ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.triggers) == 0 {
		return queuedTrigger[T]{}, false
	}

	if !f.firing.CompareAndSwap(false, true) {
		return queuedTrigger[T]{}, false
	}

	et, f.triggers = f.triggers[0], f.triggers[1:]
	return et, true
}

func (f *fireModeQueued[S, T]) execute(et queuedTrigger[T]) error {
	defer f.firing.Swap(false)
	return f.sm.internalFireOne(et.Context, et.Trigger, et.Args...)
}
