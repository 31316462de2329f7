package stateless

import (
	"context"
	"fmt"
	"reflect"
)

// ActionFunc is the shape of entry, exit and internal-transition actions.
// The context passed to it always carries the driving Transition, retrievable
// with GetTransition. An action may block (call out over the network, wait
// on a channel, ...) for as long as it needs: in Go, unlike the coroutine-
// based original this package descends from, suspension is just blocking on
// the calling goroutine, so synchronous and suspending actions are the same
// function shape (see spec §9, "Sync/async unification").
type ActionFunc func(ctx context.Context, args ...any) error

// SteadyActionFunc is the shape of activate/deactivate actions, which never
// receive trigger arguments or a Transition.
type SteadyActionFunc func(ctx context.Context) error

// DestinationSelectorFunc computes the destination of a PermitDynamic
// transition from the trigger's arguments at fire time.
type DestinationSelectorFunc[S State] func(ctx context.Context, args ...any) (S, error)

// triggerBehaviour is the tagged union described in spec §4.2: every variant
// carries a (trigger, guard) pair and reports whether firing it results in a
// transition.
type triggerBehaviour[S State, T Trigger] interface {
	GetTrigger() T
	GuardConditionMet(ctx context.Context, args ...any) bool
	UnmetGuardConditions(ctx context.Context, args ...any) []string
	// ResultsInTransitionFrom reports the destination a transition would have
	// if this behaviour fires from source, and whether it results in an
	// actual state change at all (false for Internal/Ignored). It ignores
	// guards: callers are expected to have already checked them.
	ResultsInTransitionFrom(ctx context.Context, source S, args ...any) (S, bool)
}

type baseTriggerBehaviour[T Trigger] struct {
	Trigger T
	Guard   transitionGuard
}

func (b *baseTriggerBehaviour[T]) GetTrigger() T { return b.Trigger }

func (b *baseTriggerBehaviour[T]) GuardConditionMet(ctx context.Context, args ...any) bool {
	return b.Guard.AllMet(ctx, args...)
}

func (b *baseTriggerBehaviour[T]) UnmetGuardConditions(ctx context.Context, args ...any) []string {
	return b.Guard.Unmet(ctx, args...)
}

// ignoredTriggerBehaviour: Ignored. Firing it is a documented no-op.
type ignoredTriggerBehaviour[S State, T Trigger] struct {
	baseTriggerBehaviour[T]
}

func (t *ignoredTriggerBehaviour[S, T]) ResultsInTransitionFrom(_ context.Context, _ S, _ ...any) (S, bool) {
	var zero S
	return zero, false
}

// reentryTriggerBehaviour: Reentry(dest). dest is always the state it was
// configured on.
type reentryTriggerBehaviour[S State, T Trigger] struct {
	baseTriggerBehaviour[T]
	Destination S
}

func (t *reentryTriggerBehaviour[S, T]) ResultsInTransitionFrom(_ context.Context, _ S, _ ...any) (S, bool) {
	return t.Destination, true
}

// transitioningTriggerBehaviour: Transitioning(dest).
type transitioningTriggerBehaviour[S State, T Trigger] struct {
	baseTriggerBehaviour[T]
	Destination S
}

func (t *transitioningTriggerBehaviour[S, T]) ResultsInTransitionFrom(_ context.Context, _ S, _ ...any) (S, bool) {
	return t.Destination, true
}

// dynamicTriggerBehaviour: Dynamic(resolver). The destination is computed
// from the trigger arguments at fire time, so Fire calls Destination
// directly (it can fail); ResultsInTransitionFrom exists for introspection
// and treats a resolver error as "no transition".
type dynamicTriggerBehaviour[S State, T Trigger] struct {
	baseTriggerBehaviour[T]
	Destination DestinationSelectorFunc[S]
}

func (t *dynamicTriggerBehaviour[S, T]) ResultsInTransitionFrom(ctx context.Context, _ S, args ...any) (S, bool) {
	dest, err := t.Destination(ctx, args...)
	if err != nil {
		var zero S
		return zero, false
	}
	return dest, true
}

// internalTriggerBehaviour: Internal(action). Carries the action executed
// without exiting or entering any state.
type internalTriggerBehaviour[S State, T Trigger] struct {
	baseTriggerBehaviour[T]
	Action ActionFunc
}

func (t *internalTriggerBehaviour[S, T]) ResultsInTransitionFrom(_ context.Context, source S, _ ...any) (S, bool) {
	return source, false
}

func (t *internalTriggerBehaviour[S, T]) Execute(ctx context.Context, transition Transition[S, T], args ...any) error {
	return t.Action(withTransition(ctx, transition), args...)
}

// triggerBehaviourResult bundles a resolved handler with the guard
// diagnostics collected while resolving it, per spec §4.3.
type triggerBehaviourResult[S State, T Trigger] struct {
	Handler              triggerBehaviour[S, T]
	UnmetGuardConditions []string
}

// triggerWithParameters associates a trigger with the ordered list of
// argument types expected whenever it is fired (spec §2 item 1).
type triggerWithParameters[T Trigger] struct {
	Trigger       T
	ArgumentTypes []reflect.Type
}

// validateParameters checks arity and per-slot assignability, panicking with
// an ArgumentError on mismatch (spec §7.2).
func (t triggerWithParameters[T]) validateParameters(args ...any) {
	if len(args) != len(t.ArgumentTypes) {
		panic(&ArgumentError{msg: fmt.Sprintf(
			"stateless: An unexpected amount of parameters have been supplied. Expecting '%d' but got '%d'.",
			len(t.ArgumentTypes), len(args))})
	}
	for i, want := range t.ArgumentTypes {
		got := reflect.TypeOf(args[i])
		if got == nil || !got.AssignableTo(want) {
			panic(&ArgumentError{msg: fmt.Sprintf(
				"stateless: The argument in position '%d' is of type '%v' but must be assignable to '%v'.",
				i, got, want)})
		}
	}
}
