package stateless

import (
	"context"
	"fmt"
)

// internalFireOne resolves and executes exactly one trigger against the
// machine's current state. It is the body every fireMode eventually calls,
// once per trigger, whether that trigger arrived directly through Fire or
// was appended to a queue by an action running inside a previous call.
func (sm *StateMachine[S, T]) internalFireOne(ctx context.Context, trigger T, args ...any) error {
	if config, ok := sm.triggerConfig[trigger]; ok {
		config.validateParameters(args...)
	}

	source, err := sm.State(ctx)
	if err != nil {
		return err
	}
	sr := sm.stateRepresentation(source)

	result, ok := sr.FindHandler(ctx, trigger, args...)
	if !ok {
		return sm.unhandledTriggerAction(ctx, sr.State, trigger, result.UnmetGuardConditions)
	}

	switch handler := result.Handler.(type) {
	case *ignoredTriggerBehaviour[S, T]:
		return nil
	case *reentryTriggerBehaviour[S, T]:
		transition := Transition[S, T]{Source: source, Destination: handler.Destination, Trigger: trigger}
		return sm.handleReentryTrigger(ctx, sr, transition, args...)
	case *dynamicTriggerBehaviour[S, T]:
		destination, err := handler.Destination(ctx, args...)
		if err != nil {
			return err
		}
		transition := Transition[S, T]{Source: source, Destination: destination, Trigger: trigger}
		return sm.handleTransitioningTrigger(ctx, sr, transition, args...)
	case *transitioningTriggerBehaviour[S, T]:
		transition := Transition[S, T]{Source: source, Destination: handler.Destination, Trigger: trigger}
		return sm.handleTransitioningTrigger(ctx, sr, transition, args...)
	case *internalTriggerBehaviour[S, T]:
		transition := Transition[S, T]{Source: source, Destination: source, Trigger: trigger}
		return sr.InternalAction(ctx, transition, result.Handler, args...)
	default:
		panic(&ConfigError{msg: fmt.Sprintf("stateless: unrecognised trigger behaviour %T.", handler)})
	}
}

// handleReentryTrigger runs a PermitReentry transition: local exit, commit,
// listeners, local entry — and nothing else. Ancestors are never touched and
// initial-transition expansion is skipped outright (spec §4.6 point 3,
// §9 "listener timing on reentry").
func (sm *StateMachine[S, T]) handleReentryTrigger(ctx context.Context, sr *stateRepresentation[S, T], transition Transition[S, T], args ...any) error {
	if err := sr.Exit(ctx, transition, args...); err != nil {
		return err
	}
	callEvents(sm.onTransitioningEvents, ctx, transition)
	if err := sm.setState(ctx, transition.Destination); err != nil {
		return err
	}
	callEvents(sm.onTransitionedEvents, ctx, transition)
	newSr := sm.stateRepresentation(transition.Destination)
	return newSr.Enter(ctx, transition, args...)
}

// handleTransitioningTrigger runs a Permit/PermitDynamic transition: exit up
// to the common ancestor, commit, notify listeners, then enter down into the
// destination (expanding any InitialTransition found along the way). Per
// spec §4.9, listeners see only the primary transition, not the initial
// expansion that may follow it.
func (sm *StateMachine[S, T]) handleTransitioningTrigger(ctx context.Context, sr *stateRepresentation[S, T], transition Transition[S, T], args ...any) error {
	if err := sr.Exit(ctx, transition, args...); err != nil {
		return err
	}
	callEvents(sm.onTransitioningEvents, ctx, transition)
	if err := sm.setState(ctx, transition.Destination); err != nil {
		return err
	}
	callEvents(sm.onTransitionedEvents, ctx, transition)
	newSr := sm.stateRepresentation(transition.Destination)
	_, err := sm.enterState(ctx, newSr, transition, args...)
	return err
}

// enterState runs sr's entry actions for transition, then, for as long as
// the state just entered was configured with an InitialTransition, commits
// and descends one level deeper into the declared target (spec §4.6 Step D).
// No listener is invoked for any of these descents. It returns the deepest
// state actually settled into.
func (sm *StateMachine[S, T]) enterState(ctx context.Context, sr *stateRepresentation[S, T], transition Transition[S, T], args ...any) (*stateRepresentation[S, T], error) {
	if err := sr.Enter(ctx, transition, args...); err != nil {
		return nil, err
	}

	cur := sr
	for cur.HasInitialState {
		validTarget := false
		for _, substate := range cur.Substates {
			if substate.State == cur.InitialTransitionTarget {
				validTarget = true
				break
			}
		}
		if !validTarget {
			panic(&ConfigError{msg: fmt.Sprintf(
				"stateless: The target (%v) for the initial transition is not a substate of %v.", cur.InitialTransitionTarget, cur.State)})
		}

		initial := Transition[S, T]{Source: transition.Source, Destination: cur.InitialTransitionTarget, Trigger: transition.Trigger, isInitial: true}
		next := sm.stateRepresentation(cur.InitialTransitionTarget)
		if err := next.Enter(ctx, initial, args...); err != nil {
			return nil, err
		}
		if err := sm.setState(ctx, next.State); err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
