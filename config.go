package stateless

import (
	"fmt"
)

// StateConfiguration is the fluent builder returned by StateMachine.Configure
// for describing the entry/exit/activation actions and permitted
// transitions of a single state value (spec §6, "external collaborator:
// fluent configuration builder").
type StateConfiguration[S State, T Trigger] struct {
	sm     *StateMachine[S, T]
	sr     *stateRepresentation[S, T]
	lookup func(S) *stateRepresentation[S, T]
}

// State returns the state value this configuration describes.
func (sc *StateConfiguration[S, T]) State() S {
	return sc.sr.State
}

// Machine returns the state machine this configuration belongs to.
func (sc *StateConfiguration[S, T]) Machine() *StateMachine[S, T] {
	return sc.sm
}

// InitialTransition declares that entering this state should be followed by
// an automatic descent into targetState (spec §4.9). Only one initial
// transition may be configured per state, and its target must turn out to
// be one of this state's direct substates (checked when the transition is
// actually taken, since SubstateOf may be configured after InitialTransition).
func (sc *StateConfiguration[S, T]) InitialTransition(targetState S) *StateConfiguration[S, T] {
	if sc.sr.HasInitialState {
		panic(&ConfigError{msg: fmt.Sprintf(
			"stateless: This state has already been configured with an initial transition (%v).",
			sc.sr.InitialTransitionTarget)})
	}
	if targetState == sc.State() {
		panic(&ConfigError{msg: "stateless: Setting the current state as the target of its own initial transition is not allowed."})
	}
	sc.sr.SetInitialTransition(targetState)
	return sc
}

// Permit accepts trigger and transitions to destinationState once every
// guard (if any) is met.
func (sc *StateConfiguration[S, T]) Permit(trigger T, destinationState S, guards ...GuardFunc) *StateConfiguration[S, T] {
	if destinationState == sc.sr.State {
		panic(&ConfigError{msg: "stateless: Permit() requires that the destination state differs from the source state. To accept a trigger without changing state, use Ignore() or PermitReentry()."})
	}
	sc.sr.AddTriggerBehaviour(&transitioningTriggerBehaviour[S, T]{
		baseTriggerBehaviour: baseTriggerBehaviour[T]{Trigger: trigger, Guard: newTransitionGuard(guards...)},
		Destination:          destinationState,
	})
	return sc
}

// InternalTransition accepts trigger and runs action without exiting or
// entering any state (spec §4.6).
func (sc *StateConfiguration[S, T]) InternalTransition(trigger T, action ActionFunc, guards ...GuardFunc) *StateConfiguration[S, T] {
	sc.sr.AddTriggerBehaviour(&internalTriggerBehaviour[S, T]{
		baseTriggerBehaviour: baseTriggerBehaviour[T]{Trigger: trigger, Guard: newTransitionGuard(guards...)},
		Action:               action,
	})
	return sc
}

// PermitReentry accepts trigger, runs this state's own exit then entry
// actions, without touching its ancestors (spec §4.6). Unlike Permit, the
// destination is implicitly this state.
func (sc *StateConfiguration[S, T]) PermitReentry(trigger T, guards ...GuardFunc) *StateConfiguration[S, T] {
	sc.sr.AddTriggerBehaviour(&reentryTriggerBehaviour[S, T]{
		baseTriggerBehaviour: baseTriggerBehaviour[T]{Trigger: trigger, Guard: newTransitionGuard(guards...)},
		Destination:          sc.sr.State,
	})
	return sc
}

// Ignore marks trigger as a documented no-op whenever its guards (if any)
// are met, instead of falling through to unhandled-trigger handling.
func (sc *StateConfiguration[S, T]) Ignore(trigger T, guards ...GuardFunc) *StateConfiguration[S, T] {
	sc.sr.AddTriggerBehaviour(&ignoredTriggerBehaviour[S, T]{
		baseTriggerBehaviour: baseTriggerBehaviour[T]{Trigger: trigger, Guard: newTransitionGuard(guards...)},
	})
	return sc
}

// PermitDynamic accepts trigger and transitions to the state computed by
// selector from the trigger's arguments at fire time (spec §4.2, Dynamic).
func (sc *StateConfiguration[S, T]) PermitDynamic(trigger T, selector DestinationSelectorFunc[S], guards ...GuardFunc) *StateConfiguration[S, T] {
	sc.sr.AddTriggerBehaviour(&dynamicTriggerBehaviour[S, T]{
		baseTriggerBehaviour: baseTriggerBehaviour[T]{Trigger: trigger, Guard: newTransitionGuard(guards...)},
		Destination:          selector,
	})
	return sc
}

// OnActivate registers an action to run when this state, or a substate of
// it, is activated (spec §4.4).
func (sc *StateConfiguration[S, T]) OnActivate(action SteadyActionFunc) *StateConfiguration[S, T] {
	sc.sr.ActivateActions = append(sc.sr.ActivateActions, actionBehaviourSteady{
		Action:      action,
		Description: newInvocationInfo(action),
	})
	return sc
}

// OnDeactivate registers an action to run when this state, or a substate of
// it, is deactivated.
func (sc *StateConfiguration[S, T]) OnDeactivate(action SteadyActionFunc) *StateConfiguration[S, T] {
	sc.sr.DeactivateActions = append(sc.sr.DeactivateActions, actionBehaviourSteady{
		Action:      action,
		Description: newInvocationInfo(action),
	})
	return sc
}

// OnEntry registers an action to run whenever this state is entered,
// regardless of which trigger caused it.
func (sc *StateConfiguration[S, T]) OnEntry(action ActionFunc) *StateConfiguration[S, T] {
	sc.sr.EntryActions = append(sc.sr.EntryActions, actionBehaviour[S, T]{
		Action:      action,
		Description: newInvocationInfo(action),
	})
	return sc
}

// OnEntryFrom registers an action that only runs when this state is entered
// as a result of trigger specifically (spec §2 item 5).
func (sc *StateConfiguration[S, T]) OnEntryFrom(trigger T, action ActionFunc) *StateConfiguration[S, T] {
	sc.sr.EntryActions = append(sc.sr.EntryActions, actionBehaviour[S, T]{
		Action:      action,
		Description: newInvocationInfo(action),
		Trigger:     &trigger,
	})
	return sc
}

// OnExit registers an action to run whenever this state is exited,
// regardless of which trigger caused it.
func (sc *StateConfiguration[S, T]) OnExit(action ActionFunc) *StateConfiguration[S, T] {
	sc.sr.ExitActions = append(sc.sr.ExitActions, actionBehaviour[S, T]{
		Action:      action,
		Description: newInvocationInfo(action),
	})
	return sc
}

// OnExitWith registers an action that only runs when this state is exited
// as a result of trigger specifically.
func (sc *StateConfiguration[S, T]) OnExitWith(trigger T, action ActionFunc) *StateConfiguration[S, T] {
	sc.sr.ExitActions = append(sc.sr.ExitActions, actionBehaviour[S, T]{
		Action:      action,
		Description: newInvocationInfo(action),
		Trigger:     &trigger,
	})
	return sc
}

// SubstateOf declares that the configured state is nested inside superstate
// (spec §3). Substates inherit their superstate's permitted triggers, and
// entering/leaving across the superstate boundary runs the superstate's own
// entry/exit actions. Panics if the resulting hierarchy would be cyclic.
func (sc *StateConfiguration[S, T]) SubstateOf(superstate S) *StateConfiguration[S, T] {
	state := sc.sr.State
	if state == superstate {
		panic(&ConfigError{msg: fmt.Sprintf(
			"stateless: Configuring %v as a substate of itself creates an illegal cyclic configuration.", state)})
	}

	seen := map[S]struct{}{state: {}}
	walk := sc.lookup(superstate)
	for walk.Superstate != nil {
		if _, ok := seen[walk.Superstate.state()]; ok {
			panic(&ConfigError{msg: fmt.Sprintf(
				"stateless: Configuring %v as a substate of %v creates an illegal cyclic configuration.", state, superstate)})
		}
		seen[walk.Superstate.state()] = struct{}{}
		walk = sc.lookup(walk.Superstate.state())
	}

	superRepresentation := sc.lookup(superstate)
	sc.sr.Superstate = superRepresentation
	superRepresentation.Substates = append(superRepresentation.Substates, sc.sr)
	return sc
}
