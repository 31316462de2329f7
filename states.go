package stateless

import (
	"context"
	"fmt"
)

// stateRepresentation is the per-state configuration record described in
// spec §3. Superstate is a non-owning back-reference; Substates holds
// forward references. Both sets of pointers are owned by the StateMachine's
// representation table and live for the machine's lifetime.
type stateRepresentation[S State, T Trigger] struct {
	State                   S
	InitialTransitionTarget S
	HasInitialState         bool
	Superstate              *stateRepresentation[S, T]
	Substates               []*stateRepresentation[S, T]
	EntryActions            []actionBehaviour[S, T]
	ExitActions             []actionBehaviour[S, T]
	ActivateActions         []actionBehaviourSteady
	DeactivateActions       []actionBehaviourSteady
	TriggerBehaviours       map[T][]triggerBehaviour[S, T]
	triggerOrder            []T
	active                  bool
}

func newStateRepresentation[S State, T Trigger](state S) *stateRepresentation[S, T] {
	return &stateRepresentation[S, T]{
		State:             state,
		TriggerBehaviours: make(map[T][]triggerBehaviour[S, T]),
	}
}

func (sr *stateRepresentation[S, T]) state() S { return sr.State }

func (sr *stateRepresentation[S, T]) SetInitialTransition(state S) {
	sr.InitialTransitionTarget = state
	sr.HasInitialState = true
}

func (sr *stateRepresentation[S, T]) AddTriggerBehaviour(tb triggerBehaviour[S, T]) {
	trigger := tb.GetTrigger()
	if _, ok := sr.TriggerBehaviours[trigger]; !ok {
		sr.triggerOrder = append(sr.triggerOrder, trigger)
	}
	sr.TriggerBehaviours[trigger] = append(sr.TriggerBehaviours[trigger], tb)
}

// CanHandle reports whether trigger resolves to a usable (guards-met)
// handler in this state or one of its ancestors.
func (sr *stateRepresentation[S, T]) CanHandle(ctx context.Context, trigger T, args ...any) bool {
	_, ok := sr.FindHandler(ctx, trigger, args...)
	return ok
}

// FindHandler implements spec §4.3's tryFindHandler: a trigger declared
// locally (met or not) always wins over anything declared on an ancestor,
// even when its guards are unmet. Only the total absence of a local
// declaration causes the search to continue up the hierarchy.
func (sr *stateRepresentation[S, T]) FindHandler(ctx context.Context, trigger T, args ...any) (triggerBehaviourResult[S, T], bool) {
	result, found, met := sr.findLocalHandler(ctx, trigger, args...)
	if found {
		return result, met
	}
	if sr.Superstate != nil {
		return sr.Superstate.FindHandler(ctx, trigger, args...)
	}
	return triggerBehaviourResult[S, T]{}, false
}

func (sr *stateRepresentation[S, T]) findLocalHandler(ctx context.Context, trigger T, args ...any) (result triggerBehaviourResult[S, T], found, met bool) {
	candidates, ok := sr.TriggerBehaviours[trigger]
	if !ok {
		return triggerBehaviourResult[S, T]{}, false, false
	}
	found = true
	for _, candidate := range candidates {
		unmet := candidate.UnmetGuardConditions(ctx, args...)
		if len(unmet) == 0 {
			if met {
				panic(&ConfigError{msg: fmt.Sprintf(
					"stateless: Multiple permitted transitions are configured from state '%v' for trigger '%v'. Guard clauses must be mutually exclusive.",
					sr.State, trigger)})
			}
			result = triggerBehaviourResult[S, T]{Handler: candidate}
			met = true
		} else if result.Handler == nil {
			result = triggerBehaviourResult[S, T]{Handler: candidate, UnmetGuardConditions: unmet}
		}
	}
	return result, found, met
}

// Activate walks from this state to the root, running activation actions
// root-down (spec §4.4), short-circuiting if this state is already active
// (spec §9, activation idempotence).
func (sr *stateRepresentation[S, T]) Activate(ctx context.Context) error {
	if sr.active {
		return nil
	}
	if sr.Superstate != nil {
		if err := sr.Superstate.Activate(ctx); err != nil {
			return err
		}
	}
	if err := sr.executeActivationActions(ctx); err != nil {
		return err
	}
	sr.active = true
	return nil
}

// Deactivate is Activate's mirror: local actions first, then the
// superstate, short-circuiting if already inactive.
func (sr *stateRepresentation[S, T]) Deactivate(ctx context.Context) error {
	if !sr.active {
		return nil
	}
	if err := sr.executeDeactivationActions(ctx); err != nil {
		return err
	}
	sr.active = false
	if sr.Superstate != nil {
		return sr.Superstate.Deactivate(ctx)
	}
	return nil
}

// Enter runs this state's (and, when the boundary is crossed from outside,
// its ancestors') entry actions, outer state first (spec §4.7).
func (sr *stateRepresentation[S, T]) Enter(ctx context.Context, transition Transition[S, T], args ...any) error {
	if transition.IsReentry() {
		return sr.executeEntryActions(ctx, transition, args...)
	}
	if sr.Includes(transition.Source) {
		return nil
	}
	if sr.Superstate != nil && !transition.IsInitial() {
		if err := sr.Superstate.Enter(ctx, transition, args...); err != nil {
			return err
		}
	}
	return sr.executeEntryActions(ctx, transition, args...)
}

// Exit runs this state's exit actions and, if the destination is outside
// this state's subtree, ascends to the superstate (spec §4.7). Once
// executeExitActions has run, recursing into Superstate.Exit unconditionally
// is safe even when the destination *is* the immediate superstate: that
// call's own Includes(destination) check makes it a no-op, so there is no
// need for the extra "is destination my immediate superstate" branch.
func (sr *stateRepresentation[S, T]) Exit(ctx context.Context, transition Transition[S, T], args ...any) error {
	if transition.IsReentry() {
		return sr.executeExitActions(ctx, transition, args...)
	}
	if sr.Includes(transition.Destination) {
		return nil
	}
	if err := sr.executeExitActions(ctx, transition, args...); err != nil {
		return err
	}
	if sr.Superstate != nil {
		return sr.Superstate.Exit(ctx, transition, args...)
	}
	return nil
}

// InternalAction invokes the internal-transition action resolved for
// transition.Trigger. The handler was already located by FindHandler during
// dispatch (spec §4.6 Step C.2); this is just a type-asserting call-through.
func (sr *stateRepresentation[S, T]) InternalAction(ctx context.Context, transition Transition[S, T], handler triggerBehaviour[S, T], args ...any) error {
	internal, ok := handler.(*internalTriggerBehaviour[S, T])
	if !ok {
		panic(&ConfigError{msg: "stateless: The configuration is incorrect, no action assigned to this internal transition."})
	}
	return internal.Execute(ctx, transition, args...)
}

// Includes is the subtree-containment predicate from spec §4.5: true for
// this state and any (transitive) substate.
func (sr *stateRepresentation[S, T]) Includes(state S) bool {
	if state == sr.State {
		return true
	}
	for _, sub := range sr.Substates {
		if sub.Includes(state) {
			return true
		}
	}
	return false
}

// IsIncludedIn is Includes' dual: true for this state and any ancestor.
func (sr *stateRepresentation[S, T]) IsIncludedIn(state S) bool {
	if state == sr.State {
		return true
	}
	if sr.Superstate != nil {
		return sr.Superstate.IsIncludedIn(state)
	}
	return false
}

// PermittedTriggers returns the union of triggers with at least one
// fully-met guard in this state and its ancestors, in the order each
// trigger was first configured (spec §4.3).
func (sr *stateRepresentation[S, T]) PermittedTriggers(ctx context.Context, args ...any) []T {
	var triggers []T
	for _, trig := range sr.triggerOrder {
		for _, candidate := range sr.TriggerBehaviours[trig] {
			if len(candidate.UnmetGuardConditions(ctx, args...)) == 0 {
				triggers = append(triggers, trig)
				break
			}
		}
	}
	if sr.Superstate == nil {
		return triggers
	}
	seen := make(map[T]struct{}, len(triggers))
	for _, t := range triggers {
		seen[t] = struct{}{}
	}
	for _, t := range sr.Superstate.PermittedTriggers(ctx, args...) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		triggers = append(triggers, t)
	}
	return triggers
}

func (sr *stateRepresentation[S, T]) executeActivationActions(ctx context.Context) error {
	for _, a := range sr.ActivateActions {
		if err := a.Execute(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (sr *stateRepresentation[S, T]) executeDeactivationActions(ctx context.Context) error {
	for _, a := range sr.DeactivateActions {
		if err := a.Execute(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (sr *stateRepresentation[S, T]) executeEntryActions(ctx context.Context, transition Transition[S, T], args ...any) error {
	for _, a := range sr.EntryActions {
		if err := a.Execute(ctx, transition, args...); err != nil {
			return err
		}
	}
	return nil
}

func (sr *stateRepresentation[S, T]) executeExitActions(ctx context.Context, transition Transition[S, T], args ...any) error {
	for _, a := range sr.ExitActions {
		if err := a.Execute(ctx, transition, args...); err != nil {
			return err
		}
	}
	return nil
}
