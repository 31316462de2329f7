package stateless

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// TransitionFunc is the shape of OnTransitioning/OnTransitioned listeners.
type TransitionFunc[S State, T Trigger] func(ctx context.Context, transition Transition[S, T])

// UnhandledTriggerActionFunc is called when a fired trigger has no
// applicable transition from the current state (spec §4.10).
type UnhandledTriggerActionFunc[S State, T Trigger] func(ctx context.Context, state S, trigger T, unmetGuards []string) error

// DefaultUnhandledTriggerAction is installed by default and returns an
// *UnhandledTriggerError describing why the trigger went unhandled.
func DefaultUnhandledTriggerAction[S State, T Trigger](_ context.Context, state S, trigger T, unmetGuards []string) error {
	return newUnhandledTriggerError(state, trigger, unmetGuards)
}

func callEvents[S State, T Trigger](events []TransitionFunc[S, T], ctx context.Context, transition Transition[S, T]) {
	for _, e := range events {
		e(ctx, transition)
	}
}

// StateMachine is an abstract machine that is in exactly one of a finite
// number of states at any given time. Only FiringModeQueued serializes Fire
// calls coming from several goroutines (through its queue); in
// FiringModeImmediate, and for Configure, Activate/Deactivate and the query
// methods, the machine takes no lock of its own. None of the callbacks it
// invokes (actions, guards, listeners, the state accessor/mutator) are
// synchronized by the machine either.
type StateMachine[S State, T Trigger] struct {
	id                     string
	stateConfig            map[S]*stateRepresentation[S, T]
	triggerConfig          map[T]triggerWithParameters[T]
	stateAccessor          func(context.Context) (S, error)
	stateMutator           func(context.Context, S) error
	unhandledTriggerAction UnhandledTriggerActionFunc[S, T]
	onTransitioningEvents  []TransitionFunc[S, T]
	onTransitionedEvents   []TransitionFunc[S, T]
	mode                   fireMode[S, T]
}

func newStateMachine[S State, T Trigger]() *StateMachine[S, T] {
	return &StateMachine[S, T]{
		id:                     uuid.NewString(),
		stateConfig:            make(map[S]*stateRepresentation[S, T]),
		triggerConfig:          make(map[T]triggerWithParameters[T]),
		unhandledTriggerAction: UnhandledTriggerActionFunc[S, T](DefaultUnhandledTriggerAction[S, T]),
	}
}

// NewStateMachine returns a state machine in Queued firing mode, holding its
// own current-state value starting at initialState.
func NewStateMachine[S State, T Trigger](initialState S) *StateMachine[S, T] {
	return NewStateMachineWithMode[S, T](initialState, FiringModeQueued)
}

// NewStateMachineWithMode returns a state machine with the given firing mode.
func NewStateMachineWithMode[S State, T Trigger](initialState S, mode FiringMode) *StateMachine[S, T] {
	var stateMu sync.Mutex
	sm := newStateMachine[S, T]()
	current := initialState
	sm.stateAccessor = func(_ context.Context) (S, error) {
		stateMu.Lock()
		defer stateMu.Unlock()
		return current, nil
	}
	sm.stateMutator = func(_ context.Context, state S) error {
		stateMu.Lock()
		defer stateMu.Unlock()
		current = state
		return nil
	}
	sm.setFiringMode(mode)
	return sm
}

// NewStateMachineWithExternalStorage returns a state machine that delegates
// holding the current state to stateAccessor/stateMutator instead of storing
// it itself (spec §6, "external collaborator: external state storage").
func NewStateMachineWithExternalStorage[S State, T Trigger](
	stateAccessor func(context.Context) (S, error),
	stateMutator func(context.Context, S) error,
	mode FiringMode,
) *StateMachine[S, T] {
	sm := newStateMachine[S, T]()
	sm.stateAccessor = stateAccessor
	sm.stateMutator = stateMutator
	sm.setFiringMode(mode)
	return sm
}

func (sm *StateMachine[S, T]) setFiringMode(mode FiringMode) {
	switch mode {
	case FiringModeImmediate:
		sm.mode = &fireModeImmediate[S, T]{sm: sm}
	default:
		sm.mode = &fireModeQueued[S, T]{sm: sm}
	}
}

// ID returns the correlation identifier assigned to this machine instance
// at construction time. It is not part of Transition and has no effect on
// dispatch; it exists for logging and graph export.
func (sm *StateMachine[S, T]) ID() string {
	return sm.id
}

// ToGraph returns the DOT representation of the state machine's
// configuration. Output ordering is not guaranteed to be stable across runs.
func (sm *StateMachine[S, T]) ToGraph(opts ...GraphOption) string {
	return newGraph(sm, opts...).render()
}

// ToYAML returns a YAML snapshot of the state machine's configuration,
// suitable for diffing against a checked-in golden file in tests.
func (sm *StateMachine[S, T]) ToYAML() (string, error) {
	return sm.info().toYAML()
}

// State returns the current state.
func (sm *StateMachine[S, T]) State(ctx context.Context) (S, error) {
	return sm.stateAccessor(ctx)
}

// MustState returns the current state, panicking if the state accessor
// returns an error. Safe with NewStateMachine/NewStateMachineWithMode, whose
// accessor never errors.
func (sm *StateMachine[S, T]) MustState() S {
	st, err := sm.State(context.Background())
	if err != nil {
		panic(err)
	}
	return st
}

// PermittedTriggers see PermittedTriggersCtx.
func (sm *StateMachine[S, T]) PermittedTriggers(args ...any) ([]T, error) {
	return sm.PermittedTriggersCtx(context.Background(), args...)
}

// PermittedTriggersCtx returns the triggers that can currently be fired from
// the current state, in configuration order, deduplicated across the
// hierarchy.
func (sm *StateMachine[S, T]) PermittedTriggersCtx(ctx context.Context, args ...any) ([]T, error) {
	sr, err := sm.currentState(ctx)
	if err != nil {
		return nil, err
	}
	return sr.PermittedTriggers(ctx, args...), nil
}

// Activate see ActivateCtx.
func (sm *StateMachine[S, T]) Activate() error {
	return sm.ActivateCtx(context.Background())
}

// ActivateCtx activates the current state (and its ancestors, root first).
// Idempotent: repeated activation without an intervening Deactivate is a
// no-op.
func (sm *StateMachine[S, T]) ActivateCtx(ctx context.Context) error {
	sr, err := sm.currentState(ctx)
	if err != nil {
		return err
	}
	return sr.Activate(ctx)
}

// Deactivate see DeactivateCtx.
func (sm *StateMachine[S, T]) Deactivate() error {
	return sm.DeactivateCtx(context.Background())
}

// DeactivateCtx deactivates the current state (local first, then ancestors).
// Idempotent, mirroring ActivateCtx.
func (sm *StateMachine[S, T]) DeactivateCtx(ctx context.Context) error {
	sr, err := sm.currentState(ctx)
	if err != nil {
		return err
	}
	return sr.Deactivate(ctx)
}

// IsInState see IsInStateCtx.
func (sm *StateMachine[S, T]) IsInState(state S) (bool, error) {
	return sm.IsInStateCtx(context.Background(), state)
}

// IsInStateCtx reports whether the current state is state, or a substate of
// it.
func (sm *StateMachine[S, T]) IsInStateCtx(ctx context.Context, state S) (bool, error) {
	sr, err := sm.currentState(ctx)
	if err != nil {
		return false, err
	}
	return sr.IsIncludedIn(state), nil
}

// CanFire see CanFireCtx.
func (sm *StateMachine[S, T]) CanFire(trigger T, args ...any) (bool, error) {
	return sm.CanFireCtx(context.Background(), trigger, args...)
}

// CanFireCtx reports whether trigger would be handled (found, with its
// guards met) from the current state.
func (sm *StateMachine[S, T]) CanFireCtx(ctx context.Context, trigger T, args ...any) (bool, error) {
	sr, err := sm.currentState(ctx)
	if err != nil {
		return false, err
	}
	return sr.CanHandle(ctx, trigger, args...), nil
}

// SetTriggerParameters declares the argument types that Fire/FireCtx must
// be called with for trigger (spec §2 item 1). Fire panics with an
// *ArgumentError if a later call doesn't match.
func (sm *StateMachine[S, T]) SetTriggerParameters(trigger T, argumentTypes ...reflect.Type) {
	if _, ok := sm.triggerConfig[trigger]; ok {
		panic(&ConfigError{msg: fmt.Sprintf(
			"stateless: Parameters for the trigger '%v' have already been configured.", trigger)})
	}
	sm.triggerConfig[trigger] = triggerWithParameters[T]{Trigger: trigger, ArgumentTypes: argumentTypes}
}

// Fire see FireCtx.
func (sm *StateMachine[S, T]) Fire(trigger T, args ...any) error {
	return sm.FireCtx(context.Background(), trigger, args...)
}

// FireCtx transitions the machine using trigger from its current state. The
// destination is determined entirely by how the current state (or one of
// its ancestors) was configured. There is no rollback: if an action run
// after the state has already been mutated returns an error, the state
// change stands. Use guards to keep the machine out of states it cannot
// leave cleanly.
func (sm *StateMachine[S, T]) FireCtx(ctx context.Context, trigger T, args ...any) error {
	return sm.mode.Fire(ctx, trigger, args...)
}

// OnTransitioned registers a callback invoked after a transition has
// committed: the new state is already current when fn runs. Not invoked for
// Internal or Ignored triggers; invoked for reentry.
func (sm *StateMachine[S, T]) OnTransitioned(fn ...TransitionFunc[S, T]) {
	sm.onTransitionedEvents = append(sm.onTransitionedEvents, fn...)
}

// OnTransitioning registers a callback invoked after the source state's exit
// actions have run but before the new state becomes current and before any
// entry action runs. Not invoked for Internal or Ignored triggers; invoked
// for reentry.
func (sm *StateMachine[S, T]) OnTransitioning(fn ...TransitionFunc[S, T]) {
	sm.onTransitioningEvents = append(sm.onTransitioningEvents, fn...)
}

// OnUnhandledTrigger overrides DefaultUnhandledTriggerAction.
func (sm *StateMachine[S, T]) OnUnhandledTrigger(fn UnhandledTriggerActionFunc[S, T]) {
	sm.unhandledTriggerAction = fn
}

// Configure begins configuring the entry/exit/activation actions and
// permitted transitions for state.
func (sm *StateMachine[S, T]) Configure(state S) *StateConfiguration[S, T] {
	return &StateConfiguration[S, T]{sm: sm, sr: sm.stateRepresentation(state), lookup: sm.stateRepresentation}
}

// Firing reports whether the machine is currently mid-dispatch: true for
// the whole duration of an outer Fire call and every nested one it triggers.
func (sm *StateMachine[S, T]) Firing() bool {
	return sm.mode.Firing()
}

// String returns a human-readable snapshot of the current state and its
// permitted triggers. Trigger ordering across calls is stable but not
// guaranteed to match any particular configuration order once superstates
// are involved.
func (sm *StateMachine[S, T]) String() string {
	state, err := sm.State(context.Background())
	if err != nil {
		return ""
	}
	triggers, _ := sm.PermittedTriggers()
	return fmt.Sprintf("StateMachine { State = %v, PermittedTriggers = %v }", state, triggers)
}

func (sm *StateMachine[S, T]) setState(ctx context.Context, state S) error {
	return sm.stateMutator(ctx, state)
}

func (sm *StateMachine[S, T]) currentState(ctx context.Context) (*stateRepresentation[S, T], error) {
	state, err := sm.State(ctx)
	if err != nil {
		return nil, err
	}
	return sm.stateRepresentation(state), nil
}

func (sm *StateMachine[S, T]) stateRepresentation(state S) *stateRepresentation[S, T] {
	sr, ok := sm.stateConfig[state]
	if !ok {
		sr = newStateRepresentation[S, T](state)
		sm.stateConfig[state] = sr
	}
	return sr
}
