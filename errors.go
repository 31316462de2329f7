package stateless

import "fmt"

// ConfigError reports a mistake in how the state machine was configured:
// a cyclic SubstateOf chain, a second InitialTransition on the same state,
// a Permit to the source state, two fully-met trigger behaviours for the
// same (state, trigger), or an initial-transition target that is not a
// substate (spec §7.1). These are programmer errors, detected once at
// configuration or first-fire time, and are therefore panicked rather than
// returned, exactly where the teacher library panics.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

// ArgumentError reports that the arguments supplied to Fire do not match the
// arity or types registered with SetTriggerParameters (spec §7.2).
type ArgumentError struct {
	msg string
}

func (e *ArgumentError) Error() string { return e.msg }

// UnhandledTriggerError is the error produced by DefaultUnhandledTriggerAction
// when a fired trigger has no applicable transition from the current state,
// either because no trigger behaviour is registered for it anywhere in the
// state's ancestor chain, or because one is registered but its guards are
// not met (spec §4.10, §7.3).
type UnhandledTriggerError struct {
	State       any
	Trigger     any
	UnmetGuards []string
	msg         string
}

func (e *UnhandledTriggerError) Error() string { return e.msg }

func newUnhandledTriggerError(state, trigger any, unmetGuards []string) *UnhandledTriggerError {
	if len(unmetGuards) != 0 {
		return &UnhandledTriggerError{
			State: state, Trigger: trigger, UnmetGuards: unmetGuards,
			msg: fmt.Sprintf(
				"stateless: Trigger '%v' is valid for transition from state '%v' but a guard condition is not met. Guard descriptions: '%v'.",
				trigger, state, unmetGuards),
		}
	}
	return &UnhandledTriggerError{
		State: state, Trigger: trigger,
		msg: fmt.Sprintf(
			"stateless: No valid leaving transitions are permitted from state '%v' for trigger '%v', consider ignoring the trigger.",
			state, trigger),
	}
}
