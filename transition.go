package stateless

import "context"

// Transition describes a state transition: which trigger caused it, which
// state it left, and which state it entered.
type Transition[S State, T Trigger] struct {
	Source      S
	Destination S
	Trigger     T

	isInitial bool
}

// IsReentry returns true if the transition is a reentry, i.e. Source and
// Destination are the same state. PermitReentry-configured transitions are
// always reentries by construction; a PermitDynamic transition whose
// resolver happens to return the source state is a reentry too (spec §3,
// "isReentry ≡ source == destination").
func (t Transition[S, T]) IsReentry() bool {
	return t.Source == t.Destination
}

// IsInitial returns true if the transition is the automatic descent into a
// substate performed after entering a state configured with InitialTransition.
func (t Transition[S, T]) IsInitial() bool {
	return t.isInitial
}

type transitionKey struct{}

// withTransition stores the transition that triggered the current action in
// ctx, so an action body can call GetTransition to inspect it.
func withTransition[S State, T Trigger](ctx context.Context, transition Transition[S, T]) context.Context {
	return context.WithValue(ctx, transitionKey{}, transition)
}

// GetTransition returns the transition that is driving the action or guard
// currently executing, extracted from ctx. The zero Transition is returned
// if ctx carries none (e.g. when Fire is not mid-dispatch).
func GetTransition[S State, T Trigger](ctx context.Context) Transition[S, T] {
	tr, _ := ctx.Value(transitionKey{}).(Transition[S, T])
	return tr
}
