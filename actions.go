package stateless

import "context"

// actionBehaviour wraps an entry or exit action together with its optional
// trigger scope (spec §2 item 5: "Entry actions may optionally be
// trigger-scoped"). Exit actions reuse the same shape (OnExitWith).
type actionBehaviour[S State, T Trigger] struct {
	Action      ActionFunc
	Description invocationInfo
	Trigger     *T
}

// Execute runs the action unless it is trigger-scoped to a different
// trigger than the one driving transition.
func (a actionBehaviour[S, T]) Execute(ctx context.Context, transition Transition[S, T], args ...any) error {
	if a.Trigger != nil && *a.Trigger != transition.Trigger {
		return nil
	}
	return a.Action(withTransition(ctx, transition), args...)
}

// actionBehaviourSteady wraps an activate or deactivate action: these never
// see trigger arguments or a Transition (spec §2 item 5).
type actionBehaviourSteady struct {
	Action      SteadyActionFunc
	Description invocationInfo
}

func (a actionBehaviourSteady) Execute(ctx context.Context) error {
	return a.Action(ctx)
}
