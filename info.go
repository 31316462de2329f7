package stateless

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// StateMachineInfo is a read-only snapshot of a StateMachine's configuration.
// InitialState holds the state the machine was in when the snapshot was
// taken (spec §6, "external collaborator:
// reflection/introspection export" — only the engine-visible shape is
// specified; this is the concrete, exported form of that shape).
type StateMachineInfo struct {
	InitialState string      `yaml:"initialState"`
	States       []StateInfo `yaml:"states"`
}

// StateInfo describes one configured state: its place in the hierarchy, its
// actions, and the transitions reachable from it.
type StateInfo struct {
	State              string           `yaml:"state"`
	Superstate         string           `yaml:"superstate,omitempty"`
	Substates          []string         `yaml:"substates,omitempty"`
	InitialTransition  string           `yaml:"initialTransition,omitempty"`
	EntryActions       []string         `yaml:"entryActions,omitempty"`
	ExitActions        []string         `yaml:"exitActions,omitempty"`
	ActivateActions    []string         `yaml:"activateActions,omitempty"`
	DeactivateActions  []string         `yaml:"deactivateActions,omitempty"`
	IgnoredTriggers    []string         `yaml:"ignoredTriggers,omitempty"`
	FixedTransitions   []TransitionInfo `yaml:"fixedTransitions,omitempty"`
	DynamicTransitions []TransitionInfo `yaml:"dynamicTransitions,omitempty"`
}

// TransitionInfo describes one trigger's effect from the state it was
// declared on.
type TransitionInfo struct {
	Trigger           string   `yaml:"trigger"`
	Destination       string   `yaml:"destination,omitempty"`
	Internal          bool     `yaml:"internal,omitempty"`
	Reentry           bool     `yaml:"reentry,omitempty"`
	GuardDescriptions []string `yaml:"guards,omitempty"`
}

func (sm *StateMachine[S, T]) info() StateMachineInfo {
	states := make([]*stateRepresentation[S, T], 0, len(sm.stateConfig))
	for _, sr := range sm.stateConfig {
		states = append(states, sr)
	}
	sort.Slice(states, func(i, j int) bool {
		return fmt.Sprint(states[i].State) < fmt.Sprint(states[j].State)
	})

	initial, _ := sm.State(context.Background())
	out := StateMachineInfo{InitialState: fmt.Sprint(initial)}
	for _, sr := range states {
		out.States = append(out.States, stateInfoFor(sr))
	}
	return out
}

func stateInfoFor[S State, T Trigger](sr *stateRepresentation[S, T]) StateInfo {
	info := StateInfo{State: fmt.Sprint(sr.State)}
	if sr.Superstate != nil {
		info.Superstate = fmt.Sprint(sr.Superstate.State)
	}
	for _, sub := range sr.Substates {
		info.Substates = append(info.Substates, fmt.Sprint(sub.State))
	}
	if sr.HasInitialState {
		info.InitialTransition = fmt.Sprint(sr.InitialTransitionTarget)
	}
	for _, a := range sr.EntryActions {
		if a.Trigger == nil {
			info.EntryActions = append(info.EntryActions, a.Description.String())
		}
	}
	for _, a := range sr.ExitActions {
		if a.Trigger == nil {
			info.ExitActions = append(info.ExitActions, a.Description.String())
		}
	}
	for _, a := range sr.ActivateActions {
		info.ActivateActions = append(info.ActivateActions, a.Description.String())
	}
	for _, a := range sr.DeactivateActions {
		info.DeactivateActions = append(info.DeactivateActions, a.Description.String())
	}

	for _, trig := range sr.triggerOrder {
		for _, tb := range sr.TriggerBehaviours[trig] {
			switch t := tb.(type) {
			case *ignoredTriggerBehaviour[S, T]:
				info.IgnoredTriggers = append(info.IgnoredTriggers, fmt.Sprint(t.Trigger))
			case *internalTriggerBehaviour[S, T]:
				info.FixedTransitions = append(info.FixedTransitions, TransitionInfo{
					Trigger: fmt.Sprint(t.Trigger), Internal: true,
					GuardDescriptions: guardDescriptions(t.Guard),
				})
			case *reentryTriggerBehaviour[S, T]:
				info.FixedTransitions = append(info.FixedTransitions, TransitionInfo{
					Trigger: fmt.Sprint(t.Trigger), Destination: fmt.Sprint(t.Destination), Reentry: true,
					GuardDescriptions: guardDescriptions(t.Guard),
				})
			case *transitioningTriggerBehaviour[S, T]:
				info.FixedTransitions = append(info.FixedTransitions, TransitionInfo{
					Trigger: fmt.Sprint(t.Trigger), Destination: fmt.Sprint(t.Destination),
					GuardDescriptions: guardDescriptions(t.Guard),
				})
			case *dynamicTriggerBehaviour[S, T]:
				info.DynamicTransitions = append(info.DynamicTransitions, TransitionInfo{
					Trigger:           fmt.Sprint(t.Trigger),
					GuardDescriptions: guardDescriptions(t.Guard),
				})
			}
		}
	}
	return info
}

func guardDescriptions(tg transitionGuard) []string {
	descriptions := make([]string, 0, len(tg.Conditions))
	for _, c := range tg.Conditions {
		descriptions = append(descriptions, c.Description.String())
	}
	return descriptions
}

func (info StateMachineInfo) toYAML() (string, error) {
	out, err := yaml.Marshal(info)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
