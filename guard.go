package stateless

import (
	"context"
	"reflect"
	"runtime"
	"strings"
)

// GuardFunc defines a predicate evaluated against the arguments of a fired
// trigger. Guards must be pure for the duration of a single Fire: the engine
// may call the same guard more than once per fire (see transitionGuard).
type GuardFunc func(ctx context.Context, args ...any) bool

// invocationInfo names a guard or action for diagnostics, derived from the
// function's own name via reflection so callers don't need to supply one.
type invocationInfo struct {
	Method string
}

func newInvocationInfo(fn any) invocationInfo {
	name := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	if parts := strings.Split(name, "."); len(parts) != 0 {
		name = parts[len(parts)-1]
	}
	return invocationInfo{Method: name}
}

func (inv invocationInfo) String() string {
	if inv.Method != "" {
		return inv.Method
	}
	return "<nil>"
}

type guardCondition struct {
	Guard       GuardFunc
	Description invocationInfo
}

// transitionGuard is an ordered list of (predicate, description) pairs. It is
// "met" when every predicate returns true; an empty guard list is trivially
// met. See spec §4.1.
type transitionGuard struct {
	Conditions []guardCondition
}

func newTransitionGuard(guards ...GuardFunc) transitionGuard {
	tg := transitionGuard{Conditions: make([]guardCondition, len(guards))}
	for i, g := range guards {
		tg.Conditions[i] = guardCondition{Guard: g, Description: newInvocationInfo(g)}
	}
	return tg
}

// AllMet reports whether every guard condition returns true for args.
func (tg transitionGuard) AllMet(ctx context.Context, args ...any) bool {
	for _, c := range tg.Conditions {
		if !c.Guard(ctx, args...) {
			return false
		}
	}
	return true
}

// Unmet returns, in declaration order, the descriptions of the guard
// conditions that returned false for args. Guards may be evaluated again
// here after already having been evaluated once by AllMet (spec §9: guard
// evaluation count is not memoized).
func (tg transitionGuard) Unmet(ctx context.Context, args ...any) []string {
	var unmet []string
	for _, c := range tg.Conditions {
		if !c.Guard(ctx, args...) {
			unmet = append(unmet, c.Description.String())
		}
	}
	return unmet
}
