package stateless

// Shared fixtures for the white-box (package stateless) test files. States
// and triggers are plain strings, as in most of the example configurations
// throughout this package's godoc.
const (
	stateA = "A"
	stateB = "B"
	stateC = "C"
	stateD = "D"

	triggerX = "X"
	triggerY = "Y"
	triggerZ = "Z"
)

func createSuperSubstatePair() (*stateRepresentation[string, string], *stateRepresentation[string, string]) {
	super := newStateRepresentation[string, string](stateA)
	sub := newStateRepresentation[string, string](stateB)
	super.Substates = append(super.Substates, sub)
	sub.Superstate = super
	return super, sub
}
