// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either the
// first environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes the reason an episode ended. An episode may end
// because a terminal state was reached (e.g. the pole fell over) or
// because a step limit cut the episode off. TimeSteps that do not end
// an episode have EndType Nil.
type EndType int

const (
	// TerminalStateReached indicates that the episode ended in a
	// terminal state of the MDP
	TerminalStateReached EndType = iota

	// Timeout indicates that the episode was cut off at a step limit
	Timeout

	// Nil indicates that the TimeStep does not end its episode
	Nil
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	default:
		return "Nil"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Discount    float64
	Observation mat.Vector
	Number      int
	EndType     EndType
}

// New returns a new TimeStep with EndType Nil
func New(t StepType, r, d float64, o mat.Vector, n int) TimeStep {
	return TimeStep{t, r, d, o, n, Nil}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd sets the reason the TimeStep ends its episode
func (t *TimeStep) SetEnd(e EndType) {
	t.EndType = e
}

// TerminalEnd returns whether the TimeStep ended its episode in a
// terminal state of the MDP
func (t *TimeStep) TerminalEnd() bool {
	return t.EndType == TerminalStateReached
}

// TimeoutEnd returns whether the TimeStep ended its episode due to a
// step limit
func (t *TimeStep) TimeoutEnd() bool {
	return t.EndType == Timeout
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number)
}

// Transition packages together a single transition of the
// agent-environment interaction
type Transition struct {
	State     mat.Vector
	Action    mat.Vector
	Reward    float64
	Discount  float64
	NextState mat.Vector
}

// NewTransition constructs a Transition from two sequential TimeSteps
// and the action that led from the first to the second
func NewTransition(step TimeStep, action mat.Vector,
	nextStep TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		Discount:  nextStep.Discount,
		NextState: nextStep.Observation,
	}
}
