package timestep

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStepTypePredicates(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{1, 2})

	first := New(First, 0, 0.99, obs, 0)
	if !first.First() || first.Mid() || first.Last() {
		t.Error("first timestep misreports its step type")
	}

	mid := New(Mid, 1, 0.99, obs, 1)
	if mid.First() || !mid.Mid() || mid.Last() {
		t.Error("mid timestep misreports its step type")
	}

	last := New(Last, 1, 0.99, obs, 2)
	if last.First() || last.Mid() || !last.Last() {
		t.Error("last timestep misreports its step type")
	}
}

func TestEndTypes(t *testing.T) {
	obs := mat.NewVecDense(1, []float64{0})
	step := New(Mid, 1, 0.99, obs, 3)

	if step.TerminalEnd() || step.TimeoutEnd() {
		t.Error("new timestep should have no end type")
	}

	step.StepType = Last
	step.SetEnd(Timeout)
	if !step.TimeoutEnd() || step.TerminalEnd() {
		t.Error("timeout end misreported")
	}

	step.SetEnd(TerminalStateReached)
	if !step.TerminalEnd() || step.TimeoutEnd() {
		t.Error("terminal end misreported")
	}
}
