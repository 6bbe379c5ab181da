package policy

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/goreinforce/environment"
	"github.com/samuelfneumann/goreinforce/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/goreinforce/initwfn"
	"github.com/samuelfneumann/goreinforce/network"
	ts "github.com/samuelfneumann/goreinforce/timestep"
)

// newCartpole returns a cartpole environment and its first timestep
// for testing policies on
func newCartpole(t *testing.T, seed uint64) (environment.Environment,
	ts.TimeStep) {
	t.Helper()

	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	starter := environment.NewUniformStarter([]r1.Interval{
		bounds,
		bounds,
		bounds,
		bounds,
	}, seed)
	task := cartpole.NewBalance(starter, 500, cartpole.FailAngle)

	env, step := cartpole.New(task, 0.99)
	return env, step
}

// newZeroPolicy returns a batch size 1 policy whose network weights
// are all zero, so that its action distribution is exactly uniform
func newZeroPolicy(t *testing.T, env environment.Environment,
	seed uint64) *CategoricalMLP {
	t.Helper()

	init, err := initwfn.NewZeroes()
	if err != nil {
		t.Fatal(err)
	}

	p, err := NewCategoricalMLP(
		env,
		1,
		G.NewGraph(),
		[]int{5},
		[]bool{true},
		[]*network.Activation{network.TanH()},
		init.InitWFn(),
		seed,
	)
	if err != nil {
		t.Fatal(err)
	}
	return p.(*CategoricalMLP)
}

// TestProbabilitiesUniformWithZeroWeights checks that a zero-weight
// network induces the uniform action distribution
func TestProbabilitiesUniformWithZeroWeights(t *testing.T) {
	env, step := newCartpole(t, 14)
	p := newZeroPolicy(t, env, 14)

	obs := step.Observation.(*mat.VecDense).RawVector().Data
	probs := p.Probabilities(obs)

	if len(probs) != 2 {
		t.Fatalf("got %d action probabilities, want 2", len(probs))
	}
	for i, prob := range probs {
		if math.Abs(prob-0.5) > 1e-12 {
			t.Errorf("action %d: got probability %v, want 0.5", i, prob)
		}
	}
}

// TestProbabilitiesValidDistribution checks that the policy's action
// probabilities form a probability distribution for a randomly
// initialized network
func TestProbabilitiesValidDistribution(t *testing.T) {
	env, step := newCartpole(t, 21)

	init, err := initwfn.NewGlorotN(math.Sqrt(2.0))
	if err != nil {
		t.Fatal(err)
	}
	pol, err := NewCategoricalMLP(
		env,
		1,
		G.NewGraph(),
		[]int{10},
		[]bool{true},
		[]*network.Activation{network.ReLU()},
		init.InitWFn(),
		21,
	)
	if err != nil {
		t.Fatal(err)
	}
	p := pol.(*CategoricalMLP)

	probs := p.Probabilities(step.Observation.(*mat.VecDense).RawVector().Data)

	sum := 0.0
	for i, prob := range probs {
		if prob < 0 {
			t.Errorf("action %d: got negative probability %v", i, prob)
		}
		sum += prob
	}
	if math.Abs(sum-1.0) > 1e-12 {
		t.Errorf("probabilities sum to %v, want 1", sum)
	}
}

// TestSelectActionReproducible checks that two policies constructed
// with the same seed sample identical action sequences
func TestSelectActionReproducible(t *testing.T) {
	env, step := newCartpole(t, 33)
	p1 := newZeroPolicy(t, env, 98765)
	p2 := newZeroPolicy(t, env, 98765)

	for i := 0; i < 25; i++ {
		a1 := p1.SelectAction(step).AtVec(0)
		a2 := p2.SelectAction(step).AtVec(0)
		if a1 != a2 {
			t.Fatalf("step %d: policies with equal seeds sampled %v and %v",
				i, a1, a2)
		}
	}
}

// TestSelectActionGreedyInEval checks that evaluation mode selects a
// most probable action
func TestSelectActionGreedyInEval(t *testing.T) {
	env, step := newCartpole(t, 42)
	p := newZeroPolicy(t, env, 42)

	probs := p.Probabilities(step.Observation.(*mat.VecDense).RawVector().Data)
	max := math.Max(probs[0], probs[1])

	p.Eval()
	if !p.IsEval() {
		t.Fatal("policy should be in evaluation mode after Eval()")
	}
	for i := 0; i < 10; i++ {
		action := int(p.SelectAction(step).AtVec(0))
		if probs[action] != max {
			t.Errorf("greedy selection chose action %d with probability "+
				"%v, want %v", action, probs[action], max)
		}
	}

	p.Train()
	if p.IsEval() {
		t.Fatal("policy should be in training mode after Train()")
	}
}

func TestSampleFrom(t *testing.T) {
	tests := []struct {
		probs []float64
		u     float64
		want  int
	}{
		{[]float64{0.0, 1.0, 0.0}, 0.0, 1},
		{[]float64{0.0, 1.0, 0.0}, 0.9999, 1},
		{[]float64{0.5, 0.5}, 0.0, 0},
		{[]float64{0.5, 0.5}, 0.499, 0},
		{[]float64{0.5, 0.5}, 0.5, 1},
		{[]float64{0.25, 0.25, 0.5}, 0.6, 2},
		// Cumulative probability slightly below 1 falls back to the
		// last action
		{[]float64{0.3, 0.3, 0.3999}, 0.99999, 2},
	}

	for i, test := range tests {
		got := sampleFrom(test.probs, test.u)
		if got != test.want {
			t.Errorf("test %d: sampleFrom(%v, %v) = %d, want %d", i,
				test.probs, test.u, got, test.want)
		}
	}
}

// TestLogPdfOfValidatesActions checks that a training policy rejects
// action batches whose size differs from its batch size
func TestLogPdfOfValidatesActions(t *testing.T) {
	env, _ := newCartpole(t, 7)

	init, err := initwfn.NewZeroes()
	if err != nil {
		t.Fatal(err)
	}
	pol, err := NewCategoricalMLP(
		env,
		4,
		G.NewGraph(),
		[]int{5},
		[]bool{true},
		[]*network.Activation{network.TanH()},
		init.InitWFn(),
		7,
	)
	if err != nil {
		t.Fatal(err)
	}

	states := make([]float64, 4*env.ObservationSpec().Shape.Len())
	if _, err := pol.LogPdfOf(states, []float64{0, 1}); err == nil {
		t.Error("log probabilities of a batch of the wrong size should fail")
	}

	node, err := pol.LogPdfOf(states, []float64{0, 1, 1, 0})
	if err != nil {
		t.Fatalf("could not compute log probabilities: %v", err)
	}
	if node != pol.LogPdfNode() {
		t.Error("LogPdfOf should return the node given by LogPdfNode")
	}
}
