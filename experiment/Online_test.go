package experiment

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goreinforce/agent/nonlinear/discrete/reinforce"
	env "github.com/samuelfneumann/goreinforce/environment"
	"github.com/samuelfneumann/goreinforce/experiment/reporter"
	"github.com/samuelfneumann/goreinforce/experiment/tracker"
	"github.com/samuelfneumann/goreinforce/initwfn"
	"github.com/samuelfneumann/goreinforce/network"
	"github.com/samuelfneumann/goreinforce/solver"
	ts "github.com/samuelfneumann/goreinforce/timestep"
)

// stubEnv is a deterministic environment for testing the training
// loop end-to-end. Every step gives a reward of 1, the state never
// changes, and every episode ends in a terminal state after exactly
// episodeLength steps.
type stubEnv struct {
	episodeLength int
	discount      float64
	current       ts.TimeStep
}

func newStubEnv(episodeLength int, discount float64) *stubEnv {
	return &stubEnv{episodeLength: episodeLength, discount: discount}
}

func (s *stubEnv) obs() *mat.VecDense {
	return mat.NewVecDense(2, []float64{0.1, -0.1})
}

func (s *stubEnv) Start() mat.Vector { return s.obs() }

func (s *stubEnv) End(t *ts.TimeStep) bool {
	if t.Number >= s.episodeLength {
		t.StepType = ts.Last
		t.SetEnd(ts.TerminalStateReached)
		return true
	}
	return false
}

func (s *stubEnv) GetReward(_, _, _ mat.Vector) float64 { return 1.0 }
func (s *stubEnv) AtGoal(_ mat.Matrix) bool             { return false }
func (s *stubEnv) Min() float64                         { return 1.0 }
func (s *stubEnv) Max() float64                         { return 1.0 }

func (s *stubEnv) RewardSpec() env.Spec {
	bound := mat.NewVecDense(1, []float64{1.0})
	return env.NewSpec(mat.NewVecDense(1, nil), env.Reward, bound, bound,
		env.Continuous)
}

func (s *stubEnv) Reset() ts.TimeStep {
	s.current = ts.New(ts.First, 0, s.discount, s.obs(), 0)
	return s.current
}

func (s *stubEnv) Step(_ *mat.VecDense) (ts.TimeStep, bool) {
	next := ts.New(ts.Mid, 1.0, s.discount, s.obs(), s.current.Number+1)
	last := s.End(&next)
	s.current = next
	return next, last
}

func (s *stubEnv) ObservationSpec() env.Spec {
	low := mat.NewVecDense(2, []float64{-1, -1})
	high := mat.NewVecDense(2, []float64{1, 1})
	return env.NewSpec(mat.NewVecDense(2, nil), env.Observation, low, high,
		env.Continuous)
}

func (s *stubEnv) ActionSpec() env.Spec {
	low := mat.NewVecDense(1, []float64{0})
	high := mat.NewVecDense(1, []float64{1})
	return env.NewSpec(mat.NewVecDense(1, nil), env.Action, low, high,
		env.Discrete)
}

func (s *stubEnv) DiscountSpec() env.Spec {
	bound := mat.NewVecDense(1, []float64{s.discount})
	return env.NewSpec(mat.NewVecDense(1, nil), env.Discount, bound, bound,
		env.Continuous)
}

func newTestAgent(t *testing.T, e env.Environment, rolloutLimit int,
	seed uint64) *reinforce.REINFORCE {
	t.Helper()

	policySolver, err := solver.NewDefaultAdam(1e-2, 1)
	if err != nil {
		t.Fatal(err)
	}
	init, err := initwfn.NewZeroes()
	if err != nil {
		t.Fatal(err)
	}

	conf := reinforce.CategoricalMLPConfig{
		PolicyLayers:      []int{5},
		PolicyBiases:      []bool{true},
		PolicyActivations: []*network.Activation{network.TanH()},
		InitWFn:           init,
		PolicySolver:      policySolver,
		RolloutLimit:      rolloutLimit,
		Gamma:             0.9,
	}
	a, err := conf.CreateAgent(e, seed)
	if err != nil {
		t.Fatal(err)
	}
	return a.(*reinforce.REINFORCE)
}

// TestOnlineEpisodicReturns trains a real agent on the stub
// environment and checks that the tracked episodic returns and
// lengths reflect the environment's fixed episode structure
func TestOnlineEpisodicReturns(t *testing.T) {
	episodeLength := 3
	episodes := 5

	e := newStubEnv(episodeLength, 0.9)
	a := newTestAgent(t, e, 8, 42)

	returns := tracker.NewReturn(t.TempDir() + "/returns.bin")
	lengths := tracker.NewEpisodeLength(t.TempDir() + "/lengths.bin")
	exp := NewOnline(e, a, uint(episodes), 0, 0,
		[]tracker.Tracker{returns, lengths}, nil)

	if err := exp.Run(context.Background()); err != nil {
		t.Fatalf("could not run experiment: %v", err)
	}

	gotReturns := returns.Returns()
	if len(gotReturns) != episodes {
		t.Fatalf("tracked %d episodic returns, want %d", len(gotReturns),
			episodes)
	}
	for i, ret := range gotReturns {
		if ret != float64(episodeLength) {
			t.Errorf("episode %d: got return %v, want %v", i, ret,
				float64(episodeLength))
		}
	}

	gotLengths := lengths.Lengths()
	if len(gotLengths) != episodes {
		t.Fatalf("tracked %d episode lengths, want %d", len(gotLengths),
			episodes)
	}
	for i, length := range gotLengths {
		if length != episodeLength {
			t.Errorf("episode %d: got length %v, want %v", i, length,
				episodeLength)
		}
	}
}

// TestOnlineAgentUpdates checks that the agent performs exactly one
// update per episode and that the recorded loss is finite
func TestOnlineAgentUpdates(t *testing.T) {
	e := newStubEnv(3, 0.9)
	a := newTestAgent(t, e, 8, 7)

	exp := NewOnline(e, a, 1, 0, 0, nil, nil)
	if err := exp.Run(context.Background()); err != nil {
		t.Fatalf("could not run experiment: %v", err)
	}

	loss := a.Loss()
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		t.Errorf("loss after one episode is not finite: %v", loss)
	}

	// With zero-initialized weights, each of the 3 actions has log
	// probability ln(1/2). The returns at discount 0.9 are
	// G = (2.71, 1.9, 1), so the first loss is exactly
	// -mean(ln(0.5) * G)
	wantLoss := -(math.Log(0.5) * (2.71 + 1.9 + 1.0)) / 3.0
	if math.Abs(loss-wantLoss) > 1e-9 {
		t.Errorf("got loss %v, want %v", loss, wantLoss)
	}
}

// TestOnlineValidationDoesNotLearn checks that validation episodes do
// not change the policy weights
func TestOnlineValidationDoesNotLearn(t *testing.T) {
	e := newStubEnv(3, 0.9)
	a := newTestAgent(t, e, 8, 11)

	// Every episode is followed by a validation pass
	exp := NewOnline(e, a, 2, 1, 2, nil, nil)
	if err := exp.Run(context.Background()); err != nil {
		t.Fatalf("could not run experiment: %v", err)
	}

	if a.IsEval() {
		t.Error("agent should be returned to training mode after validation")
	}
}

// TestOnlineValidationReport checks that the printed validation line
// combines the evaluation returns with the mean training return and
// mean loss of the episodes since the last evaluation
func TestOnlineValidationReport(t *testing.T) {
	e := newStubEnv(3, 0.9)
	a := newTestAgent(t, e, 8, 17)

	var buf bytes.Buffer
	exp := NewOnline(e, a, 2, 2, 2, nil, reporter.NewTerminalTo(&buf))
	if err := exp.Run(context.Background()); err != nil {
		t.Fatalf("could not run experiment: %v", err)
	}

	// Every episode of the stub environment returns exactly 3, so both
	// the evaluation and training means are 3
	out := buf.String()
	want := "validation after episode 2: mean return 3.00 (min 3.00, " +
		"max 3.00)  training mean return 3.00  loss "
	if !strings.Contains(out, want) {
		t.Errorf("validation line missing from output:\n%v", out)
	}
}

// TestSinceLastValidation checks that training data is windowed by the
// validation frequency
func TestSinceLastValidation(t *testing.T) {
	o := &Online{valFreq: 2}

	got := o.sinceLastValidation([]float64{1, 2, 3, 4, 5})
	if len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Errorf("got window %v, want [4 5]", got)
	}

	got = o.sinceLastValidation([]float64{1})
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("got window %v, want [1]", got)
	}

	if got := o.sinceLastValidation(nil); len(got) != 0 {
		t.Errorf("got window %v for no data, want none", got)
	}
}

// failingAgent acts like a fixed policy but fails its update on a
// chosen episode.
type failingAgent struct {
	failOn   int
	episodes int
}

func (f *failingAgent) SelectAction(_ ts.TimeStep) *mat.VecDense {
	return mat.NewVecDense(1, []float64{0})
}

func (f *failingAgent) ObserveFirst(_ ts.TimeStep) error {
	f.episodes++
	return nil
}

func (f *failingAgent) Observe(_ mat.Vector, _ ts.TimeStep) error {
	return nil
}

func (f *failingAgent) Step() error {
	if f.episodes >= f.failOn {
		return errors.New("update failed")
	}
	return nil
}

func (f *failingAgent) EndEpisode()  {}
func (f *failingAgent) Eval()        {}
func (f *failingAgent) Train()       {}
func (f *failingAgent) IsEval() bool { return false }

// TestOnlineStopsReporterOnError checks that a failing episode still
// stops and flushes the live reporter before Run returns
func TestOnlineStopsReporterOnError(t *testing.T) {
	e := newStubEnv(3, 0.9)
	a := &failingAgent{failOn: 2}

	var buf bytes.Buffer
	exp := NewOnline(e, a, 2, 0, 0, nil, reporter.NewTerminalTo(&buf))

	if err := exp.Run(context.Background()); err == nil {
		t.Fatal("running with a failing agent should fail")
	}

	// Run stops the writer on its way out, which flushes the progress
	// line of the completed first episode
	if !strings.Contains(buf.String(), "episode 1/2") {
		t.Errorf("progress line was not flushed:\n%v", buf.String())
	}
}

// TestOnlineRespectsContext checks that a cancelled context stops the
// experiment before any episode runs
func TestOnlineRespectsContext(t *testing.T) {
	e := newStubEnv(3, 0.9)
	a := newTestAgent(t, e, 8, 13)

	returns := tracker.NewReturn(t.TempDir() + "/returns.bin")
	exp := NewOnline(e, a, 100, 0, 0, []tracker.Tracker{returns}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := exp.Run(ctx); err == nil {
		t.Fatal("running with a cancelled context should fail")
	}
	if len(returns.Returns()) != 0 {
		t.Errorf("cancelled experiment ran %d episodes, want 0",
			len(returns.Returns()))
	}
}
