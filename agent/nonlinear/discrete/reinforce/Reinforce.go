// Package reinforce implements the episodic REINFORCE algorithm, a
// Monte Carlo policy-gradient method for discrete action spaces.
//
// Adapted from the algorithm in Sutton & Barto (2018), chapter 13.
package reinforce

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/goreinforce/agent"
	"github.com/samuelfneumann/goreinforce/buffer/montecarlo"
	"github.com/samuelfneumann/goreinforce/network"
	ts "github.com/samuelfneumann/goreinforce/timestep"
)

// REINFORCE implements the episodic REINFORCE algorithm. The agent
// samples a full episode from its stochastic softmax policy, computes
// the discounted Monte Carlo return of every timestep, and performs
// exactly one gradient step per episode on the loss
//
//	-(1/T) Σ_t log π(a_t | s_t) · G_t
//
// which is the Monte Carlo estimator of the negative policy-gradient
// objective. No baseline is used; returns enter the loss raw.
//
// The agent holds two views of the same policy: a behaviour policy
// with batch size 1 that selects actions during rollouts without any
// gradient bookkeeping, and a training policy with batch size equal to
// the rollout limit whose graph retains gradient information. After
// each update the behaviour policy's weights are set to the training
// policy's weights.
//
// Because the training graph has a fixed batch dimension, episodes
// shorter than the rollout limit are zero-padded. Padded rows
// contribute exactly zero to the loss and its gradient since their
// returns are zero, and the returns of real rows are pre-scaled by 1/T
// so that the padded sum equals the mean over the T real timesteps.
type REINFORCE struct {
	behaviour         agent.NNPolicy   // Has its own VM
	trainPolicy       agent.LogPdfOfer // Policy that is learned
	trainPolicySolver G.Solver
	trainPolicyVM     G.VM

	returns *G.Node // For gradient construction
	lossVal G.Value

	buffer       *montecarlo.Buffer
	gamma        float64
	rolloutLimit int
	features     int
	actionDims   int

	eval     bool
	prevStep ts.TimeStep
	lastLoss float64
}

// New creates and returns a new REINFORCE agent. The behaviour policy
// must have batch size 1, and the training policy must have batch
// size rolloutLimit. Both must share the architecture so that weights
// can be copied between them.
func New(behaviour agent.NNPolicy, trainPolicy agent.LogPdfOfer,
	sol G.Solver, gamma float64, rolloutLimit, features,
	actionDims int) (*REINFORCE, error) {
	buffer := montecarlo.New(features, actionDims, rolloutLimit)

	// Construct the policy-gradient loss on the training policy's
	// graph
	logPdf := trainPolicy.LogPdfNode()
	returns := G.NewVector(
		trainPolicy.Network().Graph(),
		tensor.Float64,
		G.WithName("discountedReturns"),
		G.WithShape(rolloutLimit),
	)

	loss := G.Must(G.HadamardProd(logPdf, returns))
	loss = G.Must(G.Sum(loss))
	loss = G.Must(G.Neg(loss))

	r := &REINFORCE{
		behaviour:         behaviour,
		trainPolicy:       trainPolicy,
		trainPolicySolver: sol,
		returns:           returns,
		buffer:            buffer,
		gamma:             gamma,
		rolloutLimit:      rolloutLimit,
		features:          features,
		actionDims:        actionDims,
		eval:              false,
	}
	G.Read(loss, &r.lossVal)

	if _, err := G.Grad(loss,
		trainPolicy.Network().Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute gradient: %v", err)
	}
	r.trainPolicyVM = G.NewTapeMachine(
		trainPolicy.Network().Graph(),
		G.BindDualValues(trainPolicy.Network().Learnables()...),
	)

	// The behaviour and training policies are initialized separately,
	// so sync their weights before learning begins
	err := network.Set(behaviour.Network(), trainPolicy.Network())
	if err != nil {
		return nil, fmt.Errorf("new: could not sync policy weights: %v", err)
	}

	return r, nil
}

// SelectAction returns an action at the argument timestep. In training
// mode the action is sampled from the policy; in evaluation mode the
// greedy action is returned.
func (r *REINFORCE) SelectAction(t ts.TimeStep) *mat.VecDense {
	if t.Number != r.prevStep.Number {
		panic("selectAction: timestep is different from that previously " +
			"recorded")
	}
	return r.behaviour.SelectAction(t)
}

// ObserveFirst observes and records information about the first
// timestep in an episode.
func (r *REINFORCE) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "Warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %d)\n", t.Number)
	}
	r.prevStep = t
	r.buffer.Reset()
	return nil
}

// Observe observes and records any timestep other than the first
// timestep, storing the transition for the episode's update. In
// evaluation mode no transitions are recorded.
func (r *REINFORCE) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if r.eval {
		r.prevStep = nextStep
		return nil
	}

	obs := r.prevStep.Observation.(*mat.VecDense).RawVector().Data
	a := action.(*mat.VecDense).RawVector().Data
	if err := r.buffer.Store(obs, a, nextStep.Reward); err != nil {
		return fmt.Errorf("observe: could not store transition: %v", err)
	}

	r.prevStep = nextStep
	return nil
}

// Step updates the agent. The update is a no-op until the last
// timestep of the episode has been observed, at which point one
// gradient step is taken over the full episode. In evaluation mode
// Step never updates.
func (r *REINFORCE) Step() error {
	if r.eval || !r.prevStep.Last() || r.buffer.Len() == 0 {
		return nil
	}

	obs, actions, rewards, err := r.buffer.Get()
	if err != nil {
		return fmt.Errorf("step: could not get episode data: %v", err)
	}
	episodeLength := r.buffer.Len()

	returns := montecarlo.Returns(rewards, r.gamma)

	// Zero-pad the episode out to the training policy's batch size.
	// Returns are pre-scaled by 1/T so that the loss's padded sum
	// equals the mean over the T real timesteps, and padded rows
	// contribute zero.
	paddedObs := make([]float64, r.rolloutLimit*r.features)
	copy(paddedObs, obs)
	paddedActions := make([]float64, r.rolloutLimit*r.actionDims)
	copy(paddedActions, actions)
	paddedReturns := make([]float64, r.rolloutLimit)
	for i := range returns {
		paddedReturns[i] = returns[i] / float64(episodeLength)
	}

	if _, err := r.trainPolicy.LogPdfOf(paddedObs, paddedActions); err != nil {
		return fmt.Errorf("step: could not compute log probabilities: %v",
			err)
	}

	returnsTensor := tensor.NewDense(
		tensor.Float64,
		r.returns.Shape(),
		tensor.WithBacking(paddedReturns),
	)
	if err := G.Let(r.returns, returnsTensor); err != nil {
		return fmt.Errorf("step: could not set returns: %v", err)
	}

	if err := r.trainPolicyVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run update: %v", err)
	}
	r.lastLoss = r.lossVal.Data().(float64)

	err = r.trainPolicySolver.Step(r.trainPolicy.Network().Model())
	if err != nil {
		return fmt.Errorf("step: could not step solver: %v", err)
	}
	r.trainPolicyVM.Reset()

	// Update the behaviour policy with the newly learned weights
	err = network.Set(r.behaviour.Network(), r.trainPolicy.Network())
	if err != nil {
		return fmt.Errorf("step: could not sync policy weights: %v", err)
	}

	r.buffer.Reset()
	return nil
}

// EndEpisode performs cleanup at the end of an episode
func (r *REINFORCE) EndEpisode() {
	r.buffer.Reset()
}

// Loss returns the loss computed on the agent's most recent update
func (r *REINFORCE) Loss() float64 {
	return r.lastLoss
}

// Eval sets the agent into evaluation mode: the greedy action is
// selected, and no transitions are recorded or learned from
func (r *REINFORCE) Eval() {
	r.eval = true
	r.behaviour.Eval()
	r.trainPolicy.Eval()
}

// Train sets the agent into training mode
func (r *REINFORCE) Train() {
	r.eval = false
	r.behaviour.Train()
	r.trainPolicy.Train()
}

// IsEval returns whether the agent is in evaluation mode
func (r *REINFORCE) IsEval() bool { return r.eval }
