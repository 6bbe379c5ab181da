package reinforce

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/goreinforce/agent"
	"github.com/samuelfneumann/goreinforce/agent/nonlinear/discrete/policy"
	env "github.com/samuelfneumann/goreinforce/environment"
	"github.com/samuelfneumann/goreinforce/initwfn"
	"github.com/samuelfneumann/goreinforce/network"
	"github.com/samuelfneumann/goreinforce/solver"
)

// CategoricalMLPConfig implements a configuration for a REINFORCE
// agent with a categorical policy. The categorical distribution is
// parameterized by a neural network with N outputs, one for each
// action in the environment. The network outputs the logit of each
// action, and action probabilities are computed through the softmax
// function.
type CategoricalMLPConfig struct {
	// Policy neural net
	PolicyLayers      []int
	PolicyBiases      []bool
	PolicyActivations []*network.Activation

	// Weight init function for the policy neural net
	InitWFn *initwfn.InitWFn

	PolicySolver *solver.Solver

	// RolloutLimit is the maximum number of timesteps an episode may
	// last. It determines the batch size of the policy's training
	// graph, so episodes must be cut off at this length.
	RolloutLimit int

	Gamma float64
}

// Validate checks a Config to ensure it is a valid configuration
func (c CategoricalMLPConfig) Validate() error {
	if c.RolloutLimit <= 0 {
		return fmt.Errorf("cannot have rollout limit < 1")
	}
	if c.Gamma <= 0 || c.Gamma > 1.0 {
		return fmt.Errorf("discount must be in (0, 1]")
	}
	if len(c.PolicyLayers) != len(c.PolicyBiases) ||
		len(c.PolicyLayers) != len(c.PolicyActivations) {
		return fmt.Errorf("policy layers, biases, and activations must "+
			"have equal lengths (got %d, %d, %d)", len(c.PolicyLayers),
			len(c.PolicyBiases), len(c.PolicyActivations))
	}
	if c.InitWFn == nil {
		return fmt.Errorf("no weight initialization function given")
	}
	if c.PolicySolver == nil {
		return fmt.Errorf("no solver given")
	}

	return nil
}

// ValidAgent returns whether the input agent is valid for this config
func (c CategoricalMLPConfig) ValidAgent(a agent.Agent) bool {
	switch a.(type) {
	case *REINFORCE:
		return true
	}
	return false
}

// CreateAgent creates and returns the agent determined by the
// configuration
func (c CategoricalMLPConfig) CreateAgent(e env.Environment,
	seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createAgent: invalid config: %v", err)
	}

	behaviour, err := policy.NewCategoricalMLP(
		e,
		1,
		G.NewGraph(),
		c.PolicyLayers,
		c.PolicyBiases,
		c.PolicyActivations,
		c.InitWFn.InitWFn(),
		seed,
	)
	if err != nil {
		return nil, fmt.Errorf("createAgent: could not create "+
			"behaviour policy: %v", err)
	}

	p, err := policy.NewCategoricalMLP(
		e,
		c.RolloutLimit,
		G.NewGraph(),
		c.PolicyLayers,
		c.PolicyBiases,
		c.PolicyActivations,
		c.InitWFn.InitWFn(),
		seed,
	)
	if err != nil {
		return nil, fmt.Errorf("createAgent: could not create policy: %v", err)
	}

	features := e.ObservationSpec().Shape.Len()
	actionDims := e.ActionSpec().Shape.Len()

	return New(behaviour, p, c.PolicySolver, c.Gamma, c.RolloutLimit,
		features, actionDims)
}
