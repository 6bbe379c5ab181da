// Package policy implements policies for agents using neural network
// function approximation with discrete actions
package policy

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/goreinforce/agent"
	"github.com/samuelfneumann/goreinforce/environment"
	"github.com/samuelfneumann/goreinforce/network"
	"github.com/samuelfneumann/goreinforce/timestep"
	"github.com/samuelfneumann/goreinforce/utils/floatutils"
)

// CategoricalMLP implements a softmax policy over a discrete action
// set, parameterized by a multi-layered perceptron. The network
// predicts one logit per action, and action probabilities are computed
// by the softmax of the logits.
//
// A CategoricalMLP constructed with batch size 1 owns a tape machine
// and can select actions timestep-by-timestep without any gradient
// bookkeeping. A CategoricalMLP constructed with a larger batch size
// is a training policy: LogPdfOf() adds the log probabilities of a
// batch of taken actions to the computational graph so that an
// external loss can be backpropagated through them.
//
// In training mode, actions are sampled from the softmax distribution
// by inverse-CDF sampling with a seeded random number generator. In
// evaluation mode, the greedy (arg-max probability) action is chosen,
// with ties broken randomly.
type CategoricalMLP struct {
	net network.NeuralNet
	vm  G.VM // Non-nil only for batch size 1

	logits     *G.Node
	logitsVals G.Value

	actionIndices *G.Node // One-hot selector for LogPdfOf
	logPdf        *G.Node
	logPdfVals    G.Value

	batchSize  int
	numActions int

	eval bool
	rng  *rand.Rand
}

// NewCategoricalMLP returns a new CategoricalMLP policy on the
// environment e. The batchSize argument determines how many states the
// policy's network evaluates at once. The network has one hidden layer
// per element of hiddenSizes with bias units and activations given by
// biases and activations respectively, followed by a final linear
// layer with one output per discrete action of e.
func NewCategoricalMLP(e environment.Environment, batchSize int,
	g *G.ExprGraph, hiddenSizes []int, biases []bool,
	activations []*network.Activation, init G.InitWFn,
	seed uint64) (agent.LogPdfOfer, error) {
	if e.ActionSpec().Cardinality != environment.Discrete {
		return nil, fmt.Errorf("newCategoricalMLP: softmax policy cannot " +
			"be used with continuous actions")
	}

	features := e.ObservationSpec().Shape.Len()
	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1

	net, err := network.NewMultiHeadMLP(features, batchSize, numActions, g,
		hiddenSizes, biases, init, activations)
	if err != nil {
		return nil, fmt.Errorf("newCategoricalMLP: could not create "+
			"policy network: %v", err)
	}

	logits := net.Prediction()[0]

	// Log probability of the actions given to LogPdfOf(): the one-hot
	// action selector gathers the logit of each taken action, from
	// which the per-row LogSumExp is subtracted (a numerically stable
	// log-softmax)
	actionIndices := G.NewMatrix(
		net.Graph(),
		tensor.Float64,
		G.WithShape(logits.Shape()...),
		G.WithInit(G.Zeroes()),
		G.WithName("actionIndices"),
	)
	logitsTakenActions := G.Must(G.HadamardProd(actionIndices, logits))
	logitsTakenActions = G.Must(G.Sum(logitsTakenActions, 1))
	logSumExp := LogSumExp(logits, 1)
	logPdf := G.Must(G.Sub(logitsTakenActions, logSumExp))

	source := rand.NewSource(seed)
	rng := rand.New(source)

	pol := &CategoricalMLP{
		net:           net,
		logits:        logits,
		actionIndices: actionIndices,
		logPdf:        logPdf,
		batchSize:     batchSize,
		numActions:    numActions,
		eval:          false,
		rng:           rng,
	}
	G.Read(pol.logits, &pol.logitsVals)
	G.Read(pol.logPdf, &pol.logPdfVals)

	if batchSize == 1 {
		pol.vm = G.NewTapeMachine(net.Graph())
	}

	return pol, nil
}

// LogSumExp computes the numerically stable log-sum-exp of the logits
// node along the argument axis
func LogSumExp(logits *G.Node, along int) *G.Node {
	max := G.Must(G.Max(logits, along))

	exponent := G.Must(G.BroadcastSub(logits, max, nil, []byte{1}))
	exponent = G.Must(G.Exp(exponent))

	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Must(G.Add(max, log))
}

// Probabilities runs the policy network on a single state observation
// and returns the action probability distribution. The returned slice
// is non-negative and sums to 1. No gradient information is retained.
//
// Probabilities panics if called on a policy with batch size != 1.
func (c *CategoricalMLP) Probabilities(obs []float64) []float64 {
	if c.vm == nil {
		panic("probabilities: action selection can only be performed " +
			"with a policy of batch size 1")
	}

	if err := c.net.SetInput(obs); err != nil {
		panic(fmt.Sprintf("probabilities: could not set input: %v", err))
	}
	if err := c.vm.RunAll(); err != nil {
		panic(fmt.Sprintf("probabilities: could not run policy: %v", err))
	}
	logits := c.logitsVals.Data().([]float64)
	c.vm.Reset()

	return floatutils.Softmax(logits)
}

// SelectAction returns an action at the argument timestep. In training
// mode the action is sampled from the policy's softmax distribution;
// in evaluation mode the most probable action is returned.
func (c *CategoricalMLP) SelectAction(t timestep.TimeStep) *mat.VecDense {
	obs := t.Observation.(*mat.VecDense).RawVector().Data
	probs := c.Probabilities(obs)

	var action int
	if c.eval {
		// Greedy action, ties broken randomly
		actions := floatutils.ArgMax(probs...)
		action = actions[c.rng.Intn(len(actions))]
	} else {
		action = sampleFrom(probs, c.rng.Float64())
	}

	return mat.NewVecDense(1, []float64{float64(action)})
}

// sampleFrom returns the index sampled by inverse-CDF sampling from
// the distribution probs given a uniform random number u in [0, 1):
// the first index whose cumulative probability exceeds u.
func sampleFrom(probs []float64, u float64) int {
	var cumulative float64
	for i, p := range probs {
		cumulative += p
		if u < cumulative {
			return i
		}
	}

	// Guard against cumulative probabilities summing to slightly less
	// than 1
	return len(probs) - 1
}

// LogPdfOf adds the log probabilities of taking the argument actions
// in the argument states to the policy's computational graph. The
// states argument holds batchSize observation vectors, flattened
// row-major; the actions argument holds one action index per row.
//
// The returned node is evaluated when an external VM runs the graph.
func (c *CategoricalMLP) LogPdfOf(states, actions []float64) (*G.Node,
	error) {
	if len(actions) != c.batchSize {
		return nil, fmt.Errorf("logPdfOf: invalid number of actions"+
			"\n\twant(%v)\n\thave(%v)", c.batchSize, len(actions))
	}

	if err := c.net.SetInput(states); err != nil {
		return nil, fmt.Errorf("logPdfOf: could not set input: %v", err)
	}

	// One-hot encode the taken actions
	oneHot := make([]float64, c.batchSize*c.numActions)
	for i, a := range actions {
		oneHot[i*c.numActions+int(a)] = 1.0
	}
	oneHotTensor := tensor.NewDense(
		tensor.Float64,
		[]int{c.batchSize, c.numActions},
		tensor.WithBacking(oneHot),
	)
	if err := G.Let(c.actionIndices, oneHotTensor); err != nil {
		return nil, fmt.Errorf("logPdfOf: could not set action "+
			"indices: %v", err)
	}

	return c.logPdf, nil
}

// LogPdfNode returns the node of the computational graph that holds
// the log probabilities computed by LogPdfOf
func (c *CategoricalMLP) LogPdfNode() *G.Node {
	return c.logPdf
}

// Eval sets the policy to evaluation mode
func (c *CategoricalMLP) Eval() { c.eval = true }

// Train sets the policy to training mode
func (c *CategoricalMLP) Train() { c.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (c *CategoricalMLP) IsEval() bool { return c.eval }

// Network returns the network of the CategoricalMLP
func (c *CategoricalMLP) Network() network.NeuralNet {
	return c.net
}

// Clone clones the CategoricalMLP. It is currently not implemented.
func (c *CategoricalMLP) Clone() (agent.NNPolicy, error) {
	return nil, fmt.Errorf("clone: not implemented")
}

// CloneWithBatch clones the CategoricalMLP with a new batch size. It
// is currently not implemented.
func (c *CategoricalMLP) CloneWithBatch(int) (agent.NNPolicy, error) {
	return nil, fmt.Errorf("cloneWithBatch: not implemented")
}
