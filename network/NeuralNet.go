// Package network implements neural networks on gorgonia computational
// graphs
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network on a gorgonia computational
// graph. A NeuralNet is constructed on a graph, and its forward pass
// is added to the graph at construction time. Callers set the value of
// the network's input node with SetInput() and then run a G.VM on the
// network's graph to compute the network's predictions.
type NeuralNet interface {
	// Graph returns the computational graph the network is built on
	Graph() *G.ExprGraph

	// Clone clones the network to a new computational graph
	Clone() (NeuralNet, error)

	// CloneWithBatch clones the network to a new computational graph,
	// changing the input batch size
	CloneWithBatch(int) (NeuralNet, error)

	BatchSize() int
	Features() int
	Outputs() int

	// SetInput sets the value of the network's input node before a VM
	// runs the forward pass
	SetInput([]float64) error

	// Set copies the weights of another NeuralNet into the receiver
	Set(NeuralNet) error

	// Polyak sets the weights to a Polyak average between the
	// receiver's weights and another NeuralNet's weights
	Polyak(NeuralNet, float64) error

	// Learnables returns the learnable nodes of the network
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients
	Model() []G.ValueGrad

	// Output returns the values of the output nodes after the last
	// VM run
	Output() []G.Value

	// Prediction returns the nodes of the computational graph that
	// store the network's predictions
	Prediction() []*G.Node
}

// Set copies the weights of the source network into the destination
// network
func Set(dest, source NeuralNet) error {
	return dest.Set(source)
}
