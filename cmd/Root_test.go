package cmd

import (
	"testing"

	"github.com/samuelfneumann/goreinforce/network"
)

// TestPolicyDescription ensures that the policy network built by the
// command line uses a bias and a ReLU activation at every hidden
// layer.
func TestPolicyDescription(t *testing.T) {
	hidden := []int{20, 10, 5}
	biases, activations := policyDescription(hidden)

	if len(biases) != len(hidden) || len(activations) != len(hidden) {
		t.Fatalf("expected %d biases and activations, got %d and %d",
			len(hidden), len(biases), len(activations))
	}

	relu := network.ReLU().String()
	for i := range hidden {
		if !biases[i] {
			t.Errorf("hidden layer %d should use a bias", i)
		}
		if activations[i].String() != relu {
			t.Errorf("hidden layer %d should use a %v activation, got %v",
				i, relu, activations[i])
		}
	}
}
