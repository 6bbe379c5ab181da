// Package cmd implements the command line interface for running
// cartpole experiments
package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/goreinforce/agent/nonlinear/discrete/reinforce"
	"github.com/samuelfneumann/goreinforce/environment/envconfig"
	"github.com/samuelfneumann/goreinforce/experiment"
	"github.com/samuelfneumann/goreinforce/experiment/reporter"
	"github.com/samuelfneumann/goreinforce/experiment/tracker"
	"github.com/samuelfneumann/goreinforce/initwfn"
	"github.com/samuelfneumann/goreinforce/network"
	"github.com/samuelfneumann/goreinforce/solver"
)

var (
	episodes      uint
	episodeCutoff uint
	gamma         float64
	stepSize      float64
	hidden        []int
	valFreq       uint
	valEpisodes   uint
	seed          uint64
	dataPath      string
	chartPath     string
	quiet         bool
)

// RootCommand returns the root command of the program
func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goreinforce",
		Short: "Train a REINFORCE agent on the cartpole balancing task",
		RunE:  run,

		SilenceUsage: true,
	}

	cmd.Flags().UintVar(&episodes, "episodes", 2000,
		"number of training episodes")
	cmd.Flags().UintVar(&episodeCutoff, "episode-cutoff", 500,
		"maximum number of timesteps per episode")
	cmd.Flags().Float64Var(&gamma, "gamma", 0.99, "discount factor")
	cmd.Flags().Float64Var(&stepSize, "step-size", 1e-2,
		"Adam step size for the policy update")
	cmd.Flags().IntSliceVar(&hidden, "hidden", []int{20},
		"hidden layer sizes of the policy network")
	cmd.Flags().UintVar(&valFreq, "val-freq", 100,
		"run a validation pass every val-freq episodes (0 disables)")
	cmd.Flags().UintVar(&valEpisodes, "val-episodes", 10,
		"number of greedy episodes per validation pass")
	cmd.Flags().Uint64Var(&seed, "seed", 1923812121431427,
		"seed for the environment and the agent")
	cmd.Flags().StringVar(&dataPath, "data", "./data.bin",
		"file to save episodic returns to")
	cmd.Flags().StringVar(&chartPath, "chart", "./learning_curve.html",
		"file to render the learning curve to (empty disables)")
	cmd.Flags().BoolVar(&quiet, "quiet", false,
		"disable live progress reporting")

	return cmd
}

// policyDescription returns the bias and activation of each hidden
// layer of the policy network. Every hidden layer uses a bias and a
// ReLU activation.
func policyDescription(hidden []int) ([]bool, []*network.Activation) {
	biases := make([]bool, len(hidden))
	activations := make([]*network.Activation, len(hidden))
	for i := range hidden {
		biases[i] = true
		activations[i] = network.ReLU()
	}
	return biases, activations
}

func run(cmd *cobra.Command, args []string) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	doneCh := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		cancel()
	}()
	defer close(doneCh)

	policySolver, err := solver.NewDefaultAdam(stepSize, 1)
	if err != nil {
		return fmt.Errorf("could not create solver: %v", err)
	}
	initWFn, err := initwfn.NewGlorotN(math.Sqrt(2.0))
	if err != nil {
		return fmt.Errorf("could not create weight initializer: %v", err)
	}

	biases, activations := policyDescription(hidden)

	conf := experiment.Config{
		Type:        experiment.OnlineExp,
		Episodes:    episodes,
		ValFreq:     valFreq,
		ValEpisodes: valEpisodes,
		EnvConf: envconfig.NewConfig(envconfig.Cartpole, envconfig.Balance,
			episodeCutoff, gamma),
		AgentConf: reinforce.CategoricalMLPConfig{
			PolicyLayers:      hidden,
			PolicyBiases:      biases,
			PolicyActivations: activations,
			InitWFn:           initWFn,
			PolicySolver:      policySolver,
			RolloutLimit:      int(episodeCutoff),
			Gamma:             gamma,
		},
	}

	trackers := []tracker.Tracker{tracker.NewReturn(dataPath)}
	if chartPath != "" {
		trackers = append(trackers, tracker.NewLearningCurve(chartPath, 100))
	}

	var progress *reporter.Terminal
	if !quiet {
		progress = reporter.NewTerminal()
	}

	exp, err := conf.CreateExp(seed, trackers, progress)
	if err != nil {
		return fmt.Errorf("could not create experiment: %v", err)
	}

	// An interrupted experiment still saves whatever it tracked
	runErr := exp.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if err := exp.Save(); err != nil {
		return fmt.Errorf("could not save experiment data: %v", err)
	}
	return nil
}
