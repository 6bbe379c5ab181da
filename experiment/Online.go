package experiment

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/goreinforce/agent"
	env "github.com/samuelfneumann/goreinforce/environment"
	"github.com/samuelfneumann/goreinforce/experiment/reporter"
	"github.com/samuelfneumann/goreinforce/experiment/tracker"
	ts "github.com/samuelfneumann/goreinforce/timestep"
	"github.com/samuelfneumann/goreinforce/utils/floatutils"
)

// averageWindow is the number of recent episodes over which the live
// progress line averages episodic returns
const averageWindow int = 100

// Online is an Experiment that trains an agent for a fixed number of
// episodes, periodically interleaving offline evaluation runs. During
// evaluation the agent acts greedily and does not learn; evaluation
// timesteps are never sent to Trackers so that saved data reflects
// training behaviour only.
type Online struct {
	environment env.Environment
	agent       agent.Agent

	episodes    uint
	valFreq     uint
	valEpisodes uint

	trackers []tracker.Tracker
	progress *reporter.Terminal

	returns []float64
	losses  []float64
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The episodes parameter determines
// how many training episodes the experiment runs for. Every valFreq
// training episodes, the agent is evaluated greedily for valEpisodes
// episodes; a valFreq of 0 disables evaluation. The reporter r may be
// nil, in which case the experiment runs silently.
func NewOnline(e env.Environment, a agent.Agent, episodes, valFreq,
	valEpisodes uint, t []tracker.Tracker, r *reporter.Terminal) *Online {
	return &Online{
		environment: e,
		agent:       a,
		episodes:    episodes,
		valFreq:     valFreq,
		valEpisodes: valEpisodes,
		trackers:    t,
		progress:    r,
	}
}

// Register registers a tracker.Tracker with the experiment so that
// data generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single training episode of the experiment
func (o *Online) RunEpisode(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	o.agent.Train()

	step := o.environment.Reset()
	if err := o.agent.ObserveFirst(step); err != nil {
		return fmt.Errorf("runEpisode: could not observe first "+
			"timestep: %v", err)
	}
	o.track(step)

	episodeReturn := 0.0
	for !step.Last() {
		action := o.agent.SelectAction(step)

		var err error
		step, _ = o.environment.Step(action)
		o.track(step)
		episodeReturn += step.Reward

		if err = o.agent.Observe(action, step); err != nil {
			return fmt.Errorf("runEpisode: could not observe "+
				"timestep: %v", err)
		}
		if err = o.agent.Step(); err != nil {
			return fmt.Errorf("runEpisode: could not step agent: %v", err)
		}
	}
	o.agent.EndEpisode()

	o.returns = append(o.returns, episodeReturn)
	return nil
}

// Run runs the entire experiment for all episodes, stopping early if
// the argument context is cancelled. Cancellation is only checked
// between episodes, so a running episode always finishes.
func (o *Online) Run(ctx context.Context) error {
	defer o.progress.Stop()

	for ep := uint(1); ep <= o.episodes; ep++ {
		if err := o.RunEpisode(ctx); err != nil {
			if ctx.Err() != nil {
				o.progress.Interrupted(int(ep) - 1)
				return ctx.Err()
			}
			return fmt.Errorf("run: episode %d failed: %v", ep, err)
		}

		if losser, ok := o.agent.(agent.Losser); ok {
			o.losses = append(o.losses, losser.Loss())
			for _, t := range o.trackers {
				if lc, ok := t.(*tracker.LearningCurve); ok {
					lc.TrackLoss(losser.Loss())
				}
			}
		}

		recent := o.returns
		if len(recent) > averageWindow {
			recent = recent[len(recent)-averageWindow:]
		}
		o.progress.Progress(int(ep), int(o.episodes),
			o.returns[len(o.returns)-1], floatutils.Mean(recent...))

		if o.valFreq > 0 && ep%o.valFreq == 0 {
			if err := o.validate(int(ep)); err != nil {
				return fmt.Errorf("run: could not validate after "+
					"episode %d: %v", ep, err)
			}
		}
	}

	o.progress.Summary(int(o.episodes), floatutils.Mean(o.returns...))
	return nil
}

// sinceLastValidation returns the data of the episodes run since the
// last evaluation, which are the last valFreq elements of data
func (o *Online) sinceLastValidation(data []float64) []float64 {
	if len(data) > int(o.valFreq) {
		return data[len(data)-int(o.valFreq):]
	}
	return data
}

// validate runs the agent greedily for valEpisodes episodes without
// learning and reports the evaluation results. The agent is returned
// to training mode before validate returns.
func (o *Online) validate(afterEpisode int) error {
	o.agent.Eval()
	defer o.agent.Train()

	valReturns := make([]float64, o.valEpisodes)
	for i := uint(0); i < o.valEpisodes; i++ {
		step := o.environment.Reset()
		if err := o.agent.ObserveFirst(step); err != nil {
			return fmt.Errorf("validate: could not observe first "+
				"timestep: %v", err)
		}

		episodeReturn := 0.0
		for !step.Last() {
			action := o.agent.SelectAction(step)

			var err error
			step, _ = o.environment.Step(action)
			episodeReturn += step.Reward

			if err = o.agent.Observe(action, step); err != nil {
				return fmt.Errorf("validate: could not observe "+
					"timestep: %v", err)
			}
		}
		valReturns[i] = episodeReturn
	}

	mean := floatutils.Mean(valReturns...)
	for _, t := range o.trackers {
		if lc, ok := t.(*tracker.LearningCurve); ok {
			lc.TrackValidation(afterEpisode, mean)
		}
	}

	trainMean := floatutils.Mean(o.sinceLastValidation(o.returns)...)
	meanLoss := floatutils.Mean(o.sinceLastValidation(o.losses)...)
	o.progress.Validation(afterEpisode, trainMean, mean,
		floatutils.Min(valReturns...), floatutils.Max(valReturns...),
		meanLoss)

	return nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}
