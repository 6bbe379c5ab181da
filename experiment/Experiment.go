// Package experiment implements functionality for running an
// experiment
package experiment

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/goreinforce/agent"
	"github.com/samuelfneumann/goreinforce/environment/envconfig"
	"github.com/samuelfneumann/goreinforce/experiment/reporter"
	"github.com/samuelfneumann/goreinforce/experiment/tracker"
	ts "github.com/samuelfneumann/goreinforce/timestep"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments track environment TimeSteps, caching each TimeStep's
// data in their registered Trackers. The Save() function then takes
// all cached data and saves it to disk, usually after the experiment
// has been run. The Run() method runs episodes until the episode
// limit is reached or the argument context is cancelled. The
// RunEpisode() method runs a single training episode.
//
// Trackers determine which data generated during the experiment is
// saved. Experiments send each TimeStep to Trackers using the
// Tracker's Track() method. New Trackers can be registered with an
// Experiment through the constructor or through an Experiment's
// Register() method.
type Experiment interface {
	Run(ctx context.Context) error
	RunEpisode(ctx context.Context) error

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment
	Register(t tracker.Tracker)

	// Tracks the current timestep by sending it to Trackers
	track(ts.TimeStep)
}

// Type describes the available experiment types
type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment
type Config struct {
	Type
	Episodes    uint
	ValFreq     uint
	ValEpisodes uint
	EnvConf     envconfig.Config
	AgentConf   agent.Config
}

// CreateExp creates the experiment that the Config describes. The
// environment and agent are constructed with the argument seed.
func (c Config) CreateExp(seed uint64, t []tracker.Tracker,
	r *reporter.Terminal) (Experiment, error) {
	env, _ := c.EnvConf.CreateEnv(seed)
	a, err := c.AgentConf.CreateAgent(env, seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create agent: %v", err)
	}

	switch c.Type {
	case OnlineExp:
		return NewOnline(env, a, c.Episodes, c.ValFreq, c.ValEpisodes,
			t, r), nil
	}

	return nil, fmt.Errorf("createExp: no such experiment type %v", c.Type)
}
