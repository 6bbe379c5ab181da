// Package montecarlo implements a buffer for storing the transitions
// of a single episode and computing Monte Carlo returns over it
package montecarlo

import (
	"fmt"
)

// Buffer stores the (state, action, reward) transitions of a single
// episode. The buffer has a fixed capacity equal to the maximum
// episode length. After the episode's single gradient update, the
// buffer is Reset and its data discarded; transitions are never
// reused.
type Buffer struct {
	obsSize    int // Size of state observations
	actionSize int // Number of action dimensions
	maxSize    int // Max buffer size == maximum episode length

	currentPos int // Current position in the buffer

	// Buffers for storing data
	obsBuffer []float64
	actBuffer []float64
	rewBuffer []float64
}

// New creates and returns a new episode Buffer
func New(obsDim, actDim, size int) *Buffer {
	obsBuffer := make([]float64, size*obsDim)
	actBuffer := make([]float64, size*actDim)
	rewBuffer := make([]float64, size)

	return &Buffer{
		obsSize:    obsDim,
		actionSize: actDim,
		maxSize:    size,
		currentPos: 0,
		obsBuffer:  obsBuffer,
		actBuffer:  actBuffer,
		rewBuffer:  rewBuffer,
	}
}

// Store stores a single timestep's state, action, and reward in the
// Buffer.
func (b *Buffer) Store(obs, act []float64, rew float64) error {
	if b.currentPos >= b.maxSize {
		return fmt.Errorf("store: cannot add new transition, buffer at " +
			"maximum capacity")
	}
	if len(obs) != b.obsSize {
		return fmt.Errorf("store: illegal obs length \n\twant(%v)\n\thave(%v)",
			b.obsSize, len(obs))
	}
	if len(act) != b.actionSize {
		return fmt.Errorf("store: illegal act length \n\twant(%v)\n\thave(%v)",
			b.actionSize, len(act))
	}

	// Add observations
	start := b.currentPos * b.obsSize
	stop := start + b.obsSize
	copy(b.obsBuffer[start:stop], obs)

	// Add actions
	start = b.currentPos * b.actionSize
	stop = start + b.actionSize
	copy(b.actBuffer[start:stop], act)

	b.rewBuffer[b.currentPos] = rew
	b.currentPos++
	return nil
}

// Len returns the number of transitions currently stored in the Buffer
func (b *Buffer) Len() int {
	return b.currentPos
}

// Capacity returns the maximum number of transitions the Buffer can
// store
func (b *Buffer) Capacity() int {
	return b.maxSize
}

// Get returns the observations, actions, and rewards of the episode
// stored so far. The returned slices alias the Buffer's internal
// storage and are valid until the next call to Reset.
func (b *Buffer) Get() (obs, act, rew []float64, err error) {
	if b.currentPos == 0 {
		return nil, nil, nil, fmt.Errorf("get: buffer is empty")
	}

	obs = b.obsBuffer[:b.currentPos*b.obsSize]
	act = b.actBuffer[:b.currentPos*b.actionSize]
	rew = b.rewBuffer[:b.currentPos]
	return obs, act, rew, nil
}

// Reset empties the Buffer so that a new episode can be stored
func (b *Buffer) Reset() {
	b.currentPos = 0
}

// Returns computes the discounted Monte Carlo returns of a sequence of
// rewards. Given rewards r_0, ..., r_{T-1} and a discount factor
// gamma, the function returns G_0, ..., G_{T-1} where:
//
//	G_{T-1} = r_{T-1}
//	G_t     = r_t + gamma * G_{t+1}
//
// A discount of 1 disables discounting, giving plain future-reward
// sums. The returns are computed back-to-front into a newly allocated
// slice; the argument slice is never modified. No baseline or
// normalization is applied.
func Returns(rewards []float64, gamma float64) []float64 {
	returns := make([]float64, len(rewards))
	if len(rewards) == 0 {
		return returns
	}

	last := len(rewards) - 1
	returns[last] = rewards[last]
	for t := last - 1; t >= 0; t-- {
		returns[t] = rewards[t] + gamma*returns[t+1]
	}

	return returns
}
