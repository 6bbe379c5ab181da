package montecarlo

import (
	"math"
	"testing"
)

const tolerance float64 = 1e-9

// TestReturnsRecurrence checks that the computed returns satisfy the
// defining recurrence G_t = r_t + gamma*G_{t+1} with G_{T-1} = r_{T-1}
func TestReturnsRecurrence(t *testing.T) {
	rewards := []float64{1.5, -0.25, 0.0, 3.0, 1.0, 1.0, -2.5}
	gamma := 0.75

	returns := Returns(rewards, gamma)
	if len(returns) != len(rewards) {
		t.Fatalf("got %d returns, want %d", len(returns), len(rewards))
	}

	last := len(rewards) - 1
	if returns[last] != rewards[last] {
		t.Errorf("final return should equal final reward: got %v, want %v",
			returns[last], rewards[last])
	}
	for i := 0; i < last; i++ {
		want := rewards[i] + gamma*returns[i+1]
		if math.Abs(returns[i]-want) > tolerance {
			t.Errorf("return %d: got %v, want %v", i, returns[i], want)
		}
	}
}

func TestReturnsKnownValues(t *testing.T) {
	rewards := []float64{0, 1, 1, 1, 0, 1, 1, 0, 0, 0}
	gamma := 0.9

	want := []float64{
		3.560931, 3.95659, 3.2851, 2.539, 1.71, 1.9, 1, 0, 0, 0,
	}

	returns := Returns(rewards, gamma)
	for i := range want {
		if math.Abs(returns[i]-want[i]) > 1e-6 {
			t.Errorf("return %d: got %v, want %v", i, returns[i], want[i])
		}
	}
}

// TestReturnsUndiscounted checks that a discount of 1 gives plain
// future-reward sums
func TestReturnsUndiscounted(t *testing.T) {
	rewards := []float64{1, 2, 3, 4}
	want := []float64{10, 9, 7, 4}

	returns := Returns(rewards, 1.0)
	for i := range want {
		if math.Abs(returns[i]-want[i]) > tolerance {
			t.Errorf("return %d: got %v, want %v", i, returns[i], want[i])
		}
	}
}

func TestReturnsSingleStep(t *testing.T) {
	returns := Returns([]float64{-3.25}, 0.5)
	if len(returns) != 1 || returns[0] != -3.25 {
		t.Errorf("single-step returns: got %v, want [-3.25]", returns)
	}
}

func TestReturnsEmpty(t *testing.T) {
	returns := Returns([]float64{}, 0.9)
	if len(returns) != 0 {
		t.Errorf("empty rewards should give empty returns, got %v", returns)
	}
}

// TestReturnsDoesNotModifyArgument checks that the reward slice passed
// to Returns is left untouched
func TestReturnsDoesNotModifyArgument(t *testing.T) {
	rewards := []float64{1, 0, 1, 1}
	original := make([]float64, len(rewards))
	copy(original, rewards)

	Returns(rewards, 0.9)

	for i := range rewards {
		if rewards[i] != original[i] {
			t.Fatalf("reward %d modified: got %v, want %v", i, rewards[i],
				original[i])
		}
	}
}

func TestBufferStoreGet(t *testing.T) {
	b := New(2, 1, 4)

	if b.Capacity() != 4 {
		t.Errorf("got capacity %d, want 4", b.Capacity())
	}
	if b.Len() != 0 {
		t.Errorf("new buffer should be empty, got length %d", b.Len())
	}
	if _, _, _, err := b.Get(); err == nil {
		t.Error("Get on an empty buffer should fail")
	}

	transitions := []struct {
		obs []float64
		act []float64
		rew float64
	}{
		{[]float64{0.1, 0.2}, []float64{0}, 1.0},
		{[]float64{0.3, 0.4}, []float64{1}, -1.0},
		{[]float64{0.5, 0.6}, []float64{1}, 1.0},
	}
	for i, tr := range transitions {
		if err := b.Store(tr.obs, tr.act, tr.rew); err != nil {
			t.Fatalf("could not store transition %d: %v", i, err)
		}
	}
	if b.Len() != 3 {
		t.Errorf("got length %d, want 3", b.Len())
	}

	obs, act, rew, err := b.Get()
	if err != nil {
		t.Fatalf("could not get episode data: %v", err)
	}

	wantObs := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	wantAct := []float64{0, 1, 1}
	wantRew := []float64{1.0, -1.0, 1.0}
	for i := range wantObs {
		if obs[i] != wantObs[i] {
			t.Errorf("obs %d: got %v, want %v", i, obs[i], wantObs[i])
		}
	}
	for i := range wantAct {
		if act[i] != wantAct[i] {
			t.Errorf("act %d: got %v, want %v", i, act[i], wantAct[i])
		}
	}
	for i := range wantRew {
		if rew[i] != wantRew[i] {
			t.Errorf("rew %d: got %v, want %v", i, rew[i], wantRew[i])
		}
	}
}

func TestBufferCapacityAndReset(t *testing.T) {
	b := New(1, 1, 2)

	if err := b.Store([]float64{1}, []float64{0}, 1); err != nil {
		t.Fatal(err)
	}
	if err := b.Store([]float64{2}, []float64{1}, 1); err != nil {
		t.Fatal(err)
	}
	if err := b.Store([]float64{3}, []float64{0}, 1); err == nil {
		t.Error("storing into a full buffer should fail")
	}

	b.Reset()
	if b.Len() != 0 {
		t.Errorf("reset buffer should be empty, got length %d", b.Len())
	}
	if err := b.Store([]float64{4}, []float64{1}, -1); err != nil {
		t.Errorf("could not store after reset: %v", err)
	}
}

func TestBufferStoreValidatesDimensions(t *testing.T) {
	b := New(2, 1, 4)

	if err := b.Store([]float64{0.1}, []float64{0}, 1); err == nil {
		t.Error("storing an observation of the wrong size should fail")
	}
	if err := b.Store([]float64{0.1, 0.2}, []float64{0, 1}, 1); err == nil {
		t.Error("storing an action of the wrong size should fail")
	}
}
