// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// MaxSlice gets the maximum value and the indices of the maximum
// values in a slice of float64.
func MaxSlice(values []float64) (max float64, indices []int) {
	max, indices = values[0], []int{0}

	for i, value := range values {
		if value > max {
			max = value
			indices = []int{i}
		} else if value == max && i != 0 {
			indices = append(indices, i)
		}
	}
	return
}

// ArgMax returns the indices of all maximal values in a list. Ties
// result in multiple returned indices.
func ArgMax(values ...float64) []int {
	_, indices := MaxSlice(values)
	return indices
}

// Min calculates and returns the minimum float64 in a list
func Min(floats ...float64) float64 {
	min := floats[0]
	for _, val := range floats {
		if val < min {
			min = val
		}
	}
	return min
}

// Max calculates and returns the maximum float64 in a list
func Max(floats ...float64) float64 {
	max := floats[0]
	for _, val := range floats {
		if val > max {
			max = val
		}
	}
	return max
}

// Mean returns the arithmetic mean of a list. The mean of an empty
// list is 0.
func Mean(floats ...float64) float64 {
	if len(floats) == 0 {
		return 0.0
	}

	var sum float64
	for _, val := range floats {
		sum += val
	}
	return sum / float64(len(floats))
}

// Softmax returns the softmax distribution over a list of values. The
// maximum value is subtracted before exponentiation for numerical
// stability. The returned slice is newly allocated, is non-negative,
// and sums to 1.
func Softmax(values []float64) []float64 {
	max := Max(values...)

	probs := make([]float64, len(values))
	var sum float64
	for i, val := range values {
		probs[i] = math.Exp(val - max)
		sum += probs[i]
	}

	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// MovingAverage returns the moving average of data over a window of
// the argument size. Entry i of the returned slice is the mean of
// data[max(0, i-window+1):i+1], so the returned slice has the same
// length as data.
func MovingAverage(data []float64, window int) []float64 {
	if window < 1 {
		panic("movingAverage: window must be positive")
	}

	averaged := make([]float64, len(data))
	var sum float64
	for i := range data {
		sum += data[i]
		if i >= window {
			sum -= data[i-window]
			averaged[i] = sum / float64(window)
		} else {
			averaged[i] = sum / float64(i+1)
		}
	}
	return averaged
}
