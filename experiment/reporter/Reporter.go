// Package reporter implements live terminal reporting of experiment
// progress
package reporter

import (
	"fmt"
	"io"

	"github.com/gosuri/uilive"
	"github.com/logrusorgru/aurora"
)

// Terminal reports experiment progress on the terminal. The progress
// of the current training run is shown on a single live line that is
// rewritten in place, while validation results and the final summary
// are printed permanently above it.
//
// A nil *Terminal is valid and silent, so callers never need to guard
// reporting calls.
type Terminal struct {
	writer *uilive.Writer
}

// NewTerminal creates, starts, and returns a new Terminal reporter
// that writes to standard out
func NewTerminal() *Terminal {
	w := uilive.New()
	w.Start()
	return &Terminal{writer: w}
}

// NewTerminalTo creates, starts, and returns a new Terminal reporter
// that writes to out
func NewTerminalTo(out io.Writer) *Terminal {
	w := uilive.New()
	w.Out = out
	w.Start()
	return &Terminal{writer: w}
}

// Progress rewrites the live progress line
func (t *Terminal) Progress(episode, totalEpisodes int, episodeReturn,
	averageReturn float64) {
	if t == nil {
		return
	}
	fmt.Fprintf(t.writer, "episode %d/%d  return %.2f  average return %.2f\n",
		episode, totalEpisodes, episodeReturn, averageReturn)
}

// Validation prints a permanent line summarizing an offline
// evaluation run after the given training episode. The line carries
// the mean training return and loss over the episodes since the last
// evaluation alongside the evaluation returns.
func (t *Terminal) Validation(episode int, trainMean, valMean, valMin,
	valMax, loss float64) {
	if t == nil {
		return
	}
	fmt.Fprintln(t.writer.Bypass(), aurora.Green(fmt.Sprintf(
		"validation after episode %d: mean return %.2f (min %.2f, "+
			"max %.2f)  training mean return %.2f  loss %.4f",
		episode, valMean, valMin, valMax, trainMean, loss)))
}

// Summary prints a permanent line summarizing a finished experiment
func (t *Terminal) Summary(episodes int, averageReturn float64) {
	if t == nil {
		return
	}
	fmt.Fprintln(t.writer.Bypass(), aurora.Bold(fmt.Sprintf(
		"finished %d episodes with average return %.2f",
		episodes, averageReturn)))
}

// Interrupted prints a permanent line noting that the experiment was
// stopped before completing all episodes
func (t *Terminal) Interrupted(episode int) {
	if t == nil {
		return
	}
	fmt.Fprintln(t.writer.Bypass(), aurora.Yellow(fmt.Sprintf(
		"interrupted after episode %d", episode)))
}

// Stop flushes and stops the live writer. The reporter cannot be used
// after Stop is called.
func (t *Terminal) Stop() {
	if t == nil {
		return
	}
	t.writer.Stop()
}
