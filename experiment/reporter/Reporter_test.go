package reporter

import (
	"bytes"
	"strings"
	"testing"
)

// TestTerminalValidationLine checks that the validation line carries
// the evaluation returns, the training mean return, and the loss
func TestTerminalValidationLine(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminalTo(&buf)
	term.Validation(100, 42.5, 37.25, 30, 45, 0.1234)
	term.Stop()

	want := "validation after episode 100: mean return 37.25 (min 30.00, " +
		"max 45.00)  training mean return 42.50  loss 0.1234"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("got output %q, want it to contain %q", buf.String(), want)
	}
}

// TestTerminalNilSafe checks that a nil Terminal silently ignores all
// reporting calls
func TestTerminalNilSafe(t *testing.T) {
	var term *Terminal
	term.Progress(1, 10, 0, 0)
	term.Validation(1, 0, 0, 0, 0, 0)
	term.Summary(10, 0)
	term.Interrupted(1)
	term.Stop()
}
