package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/cperrin88/agdaup/pkg/orchestrator"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	activeColor  = color.New(color.FgGreen, color.Bold)
)

// progress prints orchestrator events as one line each.
func progress(out io.Writer) func(orchestrator.Event) {
	return func(e orchestrator.Event) {
		phase := e.Phase
		switch e.Phase {
		case orchestrator.PhaseRejected, orchestrator.PhaseSkipped:
			phase = warnColor.Sprint(phase)
		case orchestrator.PhaseError:
			phase = errorColor.Sprint(phase)
		case orchestrator.PhaseDone:
			phase = successColor.Sprint(phase)
		}
		if e.Msg != "" {
			_, _ = fmt.Fprintf(out, "%s: %s (%s)\n", phase, e.Msg, e.ID)
		} else {
			_, _ = fmt.Fprintf(out, "%s: %s\n", phase, e.ID)
		}
	}
}

func success(out io.Writer, format string, args ...any) {
	_, _ = successColor.Fprintf(out, format+"\n", args...)
}
