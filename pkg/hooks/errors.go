package hooks

import (
	"fmt"

	"github.com/cperrin88/agdaup/pkg/errutils"
)

// Common hooks errors.
var (
	// ErrHookTypeEmpty is returned when a hooks type is empty.
	ErrHookTypeEmpty = fmt.Errorf("hooks type cannot be empty")

	// ErrHookLoad is returned when there's an error loading a hooks.
	ErrHookLoad = fmt.Errorf("failed to load hooks")
)

// ErrUnsupportedHookEvent is returned when an unsupported hooks event is used.
func ErrUnsupportedHookEvent(event string) error {
	return errutils.Wrapf(errutils.ErrHookExecution, "unsupported hooks event: %s", event)
}
