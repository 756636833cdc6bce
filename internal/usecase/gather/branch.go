package gather

import (
	"context"
	"errors"
)

// isFatalBranchErr reports whether err should abort the whole branch rather
// than just the offending source. Only context cancellation is fatal — per
// the cancellation contract, the branch must stop issuing new provider calls
// and return promptly, while ordinary per-source failures are logged and
// skipped.
func isFatalBranchErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
