package searcher

import "errors"

// ErrNoIterationsCompleted is the only fatal search outcome: the whole
// budget ran without a single iteration finishing cleanly. Per-callback
// failures are logged and skipped, never surfaced here on their own.
var ErrNoIterationsCompleted = errors.New("searcher: no iterations completed successfully")

// ErrNoLegalActions reports an initial state with nothing to decide on.
var ErrNoLegalActions = errors.New("searcher: no legal actions from the initial state")
