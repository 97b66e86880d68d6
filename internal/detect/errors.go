package detect

import "errors"

// Pipeline errors
var (
	// ErrTableFull indicates the tracked device table's probe limit was
	// reached on insert. Existing entries are unaffected.
	ErrTableFull = errors.New("tracked device table probe limit reached")

	// ErrProcessorRunning indicates the processor was started twice.
	ErrProcessorRunning = errors.New("processor is already running")
)
