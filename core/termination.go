package core

import "sync/atomic"

// TerminationFlag is raised when the interpreter is asked to stop. The read
// loop checks it once per iteration.
type TerminationFlag struct {
	flag atomic.Bool
}

// Set raises the flag.
func (t *TerminationFlag) Set() {
	t.flag.Store(true)
}

// IsSet reports whether the flag has been raised.
func (t *TerminationFlag) IsSet() bool {
	return t.flag.Load()
}
