package jobs

import (
	"io"
	"os"
)

// Stdio holds the three standard streams handed to a command. Nil fields
// fall back to the interpreter's own streams.
type Stdio struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// DefaultStdio returns the interpreter's own standard streams.
func DefaultStdio() Stdio {
	return Stdio{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (s Stdio) withDefaults() Stdio {
	if s.Stdin == nil {
		s.Stdin = os.Stdin
	}
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}
	return s
}

// files returns the descriptor table for a new process: 0, 1 and 2.
func (s Stdio) files() []*os.File {
	s = s.withDefaults()
	return []*os.File{s.Stdin, s.Stdout, s.Stderr}
}

// listCloser closes every member, reporting the last failure.
type listCloser []io.Closer

func (lc listCloser) Close() error {
	var lastErr error
	for _, v := range lc {
		if err := v.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}
