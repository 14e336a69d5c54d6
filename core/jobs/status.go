package jobs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Termination is the final status of a reaped child.
type Termination struct {
	// JobID is zero for children the engine didn't launch.
	JobID      int
	Pid        int
	ExitCode   int
	Signaled   bool
	Signal     unix.Signal
	Background bool
	// Builtin is set for commands that ran inside the interpreter.
	Builtin bool
}

func newTermination(pid int, ws unix.WaitStatus) Termination {
	t := Termination{Pid: pid}
	switch {
	case ws.Exited():
		t.ExitCode = ws.ExitStatus()
	case ws.Signaled():
		t.Signaled = true
		t.Signal = ws.Signal()
		t.ExitCode = 128 + int(t.Signal)
	}
	return t
}

// Success reports whether the command exited cleanly with status zero.
func (t Termination) Success() bool {
	return !t.Signaled && t.ExitCode == 0
}

// SignalName is the symbolic name of the terminating signal, if any.
func (t Termination) SignalName() string {
	if !t.Signaled {
		return ""
	}
	if name := unix.SignalName(t.Signal); name != "" {
		return name
	}
	return fmt.Sprintf("signal %d", int(t.Signal))
}

// String is the report line shown to the user.
func (t Termination) String() string {
	if t.Signaled {
		return fmt.Sprintf("[proc %d terminated by signal %d (%s)]", t.Pid, int(t.Signal), t.SignalName())
	}
	return fmt.Sprintf("[proc %d exited with code %d]", t.Pid, t.ExitCode)
}
