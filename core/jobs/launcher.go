package jobs

import (
	"fmt"
	"os"

	"go.trai.ch/zerr"
)

// Builtin is a command that runs inside the interpreter process.
type Builtin struct {
	// Main runs the builtin and returns its exit status.
	Main func(args []string, stdio Stdio) int
	// ForegroundOnly builtins change interpreter state and are refused on
	// background lines.
	ForegroundOnly bool
}

// Plan is a command resolved and ready to launch.
type Plan struct {
	Argv       []string
	Redirects  Redirects
	Background bool

	// Path is the program to execute, empty for builtins.
	Path    string
	Builtin *Builtin
}

// Launcher turns commands into running builtins or new processes.
type Launcher struct {
	Builtins map[string]Builtin
	// Env is the environment for new processes, nil means inherit.
	Env []string
	// NullStdin gives background jobs /dev/null as stdin unless they
	// redirect it themselves.
	NullStdin bool
}

// Prepare splits off redirections and resolves the program. No file is
// opened and nothing is executed.
func (l *Launcher) Prepare(cmd Command) (*Plan, error) {
	if cmd.Argc() == 0 {
		return nil, ErrEmptyCommand
	}

	argv, redirects, err := ParseRedirects(cmd.Args)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, zerr.With(fmt.Errorf("%w", ErrEmptyCommand), "command", cmd.String())
	}

	plan := &Plan{
		Argv:       argv,
		Redirects:  redirects,
		Background: cmd.Background,
	}

	if b, ok := l.Builtins[argv[0]]; ok {
		if cmd.Background && b.ForegroundOnly {
			return nil, zerr.With(fmt.Errorf("%w", ErrForegroundOnly), "command", argv[0])
		}
		plan.Builtin = &b
		return plan, nil
	}

	path, err := LookPath(argv[0])
	if err != nil {
		return nil, err
	}
	plan.Path = path
	return plan, nil
}

// RunBuiltin runs a builtin plan in the calling goroutine.
func (l *Launcher) RunBuiltin(plan *Plan, stdio Stdio) (int, error) {
	bound, opened, err := plan.Redirects.Open(stdio.withDefaults())
	if err != nil {
		return 1, err
	}
	defer opened.Close()

	return plan.Builtin.Main(plan.Argv, bound), nil
}

// Bind opens the redirection targets of an external plan and returns the
// streams its process will get. The closer releases the interpreter's copies
// and must be called once the process exists. Opening a named pipe waits for
// its other end, so Bind must not run while the registry is locked.
func (l *Launcher) Bind(plan *Plan, stdio Stdio) (Stdio, listCloser, error) {
	stdio = stdio.withDefaults()

	var opened listCloser
	if plan.Background && l.NullStdin && plan.Redirects.Stdin == "" {
		null, err := os.Open(os.DevNull)
		if err != nil {
			return stdio, nil, zerr.With(fmt.Errorf("%w: %w", ErrRedirection, err), "path", os.DevNull)
		}
		opened = append(opened, null)
		stdio.Stdin = null
	}

	bound, files, err := plan.Redirects.Open(stdio)
	if err != nil {
		opened.Close()
		return stdio, nil, err
	}
	return bound, append(opened, files...), nil
}

// Start creates the process for an external plan with bound as its
// descriptors 0, 1 and 2.
func (l *Launcher) Start(plan *Plan, bound Stdio) (*os.Process, error) {
	env := l.Env
	if env == nil {
		env = os.Environ()
	}

	proc, err := os.StartProcess(plan.Path, plan.Argv, &os.ProcAttr{
		Env:   env,
		Files: bound.files(),
	})
	if err != nil {
		return nil, zerr.With(fmt.Errorf("%w: %w", ErrExec, err), "path", plan.Path)
	}
	return proc, nil
}
