package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/josephlewis42/minsh/core/jobs"
	"github.com/josephlewis42/minsh/core/workdir"
	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

// ShellBuiltin is a command that runs inside the shell process.
type ShellBuiltin struct {
	Main ShellBuiltinFunc
	// ForegroundOnly builtins change shell state and can't run in the
	// background.
	ForegroundOnly bool
	Description    string
}

type ShellBuiltinFunc func(s *Shell, args []string, stdio jobs.Stdio) int

// builtins binds the registered builtins to s for the job engine.
func (s *Shell) builtins() map[string]jobs.Builtin {
	out := make(map[string]jobs.Builtin, len(AllBuiltins))
	for name, b := range AllBuiltins {
		run := b.Main
		out[name] = jobs.Builtin{
			Main: func(args []string, stdio jobs.Stdio) int {
				return run(s, args, stdio)
			},
			ForegroundOnly: b.ForegroundOnly,
		}
	}
	return out
}

// Cd is the cd shell builtin
func Cd(s *Shell, args []string, stdio jobs.Stdio) int {
	opts := getopt.New()
	opts.SetProgram("cd")
	opts.SetParameters("[dir]")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil {
		fmt.Fprintf(stdio.Stderr, "cd: %v\n", err)
		opts.PrintUsage(stdio.Stderr)
		return 2
	}
	if *helpOpt {
		opts.PrintUsage(stdio.Stdout)
		fmt.Fprintln(stdio.Stdout, "Change the shell working directory, $HOME by default.")
		return 0
	}

	var target string
	switch rest := opts.Args(); len(rest) {
	case 0:
		target = os.Getenv(EnvHome)
		if target == "" {
			fmt.Fprintln(stdio.Stderr, "cd: HOME not set")
			return 1
		}
	case 1:
		target = rest[0]
	default:
		fmt.Fprintln(stdio.Stderr, "cd: too many arguments")
		return 1
	}

	if err := s.WorkDir.Change(target); err != nil {
		fmt.Fprintln(stdio.Stderr, workdirMessage(err))
		return 1
	}
	return 0
}

// workdirMessage is the diagnostic printed for a failed directory change.
func workdirMessage(err error) string {
	switch {
	case errors.Is(err, workdir.ErrPathNotFound):
		return workdir.ErrPathNotFound.Error()
	case errors.Is(err, workdir.ErrGetwd):
		return workdir.ErrGetwd.Error()
	default:
		return workdir.ErrDirectoryChange.Error()
	}
}

func init() {
	AllBuiltins["cd"] = ShellBuiltin{
		Main:           Cd,
		ForegroundOnly: true,
		Description:    "change the working directory",
	}
}
