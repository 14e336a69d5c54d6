package jobs

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrEmptyCommand is returned when a line has no program to run.
	ErrEmptyCommand = zerr.New("no command given")
	// ErrRedirectSyntax is returned for malformed or repeated redirections.
	ErrRedirectSyntax = zerr.New("syntax error near redirection")
	// ErrRedirection is returned when a redirection target can't be opened.
	ErrRedirection = zerr.New("could not open redirection file")
	// ErrExecNotFound is returned when the program isn't on the search path.
	ErrExecNotFound = zerr.New("command not found")
	// ErrExec is returned when the program exists but can't be started.
	ErrExec = zerr.New("could not execute command")
	// ErrForegroundOnly is returned when a builtin that changes interpreter
	// state is requested in the background.
	ErrForegroundOnly = zerr.New("please change directories in the foreground")
	// ErrWaitRace is returned if a child's status is delivered twice.
	ErrWaitRace = zerr.New("job already completed")
	// ErrReaperInstall is returned if the child reaper can't be installed.
	ErrReaperInstall = zerr.New("could not install child reaper")
	// ErrEngineClosed is returned for operations on a closed engine.
	ErrEngineClosed = zerr.New("job engine closed")
)

// Kind classifies err into a short stable name for event logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyCommand):
		return "empty_command"
	case errors.Is(err, ErrRedirectSyntax):
		return "redirect_syntax"
	case errors.Is(err, ErrRedirection):
		return "redirection"
	case errors.Is(err, ErrExecNotFound):
		return "not_found"
	case errors.Is(err, ErrExec):
		return "exec"
	case errors.Is(err, ErrForegroundOnly):
		return "foreground_only"
	case errors.Is(err, ErrEngineClosed):
		return "closed"
	default:
		return "other"
	}
}
