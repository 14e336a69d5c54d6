package jobs

import (
	"fmt"
	"os"

	"go.trai.ch/zerr"
)

const (
	tokenStdin  = "<"
	tokenStdout = ">"
	tokenAppend = ">>"
)

// Redirects describes where a command's stdin and stdout come from. Empty
// paths leave the stream alone.
type Redirects struct {
	Stdin  string
	Stdout string
	// Append opens Stdout for appending rather than truncating it.
	Append bool
}

// Empty reports whether no redirection was requested.
func (r Redirects) Empty() bool {
	return r.Stdin == "" && r.Stdout == ""
}

// ParseRedirects removes redirection operators and their targets from args.
// The operators may appear anywhere on the line, each direction at most once.
func ParseRedirects(args []string) ([]string, Redirects, error) {
	var (
		argv      []string
		redirects Redirects
	)

	for i := 0; i < len(args); i++ {
		tok := args[i]
		if !isRedirectToken(tok) {
			argv = append(argv, tok)
			continue
		}

		if i+1 >= len(args) {
			return nil, Redirects{}, zerr.With(fmt.Errorf("%w: missing file after %q", ErrRedirectSyntax, tok), "token", tok)
		}
		i++
		target := args[i]
		if isRedirectToken(target) {
			return nil, Redirects{}, zerr.With(fmt.Errorf("%w: unexpected %q", ErrRedirectSyntax, target), "token", tok)
		}

		switch tok {
		case tokenStdin:
			if redirects.Stdin != "" {
				return nil, Redirects{}, zerr.With(fmt.Errorf("%w: input redirected twice", ErrRedirectSyntax), "token", tok)
			}
			redirects.Stdin = target
		default:
			if redirects.Stdout != "" {
				return nil, Redirects{}, zerr.With(fmt.Errorf("%w: output redirected twice", ErrRedirectSyntax), "token", tok)
			}
			redirects.Stdout = target
			redirects.Append = tok == tokenAppend
		}
	}

	return argv, redirects, nil
}

// MayBlock reports whether opening a target can wait on another process, as
// opening a named pipe does until its other end is opened.
func (r Redirects) MayBlock() bool {
	for _, path := range []string{r.Stdin, r.Stdout} {
		if path == "" {
			continue
		}
		if fi, err := os.Stat(path); err == nil && fi.Mode()&os.ModeNamedPipe != 0 {
			return true
		}
	}
	return false
}

func isRedirectToken(tok string) bool {
	switch tok {
	case tokenStdin, tokenStdout, tokenAppend:
		return true
	}
	return false
}

// Open opens the redirection targets and returns base with them installed.
// The returned closer releases the interpreter's copies of the opened files
// and must be called once the command has its own.
func (r Redirects) Open(base Stdio) (Stdio, listCloser, error) {
	var opened listCloser
	out := base

	if r.Stdin != "" {
		fd, err := os.Open(r.Stdin)
		if err != nil {
			return base, nil, zerr.With(fmt.Errorf("%w: %w", ErrRedirection, err), "path", r.Stdin)
		}
		opened = append(opened, fd)
		out.Stdin = fd
	}

	if r.Stdout != "" {
		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if r.Append {
			flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}
		fd, err := os.OpenFile(r.Stdout, flags, 0o644)
		if err != nil {
			opened.Close()
			return base, nil, zerr.With(fmt.Errorf("%w: %w", ErrRedirection, err), "path", r.Stdout)
		}
		opened = append(opened, fd)
		out.Stdout = fd
	}

	return out, opened, nil
}
