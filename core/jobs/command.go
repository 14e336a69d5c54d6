package jobs

import (
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Command is a single parsed line: a program name, its arguments and any
// redirection tokens, plus whether it should run in the background.
type Command struct {
	Args       []string
	Background bool
}

// Argc is the number of tokens on the line, redirections included.
func (c Command) Argc() int {
	return len(c.Args)
}

// Name is the program the line runs: its first token that isn't a
// redirection or a redirection target. Lines with no program fall back to
// the first token.
func (c Command) Name() string {
	for i := 0; i < len(c.Args); i++ {
		if !isRedirectToken(c.Args[i]) {
			return c.Args[i]
		}
		i++
	}
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// String renders the command the way it could be typed back in.
func (c Command) String() string {
	out := quoteArgs(c.Args)
	if c.Background {
		out += " &"
	}
	return out
}

func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		switch arg {
		case tokenStdin, tokenStdout, tokenAppend:
			quoted[i] = arg
			continue
		}

		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			// NUL bytes can't be expressed in shell syntax at all.
			q = strconv.Quote(arg)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}
