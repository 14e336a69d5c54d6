package core

import (
	"fmt"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/minsh/core/jobs"
	"go.trai.ch/zerr"
)

// ErrSyntax is returned for lines that can't be split into words.
var ErrSyntax = zerr.New("syntax error: unexpected end of file")

const backgroundToken = "&"

// ParseLine splits a line into a command. A trailing & requests background
// execution. ok is false for blank lines.
func ParseLine(line string) (cmd jobs.Command, ok bool, err error) {
	tokens, err := shlex.Split(line, true)
	if err != nil {
		return jobs.Command{}, false, ErrSyntax
	}
	if len(tokens) == 0 {
		return jobs.Command{}, false, nil
	}

	// A quoted & can't end the line, so only the escaped form needs care.
	trimmed := strings.TrimSpace(line)
	if strings.HasSuffix(trimmed, backgroundToken) && !strings.HasSuffix(trimmed, `\`+backgroundToken) {
		cmd.Background = true
		last := len(tokens) - 1
		if tokens[last] == backgroundToken {
			tokens = tokens[:last]
		} else {
			// "sleep 5&" splits into a single word ending in &.
			tokens[last] = strings.TrimSuffix(tokens[last], backgroundToken)
		}
	}

	if len(tokens) == 0 {
		return jobs.Command{}, false, zerr.With(fmt.Errorf("%w", jobs.ErrEmptyCommand), "line", line)
	}

	cmd.Args = tokens
	return cmd, true, nil
}
