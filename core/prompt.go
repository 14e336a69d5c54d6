package core

import (
	"os"
	"os/user"
	"strings"

	"github.com/fatih/color"
	"github.com/josephlewis42/minsh/core/config"
)

type promptRenderer struct {
	format   string
	dirColor *color.Color
	user     string
	host     string
	root     bool
}

func newPromptRenderer(cfg *config.Configuration, stdoutIsTerminal bool) *promptRenderer {
	dirColor := color.New(color.FgBlue, color.Bold)
	switch cfg.Color {
	case "always":
		dirColor.EnableColor()
	case "never":
		dirColor.DisableColor()
	default:
		if stdoutIsTerminal {
			dirColor.EnableColor()
		} else {
			dirColor.DisableColor()
		}
	}

	username := os.Getenv(EnvUser)
	if username == "" {
		if u, err := user.Current(); err == nil {
			username = u.Username
		}
	}
	host, _ := os.Hostname()

	return &promptRenderer{
		format:   cfg.Prompt,
		dirColor: dirColor,
		user:     username,
		host:     host,
		root:     os.Geteuid() == 0,
	}
}

// render expands the prompt escapes: \w is the abbreviated working
// directory, \u the user, \h the host and \$ is # for root.
func (p *promptRenderer) render(dir string) string {
	prompt := p.format
	prompt = strings.ReplaceAll(prompt, `\u`, p.user)
	prompt = strings.ReplaceAll(prompt, `\h`, p.host)
	prompt = strings.ReplaceAll(prompt, `\w`, p.dirColor.Sprint(dir))

	if p.root {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	return prompt
}

// Prompt is the text shown before each line.
func (s *Shell) Prompt() string {
	return s.prompt.render(s.WorkDir.Display())
}
