package core

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPromptRenderer(t *testing.T) {
	plain := color.New(color.FgBlue)
	plain.DisableColor()

	cases := map[string]struct {
		format string
		root   bool
		want   string
	}{
		"default":  {format: `\w> `, want: "/h/u/src> "},
		"user":     {format: `\u@\h:\w\$ `, want: "alice@box:/h/u/src$ "},
		"root":     {format: `\u@\h:\w\$ `, root: true, want: "alice@box:/h/u/src# "},
		"literal":  {format: "minsh% ", want: "minsh% "},
		"repeated": {format: `\w \w`, want: "/h/u/src /h/u/src"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			p := &promptRenderer{
				format:   tc.format,
				dirColor: plain,
				user:     "alice",
				host:     "box",
				root:     tc.root,
			}
			assert.Equal(t, tc.want, p.render("/h/u/src"))
		})
	}
}

func TestPromptRenderer_Color(t *testing.T) {
	blue := color.New(color.FgBlue)
	blue.EnableColor()

	p := &promptRenderer{format: `\w> `, dirColor: blue}
	got := p.render("/tmp")

	assert.Contains(t, got, "\x1b[34m/tmp")
	assert.NotEqual(t, "/tmp> ", got)
}
