package jobs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExecutable(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode))
}

func TestLookPath(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	writeExecutable(t, filepath.Join(first, "shadowed"), 0o644)
	writeExecutable(t, filepath.Join(second, "shadowed"), 0o755)
	writeExecutable(t, filepath.Join(second, "tool"), 0o755)
	writeExecutable(t, filepath.Join(first, "noexec"), 0o644)
	require.NoError(t, os.Mkdir(filepath.Join(first, "adir"), 0o755))

	t.Setenv("PATH", first+string(filepath.ListSeparator)+second)

	t.Run("found", func(t *testing.T) {
		got, err := LookPath("tool")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(second, "tool"), got)
	})

	t.Run("skips non-executable", func(t *testing.T) {
		got, err := LookPath("shadowed")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(second, "shadowed"), got)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := LookPath("no-such-tool")
		assert.ErrorIs(t, err, ErrExecNotFound)
		assert.Equal(t, "not_found", Kind(err))
	})

	t.Run("permission", func(t *testing.T) {
		_, err := LookPath("noexec")
		assert.ErrorIs(t, err, ErrExec)
		assert.NotErrorIs(t, err, ErrExecNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := LookPath("adir")
		assert.ErrorIs(t, err, ErrExec)
	})

	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(second, "tool")
		got, err := LookPath(path)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("explicit path missing", func(t *testing.T) {
		_, err := LookPath(filepath.Join(second, "missing"))
		assert.ErrorIs(t, err, ErrExecNotFound)
	})
}

func TestLookPath_EmptyElementIsCwd(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, filepath.Join(dir, "local"), 0o755)
	t.Chdir(dir)
	t.Setenv("PATH", string(filepath.ListSeparator)+"/nonexistent")

	got, err := LookPath("local")
	require.NoError(t, err)
	assert.Equal(t, "local", got)
}

func TestLauncher_Prepare(t *testing.T) {
	noop := Builtin{Main: func([]string, Stdio) int { return 0 }}
	l := &Launcher{
		Builtins: map[string]Builtin{
			"cd":   {Main: noop.Main, ForegroundOnly: true},
			"noop": noop,
		},
	}

	t.Run("external", func(t *testing.T) {
		plan, err := l.Prepare(Command{Args: []string{"sh", "-c", "true", ">", "out"}})
		require.NoError(t, err)
		assert.Nil(t, plan.Builtin)
		assert.NotEmpty(t, plan.Path)
		assert.Equal(t, []string{"sh", "-c", "true"}, plan.Argv)
		assert.Equal(t, Redirects{Stdout: "out"}, plan.Redirects)
	})

	t.Run("builtin", func(t *testing.T) {
		plan, err := l.Prepare(Command{Args: []string{"cd", "/tmp"}})
		require.NoError(t, err)
		require.NotNil(t, plan.Builtin)
		assert.Empty(t, plan.Path)
		assert.True(t, plan.Builtin.ForegroundOnly)
	})

	t.Run("background builtin", func(t *testing.T) {
		plan, err := l.Prepare(Command{Args: []string{"noop"}, Background: true})
		require.NoError(t, err)
		require.NotNil(t, plan.Builtin)
		assert.True(t, plan.Background)
	})

	t.Run("foreground only", func(t *testing.T) {
		_, err := l.Prepare(Command{Args: []string{"cd", "/tmp"}, Background: true})
		assert.ErrorIs(t, err, ErrForegroundOnly)
		assert.Equal(t, "please change directories in the foreground", ErrForegroundOnly.Error())
	})

	t.Run("empty", func(t *testing.T) {
		_, err := l.Prepare(Command{})
		assert.ErrorIs(t, err, ErrEmptyCommand)
	})

	t.Run("only redirection", func(t *testing.T) {
		_, err := l.Prepare(Command{Args: []string{">", "out"}})
		assert.ErrorIs(t, err, ErrEmptyCommand)
	})

	t.Run("bad redirection", func(t *testing.T) {
		_, err := l.Prepare(Command{Args: []string{"ls", ">"}})
		assert.ErrorIs(t, err, ErrRedirectSyntax)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := l.Prepare(Command{Args: []string{"definitely-not-a-real-command"}})
		assert.ErrorIs(t, err, ErrExecNotFound)
	})
}

func TestLauncher_RunBuiltin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")

	var gotArgs []string
	b := Builtin{Main: func(args []string, stdio Stdio) int {
		gotArgs = args
		_, _ = stdio.Stdout.WriteString("from builtin\n")
		return 7
	}}
	l := &Launcher{Builtins: map[string]Builtin{"say": b}}

	plan, err := l.Prepare(Command{Args: []string{"say", "x", ">", out}})
	require.NoError(t, err)

	status, err := l.RunBuiltin(plan, Stdio{})
	require.NoError(t, err)
	assert.Equal(t, 7, status)
	assert.Equal(t, []string{"say", "x"}, gotArgs)

	contents, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "from builtin\n", string(contents))
}

func TestKind(t *testing.T) {
	cases := map[error]string{
		nil:               "",
		ErrEmptyCommand:   "empty_command",
		ErrRedirectSyntax: "redirect_syntax",
		ErrRedirection:    "redirection",
		ErrExecNotFound:   "not_found",
		ErrExec:           "exec",
		ErrForegroundOnly: "foreground_only",
		ErrEngineClosed:   "closed",
		os.ErrClosed:      "other",
	}

	for err, want := range cases {
		assert.Equal(t, want, Kind(err), "Kind(%v)", err)
	}
}
