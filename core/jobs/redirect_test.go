package jobs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRedirects(t *testing.T) {
	cases := map[string]struct {
		args          []string
		wantArgv      []string
		wantRedirects Redirects
		wantErr       error
	}{
		"none": {
			args:     []string{"ls", "-l"},
			wantArgv: []string{"ls", "-l"},
		},
		"input": {
			args:          []string{"sort", "<", "in.txt"},
			wantArgv:      []string{"sort"},
			wantRedirects: Redirects{Stdin: "in.txt"},
		},
		"output": {
			args:          []string{"ls", ">", "out.txt", "-l"},
			wantArgv:      []string{"ls", "-l"},
			wantRedirects: Redirects{Stdout: "out.txt"},
		},
		"append": {
			args:          []string{"echo", "hi", ">>", "log.txt"},
			wantArgv:      []string{"echo", "hi"},
			wantRedirects: Redirects{Stdout: "log.txt", Append: true},
		},
		"both": {
			args:          []string{"sort", "<", "in.txt", ">", "out.txt"},
			wantArgv:      []string{"sort"},
			wantRedirects: Redirects{Stdin: "in.txt", Stdout: "out.txt"},
		},
		"before program": {
			args:          []string{"<", "in.txt", "sort", "-r"},
			wantArgv:      []string{"sort", "-r"},
			wantRedirects: Redirects{Stdin: "in.txt"},
		},
		"only redirection": {
			args:          []string{">", "out.txt"},
			wantArgv:      nil,
			wantRedirects: Redirects{Stdout: "out.txt"},
		},
		"missing input file": {
			args:    []string{"sort", "<"},
			wantErr: ErrRedirectSyntax,
		},
		"missing output file": {
			args:    []string{"ls", ">>"},
			wantErr: ErrRedirectSyntax,
		},
		"operator as file": {
			args:    []string{"ls", ">", "<"},
			wantErr: ErrRedirectSyntax,
		},
		"duplicate input": {
			args:    []string{"sort", "<", "a", "<", "b"},
			wantErr: ErrRedirectSyntax,
		},
		"duplicate output": {
			args:    []string{"ls", ">", "a", ">>", "b"},
			wantErr: ErrRedirectSyntax,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			argv, redirects, err := ParseRedirects(tc.args)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)

			if diff := cmp.Diff(tc.wantArgv, argv); diff != "" {
				t.Errorf("argv mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantRedirects, redirects); diff != "" {
				t.Errorf("redirects mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRedirects_Empty(t *testing.T) {
	assert.True(t, Redirects{}.Empty())
	assert.True(t, Redirects{Append: true}.Empty())
	assert.False(t, Redirects{Stdin: "x"}.Empty())
	assert.False(t, Redirects{Stdout: "x"}.Empty())
}

func TestRedirects_Open(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("input"), 0o644))
	require.NoError(t, os.WriteFile(out, []byte("old contents"), 0o644))

	base := DefaultStdio()
	bound, opened, err := Redirects{Stdin: in, Stdout: out}.Open(base)
	require.NoError(t, err)

	assert.Len(t, opened, 2)
	assert.Equal(t, base.Stderr, bound.Stderr)

	data, err := io.ReadAll(bound.Stdin)
	require.NoError(t, err)
	assert.Equal(t, "input", string(data))

	_, err = bound.Stdout.WriteString("new")
	require.NoError(t, err)
	require.NoError(t, opened.Close())

	contents, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "new", string(contents), "output should be truncated")
}

func TestRedirects_OpenAppend(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(out, []byte("one\n"), 0o644))

	bound, opened, err := Redirects{Stdout: out, Append: true}.Open(DefaultStdio())
	require.NoError(t, err)
	_, err = bound.Stdout.WriteString("two\n")
	require.NoError(t, err)
	require.NoError(t, opened.Close())

	contents, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(contents))
}

func TestRedirects_OpenCreates(t *testing.T) {
	out := filepath.Join(t.TempDir(), "new.txt")

	_, opened, err := Redirects{Stdout: out}.Open(DefaultStdio())
	require.NoError(t, err)
	require.NoError(t, opened.Close())

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestRedirects_OpenErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing input", func(t *testing.T) {
		_, _, err := Redirects{Stdin: filepath.Join(dir, "missing")}.Open(DefaultStdio())
		assert.ErrorIs(t, err, ErrRedirection)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("output in missing directory", func(t *testing.T) {
		_, _, err := Redirects{Stdout: filepath.Join(dir, "nope", "out.txt")}.Open(DefaultStdio())
		assert.ErrorIs(t, err, ErrRedirection)
	})

	t.Run("input ok output fails", func(t *testing.T) {
		in := filepath.Join(dir, "in.txt")
		require.NoError(t, os.WriteFile(in, nil, 0o644))

		base := DefaultStdio()
		bound, opened, err := Redirects{Stdin: in, Stdout: dir}.Open(base)
		assert.ErrorIs(t, err, ErrRedirection)
		assert.Nil(t, opened)
		assert.Equal(t, base, bound)
	})
}
