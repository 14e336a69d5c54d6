// Package workdir tracks the interpreter's working directory along with the
// abbreviated form shown in the prompt.
package workdir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"go.trai.ch/zerr"
)

// MaxDisplayLen is the longest display form kept, in bytes.
const MaxDisplayLen = 512

var (
	// ErrPathNotFound is returned when the target directory doesn't exist.
	ErrPathNotFound = zerr.New("location not found!")
	// ErrDirectoryChange is returned for every other chdir failure.
	ErrDirectoryChange = zerr.New("cd failed due to an error")
	// ErrGetwd is returned when the current directory can't be read back.
	ErrGetwd = zerr.New("could not get directory name")
)

// State is the process-wide working directory. The zero value is usable but
// empty until Refresh is called.
type State struct {
	mu      sync.RWMutex
	dir     string
	display string
}

// New reads the current directory into a new State.
func New() (*State, error) {
	s := &State{}
	return s, s.Refresh()
}

// Dir returns the full path of the working directory.
func (s *State) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// Display returns the abbreviated working directory.
func (s *State) Display() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.display
}

// Refresh re-reads the process working directory. On failure the stored
// state is cleared.
func (s *State) Refresh() error {
	dir, err := os.Getwd()
	if err != nil {
		s.set("", "")
		return fmt.Errorf("%w: %w", ErrGetwd, err)
	}
	s.set(dir, Shorten(dir))
	return nil
}

// Change moves the process to target. The stored state only changes if the
// move succeeds.
func (s *State) Change(target string) error {
	if err := os.Chdir(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(fmt.Errorf("%w: %w", ErrPathNotFound, err), "path", target)
		}
		return zerr.With(fmt.Errorf("%w: %w", ErrDirectoryChange, err), "path", target)
	}

	return s.Refresh()
}

func (s *State) set(dir, display string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = dir
	s.display = display
}

// Shorten abbreviates every directory but the innermost one to its first
// character, e.g. /home/user/projects becomes /h/u/projects.
func Shorten(dir string) string {
	if dir == "" {
		return ""
	}

	trimmed := strings.Trim(dir, "/")
	if trimmed == "" {
		return "/"
	}

	var parts []string
	for _, p := range strings.Split(trimmed, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	var sb strings.Builder
	for _, p := range parts[:len(parts)-1] {
		r, _ := utf8.DecodeRuneInString(p)
		sb.WriteByte('/')
		sb.WriteRune(r)
	}
	sb.WriteByte('/')
	sb.WriteString(parts[len(parts)-1])

	return truncate(sb.String(), MaxDisplayLen)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
