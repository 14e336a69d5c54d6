package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
)

// Configuration of the interpreter, read from a directory holding
// config.yaml. Relative paths in it are resolved against that directory.
type Configuration struct {
	configFs afero.Fs
	dir      string

	Prompt       string `json:"prompt" validate:"required"`
	Color        string `json:"color" validate:"oneof=auto always never"`
	HistoryFile  string `json:"history_file"`
	HistoryLimit int    `json:"history_limit" validate:"gte=-1"`
	EventLog     string `json:"event_log"`

	Background Background `json:"background"`
	Reports    Reports    `json:"reports"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

type Background struct {
	Stdin                string `json:"stdin" validate:"oneof=null inherit"`
	ShutdownPolicy       string `json:"shutdown_policy" validate:"oneof=orphan wait terminate"`
	ShutdownGraceSeconds int    `json:"shutdown_grace_seconds" validate:"gte=0"`
}

// NullStdin reports whether background jobs read from /dev/null.
func (b *Background) NullStdin() bool {
	return b.Stdin == "null"
}

// ShutdownGrace bounds waiting for background jobs at exit.
func (b *Background) ShutdownGrace() time.Duration {
	return time.Duration(b.ShutdownGraceSeconds) * time.Second
}

type Reports struct {
	Foreground bool `json:"foreground"`
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// Dir is the configuration directory.
func (c *Configuration) Dir() string {
	return c.dir
}

// HistoryPath is the readline history file, empty if history is disabled.
func (c *Configuration) HistoryPath() string {
	return c.resolve(c.HistoryFile)
}

// EventLogPath is the job event log, empty if the log is disabled.
func (c *Configuration) EventLogPath() string {
	return c.resolve(c.EventLog)
}

func (c *Configuration) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.dir, name)
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	if filepath.IsAbs(c.EventLog) {
		return afero.NewOsFs().OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	}
	return c.fs().OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	if filepath.IsAbs(c.EventLog) {
		return afero.NewOsFs().OpenFile(c.EventLog, os.O_RDONLY, 0600)
	}
	return c.fs().OpenFile(c.EventLog, os.O_RDONLY, 0600)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Default returns the built-in configuration rooted at dir with nothing
// written to disk: history and the event log are disabled.
func Default(dir string) *Configuration {
	out := defaultConfig()
	out.HistoryFile = ""
	out.EventLog = ""
	out.setDir(afero.NewOsFs(), dir)
	return out
}

func (c *Configuration) setDir(base afero.Fs, dir string) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	c.dir = dir
	c.configFs = afero.NewBasePathFs(base, dir)
}
