package config

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"go.trai.ch/zerr"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory. Fields missing from the
// file keep their built-in defaults.
func Load(path string) (*Configuration, error) {
	return load(afero.NewOsFs(), path)
}

// LoadOrDefault is like Load but falls back to Default when the directory
// has no configuration.
func LoadOrDefault(path string) (*Configuration, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(configDir(path)), nil
	}
	return cfg, err
}

func load(base afero.Fs, path string) (*Configuration, error) {
	path = configDir(path)

	configContents, err := afero.ReadFile(base, filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, err
	}

	out := defaultConfig()
	if err := yaml.UnmarshalStrict(configContents, out); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "parsing configuration"), "path", path)
	}
	if err := out.Validate(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid configuration"), "path", path)
	}

	out.setDir(base, path)
	return out, nil
}

// configDir accepts either a directory or the path to its config.yaml.
func configDir(path string) string {
	if filepath.Base(path) == ConfigurationName {
		return filepath.Dir(path)
	}
	return path
}
