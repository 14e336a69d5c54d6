package config

import (
	"log"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize writes the default configuration into dir unless one already
// exists, then loads it.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	return initialize(afero.NewOsFs(), dir, logger)
}

func initialize(base afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	logger.Printf("Initializing configuration in %q\n", dir)
	if err := base.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, ConfigurationName)
	exists, err := afero.Exists(base, configPath)
	switch {
	case err != nil:
		return nil, err
	case exists:
		logger.Printf("- %s already exists, skipping\n", ConfigurationName)
	default:
		logger.Printf("- Writing %s\n", ConfigurationName)
		if err := afero.WriteFile(base, configPath, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	}

	return load(base, dir)
}
