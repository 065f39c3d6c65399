package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the config file name searched for from the
	// working directory upwards.
	ProjectConfigFile = "currigraph.yaml"
	// UserConfigDir is the per-user config directory under $HOME.
	UserConfigDir = ".config/currigraph"
	// UserConfigFile is the file name inside UserConfigDir.
	UserConfigFile = "config.yaml"
)

// Loader resolves configuration with layered precedence.
type Loader struct {
	logger *slog.Logger
}

// NewLoader returns a Loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load resolves the configuration: defaults, then the user config, then
// the nearest project config walking up from the working directory.
// When explicit is set it replaces the file search entirely and must
// exist. The result is validated.
func (l *Loader) Load(explicit string) (*Config, error) {
	config := DefaultConfig()

	if explicit != "" {
		overlay, err := parseFile(explicit)
		if err != nil {
			return nil, err
		}
		config.Merge(overlay)
		if err := config.Validate(); err != nil {
			return nil, err
		}
		return config, nil
	}

	if userPath := l.userConfigPath(); userPath != "" {
		overlay, err := parseFile(userPath)
		switch {
		case err == nil:
			l.logger.Debug("loaded user config", slog.String("path", userPath))
			config.Merge(overlay)
		case !errors.Is(err, os.ErrNotExist):
			l.logger.Warn("skipping unreadable user config",
				slog.String("path", userPath),
				slog.String("error", err.Error()))
		}
	}

	if projectPath := l.findProjectConfig(); projectPath != "" {
		overlay, err := parseFile(projectPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("loaded project config", slog.String("path", projectPath))
		config.Merge(overlay)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches the working directory and its parents.
func (l *Loader) findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
