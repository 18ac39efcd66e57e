// Package preferences stores the local timer settings of the studyctl CLI as YAML.
package preferences

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"studiora/backend/internal/timer"
)

const settingsFileName = "settings.yaml"

// DefaultPath resolves <user config dir>/<appName>/settings.yaml.
func DefaultPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// Load reads timer settings from path. A missing file yields the defaults;
// keys left out of the file or set to zero keep their default value.
func Load(path string) (timer.Settings, error) {
	settings := timer.DefaultSettings()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	if err := yaml.Unmarshal(rawData, &settings); err != nil {
		return timer.DefaultSettings(), fmt.Errorf("parse settings yaml: %w", err)
	}
	if err := mergo.Merge(&settings.Durations, timer.DefaultDurations()); err != nil {
		return timer.DefaultSettings(), fmt.Errorf("apply default durations: %w", err)
	}
	if settings.LongBreakInterval == 0 {
		settings.LongBreakInterval = timer.DefaultLongBreakInterval
	}

	if err := settings.Validate(); err != nil {
		return timer.DefaultSettings(), err
	}
	return settings, nil
}

// Save writes settings to path, creating the parent directory.
func Save(path string, settings timer.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}
	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}
