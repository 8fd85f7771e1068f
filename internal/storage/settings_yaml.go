package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"timetracker/internal/core/model"
	"timetracker/internal/platform"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	BreakIntervalMinutes int    `yaml:"break_interval_minutes"`
	BreakPolicy          string `yaml:"break_policy,omitempty"`
	StopOnClose          *bool  `yaml:"stop_on_close,omitempty"`
	LogDir               string `yaml:"log_dir,omitempty"`
}

// SettingsPath returns where the settings file for appName lives.
func SettingsPath(service platform.Service, appName string) (string, error) {
	path, err := platform.AppConfigPath(service, appName, settingsFileName)
	if err != nil {
		return "", fmt.Errorf("resolve settings path: %w", err)
	}
	return path, nil
}

// LoadSettings reads tracker settings from YAML.
// If the file does not exist, default settings are returned.
func LoadSettings(path string) (model.TrackerConfig, error) {
	config := model.DefaultTrackerConfig()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return config, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return config, fmt.Errorf("parse settings yaml: %w", err)
	}

	if err := applyYamlSettings(&config, fileData); err != nil {
		return model.DefaultTrackerConfig(), fmt.Errorf("settings file %s: %w", path, err)
	}
	return config, nil
}

// SaveSettings writes tracker settings to YAML.
func SaveSettings(path string, config model.TrackerConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	stopOnClose := config.StopOnClose
	fileData := yamlSettings{
		BreakIntervalMinutes: int(config.BreakInterval / time.Minute),
		BreakPolicy:          string(config.BreakPolicy),
		StopOnClose:          &stopOnClose,
		LogDir:               config.LogDir,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func applyYamlSettings(config *model.TrackerConfig, fileData yamlSettings) error {
	if fileData.BreakIntervalMinutes > 0 {
		config.BreakInterval = time.Duration(fileData.BreakIntervalMinutes) * time.Minute
	}
	if fileData.BreakPolicy != "" {
		policy, err := model.ParseBreakPolicy(fileData.BreakPolicy)
		if err != nil {
			return err
		}
		config.BreakPolicy = policy
	}
	if fileData.StopOnClose != nil {
		config.StopOnClose = *fileData.StopOnClose
	}
	if fileData.LogDir != "" {
		config.LogDir = fileData.LogDir
	}
	return nil
}
