package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// configFilePath picks the YAML settings file: CONFIG_FILE if set (it must
// exist), otherwise botgpt-<PROFILE>.yaml in the working directory when
// present. PROFILE defaults to "local".
func configFilePath() (string, error) {
	if p := getEnv("CONFIG_FILE", ""); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return p, nil
	}
	profile := strings.TrimSpace(getEnv("PROFILE", "local"))
	p := fmt.Sprintf("botgpt-%s.yaml", profile)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config file: %w", err)
	}
	return p, nil
}

// loadFile decodes the YAML file at path over cfg. Keys missing from the
// file leave cfg untouched. A relative database_path is resolved against
// the file's directory.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DatabasePath != "" && cfg.DatabasePath != ":memory:" && !filepath.IsAbs(cfg.DatabasePath) {
		cfg.DatabasePath = filepath.Join(filepath.Dir(path), cfg.DatabasePath)
	}
	return nil
}
