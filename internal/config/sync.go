package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvConfigYAML names the environment variable carrying a base64 encoded YAML
// configuration.
const EnvConfigYAML = "HEXMESH_CONFIG_YAML_B64"

// SyncFromEnv writes the configuration carried in EnvConfigYAML to path so the
// following Load picks it up. It reports whether anything was written.
func SyncFromEnv(path string) (bool, error) {
	payload := os.Getenv(EnvConfigYAML)
	if payload == "" {
		return false, nil
	}
	if path == "" {
		return false, errors.New("configuration provided through the environment but no config path supplied")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return false, fmt.Errorf("decode env config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return false, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return false, fmt.Errorf("validate env config: %w", err)
	}
	if err := Write(path, cfg); err != nil {
		return false, err
	}
	return true, nil
}
