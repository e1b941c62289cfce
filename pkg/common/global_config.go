package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// GlobalConfig holds per-user settings shared by every project.
type GlobalConfig struct {
	// FirstRun is true until first-run setup has completed
	FirstRun bool `yaml:"first_run"`
	// TelemetryEnabled is nil until the user has made a choice
	TelemetryEnabled *bool `yaml:"telemetry_enabled,omitempty"`
	// UserUUID identifies the install in telemetry
	UserUUID string `yaml:"user_uuid,omitempty"`
	// DefaultNetwork is used when neither --network nor the RPC chain id selects one
	DefaultNetwork string `yaml:"default_network,omitempty"`
}

// GetGlobalConfigDir returns ~/.config/relayctl.
func GetGlobalConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "relayctl"), nil
}

func getGlobalConfigPath() (string, error) {
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, GlobalConfigFile), nil
}

// LoadGlobalConfig reads the global config. A missing file yields a first-run config.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path, err := getGlobalConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &GlobalConfig{FirstRun: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read global config: %w", err)
	}

	var config GlobalConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse global config: %w", err)
	}
	return &config, nil
}

// SaveGlobalConfig writes config, creating the directory when needed.
func SaveGlobalConfig(config *GlobalConfig) error {
	path, err := getGlobalConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal global config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write global config: %w", err)
	}
	return nil
}

func updateGlobalConfig(update func(*GlobalConfig)) error {
	config, err := LoadGlobalConfig()
	if err != nil {
		return err
	}
	update(config)
	return SaveGlobalConfig(config)
}

func IsFirstRun() (bool, error) {
	config, err := LoadGlobalConfig()
	if err != nil {
		return false, err
	}
	return config.FirstRun, nil
}

func MarkFirstRunComplete() error {
	return updateGlobalConfig(func(c *GlobalConfig) { c.FirstRun = false })
}

// GetGlobalTelemetryPreference returns nil when the user has not chosen.
func GetGlobalTelemetryPreference() (*bool, error) {
	config, err := LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	return config.TelemetryEnabled, nil
}

func SetGlobalTelemetryPreference(enabled bool) error {
	return updateGlobalConfig(func(c *GlobalConfig) { c.TelemetryEnabled = &enabled })
}

func SaveUserId(userUUID string) error {
	if _, err := uuid.Parse(userUUID); err != nil {
		return fmt.Errorf("invalid user id %q: %w", userUUID, err)
	}
	return updateGlobalConfig(func(c *GlobalConfig) { c.UserUUID = userUUID })
}

func getUserUUIDFromGlobalConfig() string {
	config, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return config.UserUUID
}

func GetDefaultNetwork() (string, error) {
	config, err := LoadGlobalConfig()
	if err != nil {
		return "", err
	}
	return config.DefaultNetwork, nil
}

// SetDefaultNetwork persists name after checking it is a known network.
func SetDefaultNetwork(name string) error {
	if _, ok := NetworkConfigs[name]; !ok {
		return fmt.Errorf("unknown network: %s", name)
	}
	return updateGlobalConfig(func(c *GlobalConfig) { c.DefaultNetwork = name })
}
