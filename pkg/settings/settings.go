// Package settings manages persistent user settings for the netkit CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Settings holds persistent user preferences. Command-line flags win over
// every field.
type Settings struct {
	// Inventory is the inventory file used when --inventory is not given
	Inventory string `json:"inventory,omitempty"`

	// OutDir is the base directory for run output
	OutDir string `json:"outdir,omitempty"`

	// EnvFile is the dotenv file read before resolving the inventory
	EnvFile string `json:"env_file,omitempty"`

	// Workers is the default number of hosts processed concurrently
	Workers int `json:"workers,omitempty"`

	// Timeout is the per-host session timeout, as a Go duration ("90s")
	Timeout string `json:"timeout,omitempty"`

	// AuditLog overrides the audit log location
	AuditLog string `json:"audit_log,omitempty"`
}

// Defaults used when neither flags nor settings say otherwise.
const (
	DefaultInventory = "inventory.yaml"
	DefaultOutDir    = "output"
	DefaultEnvFile   = ".env"
	DefaultWorkers   = 1
	DefaultTimeout   = 90 * time.Second
)

// Keys lists the names accepted by Get and Set.
var Keys = []string{"inventory", "outdir", "env_file", "workers", "timeout", "audit_log"}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "netkit_settings.json"
	}
	return filepath.Join(home, ".netkit", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A missing file yields empty
// settings.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Get returns the stored value of key, "" when unset.
func (s *Settings) Get(key string) (string, error) {
	switch normalizeKey(key) {
	case "inventory":
		return s.Inventory, nil
	case "outdir":
		return s.OutDir, nil
	case "env_file":
		return s.EnvFile, nil
	case "workers":
		if s.Workers == 0 {
			return "", nil
		}
		return strconv.Itoa(s.Workers), nil
	case "timeout":
		return s.Timeout, nil
	case "audit_log":
		return s.AuditLog, nil
	}
	return "", unknownKey(key)
}

// Set validates and stores value under key.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch normalizeKey(key) {
	case "inventory":
		s.Inventory = value
	case "outdir":
		s.OutDir = value
	case "env_file":
		s.EnvFile = value
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("workers must be a positive integer, got %q", value)
		}
		s.Workers = n
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("timeout must be a positive duration such as 90s, got %q", value)
		}
		s.Timeout = value
	case "audit_log":
		s.AuditLog = value
	default:
		return unknownKey(key)
	}
	return nil
}

// Values returns every key with its stored value, sorted by key.
func (s *Settings) Values() [][2]string {
	keys := append([]string(nil), Keys...)
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		v, _ := s.Get(k)
		out = append(out, [2]string{k, v})
	}
	return out
}

// GetInventory returns the inventory path (with fallback)
func (s *Settings) GetInventory() string {
	if s.Inventory != "" {
		return s.Inventory
	}
	return DefaultInventory
}

// GetOutDir returns the output directory (with fallback)
func (s *Settings) GetOutDir() string {
	if s.OutDir != "" {
		return s.OutDir
	}
	return DefaultOutDir
}

// GetEnvFile returns the dotenv path (with fallback)
func (s *Settings) GetEnvFile() string {
	if s.EnvFile != "" {
		return s.EnvFile
	}
	return DefaultEnvFile
}

// GetWorkers returns the worker count (with fallback)
func (s *Settings) GetWorkers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return DefaultWorkers
}

// GetTimeout returns the session timeout. An unparsable stored value falls
// back to the default.
func (s *Settings) GetTimeout() time.Duration {
	if d, err := time.ParseDuration(s.Timeout); err == nil && d > 0 {
		return d
	}
	return DefaultTimeout
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}

func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown setting: %s (valid: %s)", key, strings.Join(Keys, ", "))
}
