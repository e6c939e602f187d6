package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sort"
	"strings"

	"cloudeng.io/errors"
	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < env < flags,
// then validates it.
func Load() (*Config, error) {
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}
	return load(configPath, applyFlags)
}

// load applies defaults < file < env < overrides and validates the result.
// An empty path skips the file.
func load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./skyclock.yaml",
		DefaultPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// DefaultPath is the config file in the user's config directory.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "skyclock")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "skyclock")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "skyclock")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "skyclock")
	}
}

// loadFromFile merges a YAML file over cfg. Keys that do not correspond to
// any setting are rejected.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return parse(cfg, data)
}

func parse(cfg *Config, data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := checkKeys(raw, reflect.TypeOf(*cfg), ""); err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SKYCLOCK_ADMIN_KEY"); v != "" {
		cfg.API.AdminKey = v
	}
	if v := os.Getenv("SKYCLOCK_RELAY_KEY"); v != "" {
		cfg.API.RelayKey = v
	}
}

// checkKeys walks a decoded YAML mapping alongside the struct it will be
// decoded into and reports keys with no matching field.
func checkKeys(raw map[string]any, t reflect.Type, prefix string) error {
	fields := yamlFields(t)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var errs errors.M
	for _, key := range keys {
		ft, ok := fields[key]
		if !ok {
			errs.Append(unknownKey(prefix+key, key, names))
			continue
		}
		if sub, isMap := raw[key].(map[string]any); isMap && ft.Kind() == reflect.Struct {
			errs.Append(checkKeys(sub, ft, prefix+key+"."))
		}
	}
	return errs.Err()
}

// yamlFields maps yaml key names to field types for a struct type.
func yamlFields(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" || !f.IsExported() {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		fields[name] = f.Type
	}
	return fields
}

func unknownKey(path, key string, candidates []string) error {
	best, bestDist := "", -1
	for _, cand := range candidates {
		dist := levenshtein.ComputeDistance(key, cand)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	if bestDist >= 0 && bestDist <= suggestLimit(len(key)) {
		return fmt.Errorf("unknown setting %q (did you mean %q?)", path, best)
	}
	return fmt.Errorf("unknown setting %q", path)
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
