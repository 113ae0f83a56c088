// Package config loads per-language server registration settings,
// adapted from the teacher's internal/config (a koanf-layered config
// loader for lint behavior): defaults, then a discovered TOML file, then
// LSPBRIDGE_* environment variables, then editor-provided overrides, in
// an order controlled by a ConfigurationPreference.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames are searched for, in priority order, during discovery.
var ConfigFileNames = []string{".lspbridge.toml", "lspbridge.toml"}

// EnvPrefix is the prefix environment variable overrides must carry.
const EnvPrefix = "LSPBRIDGE_"

// ServerConfig describes one registered language server (spec.md §6).
type ServerConfig struct {
	Program         string            `koanf:"program"`
	Args            []string          `koanf:"args"`
	Languages       []string          `koanf:"languages"`
	DefaultSettings map[string]any    `koanf:"default-settings"`
	Env             map[string]string `koanf:"env"`
}

// Config is the complete set of registered servers.
type Config struct {
	Servers map[string]ServerConfig `koanf:"servers"`

	// ConfigFile is the path to the config file that was loaded (if any).
	ConfigFile string `koanf:"-"`
}

// Default returns the built-in configuration: no servers registered.
// Callers add entries via a config file, environment variables, or
// editor-provided overrides.
func Default() *Config {
	return &Config{Servers: map[string]ServerConfig{}}
}

// ConfigurationPreference controls how editor-provided overrides
// interact with filesystem config discovery (spec.md §4.F
// workspace/configuration).
type ConfigurationPreference string

const (
	PreferenceEditorFirst     ConfigurationPreference = "editorFirst"
	PreferenceFilesystemFirst ConfigurationPreference = "filesystemFirst"
	PreferenceEditorOnly      ConfigurationPreference = "editorOnly"
)

func normalizePreference(p ConfigurationPreference) ConfigurationPreference {
	switch p {
	case PreferenceEditorFirst, PreferenceFilesystemFirst, PreferenceEditorOnly:
		return p
	default:
		return PreferenceEditorFirst
	}
}

// Load discovers the closest config file for workspaceRoot, loads it,
// and applies environment overrides; equivalent to
// LoadWithOverrides(workspaceRoot, nil, PreferenceEditorFirst).
func Load(workspaceRoot string) (*Config, error) {
	return LoadWithOverrides(workspaceRoot, nil, PreferenceEditorFirst)
}

// LoadWithOverrides loads configuration for workspaceRoot with an
// optional editor-provided overrides map, applied according to
// preference.
//
// Precedence:
//   - editorFirst: defaults -> filesystem config -> env -> overrides
//   - filesystemFirst: defaults -> overrides -> filesystem config -> env
//   - editorOnly: defaults -> env -> overrides (filesystem discovery skipped)
func LoadWithOverrides(workspaceRoot string, overrides map[string]any, preference ConfigurationPreference) (*Config, error) {
	preference = normalizePreference(preference)

	configPath := ""
	if preference != PreferenceEditorOnly {
		configPath = Discover(workspaceRoot)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	switch preference {
	case PreferenceEditorOnly:
		if err := loadEnv(k); err != nil {
			return nil, err
		}
		if err := loadOverrides(k, overrides); err != nil {
			return nil, err
		}
	case PreferenceFilesystemFirst:
		if err := loadOverrides(k, overrides); err != nil {
			return nil, err
		}
		if err := loadConfigFile(k, configPath); err != nil {
			return nil, err
		}
		if err := loadEnv(k); err != nil {
			return nil, err
		}
	case PreferenceEditorFirst:
		if err := loadConfigFile(k, configPath); err != nil {
			return nil, err
		}
		if err := loadEnv(k); err != nil {
			return nil, err
		}
		if err := loadOverrides(k, overrides); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = configPath
	return cfg, nil
}

func loadConfigFile(k *koanf.Koanf, configPath string) error {
	if configPath == "" {
		return nil
	}
	return k.Load(file.Provider(configPath), toml.Parser())
}

func loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKeyTransform,
	}), nil)
}

func loadOverrides(k *koanf.Koanf, overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	return k.Load(confmap.Provider(overrides, ""), nil)
}

// envKeyTransform converts an environment variable name to a config key.
// LSPBRIDGE_SERVERS_GOPLS_PROGRAM -> servers.gopls.program
func envKeyTransform(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", ".")
	s = strings.ReplaceAll(s, "default.settings", "default-settings")
	return s
}

// Discover walks up from workspaceRoot looking for a config file,
// returning the closest match or "" if none is found.
func Discover(workspaceRoot string) string {
	absPath, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return ""
	}

	dir := absPath
	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if fileExists(candidate) {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
