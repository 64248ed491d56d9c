// Package config loads the modsort CLI configuration from defaults, an
// optional YAML file and command-line flags, in that precedence order.
package config

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

var validate = validator.New()

// Manager handles loading and accessing the CLI configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates an empty configuration manager.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
	}
}

// DefaultConfig returns the hardcoded baseline configuration.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// DefaultConfigAsMap converts DefaultConfig to the flat map shape
// koanf's confmap provider expects.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level": def.Log.Level,

		"game.type":               def.Game.Type,
		"game.path":               def.Game.Path,
		"game.local_path":         def.Game.LocalPath,
		"game.masterlist":         def.Game.Masterlist,
		"game.masterlist_prelude": def.Game.MasterlistPrelude,
		"game.userlist":           def.Game.Userlist,
	}
}

// Load populates the manager from defaults, the optional config file
// and the given flag set, highest precedence last.
func (m *Manager) Load(flags *pflag.FlagSet, configFilePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.koanfInstance.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil); err != nil {
		return fmt.Errorf("error loading defaults: %w", err)
	}

	if configFilePath != "" {
		if err := m.koanfInstance.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return fmt.Errorf("error loading config file %q: %w", configFilePath, err)
		}
	}

	if flags != nil {
		if err := m.koanfInstance.Load(posflag.Provider(flags, ".", m.koanfInstance), nil); err != nil {
			return fmt.Errorf("error loading command-line flags: %w", err)
		}

		if debugFlag := flags.Lookup("debug"); debugFlag != nil && cast.ToBool(debugFlag.Value.String()) {
			_ = m.koanfInstance.Set("log.level", "debug")
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	m.currentConfig = newCfg

	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// ValidateGame checks that the configuration names a usable game
// install.
func (m *Manager) ValidateGame() error {
	cfg := m.Get()
	if err := validate.Struct(cfg.Game); err != nil {
		return fmt.Errorf("incomplete game configuration: %w", err)
	}
	return nil
}

// BindFlags defines command-line flags corresponding to configuration
// settings. Flag names use the koanf key paths so posflag can map them
// directly.
func BindFlags(flags *pflag.FlagSet) {
	def := DefaultConfig()

	flags.String("log.level", def.Log.Level, "Log level (trace, debug, info, warn, error)")
	flags.String("game.type", def.Game.Type, "Game type (e.g. skyrimse, fallout4, starfield)")
	flags.String("game.path", def.Game.Path, "Game install directory")
	flags.String("game.local_path", def.Game.LocalPath, "Local application data directory")
	flags.String("game.masterlist", def.Game.Masterlist, "Masterlist document path")
	flags.String("game.masterlist_prelude", def.Game.MasterlistPrelude, "Masterlist prelude document path")
	flags.String("game.userlist", def.Game.Userlist, "Userlist document path")
	flags.Bool("debug", false, "Enable debug logging")
}
