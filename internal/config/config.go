// Package config provides Viper-based configuration loading for the game binaries.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/whatfools/internal/game/ruleset"
)

// EnvPrefix prefixes every environment variable override, e.g. WFTM_GAME_ROLE.
const EnvPrefix = "WFTM"

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File, when set, receives a copy of every log line and is rotated by size.
	File string `mapstructure:"file"`
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAgeDays is the number of days rotated files are kept.
	MaxAgeDays int `mapstructure:"max_age_days"`
	// Compress gzips rotated files.
	Compress bool `mapstructure:"compress"`
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections; it bounds
	// how long a deity may take to answer a prayer.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// GameConfig holds the run settings. Empty role, alignment, race and gender
// are picked at random.
type GameConfig struct {
	Role      string `mapstructure:"role"`
	Alignment string `mapstructure:"alignment"`
	Race      string `mapstructure:"race"`
	Gender    string `mapstructure:"gender"`
	// Discovery prevents the worshipper's death.
	Discovery bool `mapstructure:"discovery"`
	// Seed makes a run reproducible; zero draws a fresh seed.
	Seed int64 `mapstructure:"seed"`
	// QuitChance and DiscoveryQuitChance tune how often a badly hurt worshipper gives up.
	QuitChance          int `mapstructure:"quit_chance"`
	DiscoveryQuitChance int `mapstructure:"discovery_quit_chance"`
	// MaxTurns stops a run early; zero means no limit.
	MaxTurns int `mapstructure:"max_turns"`
}

// ScriptingConfig holds the Lua deity policy settings.
type ScriptingConfig struct {
	// DeityScript is the path of a Lua file defining choose(prompt, options).
	DeityScript string `mapstructure:"deity_script"`
	// InstructionLimit bounds the Lua instructions of a single decision.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// ContentConfig locates the role and race definitions.
type ContentConfig struct {
	// Dir holds roles/*.yaml and races/*.yaml; empty uses the embedded content.
	Dir string `mapstructure:"dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telnet    TelnetConfig    `mapstructure:"telnet"`
	Game      GameConfig      `mapstructure:"game"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Content   ContentConfig   `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTelnet(c.Telnet); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	if l.File != "" && l.MaxSizeMB < 1 {
		errs = append(errs, fmt.Sprintf("logging.max_size_mb must be >= 1, got %d", l.MaxSizeMB))
	}
	if l.MaxBackups < 0 {
		errs = append(errs, "logging.max_backups must not be negative")
	}
	if l.MaxAgeDays < 0 {
		errs = append(errs, "logging.max_age_days must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if t.Port < 1 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("telnet.port must be 1-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.Alignment != "" {
		if _, err := ruleset.ParseAlignment(g.Alignment); err != nil {
			errs = append(errs, fmt.Sprintf("game.alignment: %v", err))
		}
	}
	if g.Gender != "" {
		if _, err := ruleset.ParseGender(g.Gender); err != nil {
			errs = append(errs, fmt.Sprintf("game.gender: %v", err))
		}
	}
	if g.QuitChance < 1 {
		errs = append(errs, fmt.Sprintf("game.quit_chance must be >= 1, got %d", g.QuitChance))
	}
	if g.DiscoveryQuitChance < 1 {
		errs = append(errs, fmt.Sprintf("game.discovery_quit_chance must be >= 1, got %d", g.DiscoveryQuitChance))
	}
	if g.MaxTurns < 0 {
		errs = append(errs, fmt.Sprintf("game.max_turns must be >= 0, got %d", g.MaxTurns))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	if s.DeityScript != "" && !strings.HasSuffix(s.DeityScript, ".lua") {
		return fmt.Errorf("scripting.deity_script must be a .lua file, got %q", s.DeityScript)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Precondition: path must be empty or name a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with WFTM_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("logging.compress", false)

	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "30m")
	v.SetDefault("telnet.write_timeout", "30s")

	v.SetDefault("game.role", "")
	v.SetDefault("game.alignment", "")
	v.SetDefault("game.race", "")
	v.SetDefault("game.gender", "")
	v.SetDefault("game.discovery", false)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.quit_chance", 4)
	v.SetDefault("game.discovery_quit_chance", 20)
	v.SetDefault("game.max_turns", 0)

	v.SetDefault("scripting.deity_script", "")
	v.SetDefault("scripting.instruction_limit", 100000)

	v.SetDefault("content.dir", "")
}
