// ===== internal/config/config.go =====
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/ini.v1"
)

// Simulation modes
const (
	ModeBasic  = "basic"
	ModeRandom = "random"
)

// ValidationError describes a rejected configuration value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Config holds all application configuration
type Config struct {
	// Simulation settings
	Mode         string
	HostCount    int
	Seed         int64
	SpoofEvery   int
	SpoofChance  float64
	AutoBlock    bool
	PrimeOnStart bool
	SpeedMS      int

	// Scenario settings
	ScenarioDir    string
	WatchScenarios bool

	// Network settings
	HTTPListen string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Mode:           ModeBasic,
		HostCount:      4,
		Seed:           0,
		SpoofEvery:     4,
		SpoofChance:    0.15,
		AutoBlock:      true,
		PrimeOnStart:   true,
		SpeedMS:        400,
		ScenarioDir:    "scenarios",
		WatchScenarios: true,
		HTTPListen:     "127.0.0.1:8089",
	}
}

// LoadFromFile loads configuration from INI file
func (c *Config) LoadFromFile(filename string) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, filename)
	if err != nil {
		log.Printf("Skipping config file %s: %s", filename, err)
		return err
	}

	section := cfg.Section("")
	c.Mode = section.Key("mode").MustString(c.Mode)
	c.HostCount = section.Key("hostcount").MustInt(c.HostCount)
	c.Seed = section.Key("seed").MustInt64(c.Seed)
	c.SpoofEvery = section.Key("spoofevery").MustInt(c.SpoofEvery)
	c.SpoofChance = section.Key("spoofchance").MustFloat64(c.SpoofChance)
	c.AutoBlock = section.Key("autoblock").MustBool(c.AutoBlock)
	c.PrimeOnStart = section.Key("primeonstart").MustBool(c.PrimeOnStart)
	c.SpeedMS = section.Key("speedms").MustInt(c.SpeedMS)
	c.ScenarioDir = section.Key("scenariodir").MustString(c.ScenarioDir)
	c.WatchScenarios = section.Key("watchscenarios").MustBool(c.WatchScenarios)
	c.HTTPListen = section.Key("httplisten").MustString(c.HTTPListen)

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("HOSTCOUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HostCount = n
		}
	}
	if v := os.Getenv("SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = n
		}
	}
	if v := os.Getenv("SPOOFEVERY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SpoofEvery = n
		}
	}
	if v := os.Getenv("SPOOFCHANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.SpoofChance = f
		}
	}
	if v := os.Getenv("AUTOBLOCK"); v != "" {
		c.AutoBlock, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("PRIMEONSTART"); v != "" {
		c.PrimeOnStart, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("SPEEDMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SpeedMS = n
		}
	}
	if v := os.Getenv("SCENARIODIR"); v != "" {
		c.ScenarioDir = v
	}
	if v := os.Getenv("WATCHSCENARIOS"); v != "" {
		c.WatchScenarios, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("HTTPLISTEN"); v != "" {
		c.HTTPListen = v
	}
}

// Validate checks the configuration for values the simulation cannot run with
func (c *Config) Validate() error {
	if c.Mode != ModeBasic && c.Mode != ModeRandom {
		return &ValidationError{Field: "mode", Message: fmt.Sprintf("must be %q or %q", ModeBasic, ModeRandom)}
	}
	if c.HostCount < 1 {
		return &ValidationError{Field: "host_count", Message: "must be at least 1"}
	}
	if c.HostCount > 254 {
		return &ValidationError{Field: "host_count", Message: "must fit a /24 (at most 254)"}
	}
	if c.SpoofChance < 0 || c.SpoofChance > 1 {
		return &ValidationError{Field: "spoof_probability", Message: "must be within [0, 1]"}
	}
	if c.SpoofEvery < 0 {
		return &ValidationError{Field: "spoof_every", Message: "must be zero (never) or positive"}
	}
	if c.SpeedMS < 0 {
		return &ValidationError{Field: "speed_ms", Message: "must be zero (manual stepping) or positive"}
	}
	return nil
}

// New creates a new configuration instance
func New(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	// Load from file first
	cfg.LoadFromFile(configFile)

	// Override with environment variables
	cfg.LoadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
