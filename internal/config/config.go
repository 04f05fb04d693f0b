package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultOriginatorsPath    = "/sys/kernel/debug/batman_adv/bat0/originators"
	DefaultLogDir             = "./logs"
	DefaultModelPath          = "./model/model.json"
	DefaultActionThreshold    = 0.7
	DefaultPollIntervalSec    = 2
	DefaultPredictIntervalSec = 5
	DefaultAPIListen          = ":5000"
)

// Config holds all settings for a meshmon node.
type Config struct {
	Monitor *MonitorConfig `yaml:"monitor,omitempty"`
	API     *APIConfig     `yaml:"api,omitempty"`
	Chat    *ChatConfig    `yaml:"chat,omitempty"`
	Uplink  *UplinkConfig  `yaml:"uplink,omitempty"`
}

// MonitorConfig drives the monitoring loop.
type MonitorConfig struct {
	OriginatorsPath    string  `yaml:"originators_path"`
	LogDir             string  `yaml:"log_dir"`
	ModelPath          string  `yaml:"model_path"`
	ActionThreshold    float64 `yaml:"action_threshold"`
	PollIntervalSec    int     `yaml:"poll_interval_sec"`
	PredictIntervalSec int     `yaml:"predict_interval_sec"`
	// BatteryPct overrides the battery feature when > 0. When 0 the
	// MESHMON_BATTERY_PCT environment variable (then the built-in default)
	// applies instead.
	BatteryPct float64 `yaml:"battery_pct"`
}

// APIConfig configures the read API server.
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// ChatConfig configures the mesh chat relay. An empty listen address
// disables the relay.
type ChatConfig struct {
	Listen string `yaml:"listen"`
}

// UplinkConfig configures the optional doctor-time uplink probe.
type UplinkConfig struct {
	STUNServers []string `yaml:"stun_servers"`
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

// Validate performs minimal validation for required fields.
func Validate(cfg Config) error {
	if cfg.Monitor == nil {
		return fmt.Errorf("config must contain a monitor section")
	}
	m := cfg.Monitor
	if m.PollIntervalSec <= 0 {
		return fmt.Errorf("monitor.poll_interval_sec must be positive")
	}
	if m.PredictIntervalSec < m.PollIntervalSec {
		return fmt.Errorf("monitor.predict_interval_sec must be >= monitor.poll_interval_sec")
	}
	if m.ActionThreshold <= 0 || m.ActionThreshold > 1 {
		return fmt.Errorf("monitor.action_threshold must be in (0, 1]")
	}
	if cfg.API != nil && cfg.API.Listen == "" {
		return fmt.Errorf("api.listen is required when the api section is present")
	}
	return nil
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Monitor == nil {
		cfg.Monitor = &MonitorConfig{}
	}
	m := cfg.Monitor
	if m.OriginatorsPath == "" {
		m.OriginatorsPath = DefaultOriginatorsPath
	}
	if m.LogDir == "" {
		m.LogDir = DefaultLogDir
	}
	if m.ModelPath == "" {
		m.ModelPath = DefaultModelPath
	}
	if m.ActionThreshold == 0 {
		m.ActionThreshold = DefaultActionThreshold
	}
	if m.PollIntervalSec == 0 {
		m.PollIntervalSec = DefaultPollIntervalSec
	}
	if m.PredictIntervalSec == 0 {
		m.PredictIntervalSec = DefaultPredictIntervalSec
	}
	if cfg.API == nil {
		cfg.API = &APIConfig{}
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = DefaultAPIListen
	}
}
