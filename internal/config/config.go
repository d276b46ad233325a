package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Storage Storage       `json:"storage" mapstructure:"storage"`
	Mailbox Mailbox       `json:"mailbox" mapstructure:"mailbox"`
	Send    Send          `json:"send" mapstructure:"send"`
	Server  Server        `json:"server" mapstructure:"server"`
	Log     logpkg.Config `json:"log" mapstructure:"log"`
}

// Storage selects and configures the backing key-value store.
type Storage struct {
	// Backend is "pebble" or "redis".
	Backend       string        `json:"backend" mapstructure:"backend"`
	DataDir       string        `json:"dataDir" mapstructure:"dataDir"`
	Fsync         string        `json:"fsync" mapstructure:"fsync"`
	FsyncInterval time.Duration `json:"fsyncInterval" mapstructure:"fsyncInterval"`
	Redis         Redis         `json:"redis" mapstructure:"redis"`
}

// Redis connection settings, used when Storage.Backend is "redis".
type Redis struct {
	Addr      string `json:"addr" mapstructure:"addr"`
	Password  string `json:"password" mapstructure:"password"`
	DB        int    `json:"db" mapstructure:"db"`
	Namespace string `json:"namespace" mapstructure:"namespace"`
}

// Mailbox tunes delivery.
type Mailbox struct {
	// Delivery is "poll", "watch" or "auto".
	Delivery     string        `json:"delivery" mapstructure:"delivery"`
	PollInterval time.Duration `json:"pollInterval" mapstructure:"pollInterval"`
	// Resync caps a watch wait so a missed event costs at most one interval;
	// zero disables it.
	Resync     time.Duration `json:"resync" mapstructure:"resync"`
	IDStrategy string        `json:"idStrategy" mapstructure:"idStrategy"`
	OpTimeout  time.Duration `json:"opTimeout" mapstructure:"opTimeout"`
}

// Send configures the per-sender rate limiter. RatePerSecond <= 0 disables it.
type Send struct {
	RatePerSecond float64 `json:"ratePerSecond" mapstructure:"ratePerSecond"`
	Burst         int     `json:"burst" mapstructure:"burst"`
}

// Server holds listener settings.
type Server struct {
	GRPCAddr   string `json:"grpcAddr" mapstructure:"grpcAddr"`
	HTTPAddr   string `json:"httpAddr" mapstructure:"httpAddr"`
	Reflection bool   `json:"reflection" mapstructure:"reflection"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Storage: Storage{
			Backend:       "pebble",
			Fsync:         "interval",
			FsyncInterval: 5 * time.Millisecond,
			Redis:         Redis{Addr: "127.0.0.1:6379", Namespace: "simplechat/"},
		},
		Mailbox: Mailbox{
			Delivery:     "auto",
			PollInterval: time.Second,
			Resync:       30 * time.Second,
			IDStrategy:   "composite",
			OpTimeout:    5 * time.Second,
		},
		Send: Send{Burst: 10},
		Server: Server{
			GRPCAddr: ":50051",
			HTTPAddr: ":8080",
		},
		Log: logpkg.Config{Level: "info", Format: "text", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28},
	}
}

// Load reads configuration from a JSON, YAML or TOML file (by extension)
// on top of Default(). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "pebble", "redis":
	default:
		return fmt.Errorf("config: storage.backend %q; use pebble|redis", c.Storage.Backend)
	}
	switch c.Mailbox.Delivery {
	case "poll", "watch", "auto":
	default:
		return fmt.Errorf("config: mailbox.delivery %q; use poll|watch|auto", c.Mailbox.Delivery)
	}
	if c.Mailbox.PollInterval <= 0 {
		return fmt.Errorf("config: mailbox.pollInterval must be positive")
	}
	if c.Send.RatePerSecond > 0 && c.Send.Burst <= 0 {
		return fmt.Errorf("config: send.burst must be positive when rate limiting is on")
	}
	return nil
}
