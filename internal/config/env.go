package config

import (
	"errors"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from the given files (default ".env") into the
// process environment without overriding variables already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// FromEnv overlays CHAT_* environment variables onto cfg. SERVER_HOST,
// SERVER_PORT and REFLECTION are honored when their CHAT_* counterparts are
// unset.
func FromEnv(cfg *Config) {
	if v := os.Getenv("CHAT_STORE"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("CHAT_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("CHAT_FSYNC"); v != "" {
		cfg.Storage.Fsync = v
	}
	envDuration("CHAT_FSYNC_INTERVAL", &cfg.Storage.FsyncInterval)
	if v := os.Getenv("CHAT_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("CHAT_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("CHAT_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Redis.DB = n
		}
	}
	if v := os.Getenv("CHAT_REDIS_NAMESPACE"); v != "" {
		cfg.Storage.Redis.Namespace = v
	}

	if v := os.Getenv("CHAT_DELIVERY"); v != "" {
		cfg.Mailbox.Delivery = v
	}
	envDuration("CHAT_POLL_INTERVAL", &cfg.Mailbox.PollInterval)
	envDuration("CHAT_RESYNC", &cfg.Mailbox.Resync)
	envDuration("CHAT_OP_TIMEOUT", &cfg.Mailbox.OpTimeout)
	if v := os.Getenv("CHAT_ID_STRATEGY"); v != "" {
		cfg.Mailbox.IDStrategy = v
	}

	if v := os.Getenv("CHAT_SEND_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Send.RatePerSecond = f
		}
	}
	if v := os.Getenv("CHAT_SEND_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Send.Burst = n
		}
	}

	if v := os.Getenv("CHAT_GRPC_ADDR"); v != "" {
		cfg.Server.GRPCAddr = v
	} else if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.GRPCAddr = net.JoinHostPort(os.Getenv("SERVER_HOST"), port)
	}
	if v := os.Getenv("CHAT_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	reflection := os.Getenv("CHAT_REFLECTION")
	if reflection == "" {
		reflection = os.Getenv("REFLECTION")
	}
	if reflection != "" {
		if b, err := strconv.ParseBool(reflection); err == nil {
			cfg.Server.Reflection = b
		}
	}

	if v := os.Getenv("CHAT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CHAT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("CHAT_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
