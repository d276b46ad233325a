package serverrun

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cfgpkg "github.com/CHESTERFIELD/simple-chat/internal/config"
)

// NewCommand returns the "server" command group with its "start" subcommand.
func NewCommand() *cobra.Command {
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	startCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the chat server (gRPC and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ResolveConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if err := Run(cmd.Context(), Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	f := startCmd.Flags()
	f.String("config", "", "Config file (json|yaml|toml)")
	f.String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	f.String("grpc", ":50051", "gRPC listen address")
	f.String("http", ":8080", "HTTP listen address")
	f.String("store", "pebble", "Store backend: pebble|redis")
	f.String("redis-addr", "127.0.0.1:6379", "Redis address when --store=redis")
	f.String("fsync", "interval", "Fsync mode: always|interval|never")
	f.Duration("fsync-interval", 5*time.Millisecond, "When --fsync=interval, group-commit window")
	f.String("delivery", "auto", "Idle strategy between mailbox scans: poll|watch|auto")
	f.Duration("poll-interval", time.Second, "Delay between mailbox scans when idle")
	f.String("id-strategy", "composite", "Message id strategy: composite|sequential")
	f.Bool("reflection", false, "Register gRPC server reflection")
	f.String("log-level", "info", "Log level: debug|info|warn|error")
	f.String("log-format", "text", "Log format: text|json")
	f.String("log-file", "", "Also write logs to this file, with rotation")
	serverCmd.AddCommand(startCmd)
	return serverCmd
}

// ResolveConfig layers configuration: defaults, then --config, then .env and
// the environment, then flags the user set explicitly.
func ResolveConfig(f *pflag.FlagSet) (cfgpkg.Config, error) {
	path, _ := f.GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	if err := cfgpkg.LoadDotEnv(); err != nil {
		return cfgpkg.Config{}, fmt.Errorf("config: .env: %w", err)
	}
	cfgpkg.FromEnv(&cfg)

	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	dur := func(name string, dst *time.Duration) {
		if f.Changed(name) {
			*dst, _ = f.GetDuration(name)
		}
	}
	str("data-dir", &cfg.Storage.DataDir)
	str("grpc", &cfg.Server.GRPCAddr)
	str("http", &cfg.Server.HTTPAddr)
	str("store", &cfg.Storage.Backend)
	str("redis-addr", &cfg.Storage.Redis.Addr)
	str("fsync", &cfg.Storage.Fsync)
	dur("fsync-interval", &cfg.Storage.FsyncInterval)
	str("delivery", &cfg.Mailbox.Delivery)
	dur("poll-interval", &cfg.Mailbox.PollInterval)
	str("id-strategy", &cfg.Mailbox.IDStrategy)
	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	str("log-file", &cfg.Log.File)
	if f.Changed("reflection") {
		cfg.Server.Reflection, _ = f.GetBool("reflection")
	}
	return cfg, cfg.Validate()
}
