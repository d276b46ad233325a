package client

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/CHESTERFIELD/simple-chat/internal/config"
	"github.com/CHESTERFIELD/simple-chat/internal/directory"
	"github.com/CHESTERFIELD/simple-chat/internal/runtime"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

// NewUsersCommand constructs the `users` command group and subcommands.
func NewUsersCommand() *cobra.Command {
	usersCmd := &cobra.Command{Use: "users", Short: "User directory operations"}
	usersCmd.AddCommand(newUsersListCommand(), newUsersLoadCommand())
	return usersCmd
}

// newUsersListCommand constructs the `users list` subcommand.
func newUsersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := getTransport().ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Fprintf(cmd.OutOrStdout(), "User login: %s. User full name: %s\n", u.Login, u.FullName)
			}
			return nil
		},
	}
}

// newUsersLoadCommand constructs the `users load` subcommand. It writes to
// the configured store directly rather than through the server.
func newUsersLoadCommand() *cobra.Command {
	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load users from a JSON file into the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			cfg, err := storeConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := logpkg.ApplyConfig(&logpkg.Config{Level: "warn", Format: cfg.Log.Format})
			if err != nil {
				return err
			}
			rt, err := runtime.Open(cmd.Context(), runtime.Options{Config: cfg, Logger: logger})
			if err != nil {
				return err
			}
			defer rt.Close()

			n, err := directory.LoadFile(cmd.Context(), file, rt.Engine())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d users\n", n)
			return nil
		},
	}
	loadCmd.Flags().String("file", "data/users.json", "JSON array of {login, full_name} records")
	loadCmd.Flags().String("config", "", "Config file (json|yaml|toml)")
	loadCmd.Flags().String("data-dir", "", "Data directory for the pebble store")
	loadCmd.Flags().String("store", "", "Store backend: pebble|redis (default from config)")
	loadCmd.Flags().String("redis-addr", "", "Redis address when --store=redis")
	return loadCmd
}

// storeConfig resolves the store settings: --config, then the environment,
// then explicit flags.
func storeConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	if err := cfgpkg.LoadDotEnv(); err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Storage.Backend = v
	}
	if v, _ := cmd.Flags().GetString("redis-addr"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	return cfg, cfg.Validate()
}
