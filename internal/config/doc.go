// Package config provides loading and environment overlay for the chat
// server configuration. It exposes a Default() baseline, file loading via
// viper (JSON, YAML or TOML) and a CHAT_* environment overlay.
//
// Example:
//
//	_ = config.LoadDotEnv()
//	cfg, err := config.Load("/etc/simplechat.yaml")
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: cfg})
//	defer rt.Close()
package config
