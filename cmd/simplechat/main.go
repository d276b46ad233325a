package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	clientcmd "github.com/CHESTERFIELD/simple-chat/internal/cmd/client"
	serverrun "github.com/CHESTERFIELD/simple-chat/internal/cmd/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "simplechat",
		Short:        "Simple chat server and client",
		Long:         "simplechat runs the chat server (gRPC and HTTP) and provides client commands for users, send and receive.",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serverrun.NewCommand())
	clientcmd.AddCommands(rootCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
