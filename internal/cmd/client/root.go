package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the chat client.
// It registers the users, send and receive commands.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "simplechat",
		Short: "Simple chat client commands",
	}
	AddCommands(root)
	return root
}

// AddCommands attaches the client commands to root.
func AddCommands(root *cobra.Command) {
	root.AddCommand(NewUsersCommand(), NewSendCommand(), NewReceiveCommand())
}
