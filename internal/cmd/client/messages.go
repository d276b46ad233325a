package client

import (
	"fmt"

	"github.com/spf13/cobra"

	transports "github.com/CHESTERFIELD/simple-chat/internal/cmd/client/transports"
)

// NewSendCommand constructs the `send` command.
func NewSendCommand() *cobra.Command {
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sender, _ := cmd.Flags().GetString("sender")
			recipient, _ := cmd.Flags().GetString("recipient")
			body, _ := cmd.Flags().GetString("body")
			if sender == "" || recipient == "" || body == "" {
				return fmt.Errorf(`the following fields are required: "sender", "body", "recipient"`)
			}
			if _, err := getTransport().Send(cmd.Context(), transports.Message{Sender: sender, Recipient: recipient, Body: body}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Message was sent")
			return nil
		},
	}
	sendCmd.Flags().StringP("sender", "s", "", "Sender login")
	sendCmd.Flags().StringP("recipient", "r", "", "Recipient login")
	sendCmd.Flags().StringP("body", "b", "", "Message body")
	return sendCmd
}

// NewReceiveCommand constructs the `receive` command. It prints each message
// as it is delivered until interrupted or --limit is reached.
func NewReceiveCommand() *cobra.Command {
	receiveCmd := &cobra.Command{
		Use:   "receive",
		Short: "Receive messages queued for a login",
		RunE: func(cmd *cobra.Command, _ []string) error {
			login, _ := cmd.Flags().GetString("login")
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")
			if login == "" {
				return fmt.Errorf("--login is required")
			}
			req := transports.ReceiveRequest{Login: login, Filter: filter, Limit: limit}
			return getTransport().Receive(cmd.Context(), req, func(m transports.Message) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "From: %s.\nTo: %s.\nTime: %s.\nMessage: '%s'.\n\n",
					m.Sender, m.Recipient, formatCreated(m.Created), m.Body)
				return err
			})
		},
	}
	receiveCmd.Flags().StringP("login", "l", "", "Login whose mailbox to receive")
	receiveCmd.Flags().String("filter", "", "CEL filter over sender, recipient, body, created")
	receiveCmd.Flags().Int("limit", 0, "Stop after this many messages (0 = unbounded)")
	return receiveCmd
}
