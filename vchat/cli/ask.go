package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/vchat/vchat/generation/harness"
)

func newAskCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message...>",
		Short: "Send one message and print the reply",
		Long:  `Send one message to the configured backend and print the reply. Use "-" to read the message from stdin.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			if message == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				message = string(data)
			}

			_, cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := consoleLogger(cmd.ErrOrStderr(), cfg)

			session, err := harness.NewFactory(cfg, logger, nil).CreateSession()
			if err != nil {
				return err
			}
			defer session.Close()

			ex, ok := session.Submit(cmd.Context(), message)
			if !ok {
				return errors.New("message is empty")
			}
			if ex.Err != nil {
				return errors.New(ex.Assistant.Content)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ex.Assistant.Content)
			return nil
		},
	}
}
