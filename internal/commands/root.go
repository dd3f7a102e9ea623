package commands

import (
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Send, request and review payments from the terminal",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "directory for credentials, config and history (env TALLY_CONFIG_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log API requests to stderr")

	rootCmd.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newChargeCommand(a),
		newPayCommand(a),
		newPaymentsCommand(a),
		newNotificationsCommand(a),
		newSettleCommand(a),
		newBalanceCommand(a),
		newTransactionsCommand(a),
		newHistoryCommand(a),
	)

	return rootCmd
}
