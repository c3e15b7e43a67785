package cmd

import (
	"github.com/spf13/cobra"

	"optipix/internal/updater"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace this binary with the latest published release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := updater.New(Version)
		if err != nil {
			return err
		}
		return u.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
