package cmd

import (
	"github.com/spf13/cobra"

	"github.com/marcus/wfsync/internal/input"
	"github.com/marcus/wfsync/internal/output"
)

var passwdCmd = &cobra.Command{
	Use:     "passwd",
	Short:   "Change the config passphrase",
	GroupID: "config",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		passphrase, err := input.NewPassphrase()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if err := store.Rekey(passphrase); err != nil {
			output.Error("%v", err)
			return err
		}
		if err := store.Save(); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Passphrase changed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}
