package cmd

import (
	"github.com/spf13/cobra"

	"github.com/marcus/wfsync/internal/output"
	"github.com/marcus/wfsync/internal/setup"
)

var createCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a new sync interactively",
	GroupID: "config",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		sc, err := setup.NewFlow(store).Run(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		store.AddSync(sc)
		if err := store.Save(); err != nil {
			output.Error("%v", err)
			return err
		}

		output.Success("Created sync %q (%d fields mapped)", sc.Name, len(sc.Fields))
		if len(sc.Errors) > 0 {
			output.Warning("Some fields could not be mapped:")
			for _, line := range output.BulletList(sc.Errors, 2) {
				output.Subtle("%s", line)
			}
		}
		output.Info("Run it with: wfsync sync %s", sc.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
