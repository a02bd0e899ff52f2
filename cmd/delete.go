package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/marcus/wfsync/internal/output"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Short:   "Delete a sync configuration",
	GroupID: "config",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		sc := store.FindSync(args[0])
		if sc == nil {
			err := fmt.Errorf("no sync named %q", args[0])
			output.Error("%v", err)
			return err
		}

		if !deleteForce {
			confirmed := false
			form := huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Delete sync %q? Webflow items and Airtable records stay untouched.", sc.Name)).
					Value(&confirmed),
			))
			if err := form.Run(); err != nil {
				return err
			}
			if !confirmed {
				output.Info("Aborted.")
				return nil
			}
		}

		store.RemoveSync(sc.ID)
		if err := store.Save(); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Deleted sync %q", sc.Name)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}
