package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/wfsync/internal/output"
)

var keysCmd = &cobra.Command{
	Use:     "keys",
	Short:   "List saved API credentials by name",
	GroupID: "config",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if len(store.AirtableKeys)+len(store.WebflowKeys) == 0 {
			output.Info("No saved keys. The create wizard can remember keys for reuse.")
			return nil
		}
		if len(store.AirtableKeys) > 0 {
			fmt.Print(output.SectionHeader("Airtable"))
			for _, k := range store.AirtableKeys {
				output.Info("  %s", k.Name)
			}
		}
		if len(store.WebflowKeys) > 0 {
			fmt.Print(output.SectionHeader("Webflow"))
			for _, k := range store.WebflowKeys {
				output.Info("  %s", k.Name)
			}
		}
		return nil
	},
}

var keysForgetCmd = &cobra.Command{
	Use:   "forget <name>",
	Short: "Remove a saved credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		removed := false
		for i, k := range store.AirtableKeys {
			if k.Name == args[0] {
				store.AirtableKeys = append(store.AirtableKeys[:i], store.AirtableKeys[i+1:]...)
				removed = true
				break
			}
		}
		if !removed {
			for i, k := range store.WebflowKeys {
				if k.Name == args[0] {
					store.WebflowKeys = append(store.WebflowKeys[:i], store.WebflowKeys[i+1:]...)
					removed = true
					break
				}
			}
		}
		if !removed {
			err := fmt.Errorf("no saved key named %q", args[0])
			output.Error("%v", err)
			return err
		}
		if err := store.Save(); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Forgot key %q", args[0])
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysForgetCmd)
	rootCmd.AddCommand(keysCmd)
}
