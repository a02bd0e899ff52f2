package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/wfsync/internal/output"
	"github.com/marcus/wfsync/internal/webflow"
)

var publishCmd = &cobra.Command{
	Use:     "publish <name>",
	Short:   "Republish a sync's whole site",
	GroupID: "sync",
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

		dest := webflow.New(sc.Webflow.APIKey).Collection(&sc.Webflow)
		if err := dest.PublishSite(cmd.Context(), sc.PublishSubdomain); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Site %q published", sc.Webflow.Site.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
}
