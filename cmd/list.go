package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/wfsync/internal/output"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List configured syncs",
	GroupID: "config",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if listJSON {
			type syncSummary struct {
				ID            string `json:"id"`
				Name          string `json:"name"`
				Base          string `json:"base"`
				Table         string `json:"table"`
				Site          string `json:"site"`
				Collection    string `json:"collection"`
				Fields        int    `json:"fields"`
				AutoPublish   bool   `json:"auto_publish"`
				DeleteRecords bool   `json:"delete_records"`
			}
			summaries := make([]syncSummary, 0, len(store.Syncs))
			for _, sc := range store.Syncs {
				summaries = append(summaries, syncSummary{
					ID:            sc.ID,
					Name:          sc.Name,
					Base:          sc.Airtable.Base.Name,
					Table:         sc.Airtable.Table.Name,
					Site:          sc.Webflow.Site.Name,
					Collection:    sc.Webflow.Collection.Name,
					Fields:        len(sc.Fields),
					AutoPublish:   sc.AutoPublish,
					DeleteRecords: sc.DeleteRecords,
				})
			}
			return output.JSON(summaries)
		}

		if len(store.Syncs) == 0 {
			output.Info("No syncs configured. Run `wfsync create` first.")
			return nil
		}
		for _, sc := range store.Syncs {
			fmt.Println(output.FormatSyncShort(sc))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}
