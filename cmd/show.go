package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/wfsync/internal/models"
	"github.com/marcus/wfsync/internal/output"
)

var showCmd = &cobra.Command{
	Use:     "show <name>",
	Short:   "Show a sync's configuration in detail",
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

		rendered, err := output.RenderMarkdown(syncMarkdown(sc))
		if err != nil {
			output.Error("%v", err)
			return err
		}
		fmt.Println(rendered)
		return nil
	},
}

// syncMarkdown formats a sync config as a markdown document for glamour.
func syncMarkdown(sc *models.SyncConfig) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", sc.Name)
	fmt.Fprintf(&sb, "**Source**: %s / %s (view %s)\n\n", sc.Airtable.Base.Name, sc.Airtable.Table.Name, sc.Airtable.View.Name)
	fmt.Fprintf(&sb, "**Destination**: %s / %s\n\n", sc.Webflow.Site.Name, sc.Webflow.Collection.Name)

	var opts []string
	if sc.AutoPublish {
		opts = append(opts, "auto-publish on validation errors")
	}
	if sc.DeleteRecords {
		opts = append(opts, "delete unclaimed items")
	}
	if sc.PublishSubdomain {
		opts = append(opts, "publish to webflow.io subdomain")
	}
	if len(opts) > 0 {
		fmt.Fprintf(&sb, "**Options**: %s\n\n", strings.Join(opts, ", "))
	}
	if len(sc.Webflow.CustomDomains) > 0 {
		var domains []string
		for _, d := range sc.Webflow.CustomDomains {
			domains = append(domains, d.URL)
		}
		fmt.Fprintf(&sb, "**Domains**: %s\n\n", strings.Join(domains, ", "))
	}

	sb.WriteString("## Fields\n\n")
	sb.WriteString("| Airtable | Type | Webflow | Type |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, f := range sc.Fields {
		wfName := f.WebflowName
		wfType := f.WebflowType
		if f.WebflowID == "" {
			wfName = "-"
			wfType = string(f.Special)
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", f.AirtableName, f.AirtableType, wfName, wfType)
	}

	if len(sc.Errors) > 0 {
		sb.WriteString("\n## Setup warnings\n\n")
		for _, e := range sc.Errors {
			fmt.Fprintf(&sb, "- %s\n", e)
		}
	}
	return sb.String()
}

func init() {
	rootCmd.AddCommand(showCmd)
}
