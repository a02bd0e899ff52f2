package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/wfsync/internal/airtable"
	"github.com/marcus/wfsync/internal/config"
	"github.com/marcus/wfsync/internal/history"
	"github.com/marcus/wfsync/internal/models"
	"github.com/marcus/wfsync/internal/output"
	"github.com/marcus/wfsync/internal/sync"
	"github.com/marcus/wfsync/internal/webflow"
)

var syncAll bool

var syncCmd = &cobra.Command{
	Use:     "sync [name]",
	Short:   "Run one sync, or all of them with --all",
	GroupID: "sync",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !syncAll {
			return fmt.Errorf("name a sync or pass --all")
		}

		store, err := openStore()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		var targets []*models.SyncConfig
		if syncAll {
			targets = store.Syncs
			if len(targets) == 0 {
				output.Info("No syncs configured. Run `wfsync create` first.")
				return nil
			}
		} else {
			sc := store.FindSync(args[0])
			if sc == nil {
				err := fmt.Errorf("no sync named %q", args[0])
				output.Error("%v", err)
				return err
			}
			targets = []*models.SyncConfig{sc}
		}

		hdbPath, err := historyPath()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		hdb, err := history.Open(hdbPath)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer hdb.Close()

		for _, sc := range targets {
			if err := runSync(cmd, store, sc, hdb); err != nil {
				return err
			}
		}
		return nil
	},
}

// cliReporter routes engine progress to the styled output helpers.
type cliReporter struct{}

func (cliReporter) Stagef(format string, args ...any) { output.Stage(format, args...) }
func (cliReporter) Warnf(format string, args ...any)  { output.Warning(format, args...) }

func runSync(cmd *cobra.Command, store *config.Store, sc *models.SyncConfig, hdb *history.DB) error {
	output.Info("Syncing %s", sc.Name)

	source := airtable.New(sc.Airtable.APIToken).Table(&sc.Airtable)
	dest := webflow.New(sc.Webflow.APIKey).Collection(&sc.Webflow)

	engine := sync.NewEngine(sc, source, dest,
		sync.WithRegistry(store),
		sync.WithReporter(cliReporter{}),
		sync.WithConfigSaver(store.Save),
	)

	started := time.Now()
	report, err := engine.Run(cmd.Context())
	if err != nil {
		recordErr := hdb.Record(&history.Run{
			SyncID:    sc.ID,
			SyncName:  sc.Name,
			StartedAt: started,
			Elapsed:   time.Since(started),
			Outcome:   history.OutcomeFailed,
			Message:   err.Error(),
		})
		if recordErr != nil {
			output.Warning("could not record run: %v", recordErr)
		}
		output.Error("%v", err)
		return err
	}

	if err := hdb.Record(&history.Run{
		SyncID:    sc.ID,
		SyncName:  sc.Name,
		StartedAt: started,
		Elapsed:   report.Elapsed,
		Created:   report.Created,
		Updated:   report.Updated,
		Deleted:   report.Deleted,
		Published: report.Published,
		Errors:    report.Errors,
		Outcome:   history.OutcomeSuccess,
	}); err != nil {
		output.Warning("could not record run: %v", err)
	}

	fmt.Println(output.CountsTable(report.Created, report.Updated, report.Deleted, report.Published))
	if len(report.Errors) > 0 {
		output.Warning("%d records were skipped:", len(report.Errors))
		for _, line := range output.BulletList(report.Errors, 2) {
			fmt.Println(line)
		}
	}
	output.Success("Done in %s", report.Elapsed.Round(time.Millisecond))
	return nil
}

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "run every configured sync")
	rootCmd.AddCommand(syncCmd)
}
