package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/wfsync/internal/history"
	"github.com/marcus/wfsync/internal/output"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:     "history [name]",
	Short:   "Show recent sync runs",
	GroupID: "sync",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		syncID := ""
		if len(args) == 1 {
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
			syncID = sc.ID
		}

		path, err := historyPath()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		hdb, err := history.Open(path)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer hdb.Close()

		runs, err := hdb.Tail(syncID, historyLimit)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if historyJSON {
			type runSummary struct {
				ID        int64     `json:"id"`
				SyncID    string    `json:"sync_id"`
				SyncName  string    `json:"sync_name"`
				StartedAt time.Time `json:"started_at"`
				ElapsedMS int64     `json:"elapsed_ms"`
				Created   int       `json:"created"`
				Updated   int       `json:"updated"`
				Deleted   int       `json:"deleted"`
				Published int       `json:"published"`
				Errors    []string  `json:"errors,omitempty"`
				Outcome   string    `json:"outcome"`
				Message   string    `json:"message,omitempty"`
			}
			summaries := make([]runSummary, 0, len(runs))
			for _, run := range runs {
				summaries = append(summaries, runSummary{
					ID:        run.ID,
					SyncID:    run.SyncID,
					SyncName:  run.SyncName,
					StartedAt: run.StartedAt,
					ElapsedMS: run.Elapsed.Milliseconds(),
					Created:   run.Created,
					Updated:   run.Updated,
					Deleted:   run.Deleted,
					Published: run.Published,
					Errors:    run.Errors,
					Outcome:   run.Outcome,
					Message:   run.Message,
				})
			}
			return output.JSON(summaries)
		}

		if len(runs) == 0 {
			output.Info("No runs recorded yet.")
			return nil
		}

		rows := make([][]string, 0, len(runs))
		for _, run := range runs {
			result := fmt.Sprintf("+%d ~%d -%d ↑%d", run.Created, run.Updated, run.Deleted, run.Published)
			note := run.Message
			if run.Outcome == history.OutcomeSuccess && len(run.Errors) > 0 {
				note = fmt.Sprintf("%d skipped", len(run.Errors))
			}
			rows = append(rows, []string{
				run.SyncName,
				output.FormatTimeAgo(run.StartedAt),
				run.Outcome,
				result,
				run.Elapsed.Round(time.Millisecond).String(),
				note,
			})
		}
		table := output.RunsTable(
			[]string{"Sync", "When", "Outcome", "Result", "Took", "Notes"},
			rows,
		)
		fmt.Println(strings.TrimRight(table, "\n"))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}
