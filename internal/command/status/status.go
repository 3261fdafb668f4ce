package status

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"streampack/internal/command/root"
	"streampack/internal/database"
	"streampack/internal/queue"
)

func init() {
	root.Cmd.AddCommand(cmd)
}

var cmd = &cobra.Command{
	Use:   "status [job-id...]",
	Short: "Show queue depth and job status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmpt := root.GetComponent(context.Background(), root.Load{DB: len(args) > 0, Admin: true})
		w := cmd.OutOrStdout()

		if cmpt.Admin != nil {
			stats, err := cmpt.Admin.Stats(queue.Queues...)

			if err != nil {
				return err
			}

			if _, err = fmt.Fprintln(w, renderQueues(stats)); err != nil {
				return err
			}
		}

		if len(args) == 0 {
			return nil
		}

		if cmpt.DB == nil {
			return errors.New("job status requires --redis")
		}

		return printJobs(w, database.NewStatusStore(cmpt.DB, database.DefaultStatusTTL), args, time.Now())
	},
}

func printJobs(w io.Writer, store *database.StatusStore, ids []string, now time.Time) error {
	rows := make([]*database.JobStatus, 0, len(ids))

	for _, id := range ids {
		status, err := store.Get(id)

		if errors.Cause(err) == database.ErrNotFound {
			rows = append(rows, &database.JobStatus{ID: id, State: "unknown"})
			continue
		}

		if err != nil {
			return err
		}

		rows = append(rows, status)
	}

	_, err := fmt.Fprintln(w, renderJobs(rows, now))
	return err
}

func renderQueues(stats []queue.Stats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Queue", "Ready", "Unacked", "Total", "Consumers"})

	for _, s := range stats {
		tw.AppendRow(table.Row{s.Name, s.Ready, s.Unacked, s.Total, s.Consumers})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	return tw.Render()
}

func renderJobs(jobs []*database.JobStatus, now time.Time) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Job", "State", "Rendition", "Progress", "Updated", "Error"})

	for _, j := range jobs {
		updated := ""
		if !j.Updated.IsZero() {
			updated = humanize.RelTime(j.Updated, now, "ago", "from now")
		}

		tw.AppendRow(table.Row{j.ID, j.State, j.Rendition, strconv.FormatFloat(j.Progress, 'f', 1, 64) + "%", updated, j.Error})
	}

	return tw.Render()
}
