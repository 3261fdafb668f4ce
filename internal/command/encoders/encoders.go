package encoders

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"streampack/internal/command/root"
	"streampack/internal/discovery"
	"streampack/internal/rendition"
)

func init() {
	root.Cmd.AddCommand(cmd)
}

var cmd = &cobra.Command{
	Use:   "encoders",
	Short: "List usable video encoders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		encoders, err := discovery.NewDiscoverer(root.FFmpeg(), root.Executor("discovery")).Discover(context.Background())

		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), render(encoders))
		return err
	},
}

func render(encoders []discovery.Encoder) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Name", "Family", "Hardware"})

	for _, e := range encoders {
		family := rendition.Resolve(e.ID)
		hw := "no"
		if family.Hardware() {
			hw = "yes"
		}
		tw.AppendRow(table.Row{e.ID, e.Name, family.Name, hw})
	}

	return tw.Render()
}
