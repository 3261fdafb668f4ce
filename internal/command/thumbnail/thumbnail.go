package thumbnail

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"streampack/internal/command/root"
	"streampack/internal/signal"
	"streampack/internal/thumbnail"
)

func init() {
	root.Cmd.AddCommand(cmd)
}

var cmd = &cobra.Command{
	Use:   "thumbnail <input> <output.jpg>",
	Short: "Extract a poster frame at a quarter of the duration",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := signal.WatchInterrupt(context.Background(), 10*time.Second)

		path, err := thumbnail.NewGenerator(root.FFmpeg(), root.Executor("thumbnail")).Generate(ctx, args[0], args[1])

		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}
