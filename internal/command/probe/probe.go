package probe

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"streampack/internal/command/root"
	"streampack/internal/probe"
)

func init() {
	root.Cmd.AddCommand(cmd)
}

var cmd = &cobra.Command{
	Use:   "probe <file>",
	Short: "Print duration and frame size of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prober := probe.NewProber(root.FFmpeg(), root.Executor("probe"))

		res, err := prober.Probe(context.Background(), args[0])

		if err != nil {
			return err
		}

		if !res.HasDuration() {
			log.WithField("input", args[0]).Warn("duration not found, progress will not be reported for this input")
		}

		out, err := yaml.Marshal(res)

		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}
