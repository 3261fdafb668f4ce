package purge

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"streampack/internal/command/root"
	"streampack/internal/storage"
)

func init() {
	root.Cmd.AddCommand(cmd)
}

var cmd = &cobra.Command{
	Use:   "purge <prefix>",
	Short: "Delete a published package from storage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cmpt := root.GetComponent(ctx, root.Load{Storage: true})

		if cmpt.Bucket == nil {
			return errors.New("no storage configured")
		}

		defer cmpt.Bucket.Close()

		n, err := purge(ctx, cmpt.Bucket, args[0])

		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d objects under '%s'\n", n, args[0])
		return err
	},
}

// purge deletes every object under prefix. The prefix is treated as a folder
// so that "movies/1" never matches "movies/10".
func purge(ctx context.Context, bucket storage.Bucket, prefix string) (int, error) {
	prefix = strings.Trim(prefix, "/")

	if prefix == "" {
		return 0, errors.New("refusing to purge the whole bucket")
	}

	prefix += "/"

	keys, err := bucket.List(ctx, prefix)

	if err != nil {
		return 0, errors.Wrapf(err, "list '%s'", prefix)
	}

	if err = bucket.Delete(ctx, prefix); err != nil {
		return 0, errors.Wrapf(err, "delete '%s'", prefix)
	}

	log.WithFields(log.Fields{"prefix": prefix, "objects": len(keys)}).Info("package purged")

	return len(keys), nil
}
