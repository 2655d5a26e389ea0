package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prodkit/composer/pkg/sync"
)

// syncCommand creates the sync command: upload a rendered catalog tree
// to object storage by relative-path diff.
func (c *CLI) syncCommand() *cobra.Command {
	var (
		bucket   string
		region   string
		endpoint string
	)

	cmd := &cobra.Command{
		Use:   "sync <dir>",
		Short: "Upload new catalog files to object storage",
		Long: `Sync lists the bucket, diffs it against the local directory by
relative path, and uploads only the missing files. Remote objects are
never deleted or overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := c.loadSettings()
			if err != nil {
				return err
			}
			if bucket == "" {
				bucket = settings.BucketName
			}
			if region == "" {
				region = settings.S3Region
			}
			if endpoint == "" {
				endpoint = settings.S3Endpoint
			}

			client, err := sync.NewS3Client(cmd.Context(), sync.S3Options{
				Bucket:    bucket,
				Region:    region,
				AccessKey: settings.S3AccessKey,
				SecretKey: settings.S3SecretKey,
				Endpoint:  endpoint,
			})
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Syncing %s to %s", args[0], bucket))
			spinner.Start()
			res, err := sync.NewSyncer(client, loggerFromContext(cmd.Context())).Sync(cmd.Context(), args[0])
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Sync failed: %v", err))
				return err
			}
			spinner.StopWithSuccess(fmt.Sprintf("Uploaded %d files (%d already present)", len(res.Uploaded), res.Existing))
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket name (defaults to the configured bucket)")
	cmd.Flags().StringVar(&region, "region", "", "bucket region")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "S3-compatible endpoint URL")

	return cmd
}
