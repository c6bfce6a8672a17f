package cli

import (
	"context"
	"errors"

	sqspkg "github.com/iyhunko/catalog-importer/internal/sqs"
	"github.com/spf13/cobra"
)

func newNotificationsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "Consume and log catalog change notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := opts.conf
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			sqsClient, err := sqspkg.NewClient(ctx, conf.AWS)
			if err != nil {
				return err
			}

			err = sqspkg.NewConsumer(sqsClient, conf.AWS.SQSQueueURL).Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
