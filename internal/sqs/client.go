package sqs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/iyhunko/catalog-importer/internal/config"
)

// NewClient builds the SQS client used for catalog change notifications.
// Requests are sent once; a failed publish is logged by the caller instead of retried.
func NewClient(ctx context.Context, conf config.AWSConfig) (*sqs.Client, error) {
	if conf.SQSQueueURL == "" {
		return nil, fmt.Errorf("%w for key: %s", config.ErrMissingConfig, config.SQSQueueURLEnv)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(conf.Region),
		awsconfig.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		// LocalStack and other emulators
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
	}), nil
}
