package sqs

import (
	"context"
	"testing"

	"github.com/iyhunko/catalog-importer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_ENDPOINT_URL", "")
	t.Setenv("AWS_ENDPOINT_URL_SQS", "")

	t.Run("uses custom endpoint and sends requests once", func(t *testing.T) {
		// given
		conf := config.AWSConfig{Region: "us-east-1", Endpoint: "http://localhost:4566", SQSQueueURL: testQueueURL}

		// when
		client, err := NewClient(context.Background(), conf)

		// then
		require.NoError(t, err)
		require.NotNil(t, client)
		assert.Equal(t, "us-east-1", client.Options().Region)
		assert.Equal(t, "http://localhost:4566", *client.Options().BaseEndpoint)
		assert.Equal(t, 1, client.Options().RetryMaxAttempts)
	})

	t.Run("keeps the default endpoint", func(t *testing.T) {
		// when
		client, err := NewClient(context.Background(), config.AWSConfig{Region: "eu-west-1", SQSQueueURL: testQueueURL})

		// then
		require.NoError(t, err)
		assert.Nil(t, client.Options().BaseEndpoint)
	})

	t.Run("requires a queue url", func(t *testing.T) {
		// when
		client, err := NewClient(context.Background(), config.AWSConfig{Region: "us-east-1"})

		// then
		assert.Nil(t, client)
		assert.ErrorIs(t, err, config.ErrMissingConfig)
	})
}
