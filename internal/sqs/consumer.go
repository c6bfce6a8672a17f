package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const (
	maxMessagesPerPoll = 10
	longPollSeconds    = 20
)

// ConsumerAPI defines the interface for SQS operations used by Consumer.
type ConsumerAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Handler is called for every decoded catalog change.
// A message is deleted from the queue only when the handler returns nil.
type Handler func(ctx context.Context, msg ProductMessage) error

// Consumer long-polls a queue and dispatches catalog changes to a Handler.
type Consumer struct {
	client   ConsumerAPI
	queueURL string
	handle   Handler
}

// NewConsumer creates a Consumer that logs every change it receives.
func NewConsumer(client ConsumerAPI, queueURL string) *Consumer {
	return NewConsumerWithHandler(client, queueURL, LogChange)
}

// NewConsumerWithHandler creates a Consumer with a custom handler.
func NewConsumerWithHandler(client ConsumerAPI, queueURL string, handle Handler) *Consumer {
	return &Consumer{
		client:   client,
		queueURL: queueURL,
		handle:   handle,
	}
}

// LogChange writes the change to the default logger.
func LogChange(_ context.Context, msg ProductMessage) error {
	attrs := []any{
		slog.String("event_id", msg.EventID),
		slog.String("action", msg.Action),
		slog.Int64("row_id", msg.RowID),
		slog.String("product", msg.Product),
	}
	if msg.SalePrice != nil {
		attrs = append(attrs, slog.Float64("sale_price", *msg.SalePrice))
	}
	slog.Info("catalog change received", attrs...)
	return nil
}

// Start consumes messages until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("starting catalog change consumer", slog.String("queueURL", c.queueURL))

	for {
		if ctx.Err() != nil {
			slog.Info("stopping catalog change consumer")
			return ctx.Err()
		}
		if err := c.receiveMessages(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			slog.Error("error receiving messages", slog.Any("err", err))
		}
	}
}

func (c *Consumer) receiveMessages(ctx context.Context) error {
	result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: maxMessagesPerPoll,
		WaitTimeSeconds:     longPollSeconds,
	})
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, message := range result.Messages {
		if err := c.processMessage(ctx, message); err != nil {
			slog.Error("error processing message", slog.Any("err", err))
			continue
		}

		if err := c.deleteMessage(ctx, message); err != nil {
			slog.Error("error deleting message", slog.Any("err", err))
		}
	}

	return nil
}

func (c *Consumer) processMessage(ctx context.Context, message types.Message) error {
	if message.Body == nil {
		return fmt.Errorf("message body is nil")
	}

	var productMsg ProductMessage
	if err := json.Unmarshal([]byte(*message.Body), &productMsg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	handle := c.handle
	if handle == nil {
		handle = LogChange
	}
	if err := handle(ctx, productMsg); err != nil {
		return fmt.Errorf("failed to handle %s event %s: %w", productMsg.Action, productMsg.EventID, err)
	}
	return nil
}

func (c *Consumer) deleteMessage(ctx context.Context, message types.Message) error {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
