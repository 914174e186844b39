package consumer

import (
	"context"
	"encoding/json"
	"time"

	"push-service/models"
	"push-service/services"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

const (
	receiveBatchSize = 10
	waitTimeSeconds  = 5
	receiveBackoff   = 5 * time.Second
)

// SQSConsumer pulls push events off a queue and hands them to the dispatch
// engine, one delivery attempt per message. Messages whose delivery failed
// transiently stay on the queue; the visibility timeout drives the retry.
type SQSConsumer struct {
	client     *sqs.Client
	queueURL   string
	dispatcher services.DispatchService
	logger     *zap.Logger
}

func NewSQSConsumer(queueURL string, dispatcher services.DispatchService, logger *zap.Logger) (*SQSConsumer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, err
	}

	return &SQSConsumer{
		client:     sqs.NewFromConfig(cfg),
		queueURL:   queueURL,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Start blocks, polling the queue until the context is cancelled.
func (c *SQSConsumer) Start(ctx context.Context) {
	c.logger.Info("queue intake started", zap.String("queue", c.queueURL))
	for ctx.Err() == nil {
		output, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: receiveBatchSize,
			WaitTimeSeconds:     waitTimeSeconds, // long polling
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			c.logger.Error("SQS receive error", zap.Error(err))
			time.Sleep(receiveBackoff)
			continue
		}

		for _, msg := range output.Messages {
			c.handle(ctx, msg.Body, msg.ReceiptHandle)
		}
	}
	c.logger.Info("queue intake stopped")
}

// snsEnvelope is the SNS-to-SQS wrapper around the actual message body.
type snsEnvelope struct {
	Message string `json:"Message"`
}

func (c *SQSConsumer) handle(ctx context.Context, body, receiptHandle *string) {
	if body == nil || *body == "" || receiptHandle == nil || *receiptHandle == "" {
		// Leave it; a malformed receive entry goes back to the queue or DLQ.
		c.logger.Error("received SQS message without body or receipt handle")
		return
	}

	event, err := decodePushMessage(*body)
	if err != nil {
		// Unparseable payloads can never succeed, so delete instead of
		// letting them loop through the visibility timeout forever.
		c.logger.Error("dropping undecodable queue message", zap.Error(err))
		c.ack(ctx, receiptHandle)
		return
	}

	outcome := c.dispatcher.Dispatch(ctx, event)
	if outcome.Status == models.OutcomeTransientFailure {
		c.logger.Warn("delivery failed, leaving message for retry",
			zap.String("type", event.Kind()),
			zap.String("reason", outcome.Reason),
		)
		return
	}

	// Success and terminal failures both ack: a dead token must not retry.
	c.ack(ctx, receiptHandle)
}

func decodePushMessage(body string) (models.PushEvent, error) {
	var wrapper snsEnvelope
	if err := json.Unmarshal([]byte(body), &wrapper); err != nil {
		return nil, err
	}

	var envelope models.EventEnvelope
	if err := json.Unmarshal([]byte(wrapper.Message), &envelope); err != nil {
		return nil, err
	}
	return models.DecodeEvent(envelope)
}

func (c *SQSConsumer) ack(ctx context.Context, receiptHandle *string) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.logger.Error("failed to delete SQS message", zap.Error(err))
	}
}
