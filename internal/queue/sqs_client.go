package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const defaultRegion = "us-east-1"

// SendAPI is the part of the SQS client used for publishing.
type SendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient publishes decision events to one SQS queue.
type SQSClient struct {
	api      SendAPI
	queueURL string
}

// NewSQSClient loads AWS config for region (us-east-1 when empty) and targets queueURL.
func NewSQSClient(ctx context.Context, queueURL, region string) (*SQSClient, error) {
	if strings.TrimSpace(region) == "" {
		region = defaultRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(strings.TrimSpace(region)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSQSClientWithAPI(sqs.NewFromConfig(cfg), queueURL)
}

// NewSQSClientWithAPI wraps an existing client.
func NewSQSClientWithAPI(api SendAPI, queueURL string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("DECISION_EVENTS_QUEUE_URL is required")
	}
	return &SQSClient{api: api, queueURL: queueURL}, nil
}

// Send publishes msg. The outcome and session id travel as message attributes so
// subscribers can filter without decoding the body.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode decision event: %w", err)
	}
	_, err = s.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"outcome":   stringAttr(msg.Outcome),
			"sessionId": stringAttr(msg.SessionID),
		},
	})
	if err != nil {
		return fmt.Errorf("sqs send decision event: %w", err)
	}
	return nil
}

func stringAttr(v string) sqstypes.MessageAttributeValue {
	return sqstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
}

var _ Client = (*SQSClient)(nil)
