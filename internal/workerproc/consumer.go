package workerproc

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"golang.org/x/sync/errgroup"

	"sourcing-backend/internal/shared/metrics"
	"sourcing-backend/internal/shared/storage/object"
	"sourcing-backend/internal/shared/telemetry"
)

const (
	DefaultConcurrency       = 4
	DefaultVisibilitySeconds = 60
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultReceiveErrorPause = 2 * time.Second

	receiveBatchSize   = 10
	receiveWaitSeconds = 20
	receiveCountAttr   = "ApproximateReceiveCount"
)

// SQSAPI is the subset of the SQS client the consumer needs.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Consumer long-polls the decision events queue and archives each event.
type Consumer struct {
	Client            SQSAPI
	QueueURL          string
	Store             object.ObjectStore
	Concurrency       int
	VisibilitySeconds int
	ShutdownTimeout   time.Duration
	// ReceiveErrorPause is the wait after a failed receive before polling again.
	ReceiveErrorPause time.Duration
}

// Run polls until ctx is cancelled, then waits up to ShutdownTimeout for in-flight events.
func (c *Consumer) Run(ctx context.Context) error {
	if c.Client == nil || c.QueueURL == "" {
		return errors.New("consumer needs an SQS client and queue url")
	}
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	visibility := c.VisibilitySeconds
	if visibility <= 0 {
		visibility = DefaultVisibilitySeconds
	}
	shutdown := c.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = DefaultShutdownTimeout
	}
	pause := c.ReceiveErrorPause
	if pause <= 0 {
		pause = DefaultReceiveErrorPause
	}

	// In-flight events outlive the shutdown signal; only the drain timeout bounds them.
	workCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.SetLimit(concurrency)

	for ctx.Err() == nil {
		resp, err := c.Client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.QueueURL),
			MaxNumberOfMessages: receiveBatchSize,
			WaitTimeSeconds:     receiveWaitSeconds,
			VisibilityTimeout:   int32(visibility),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName(receiveCountAttr)},
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			telemetry.Warn("worker.receive_failed", map[string]any{"error": err, "pause_ms": pause.Milliseconds()})
			select {
			case <-ctx.Done():
			case <-time.After(pause):
			}
			continue
		}
		for _, msg := range resp.Messages {
			g.Go(func() error {
				c.handle(workCtx, msg)
				return nil
			})
		}
	}

	telemetry.Info("worker.draining", map[string]any{"timeout_ms": shutdown.Milliseconds()})
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(shutdown):
		return errors.New("shutdown timeout reached with events in flight")
	}
}

// handle archives one event. Unparseable events are deleted; archive failures leave the
// message for redelivery.
func (c *Consumer) handle(ctx context.Context, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, err := HandleMessage(ctx, c.Store, body)
	if err != nil {
		fields := baseFields(msg, decoded.SessionID, decoded.SubmissionKey)
		fields["error"] = err.Error()
		if !Unrecoverable(err) {
			telemetry.Error("worker.event.failed", fields)
			metrics.ObserveEvent(metrics.EventFailed)
			return
		}
		meta := ComputeMeta(body)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		telemetry.Error("worker.event.invalid", fields)
		if c.delete(ctx, msg) {
			metrics.ObserveEvent(metrics.EventDropped)
		}
		return
	}

	if c.delete(ctx, msg) {
		telemetry.Info("worker.event.archived", baseFields(msg, decoded.SessionID, decoded.SubmissionKey))
		metrics.ObserveEvent(metrics.EventArchived)
	}
}

func (c *Consumer) delete(ctx context.Context, msg sqstypes.Message) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, "", "")
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.event.delete_failed", fields)
		return false
	}
	if _, err := c.Client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.QueueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, "", "")
		fields["error"] = err.Error()
		telemetry.Error("worker.event.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, sessionID, submissionKey string) map[string]any {
	fields := map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if sessionID != "" {
		fields["session_id"] = sessionID
	}
	if submissionKey != "" {
		fields["submission_key"] = submissionKey
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	n, err := strconv.Atoi(msg.Attributes[receiveCountAttr])
	if err != nil {
		return 0
	}
	return n
}
