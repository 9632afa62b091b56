package main

// Archive decision events published by the API:
//   DECISION_EVENTS_QUEUE_URL=... OBJECT_STORE=s3 S3_BUCKET=... go run ./cmd/worker

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"sourcing-backend/internal/bootstrap"
	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/workerproc"
)

const defaultRegion = "us-east-1"

func main() {
	cfg := config.Load()

	queueURL := strings.TrimSpace(cfg.DecisionEventsQueueURL)
	if queueURL == "" {
		log.Fatal("DECISION_EVENTS_QUEUE_URL is required")
	}
	region := strings.TrimSpace(cfg.AWSRegion)
	if region == "" {
		region = defaultRegion
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	store, err := bootstrap.BuildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("build object store: %v", err)
	}
	if store == nil {
		log.Fatal("the event worker needs OBJECT_STORE=local or OBJECT_STORE=s3")
	}

	consumer := consumerFromEnv(sqs.NewFromConfig(awsCfg), queueURL)
	consumer.Store = store

	log.Printf("worker started queue=%s concurrency=%d visibility=%ds", queueURL, consumer.Concurrency, consumer.VisibilitySeconds)
	if err := consumer.Run(ctx); err != nil {
		log.Printf("worker stopped: %v", err)
		os.Exit(1)
	}
}

func consumerFromEnv(client workerproc.SQSAPI, queueURL string) *workerproc.Consumer {
	return &workerproc.Consumer{
		Client:            client,
		QueueURL:          queueURL,
		Concurrency:       envInt("WORKER_CONCURRENCY", workerproc.DefaultConcurrency),
		VisibilitySeconds: envInt("WORKER_VISIBILITY_TIMEOUT_SECONDS", workerproc.DefaultVisibilitySeconds),
		ShutdownTimeout: time.Duration(envInt("WORKER_SHUTDOWN_TIMEOUT_SECONDS",
			int(workerproc.DefaultShutdownTimeout/time.Second))) * time.Second,
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}
