package queue

import "context"

// Client publishes decision events to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Nop discards every message. It is used when no queue is configured.
type Nop struct{}

func (Nop) Send(context.Context, Message) error { return nil }
