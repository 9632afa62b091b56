// Package workerproc archives decision events consumed from the events queue.
package workerproc

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"sourcing-backend/internal/queue"
	"sourcing-backend/internal/shared/storage/object"
	"sourcing-backend/internal/shared/util"
)

const eventContentType = "application/json"

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingIdentifiers indicates an event without a session id or submission key.
type ErrMissingIdentifiers struct {
	Meta      MessageMeta
	SessionID string
}

func (e ErrMissingIdentifiers) Error() string { return "missing session id or submission key" }

// ErrProcess indicates archiving failed after successful parsing. The message should be
// left on the queue for redelivery.
type ErrProcess struct {
	SessionID     string
	SubmissionKey string
	Err           error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "archive decision event"
	}
	return "archive decision event: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Unrecoverable reports whether err means the message can never be processed.
func Unrecoverable(err error) bool {
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		missing ErrMissingIdentifiers
	)
	return errors.As(err, &empty) || errors.As(err, &decode) || errors.As(err, &missing)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}
	msg, err := queue.DecodeMessage([]byte(body))
	if errors.Is(err, queue.ErrIncompleteMessage) {
		return msg, meta, ErrMissingIdentifiers{Meta: meta, SessionID: msg.SessionID}
	}
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	return msg, meta, nil
}

// EventKey is where the event for one submission is archived. Redelivered events overwrite
// the same object.
func EventKey(msg queue.Message) (string, error) {
	session, err := util.KeySegment(msg.SessionID)
	if err != nil {
		return "", err
	}
	submission, err := util.KeySegment(msg.SubmissionKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("events/%s/%s.json", session, submission), nil
}

// HandleMessage parses body and archives the event in store.
func HandleMessage(ctx context.Context, store object.ObjectStore, body string) (queue.Message, error) {
	msg, _, err := ParseMessage(body)
	if err != nil {
		return msg, err
	}
	if store == nil {
		return msg, ErrProcess{SessionID: msg.SessionID, SubmissionKey: msg.SubmissionKey, Err: errors.New("object store not configured")}
	}
	key, err := EventKey(msg)
	if err != nil {
		return msg, ErrMissingIdentifiers{Meta: ComputeMeta(body), SessionID: msg.SessionID}
	}
	payload, err := queue.EncodeMessage(msg)
	if err != nil {
		return msg, ErrProcess{SessionID: msg.SessionID, SubmissionKey: msg.SubmissionKey, Err: err}
	}
	if _, err := store.Put(ctx, key, eventContentType, bytes.NewReader(payload)); err != nil {
		return msg, ErrProcess{SessionID: msg.SessionID, SubmissionKey: msg.SubmissionKey, Err: err}
	}
	return msg, nil
}
