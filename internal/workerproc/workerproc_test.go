package workerproc

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"sourcing-backend/internal/queue"
	"sourcing-backend/internal/shared/storage/object/local"
)

func encoded(t *testing.T, msg queue.Message) string {
	t.Helper()
	b, err := queue.EncodeMessage(msg)
	require.NoError(t, err)
	return string(b)
}

func TestParseMessageClassifiesFailures(t *testing.T) {
	_, meta, err := ParseMessage("  ")
	require.ErrorAs(t, err, new(ErrEmptyBody))
	require.True(t, Unrecoverable(err))
	require.Equal(t, 2, meta.BodyLen)

	_, meta, err = ParseMessage("{bad-json")
	require.ErrorAs(t, err, new(ErrDecode))
	require.True(t, Unrecoverable(err))
	require.Len(t, meta.BodySHA, 64)

	_, _, err = ParseMessage(`{"sessionId":"s-1","outcome":"Insource"}`)
	var missing ErrMissingIdentifiers
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "s-1", missing.SessionID)
}

func TestHandleMessageArchivesEvent(t *testing.T) {
	store := local.New(t.TempDir())
	body := encoded(t, queue.Message{
		SessionID:     "0b6f1c3e-8a44-4d7e-9a51-1d8c3f0f2b7a",
		SubmissionKey: "1-1767225600000000000",
		ActivityID:    1,
		Outcome:       "Insource",
		DecidedAt:     "2026-01-01T00:00:00Z",
	})

	msg, err := HandleMessage(context.Background(), store, body)
	require.NoError(t, err)

	key, err := EventKey(msg)
	require.NoError(t, err)
	require.Equal(t, "events/0b6f1c3e-8a44-4d7e-9a51-1d8c3f0f2b7a/1-1767225600000000000.json", key)

	rc, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	archived, err := queue.DecodeMessage(raw)
	require.NoError(t, err)
	require.Equal(t, msg, archived)
}

func TestHandleMessageWithoutStoreIsRetryable(t *testing.T) {
	body := encoded(t, queue.Message{SessionID: "s-1", SubmissionKey: "1-1"})
	_, err := HandleMessage(context.Background(), nil, body)
	var procErr ErrProcess
	require.ErrorAs(t, err, &procErr)
	require.False(t, Unrecoverable(err))
}

func TestHandleMessageRejectsTraversal(t *testing.T) {
	body := encoded(t, queue.Message{SessionID: "../etc", SubmissionKey: "1-1"})
	_, err := HandleMessage(context.Background(), local.New(t.TempDir()), body)
	require.True(t, Unrecoverable(err))
	require.False(t, errors.Is(err, context.Canceled))
}
