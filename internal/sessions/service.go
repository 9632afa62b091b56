package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sourcing-backend/internal/decision"
	"sourcing-backend/internal/export"
	"sourcing-backend/internal/queue"
	"sourcing-backend/internal/shared/metrics"
	"sourcing-backend/internal/shared/storage/object"
	"sourcing-backend/internal/shared/telemetry"
	"sourcing-backend/internal/shared/util"
	"sourcing-backend/internal/workflow"
)

const defaultPendingTimeout = 2 * time.Minute

// Service runs workflow operations against persisted sessions. Operations on one session are
// serialized; the decision call of a submit runs with the session unlocked so other
// activities stay editable meanwhile.
type Service struct {
	Store       Store
	Coordinator *workflow.Coordinator
	Exporter    export.Exporter
	// Archive and Events are optional.
	Archive object.ObjectStore
	Events  queue.Client

	NoticeTTL time.Duration
	// PendingTimeout releases submissions whose completion never arrived.
	PendingTimeout time.Duration
	Now            func() time.Time

	locks sessionLocks
}

// Create starts a session with one blank activity.
func (s *Service) Create(ctx context.Context) (Snapshot, error) {
	id := uuid.NewString()
	st := workflow.NewState()
	if err := s.save(ctx, id, st); err != nil {
		return Snapshot{}, err
	}
	telemetry.Info("session.created", map[string]any{"session_id": id})
	return buildSnapshot(id, st, nil), nil
}

// Get returns the current snapshot.
func (s *Service) Get(ctx context.Context, id string) (Snapshot, error) {
	var snap Snapshot
	err := s.read(ctx, id, func(st *workflow.State) error {
		snap = s.snapshot(id, st)
		return nil
	})
	return snap, err
}

// Delete removes the session.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	unlock := s.lock(id)
	defer unlock()
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	telemetry.Info("session.deleted", map[string]any{"session_id": id})
	return nil
}

func (s *Service) AddActivity(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, id, func(st *workflow.State) error {
		st.AddActivity()
		return nil
	})
}

// UpdateField sets one answer on an activity that is open for changes.
func (s *Service) UpdateField(ctx context.Context, id string, activityID int, key, value string) (Snapshot, error) {
	field, err := decision.ParseField(key)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s", workflow.ErrUnknownField, key)
	}
	return s.mutate(ctx, id, func(st *workflow.State) error {
		if err := st.CheckForward(activityID); err != nil {
			return err
		}
		return st.UpdateField(activityID, field, value)
	})
}

func (s *Service) RemoveActivity(ctx context.Context, id string, activityID int) (Snapshot, error) {
	return s.mutate(ctx, id, func(st *workflow.State) error {
		return st.RemoveActivity(activityID)
	})
}

func (s *Service) Next(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, id, func(st *workflow.State) error {
		if err := st.CheckForward(st.Current().ID); err != nil {
			return err
		}
		return st.Next()
	})
}

func (s *Service) Back(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, id, func(st *workflow.State) error {
		st.Back()
		return nil
	})
}

func (s *Service) SkipTo(ctx context.Context, id string, index int) (Snapshot, error) {
	return s.mutate(ctx, id, func(st *workflow.State) error {
		return st.SkipTo(index)
	})
}

func (s *Service) EnterEdit(ctx context.Context, id string, activityID int) (Snapshot, error) {
	return s.mutate(ctx, id, func(st *workflow.State) error {
		return st.EnterEdit(activityID, s.now())
	})
}

func (s *Service) CancelEdit(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, id, func(st *workflow.State) error {
		st.CancelEdit(s.now())
		return nil
	})
}

// Results lists cached decisions in submission order.
func (s *Service) Results(ctx context.Context, id string) ([]workflow.ResultView, error) {
	var view []workflow.ResultView
	err := s.read(ctx, id, func(st *workflow.State) error {
		var err error
		view, err = st.ViewAll()
		return err
	})
	return view, err
}

// Summary groups cached decisions by outcome.
func (s *Service) Summary(ctx context.Context, id string) ([]workflow.OutcomeGroup, error) {
	var groups []workflow.OutcomeGroup
	err := s.read(ctx, id, func(st *workflow.State) error {
		var err error
		groups, err = st.Summary()
		return err
	})
	return groups, err
}

// Submit decides the activity at index, or at the cursor when index is nil.
func (s *Service) Submit(ctx context.Context, id string, index *int) (SubmitResult, error) {
	var (
		ticket workflow.Ticket
		out    SubmitResult
	)
	err := s.update(ctx, id, func(st *workflow.State) (bool, error) {
		idx := st.Cursor.Activity
		if index != nil {
			idx = *index
		}
		if idx < 0 || idx >= len(st.Activities) {
			return false, workflow.ErrIndexOutOfRange
		}
		if err := st.CheckForward(st.Activities[idx].ID); err != nil {
			return false, err
		}
		var err error
		ticket, err = st.PrepareSubmit(idx, s.now())
		if err != nil {
			return false, err
		}
		if ticket.Duplicate {
			out.Duplicate = true
			out.Results, _ = st.ViewAll()
			out.Session = s.snapshot(id, st)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		metrics.ObserveSubmission(submitErrorResult(err))
		return SubmitResult{}, err
	}
	if out.Duplicate {
		metrics.ObserveSubmission(metrics.ResultDuplicate)
		logTransition(id, ticket.ActivityID, "deduplicating->idle", nil)
		return out, nil
	}
	logTransition(id, ticket.ActivityID, "validating->pending", nil)

	result, callErr := s.Coordinator.Call(ctx, ticket)

	var accepted *workflow.DecisionResult
	err = s.update(context.WithoutCancel(ctx), id, func(st *workflow.State) (bool, error) {
		if callErr != nil {
			st.FailSubmit(ticket, callErr, s.now())
		} else if entry, ok := st.CompleteSubmit(ticket, result, s.now()); ok {
			accepted = &entry
		} else {
			out.Discarded = true
		}
		out.Results, _ = st.ViewAll()
		out.Session = s.snapshot(id, st)
		return true, nil
	})
	if err != nil {
		telemetry.Error("submission.lost", map[string]any{
			"session_id":  id,
			"activity_id": ticket.ActivityID,
			"error":       err,
		})
		return SubmitResult{}, err
	}

	switch {
	case callErr != nil:
		metrics.ObserveSubmission(submitErrorResult(callErr))
		logTransition(id, ticket.ActivityID, "pending->failed", callErr)
		return SubmitResult{}, callErr
	case out.Discarded:
		metrics.ObserveSubmission(metrics.ResultDiscarded)
		logTransition(id, ticket.ActivityID, "pending->discarded", nil)
	default:
		out.Result = accepted
		metrics.ObserveSubmission(metrics.ResultAccepted)
		metrics.ObserveOutcome(string(accepted.Outcome))
		logTransition(id, ticket.ActivityID, "pending->accepted", nil)
		s.publish(ctx, id, *accepted)
	}
	return out, nil
}

// Export renders the cached results, or the activities when nothing was submitted, and
// archives a copy when an object store is configured.
func (s *Service) Export(ctx context.Context, id string) (*export.Result, error) {
	if s.Exporter == nil {
		return nil, errors.New("export not configured")
	}
	var rows []export.Row
	if err := s.read(ctx, id, func(st *workflow.State) error {
		rows = st.ExportRows()
		return nil
	}); err != nil {
		return nil, err
	}

	doc, err := s.Exporter.Export(ctx, rows)
	if err != nil {
		return nil, err
	}
	shape := "registry"
	if len(rows) > 0 && rows[0].HasResult {
		shape = "results"
	}
	metrics.ObserveExport(shape)
	s.archive(ctx, id, doc)
	return doc, nil
}

// ArchiveKey is where an export of session id taken at ts is stored.
func ArchiveKey(id string, ts time.Time, filename string) (string, error) {
	safeID, err := util.KeySegment(id)
	if err != nil {
		return "", err
	}
	safeName, err := util.KeySegment(filename)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("exports/%s/%s_%s", safeID, ts.UTC().Format("20060102T150405Z"), safeName), nil
}

func (s *Service) archive(ctx context.Context, id string, doc *export.Result) {
	if s.Archive == nil {
		return
	}
	key, err := ArchiveKey(id, s.now(), doc.Filename)
	if err == nil {
		_, err = s.Archive.Put(ctx, key, doc.MimeType, bytes.NewReader(doc.Data))
	}
	if err != nil {
		telemetry.Warn("export.archive_failed", map[string]any{"session_id": id, "error": err})
		return
	}
	telemetry.Info("export.archived", map[string]any{"session_id": id, "key": key, "size_bytes": len(doc.Data)})
}

func (s *Service) publish(ctx context.Context, id string, entry workflow.DecisionResult) {
	if s.Events == nil {
		return
	}
	msg := queue.Message{
		SessionID:     id,
		SubmissionKey: entry.SubmissionKey,
		ActivityID:    entry.OriginalActivityID,
		ActivityName:  entry.Answers.Name(""),
		Outcome:       string(entry.Outcome),
		DecidedAt:     entry.Timestamp.UTC().Format(time.RFC3339Nano),
		Version:       queue.MessageVersion,
	}
	if err := s.Events.Send(ctx, msg); err != nil {
		telemetry.Warn("decision.event_failed", map[string]any{
			"session_id":     id,
			"submission_key": entry.SubmissionKey,
			"error":          err,
		})
	}
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*workflow.State) error) (Snapshot, error) {
	var snap Snapshot
	err := s.update(ctx, id, func(st *workflow.State) (bool, error) {
		if err := fn(st); err != nil {
			return false, err
		}
		snap = s.snapshot(id, st)
		return true, nil
	})
	return snap, err
}

// update loads, applies fn and saves when fn reports a change, all under the session lock.
func (s *Service) update(ctx context.Context, id string, fn func(*workflow.State) (bool, error)) error {
	if err := validID(id); err != nil {
		return err
	}
	unlock := s.lock(id)
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	cached := len(st.Results)
	changed, err := fn(st)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.save(ctx, id, st); err != nil {
		return err
	}
	metrics.ObserveCacheChange(len(st.Results) - cached)
	return nil
}

func (s *Service) read(ctx context.Context, id string, fn func(*workflow.State) error) error {
	if err := validID(id); err != nil {
		return err
	}
	unlock := s.lock(id)
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return fn(st)
}

func (s *Service) load(ctx context.Context, id string) (*workflow.State, error) {
	blob, err := s.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	st := &workflow.State{}
	if err := json.Unmarshal(blob, st); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	st.Normalize()
	if released := st.ReleaseStale(s.now(), s.pendingTimeout()); len(released) > 0 {
		telemetry.Warn("submission.status", map[string]any{
			"session_id":        id,
			"activity_ids":      released,
			"status_transition": "pending->abandoned",
		})
	}
	return st, nil
}

func (s *Service) save(ctx context.Context, id string, st *workflow.State) error {
	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	return s.Store.Save(ctx, id, blob)
}

func (s *Service) snapshot(id string, st *workflow.State) Snapshot {
	return buildSnapshot(id, st, st.ActiveNotice(s.now(), s.NoticeTTL))
}

func (s *Service) lock(id string) func() {
	return s.locks.lock(id)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) pendingTimeout() time.Duration {
	if s.PendingTimeout > 0 {
		return s.PendingTimeout
	}
	return defaultPendingTimeout
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return nil
}

func submitErrorResult(err error) string {
	var verr *workflow.ValidationError
	var rejection *decision.RejectionError
	switch {
	case errors.As(err, &verr):
		return metrics.ResultInvalid
	case errors.Is(err, workflow.ErrSubmissionPending):
		return metrics.ResultPending
	case errors.Is(err, workflow.ErrActivityLocked):
		return metrics.ResultLocked
	case errors.As(err, &rejection):
		return metrics.ResultRejected
	default:
		return metrics.ResultFailed
	}
}

func logTransition(id string, activityID int, transition string, err error) {
	fields := map[string]any{
		"session_id":        id,
		"activity_id":       activityID,
		"status_transition": transition,
	}
	if err != nil {
		fields["error"] = err
		telemetry.Warn("submission.status", fields)
		return
	}
	telemetry.Info("submission.status", fields)
}
