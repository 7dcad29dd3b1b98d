package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campushq/attendance/internal/model"
	"github.com/campushq/attendance/internal/timeutil"
)

// AutoFillTimeout is the synthetic duration given to a still-open
// session when it is invalidated, so every invalidated record has a
// computable duration.
const AutoFillTimeout = 30 * time.Minute

// Maintenance mutates sessions outside the punch flow: manual edits,
// invalidation toggles, deletions and their bulk variants. It is the
// only writer of those transitions.
type Maintenance struct {
	Logger *slog.Logger
	Store  SessionStore
	Clock  timeutil.Clock
}

func NewMaintenance(logger *slog.Logger, store SessionStore, clock timeutil.Clock) *Maintenance {
	return &Maintenance{
		Logger: logger.With("component", "maintenance"),
		Store:  store,
		Clock:  clock,
	}
}

type UpdateSessionInput struct {
	TimeIn            *time.Time
	TimeOut           *time.Time
	InvalidationNotes *string
}

func (m *Maintenance) UpdateSession(ctx context.Context, id model.ID, input UpdateSessionInput) (model.Session, error) {
	if input.TimeIn == nil && input.TimeOut == nil && input.InvalidationNotes == nil {
		return model.Session{}, ErrNoFields
	}

	if _, err := m.get(ctx, id); err != nil {
		return model.Session{}, err
	}

	dto := UpdateSessionDTO{
		TimeIn:            input.TimeIn,
		TimeOut:           input.TimeOut,
		InvalidationNotes: input.InvalidationNotes,
	}
	if err := m.Store.Update(ctx, id, dto); err != nil {
		return model.Session{}, fmt.Errorf("maintenance: update session: %w", err)
	}

	return m.get(ctx, id)
}

// Invalidate excludes a session from aggregation. A session still open
// is auto-closed with time_out = time_in + 30 minutes in the same
// update, so invalidation always yields a duration-computable record.
func (m *Maintenance) Invalidate(ctx context.Context, id model.ID, notes string) (model.Session, error) {
	session, err := m.get(ctx, id)
	if err != nil {
		return model.Session{}, err
	}

	now := m.Clock.Now()
	dto := UpdateSessionDTO{
		InvalidatedAt:     &now,
		InvalidationNotes: &notes,
	}
	if session.Open() {
		autoOut := session.TimeIn.Add(AutoFillTimeout)
		dto.TimeOut = &autoOut
	}

	if err := m.Store.Update(ctx, id, dto); err != nil {
		return model.Session{}, fmt.Errorf("maintenance: invalidate session: %w", err)
	}

	m.Logger.Info("session invalidated", "sessionId", id, "autoFilled", dto.TimeOut != nil)

	return m.get(ctx, id)
}

// Revalidate clears the invalidation annotation without touching
// timestamps.
func (m *Maintenance) Revalidate(ctx context.Context, id model.ID) (model.Session, error) {
	if _, err := m.get(ctx, id); err != nil {
		return model.Session{}, err
	}

	if err := m.Store.Update(ctx, id, UpdateSessionDTO{ClearInvalidation: true}); err != nil {
		return model.Session{}, fmt.Errorf("maintenance: revalidate session: %w", err)
	}

	return m.get(ctx, id)
}

func (m *Maintenance) DeleteSession(ctx context.Context, id model.ID) error {
	if _, err := m.get(ctx, id); err != nil {
		return err
	}

	if err := m.Store.Delete(ctx, id); err != nil {
		return fmt.Errorf("maintenance: delete session: %w", err)
	}

	m.Logger.Info("session deleted", "sessionId", id)

	return nil
}

// BulkClose closes the sessions in the set that are actually still
// open; already-closed ids are skipped, not an error.
func (m *Maintenance) BulkClose(ctx context.Context, ids []model.ID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := m.Store.BulkCloseOpen(ctx, ids, m.Clock.Now())
	if err != nil {
		return 0, fmt.Errorf("maintenance: bulk close: %w", err)
	}
	return n, nil
}

// BulkInvalidate auto-fills time_out = time_in + 30 minutes for any
// still-open id in the set, then invalidates every id.
func (m *Maintenance) BulkInvalidate(ctx context.Context, ids []model.ID, notes string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	if _, err := m.Store.BulkFillMissingTimeOut(ctx, ids, AutoFillTimeout); err != nil {
		return 0, fmt.Errorf("maintenance: bulk autofill: %w", err)
	}

	n, err := m.Store.BulkInvalidate(ctx, ids, m.Clock.Now(), notes)
	if err != nil {
		return 0, fmt.Errorf("maintenance: bulk invalidate: %w", err)
	}
	return n, nil
}

func (m *Maintenance) BulkRevalidate(ctx context.Context, ids []model.ID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := m.Store.BulkRevalidate(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("maintenance: bulk revalidate: %w", err)
	}
	return n, nil
}

func (m *Maintenance) BulkDelete(ctx context.Context, ids []model.ID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := m.Store.BulkDelete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("maintenance: bulk delete: %w", err)
	}
	return n, nil
}

// BulkAdjust overwrites time_in and/or time_out across the set.
func (m *Maintenance) BulkAdjust(ctx context.Context, ids []model.ID, dto AdjustTimesDTO) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if dto.TimeIn == nil && dto.TimeOut == nil {
		return 0, ErrNoFields
	}

	n, err := m.Store.BulkAdjustTimes(ctx, ids, dto)
	if err != nil {
		return 0, fmt.Errorf("maintenance: bulk adjust: %w", err)
	}
	return n, nil
}

func (m *Maintenance) get(ctx context.Context, id model.ID) (model.Session, error) {
	session, err := m.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Session{}, ErrSessionNotFound
		}
		return model.Session{}, fmt.Errorf("maintenance: get session: %w", err)
	}
	return session, nil
}
