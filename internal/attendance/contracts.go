package attendance

import (
	"context"
	"time"

	"github.com/campushq/attendance/internal/model"
)

// SessionStore is the durable session log. Implementations must
// normalize any legacy "zero time" time_out sentinel to nil before a
// session leaves the store, and every conditional mutation is scoped
// by the open predicate so a lost race degrades to a no-op instead of
// a double close.
type SessionStore interface {
	Get(ctx context.Context, id model.ID) (model.Session, error)
	// LatestOpen returns the account's most recent open session by
	// time_in, or model.ErrNotFound when none is open.
	LatestOpen(ctx context.Context, account model.ID) (model.Session, error)
	Find(ctx context.Context, filter SessionFilter, opts FindOptions) ([]model.Session, error)
	Count(ctx context.Context, filter SessionFilter) (int, error)

	Insert(ctx context.Context, dto InsertSessionDTO) (model.ID, error)
	Update(ctx context.Context, id model.ID, dto UpdateSessionDTO) error
	Delete(ctx context.Context, id model.ID) error

	// CloseOpen closes the open session of the account, if any, in a
	// single conditional update. Returns the number of rows closed.
	CloseOpen(ctx context.Context, account model.ID, dto CloseSessionDTO) (int, error)

	// CloseAllOpenBefore force-closes every open session with
	// time_in < cutoff, setting time_out = cutoff and the auto-closed
	// flag. Sessions opened at or after the cutoff are left alone.
	CloseAllOpenBefore(ctx context.Context, cutoff time.Time) (int, error)

	CountOverdue(ctx context.Context, startOfToday time.Time) (int, error)

	BulkCloseOpen(ctx context.Context, ids []model.ID, closedAt time.Time) (int, error)
	BulkFillMissingTimeOut(ctx context.Context, ids []model.ID, after time.Duration) (int, error)
	BulkInvalidate(ctx context.Context, ids []model.ID, at time.Time, notes string) (int, error)
	BulkRevalidate(ctx context.Context, ids []model.ID) (int, error)
	BulkDelete(ctx context.Context, ids []model.ID) (int, error)
	BulkAdjustTimes(ctx context.Context, ids []model.ID, dto AdjustTimesDTO) (int, error)
}

// SessionFilter narrows session queries. A nil field means "any".
type SessionFilter struct {
	Account  *model.ID
	DateFrom *time.Time
	DateTo   *time.Time

	// OpenOnly keeps only sessions without a time_out.
	OpenOnly bool
	// OrOpen widens a date-window filter to also include any still
	// open session, so active punches never fall out of a paged list.
	OrOpen bool

	ExcludeInvalidated bool
}

type FindOptions struct {
	Limit  int
	Offset int

	SortBy    string
	SortOrder string
	// OpenFirst forces open sessions to the top regardless of sort.
	OpenFirst bool
}

type InsertSessionDTO struct {
	Account model.ID
	TimeIn  time.Time
	JobID   model.ID
	JobName string
}

// CloseSessionDTO closes an open session; the invalidation fields are
// set in the same update when a forced early time-out must be both
// closed and excluded from aggregation atomically.
type CloseSessionDTO struct {
	TimeOut           time.Time
	InvalidatedAt     *time.Time
	InvalidationNotes *string
}

type UpdateSessionDTO struct {
	TimeIn            *time.Time
	TimeOut           *time.Time
	InvalidatedAt     *time.Time
	InvalidationNotes *string
	ClearInvalidation bool
}

func (dto UpdateSessionDTO) Empty() bool {
	return dto.TimeIn == nil && dto.TimeOut == nil &&
		dto.InvalidatedAt == nil && dto.InvalidationNotes == nil &&
		!dto.ClearInvalidation
}

type AdjustTimesDTO struct {
	TimeIn  *time.Time
	TimeOut *time.Time
}

// AccountDirectory is the external account collaborator, read-only.
type AccountDirectory interface {
	FindBySchoolID(ctx context.Context, schoolID string) (model.Account, error)
	Get(ctx context.Context, id model.ID) (model.Account, error)
	Find(ctx context.Context, filter AccountFilter) ([]model.Account, error)
}

type AccountFilter struct {
	Roles      []model.Role
	Suspended  *bool
	Search     *string
	Department *string
}

// JobDirectory is the external job-assignment collaborator, read-only.
type JobDirectory interface {
	// CurrentAssignment reports the account's single active job, or
	// model.ErrNotFound when the account is jobless.
	CurrentAssignment(ctx context.Context, account model.ID) (model.JobAssignment, error)
	// Assignments returns the current job per account in one pass.
	Assignments(ctx context.Context) (map[model.ID]model.JobAssignment, error)
}

// AdjustmentStore holds manual time corrections.
type AdjustmentStore interface {
	Get(ctx context.Context, id model.ID) (model.TimeAdjustment, error)
	Find(ctx context.Context, account *model.ID, opts FindOptions) ([]model.TimeAdjustment, error)
	Count(ctx context.Context, account *model.ID) (int, error)
	Insert(ctx context.Context, dto InsertAdjustmentDTO) (model.ID, error)
	Delete(ctx context.Context, id model.ID) error

	// SumsByAccount returns total adjustment minutes per account,
	// optionally restricted to a creation-date window.
	SumsByAccount(ctx context.Context, from, to *time.Time) (map[model.ID]int, error)
}

type InsertAdjustmentDTO struct {
	Account model.ID
	Manager model.ID
	Minutes int
	Reason  string
}

// PictureResolver maps an account to its profile picture ref. Storage
// of pictures is outside the core.
type PictureResolver func(account model.ID) string
