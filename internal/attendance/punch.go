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

const (
	// MinSessionMinutes is the shortest punch-out allowed without an
	// explicit early-timeout confirmation.
	MinSessionMinutes = 10

	earlyTimeoutNotes = "Timed out too early (< 10 mins)"
)

type PunchStatus string

const (
	PunchTimeIn  PunchStatus = "time_in"
	PunchTimeOut PunchStatus = "time_out"
)

type PunchResult struct {
	Status         PunchStatus `json:"status"`
	Timestamp      time.Time   `json:"timestamp"`
	AccountName    string      `json:"accountName"`
	ProfilePicture string      `json:"profilePicture"`
}

// Engine decides whether a punch opens or closes a session. It is the
// only writer of open/close transitions besides the sweeper.
type Engine struct {
	Logger   *slog.Logger
	Store    SessionStore
	Accounts AccountDirectory
	Jobs     JobDirectory
	Clock    timeutil.Clock
	Location *time.Location
	Pictures PictureResolver
}

func NewEngine(
	logger *slog.Logger,
	store SessionStore,
	accounts AccountDirectory,
	jobs JobDirectory,
	clock timeutil.Clock,
	loc *time.Location,
	pictures PictureResolver,
) *Engine {
	return &Engine{
		Logger:   logger.With("component", "engine"),
		Store:    store,
		Accounts: accounts,
		Jobs:     jobs,
		Clock:    clock,
		Location: loc,
		Pictures: pictures,
	}
}

// Punch records a time-in or time-out for the account behind the
// school ID. The open session, if any, is looked up first and the
// decision follows from it; the read and the write are separate
// operations, accepted for human-paced punching since every write is
// still conditioned on the open predicate.
func (e *Engine) Punch(ctx context.Context, schoolID string, forceEarlyTimeout bool) (PunchResult, error) {
	account, err := e.Accounts.FindBySchoolID(ctx, schoolID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return PunchResult{}, ErrAccountNotFound
		}
		return PunchResult{}, fmt.Errorf("punch: resolve account: %w", err)
	}

	// Only students and managers punch attendance.
	if account.Role != model.RoleStudent && account.Role != model.RoleManager {
		return PunchResult{}, ErrAccountNotFound
	}
	if account.Suspended() {
		return PunchResult{}, ErrAccountSuspended
	}

	now := e.Clock.Now()

	candidate, err := e.Store.LatestOpen(ctx, account.ID)
	hasActive := true
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return PunchResult{}, fmt.Errorf("punch: find open session: %w", err)
		}
		hasActive = false
	}

	// Same-day guard: an open session left over from a previous local
	// day must not be silently closed by an unrelated later punch. It
	// is ignored here and stays open for the sweeper or a manager.
	if hasActive && !timeutil.SameLocalDay(candidate.TimeIn, now, e.Location) {
		e.Logger.Info("ignoring stale open session from previous day",
			"accountId", account.ID, "sessionId", candidate.ID, "timeIn", candidate.TimeIn)
		hasActive = false
	}

	if hasActive {
		return e.timeOut(ctx, account, candidate, now, forceEarlyTimeout)
	}
	return e.timeIn(ctx, account, now)
}

func (e *Engine) timeOut(ctx context.Context, account model.Account, candidate model.Session, now time.Time, force bool) (PunchResult, error) {
	dto := CloseSessionDTO{TimeOut: now}

	if now.Sub(candidate.TimeIn) < MinSessionMinutes*time.Minute {
		if !force {
			return PunchResult{}, ErrEarlyTimeout
		}
		// Forced early time-out: close and invalidate in one update.
		invalidatedAt, notes := now, earlyTimeoutNotes
		dto.InvalidatedAt = &invalidatedAt
		dto.InvalidationNotes = &notes
	}

	// Jobless accounts may still time out: losing the job mid-session
	// must not trap the session open.
	if _, err := e.Store.CloseOpen(ctx, account.ID, dto); err != nil {
		return PunchResult{}, fmt.Errorf("punch: close session: %w", err)
	}

	e.Logger.Info("time out recorded",
		"accountId", account.ID, "sessionId", candidate.ID, "invalidated", dto.InvalidatedAt != nil)

	return e.result(PunchTimeOut, account, now), nil
}

func (e *Engine) timeIn(ctx context.Context, account model.Account, now time.Time) (PunchResult, error) {
	job, err := e.Jobs.CurrentAssignment(ctx, account.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return PunchResult{}, ErrAccountJobless
		}
		return PunchResult{}, fmt.Errorf("punch: resolve job: %w", err)
	}

	id, err := e.Store.Insert(ctx, InsertSessionDTO{
		Account: account.ID,
		TimeIn:  now,
		JobID:   job.JobID,
		JobName: job.JobName,
	})
	if err != nil {
		return PunchResult{}, fmt.Errorf("punch: open session: %w", err)
	}

	e.Logger.Info("time in recorded", "accountId", account.ID, "sessionId", id, "job", job.JobName)

	return e.result(PunchTimeIn, account, now), nil
}

func (e *Engine) result(status PunchStatus, account model.Account, now time.Time) PunchResult {
	name := account.DisplayName()
	if name == "" {
		name = fmt.Sprintf("%s #%d", account.Role, account.ID)
	}

	res := PunchResult{
		Status:      status,
		Timestamp:   now,
		AccountName: name,
	}
	if e.Pictures != nil {
		res.ProfilePicture = e.Pictures(account.ID)
	}
	return res
}
