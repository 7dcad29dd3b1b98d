package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/model"
)

// Legacy rows imported from the old punch station store "open" as the
// zero time instead of NULL. Normalization happens here and only here:
// selects translate the sentinel to NULL, the open predicate matches
// both forms, and new writes always use true NULL.
const (
	_sessionColumns = `id, created_at, updated_at, account_id, time_in,
		NULLIF(time_out, 'epoch'::timestamptz) AS time_out,
		job_id, job_name, auto_closed, invalidated_at, invalidation_notes`

	_openPredicate = `(time_out IS NULL OR time_out = 'epoch'::timestamptz)`
)

type SessionDAO struct {
	Logger *slog.Logger
	*DB
}

var _ attendance.SessionStore = (*SessionDAO)(nil)

func NewSessionDAO(logger *slog.Logger, db *DB) *SessionDAO {
	return &SessionDAO{
		Logger: logger.With("dao", "session"),
		DB:     db,
	}
}

func (dao *SessionDAO) Get(ctx context.Context, id model.ID) (model.Session, error) {
	query, args, err := dao.Builder.
		Select(_sessionColumns).
		From("sessions").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Session{}, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	var session model.Session
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&session); err != nil {
		if IsNoRows(err) {
			return model.Session{}, model.NewError("session", model.ErrNotFound)
		}

		return model.Session{}, err
	}

	return session, nil
}

func (dao *SessionDAO) LatestOpen(ctx context.Context, account model.ID) (model.Session, error) {
	query, args, err := dao.Builder.
		Select(_sessionColumns).
		From("sessions").
		Where(squirrel.Eq{"account_id": account}).
		Where(_openPredicate).
		OrderBy("time_in DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return model.Session{}, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	var session model.Session
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&session); err != nil {
		if IsNoRows(err) {
			return model.Session{}, model.NewError("session", model.ErrNotFound)
		}

		return model.Session{}, err
	}

	return session, nil
}

func (dao *SessionDAO) Find(ctx context.Context, filter attendance.SessionFilter, opts attendance.FindOptions) ([]model.Session, error) {
	builder := dao.Builder.
		Select(_sessionColumns).
		From("sessions").
		Where(sessionPredicate(filter))

	for _, clause := range sessionOrder(opts) {
		builder = builder.OrderBy(clause)
	}
	if opts.Limit > 0 {
		builder = builder.Limit(uint64(opts.Limit)).Offset(uint64(opts.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	sessions := []model.Session{}
	if err := dao.SelectContext(ctx, &sessions, query, args...); err != nil {
		if IsNoRows(err) {
			return []model.Session{}, nil
		}

		return nil, err
	}

	return sessions, nil
}

func (dao *SessionDAO) Count(ctx context.Context, filter attendance.SessionFilter) (int, error) {
	query, args, err := dao.Builder.
		Select("COUNT(*)").
		From("sessions").
		Where(sessionPredicate(filter)).
		ToSql()
	if err != nil {
		return 0, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	var total int
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&total); err != nil {
		return 0, err
	}

	return total, nil
}

func (dao *SessionDAO) Insert(ctx context.Context, dto attendance.InsertSessionDTO) (model.ID, error) {
	query, args, err := dao.Builder.
		Insert("sessions").
		Columns("account_id", "time_in", "time_out", "job_id", "job_name").
		Values(dto.Account, dto.TimeIn, nil, dto.JobID, dto.JobName).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	var id model.ID
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&id); err != nil {
		return 0, err
	}

	return id, nil
}

func (dao *SessionDAO) Update(ctx context.Context, id model.ID, dto attendance.UpdateSessionDTO) error {
	data := map[string]any{"updated_at": time.Now()}
	if dto.TimeIn != nil {
		data["time_in"] = *dto.TimeIn
	}
	if dto.TimeOut != nil {
		data["time_out"] = *dto.TimeOut
	}
	if dto.InvalidatedAt != nil {
		data["invalidated_at"] = *dto.InvalidatedAt
	}
	if dto.InvalidationNotes != nil {
		data["invalidation_notes"] = *dto.InvalidationNotes
	}
	if dto.ClearInvalidation {
		data["invalidated_at"] = nil
		data["invalidation_notes"] = nil
	}

	query, args, err := dao.Builder.
		Update("sessions").
		SetMap(data).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	if _, err = dao.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return nil
}

func (dao *SessionDAO) Delete(ctx context.Context, id model.ID) error {
	query, args, err := dao.Builder.
		Delete("sessions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	if _, err = dao.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return nil
}

func (dao *SessionDAO) CloseOpen(ctx context.Context, account model.ID, dto attendance.CloseSessionDTO) (int, error) {
	data := map[string]any{
		"time_out":   dto.TimeOut,
		"updated_at": time.Now(),
	}
	if dto.InvalidatedAt != nil {
		data["invalidated_at"] = *dto.InvalidatedAt
	}
	if dto.InvalidationNotes != nil {
		data["invalidation_notes"] = *dto.InvalidationNotes
	}

	query, args, err := dao.Builder.
		Update("sessions").
		SetMap(data).
		Where(squirrel.Eq{"account_id": account}).
		Where(_openPredicate).
		ToSql()
	if err != nil {
		return 0, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	return dao.execCount(ctx, query, args)
}

func (dao *SessionDAO) CloseAllOpenBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query, args, err := dao.Builder.
		Update("sessions").
		SetMap(map[string]any{
			"time_out":    cutoff,
			"auto_closed": true,
			"updated_at":  time.Now(),
		}).
		Where(_openPredicate).
		Where(squirrel.Lt{"time_in": cutoff}).
		ToSql()
	if err != nil {
		return 0, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	return dao.execCount(ctx, query, args)
}

func (dao *SessionDAO) CountOverdue(ctx context.Context, startOfToday time.Time) (int, error) {
	query, args, err := dao.Builder.
		Select("COUNT(*)").
		From("sessions").
		Where(_openPredicate).
		Where(squirrel.Lt{"time_in": startOfToday}).
		Where("invalidated_at IS NULL").
		ToSql()
	if err != nil {
		return 0, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	var total int
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&total); err != nil {
		return 0, err
	}

	return total, nil
}

func (dao *SessionDAO) BulkCloseOpen(ctx context.Context, ids []model.ID, closedAt time.Time) (int, error) {
	query, args, err := dao.Builder.
		Update("sessions").
		SetMap(map[string]any{
			"time_out":   closedAt,
			"updated_at": time.Now(),
		}).
		Where(squirrel.Eq{"id": ids}).
		Where(_openPredicate).
		ToSql()
	if err != nil {
		return 0, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	return dao.execCount(ctx, query, args)
}

func (dao *SessionDAO) BulkFillMissingTimeOut(ctx context.Context, ids []model.ID, after time.Duration) (int, error) {
	query, args, err := dao.Builder.
		Update("sessions").
		Set("time_out", squirrel.Expr("time_in + make_interval(mins => ?)", int(after.Minutes()))).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": ids}).
		Where(_openPredicate).
		ToSql()
	if err != nil {
		return 0, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	return dao.execCount(ctx, query, args)
}

func (dao *SessionDAO) BulkInvalidate(ctx context.Context, ids []model.ID, at time.Time, notes string) (int, error) {
	query, args, err := dao.Builder.
		Update("sessions").
		SetMap(map[string]any{
			"invalidated_at":     at,
			"invalidation_notes": notes,
			"updated_at":         time.Now(),
		}).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return 0, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	return dao.execCount(ctx, query, args)
}

func (dao *SessionDAO) BulkRevalidate(ctx context.Context, ids []model.ID) (int, error) {
	query, args, err := dao.Builder.
		Update("sessions").
		SetMap(map[string]any{
			"invalidated_at":     nil,
			"invalidation_notes": nil,
			"updated_at":         time.Now(),
		}).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return 0, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	return dao.execCount(ctx, query, args)
}

func (dao *SessionDAO) BulkDelete(ctx context.Context, ids []model.ID) (int, error) {
	query, args, err := dao.Builder.
		Delete("sessions").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return 0, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	return dao.execCount(ctx, query, args)
}

func (dao *SessionDAO) BulkAdjustTimes(ctx context.Context, ids []model.ID, dto attendance.AdjustTimesDTO) (int, error) {
	data := map[string]any{"updated_at": time.Now()}
	if dto.TimeIn != nil {
		data["time_in"] = *dto.TimeIn
	}
	if dto.TimeOut != nil {
		data["time_out"] = *dto.TimeOut
	}

	query, args, err := dao.Builder.
		Update("sessions").
		SetMap(data).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return 0, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	return dao.execCount(ctx, query, args)
}

func (dao *SessionDAO) execCount(ctx context.Context, query string, args []any) (int, error) {
	res, err := dao.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

func sessionPredicate(filter attendance.SessionFilter) squirrel.And {
	pred := squirrel.And{}

	if filter.Account != nil {
		pred = append(pred, squirrel.Eq{"account_id": *filter.Account})
	}
	if filter.ExcludeInvalidated {
		pred = append(pred, squirrel.Expr("invalidated_at IS NULL"))
	}

	if filter.OpenOnly {
		pred = append(pred, squirrel.Expr(_openPredicate))
		if filter.DateFrom != nil {
			pred = append(pred, squirrel.GtOrEq{"time_in": *filter.DateFrom})
		}
		return pred
	}

	dates := squirrel.And{}
	if filter.DateFrom != nil {
		dates = append(dates, squirrel.GtOrEq{"time_in": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		dates = append(dates, squirrel.LtOrEq{"time_in": *filter.DateTo})
	}

	if len(dates) > 0 {
		if filter.OrOpen {
			// Widen the window so active sessions never fall out of a
			// paged list.
			pred = append(pred, squirrel.Or{dates, squirrel.Expr(_openPredicate)})
		} else {
			pred = append(pred, dates)
		}
	}

	if len(pred) == 0 {
		pred = append(pred, squirrel.Expr("1=1"))
	}

	return pred
}

func sessionOrder(opts attendance.FindOptions) []string {
	order := make([]string, 0, 2)

	if opts.OpenFirst {
		order = append(order, _openPredicate+" DESC")
	}

	col := "time_in"
	switch opts.SortBy {
	case "time_out":
		col = "NULLIF(time_out, 'epoch'::timestamptz)"
	case "duration_minutes":
		col = "(NULLIF(time_out, 'epoch'::timestamptz) - time_in)"
	case "time_in", "":
	}

	dir := "DESC"
	if opts.SortOrder == "asc" {
		dir = "ASC"
	}

	return append(order, col+" "+dir)
}
