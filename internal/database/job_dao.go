package database

import (
	"context"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/model"
)

// JobDAO is the database-backed job-assignment directory, read-only to
// the attendance core. One assignment per account.
type JobDAO struct {
	Logger *slog.Logger
	*DB
}

var _ attendance.JobDirectory = (*JobDAO)(nil)

func NewJobDAO(logger *slog.Logger, db *DB) *JobDAO {
	return &JobDAO{
		Logger: logger.With("dao", "job"),
		DB:     db,
	}
}

func (dao *JobDAO) CurrentAssignment(ctx context.Context, account model.ID) (model.JobAssignment, error) {
	query, args, err := dao.Builder.
		Select("aj.job_id", "j.name AS job_name").
		From("account_jobs aj").
		Join("jobs j ON aj.job_id = j.id").
		Where(squirrel.Eq{"aj.account_id": account}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.JobAssignment{}, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	var assignment model.JobAssignment
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&assignment); err != nil {
		if IsNoRows(err) {
			return model.JobAssignment{}, model.NewError("job assignment", model.ErrNotFound)
		}

		return model.JobAssignment{}, err
	}

	return assignment, nil
}

func (dao *JobDAO) Assignments(ctx context.Context) (map[model.ID]model.JobAssignment, error) {
	query, args, err := dao.Builder.
		Select("aj.account_id", "aj.job_id", "j.name AS job_name").
		From("account_jobs aj").
		Join("jobs j ON aj.job_id = j.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	var rows []struct {
		Account model.ID `db:"account_id"`
		JobID   model.ID `db:"job_id"`
		JobName string   `db:"job_name"`
	}
	if err := dao.SelectContext(ctx, &rows, query, args...); err != nil {
		if IsNoRows(err) {
			return map[model.ID]model.JobAssignment{}, nil
		}

		return nil, err
	}

	assignments := make(map[model.ID]model.JobAssignment, len(rows))
	for _, row := range rows {
		assignments[row.Account] = model.JobAssignment{JobID: row.JobID, JobName: row.JobName}
	}

	return assignments, nil
}
