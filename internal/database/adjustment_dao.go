package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/model"
)

type AdjustmentDAO struct {
	Logger *slog.Logger
	*DB
}

var _ attendance.AdjustmentStore = (*AdjustmentDAO)(nil)

func NewAdjustmentDAO(logger *slog.Logger, db *DB) *AdjustmentDAO {
	return &AdjustmentDAO{
		Logger: logger.With("dao", "adjustment"),
		DB:     db,
	}
}

func (dao *AdjustmentDAO) Get(ctx context.Context, id model.ID) (model.TimeAdjustment, error) {
	query, args, err := dao.Builder.
		Select("*").
		From("time_adjustments").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.TimeAdjustment{}, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	var adjustment model.TimeAdjustment
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&adjustment); err != nil {
		if IsNoRows(err) {
			return model.TimeAdjustment{}, model.NewError("adjustment", model.ErrNotFound)
		}

		return model.TimeAdjustment{}, err
	}

	return adjustment, nil
}

func (dao *AdjustmentDAO) Find(ctx context.Context, account *model.ID, opts attendance.FindOptions) ([]model.TimeAdjustment, error) {
	builder := dao.Builder.
		Select("*").
		From("time_adjustments").
		OrderBy("created_at DESC")

	if account != nil {
		builder = builder.Where(squirrel.Eq{"account_id": *account})
	}
	if opts.Limit > 0 {
		builder = builder.Limit(uint64(opts.Limit)).Offset(uint64(opts.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	adjustments := []model.TimeAdjustment{}
	if err := dao.SelectContext(ctx, &adjustments, query, args...); err != nil {
		if IsNoRows(err) {
			return []model.TimeAdjustment{}, nil
		}

		return nil, err
	}

	return adjustments, nil
}

func (dao *AdjustmentDAO) Count(ctx context.Context, account *model.ID) (int, error) {
	builder := dao.Builder.
		Select("COUNT(*)").
		From("time_adjustments")

	if account != nil {
		builder = builder.Where(squirrel.Eq{"account_id": *account})
	}

	query, args, err := builder.ToSql()
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

func (dao *AdjustmentDAO) Insert(ctx context.Context, dto attendance.InsertAdjustmentDTO) (model.ID, error) {
	query, args, err := dao.Builder.
		Insert("time_adjustments").
		Columns("account_id", "manager_id", "adjustment_minutes", "reason").
		Values(dto.Account, dto.Manager, dto.Minutes, dto.Reason).
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

func (dao *AdjustmentDAO) Delete(ctx context.Context, id model.ID) error {
	query, args, err := dao.Builder.
		Delete("time_adjustments").
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

func (dao *AdjustmentDAO) SumsByAccount(ctx context.Context, from, to *time.Time) (map[model.ID]int, error) {
	builder := dao.Builder.
		Select("account_id", "COALESCE(SUM(adjustment_minutes), 0) AS total").
		From("time_adjustments").
		GroupBy("account_id")

	if from != nil {
		builder = builder.Where(squirrel.GtOrEq{"created_at": *from})
	}
	if to != nil {
		builder = builder.Where(squirrel.LtOrEq{"created_at": *to})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	var rows []struct {
		Account model.ID `db:"account_id"`
		Total   int      `db:"total"`
	}
	if err := dao.SelectContext(ctx, &rows, query, args...); err != nil {
		if IsNoRows(err) {
			return map[model.ID]int{}, nil
		}

		return nil, err
	}

	sums := make(map[model.ID]int, len(rows))
	for _, row := range rows {
		sums[row.Account] = row.Total
	}

	return sums, nil
}
