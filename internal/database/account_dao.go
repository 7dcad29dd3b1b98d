package database

import (
	"context"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/model"
)

// AccountDAO is the database-backed account directory. The attendance
// core only reads from it.
type AccountDAO struct {
	Logger *slog.Logger
	*DB
}

var _ attendance.AccountDirectory = (*AccountDAO)(nil)

func NewAccountDAO(logger *slog.Logger, db *DB) *AccountDAO {
	return &AccountDAO{
		Logger: logger.With("dao", "account"),
		DB:     db,
	}
}

func (dao *AccountDAO) FindBySchoolID(ctx context.Context, schoolID string) (model.Account, error) {
	query, args, err := dao.Builder.
		Select("*").
		From("accounts").
		Where(squirrel.Eq{"school_id": schoolID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Account{}, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	var account model.Account
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&account); err != nil {
		if IsNoRows(err) {
			return model.Account{}, model.NewError("account", model.ErrNotFound)
		}

		return model.Account{}, err
	}

	return account, nil
}

func (dao *AccountDAO) Get(ctx context.Context, id model.ID) (model.Account, error) {
	query, args, err := dao.Builder.
		Select("*").
		From("accounts").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Account{}, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	var account model.Account
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&account); err != nil {
		if IsNoRows(err) {
			return model.Account{}, model.NewError("account", model.ErrNotFound)
		}

		return model.Account{}, err
	}

	return account, nil
}

func (dao *AccountDAO) Find(ctx context.Context, filter attendance.AccountFilter) ([]model.Account, error) {
	builder := dao.Builder.
		Select("*").
		From("accounts")

	if len(filter.Roles) > 0 {
		builder = builder.Where(squirrel.Eq{"role": filter.Roles})
	}
	if filter.Suspended != nil {
		if *filter.Suspended {
			builder = builder.Where("suspended_at IS NOT NULL")
		} else {
			builder = builder.Where("suspended_at IS NULL")
		}
	}
	if filter.Department != nil {
		builder = builder.Where(squirrel.Eq{"department": *filter.Department})
	}
	if filter.Search != nil {
		pattern := "%" + *filter.Search + "%"
		builder = builder.Where(
			"(first_name ILIKE ? OR last_name ILIKE ? OR school_id ILIKE ?)",
			pattern, pattern, pattern,
		)
	}

	query, args, err := builder.OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, err
	}

	dao.Logger.Debug("query", "sql", query, "args", args)

	accounts := []model.Account{}
	if err := dao.SelectContext(ctx, &accounts, query, args...); err != nil {
		if IsNoRows(err) {
			return []model.Account{}, nil
		}

		return nil, err
	}

	return accounts, nil
}
