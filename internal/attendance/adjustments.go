package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/campushq/attendance/internal/model"
)

// Adjuster manages manual time corrections. Adjustments are additive
// to aggregation and never touch session rows.
type Adjuster struct {
	Logger   *slog.Logger
	Store    AdjustmentStore
	Accounts AccountDirectory
}

func NewAdjuster(logger *slog.Logger, store AdjustmentStore, accounts AccountDirectory) *Adjuster {
	return &Adjuster{
		Logger:   logger.With("component", "adjuster"),
		Store:    store,
		Accounts: accounts,
	}
}

// Create records a signed-minute correction for a student account.
// Positive minutes add time (overtime), negative deduct (lateness).
func (a *Adjuster) Create(ctx context.Context, account, manager model.ID, minutes int, reason string) (model.TimeAdjustment, error) {
	target, err := a.Accounts.Get(ctx, account)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TimeAdjustment{}, ErrAccountNotFound
		}
		return model.TimeAdjustment{}, fmt.Errorf("adjustment: resolve account: %w", err)
	}
	if target.Role != model.RoleStudent {
		return model.TimeAdjustment{}, ErrNotStudent
	}

	id, err := a.Store.Insert(ctx, InsertAdjustmentDTO{
		Account: account,
		Manager: manager,
		Minutes: minutes,
		Reason:  reason,
	})
	if err != nil {
		return model.TimeAdjustment{}, fmt.Errorf("adjustment: insert: %w", err)
	}

	a.Logger.Info("time adjustment recorded",
		"accountId", account, "managerId", manager, "minutes", minutes)

	created, err := a.Store.Get(ctx, id)
	if err != nil {
		return model.TimeAdjustment{}, fmt.Errorf("adjustment: fetch created: %w", err)
	}
	return created, nil
}

func (a *Adjuster) List(ctx context.Context, account *model.ID, opts FindOptions) ([]model.TimeAdjustment, int, error) {
	total, err := a.Store.Count(ctx, account)
	if err != nil {
		return nil, 0, fmt.Errorf("adjustment: count: %w", err)
	}

	items, err := a.Store.Find(ctx, account, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("adjustment: list: %w", err)
	}
	return items, total, nil
}

func (a *Adjuster) Delete(ctx context.Context, id model.ID) error {
	if _, err := a.Store.Get(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return ErrAdjustmentNotFound
		}
		return fmt.Errorf("adjustment: get: %w", err)
	}

	if err := a.Store.Delete(ctx, id); err != nil {
		return fmt.Errorf("adjustment: delete: %w", err)
	}
	return nil
}
