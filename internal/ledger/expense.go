package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/spendbook/spendbook/internal/models"
	"github.com/spendbook/spendbook/internal/rollup"
	"github.com/spendbook/spendbook/internal/storage"
)

// validAmount reports whether amount is a usable expense amount. Amounts are
// strictly positive; fractional values are fine.
func validAmount(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0) && !math.IsNaN(amount)
}

// CreateExpense inserts a new expense under the member and group, appends
// its id to both id lists and applies the create delta to both totals.
// Group, member and category are all validated before the first write.
func (e *Engine) CreateExpense(ctx context.Context, owner, groupID, memberID, categoryID string, amount float64) (*models.Expense, error) {
	if !validAmount(amount) {
		return nil, fmt.Errorf("amount must be a positive number: %w", ErrInvalidArgument)
	}

	var exp *models.Expense
	err := e.mutate(ctx, "create_expense", []string{groupID}, func(ctx context.Context, undo *undoStack) error {
		g, err := e.getOwnedGroup(ctx, groupID, owner)
		if err != nil {
			return err
		}
		m, err := e.getGroupMember(ctx, memberID, g.ID)
		if err != nil {
			return err
		}
		ok, err := e.store.CategoryExists(ctx, categoryID)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(EntityCategory)
		}

		exp = &models.Expense{
			Debtor:       m.ID,
			Category:     categoryID,
			RelatedGroup: g.ID,
			Amount:       amount,
		}
		if err := e.store.InsertExpense(ctx, exp); err != nil {
			return err
		}
		undo.push(func(ctx context.Context) error {
			return e.store.DeleteExpense(ctx, exp.ID)
		})

		d := rollup.ForCreate(amount)

		m.TotalSpent += d.Member
		m.ExpenseIDs = append(m.ExpenseIDs, exp.ID)
		if err := e.store.UpdateMember(ctx, m); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return notFound(EntityMember)
			}
			return err
		}
		undo.push(func(ctx context.Context) error {
			return e.adjustMember(ctx, m.ID, g.ID, func(m *models.Member) {
				m.TotalSpent -= d.Member
				m.ExpenseIDs = removeID(m.ExpenseIDs, exp.ID)
			})
		})

		g.TotalSpent += d.Group
		g.ExpenseIDs = append(g.ExpenseIDs, exp.ID)
		if err := e.store.UpdateGroup(ctx, g); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return notFound(EntityGroup)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Expense created",
		"expense_id", exp.ID, "group_id", groupID, "member_id", memberID, "amount", amount)
	return exp, nil
}

// UpdateExpense applies a partial update to an expense: amount and/or
// category changes, and debtor reassignment within the same group. Rollup
// deltas are computed from the record as read, before any of its fields are
// overwritten, and staged onto the affected members and the group; the
// expense record itself is persisted last.
func (e *Engine) UpdateExpense(ctx context.Context, owner, groupID, expenseID string, patch models.ExpensePatch) error {
	if patch.Empty() {
		return fmt.Errorf("no fields to update: %w", ErrInvalidArgument)
	}
	if patch.Amount != nil && !validAmount(*patch.Amount) {
		return fmt.Errorf("amount must be a positive number: %w", ErrInvalidArgument)
	}

	err := e.mutate(ctx, "update_expense", []string{groupID}, func(ctx context.Context, undo *undoStack) error {
		g, err := e.getOwnedGroup(ctx, groupID, owner)
		if err != nil {
			return err
		}
		exp, err := e.store.GetGroupExpense(ctx, expenseID, g.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(EntityExpense)
		}
		if err != nil {
			return err
		}
		if patch.Category != nil {
			ok, err := e.store.CategoryExists(ctx, *patch.Category)
			if err != nil {
				return err
			}
			if !ok {
				return notFound(EntityCategory)
			}
		}

		d := rollup.ForUpdate(*exp, patch)

		// The current debtor is only needed when its rollup moves. The new
		// target must exist under the same group before anything is written.
		var cur, next *models.Member
		if d.OldMember != 0 || d.Reassigned {
			if cur, err = e.getGroupMember(ctx, exp.Debtor, g.ID); err != nil {
				return err
			}
		}
		if d.Reassigned {
			if next, err = e.getGroupMember(ctx, *patch.Debtor, g.ID); err != nil {
				return err
			}
		}

		if cur != nil {
			cur.TotalSpent += d.OldMember
			if d.Reassigned {
				cur.ExpenseIDs = removeID(cur.ExpenseIDs, exp.ID)
			}
			if err := e.store.UpdateMember(ctx, cur); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return notFound(EntityMember)
				}
				return err
			}
			oldDelta := d.OldMember
			reassigned := d.Reassigned
			undo.push(func(ctx context.Context) error {
				return e.adjustMember(ctx, cur.ID, g.ID, func(m *models.Member) {
					m.TotalSpent -= oldDelta
					if reassigned {
						m.ExpenseIDs = append(m.ExpenseIDs, exp.ID)
					}
				})
			})
		}

		if next != nil {
			next.TotalSpent += d.NewMember
			next.ExpenseIDs = append(next.ExpenseIDs, exp.ID)
			if err := e.store.UpdateMember(ctx, next); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return notFound(EntityMember)
				}
				return err
			}
			newDelta := d.NewMember
			undo.push(func(ctx context.Context) error {
				return e.adjustMember(ctx, next.ID, g.ID, func(m *models.Member) {
					m.TotalSpent -= newDelta
					m.ExpenseIDs = removeID(m.ExpenseIDs, exp.ID)
				})
			})
		}

		if d.Group != 0 {
			g.TotalSpent += d.Group
			if err := e.store.UpdateGroup(ctx, g); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return notFound(EntityGroup)
				}
				return err
			}
			groupDelta := d.Group
			undo.push(func(ctx context.Context) error {
				return e.adjustGroup(ctx, g.ID, func(g *models.Group) {
					g.TotalSpent -= groupDelta
				})
			})
		}

		if patch.Debtor != nil {
			exp.Debtor = *patch.Debtor
		}
		if patch.Category != nil {
			exp.Category = *patch.Category
		}
		if patch.Amount != nil {
			exp.Amount = *patch.Amount
		}
		exp.UpdatedAt = time.Now().Unix()
		return e.store.UpdateExpense(ctx, exp)
	})
	if err != nil {
		return err
	}

	slog.Info("Expense updated", "expense_id", expenseID, "group_id", groupID,
		"reassigned", patch.Debtor != nil)
	return nil
}

// DeleteExpense removes the expense record and subtracts its amount from its
// member's and group's rollups. A debtor or group that has meanwhile
// disappeared is tolerated: the expense deletion itself still succeeds.
func (e *Engine) DeleteExpense(ctx context.Context, owner, groupID, expenseID string) error {
	err := e.mutate(ctx, "delete_expense", []string{groupID}, func(ctx context.Context, undo *undoStack) error {
		g, err := e.getOwnedGroup(ctx, groupID, owner)
		if err != nil {
			return err
		}
		exp, err := e.store.GetGroupExpense(ctx, expenseID, g.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(EntityExpense)
		}
		if err != nil {
			return err
		}

		if err := e.store.DeleteExpense(ctx, exp.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return notFound(EntityExpense)
			}
			return err
		}
		undo.push(func(ctx context.Context) error {
			return e.store.InsertExpense(ctx, exp)
		})

		d := rollup.ForDelete(*exp)

		m, err := e.store.GetGroupMember(ctx, exp.Debtor, g.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// Debtor already gone; nothing to adjust on that side.
		case err != nil:
			return err
		default:
			m.TotalSpent += d.Member
			m.ExpenseIDs = removeID(m.ExpenseIDs, exp.ID)
			if err := e.store.UpdateMember(ctx, m); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			undo.push(func(ctx context.Context) error {
				return e.adjustMember(ctx, m.ID, g.ID, func(m *models.Member) {
					m.TotalSpent -= d.Member
					m.ExpenseIDs = append(m.ExpenseIDs, exp.ID)
				})
			})
		}

		g.TotalSpent += d.Group
		g.ExpenseIDs = removeID(g.ExpenseIDs, exp.ID)
		if err := e.store.UpdateGroup(ctx, g); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Expense deleted", "expense_id", expenseID, "group_id", groupID)
	return nil
}
