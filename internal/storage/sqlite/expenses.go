package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spendbook/spendbook/internal/models"
	"github.com/spendbook/spendbook/internal/storage"
)

const expenseColumns = "id, debtor, category, related_group, amount, created_at, updated_at"

// InsertExpense persists a new expense. ID and timestamps default when
// unset.
func (s *SQLiteStore) InsertExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if e.UpdatedAt == 0 {
		e.UpdatedAt = e.CreatedAt
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.Debtor, e.Category, e.RelatedGroup, e.Amount, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// GetGroupExpense retrieves an expense by id scoped to its related group.
func (s *SQLiteStore) GetGroupExpense(ctx context.Context, id, groupID string) (*models.Expense, error) {
	e := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND related_group = ?",
		id, groupID,
	).Scan(&e.ID, &e.Debtor, &e.Category, &e.RelatedGroup, &e.Amount, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// FindExpensesByMembers retrieves all expenses whose debtor is one of the
// given member ids.
func (s *SQLiteStore) FindExpensesByMembers(ctx context.Context, memberIDs []string) ([]models.Expense, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE debtor IN ("+inPlaceholders(len(memberIDs))+") ORDER BY created_at, id",
		stringArgs(memberIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Debtor, &e.Category, &e.RelatedGroup, &e.Amount, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense overwrites the mutable fields of an expense record.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, e *models.Expense) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET debtor = ?, category = ?, related_group = ?, amount = ?, updated_at = ?
		WHERE id = ?`,
		e.Debtor, e.Category, e.RelatedGroup, e.Amount, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteExpense removes an expense record.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteExpenses removes all expenses with the given ids in one statement
// and returns the number of rows removed. Missing ids are not an error.
func (s *SQLiteStore) DeleteExpenses(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id IN ("+inPlaceholders(len(ids))+")",
		stringArgs(ids)...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expenses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete expenses: %w", err)
	}
	return n, nil
}
