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

const groupColumns = "id, owner, name, color, currency, total_spent, members_total, member_ids, expense_ids, version, created_at"

// InsertGroup persists a new group. ID and CreatedAt are generated when
// unset.
func (s *SQLiteStore) InsertGroup(ctx context.Context, g *models.Group) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt == 0 {
		g.CreatedAt = time.Now().Unix()
	}
	if g.Currency == "" {
		g.Currency = models.DefaultCurrency
	}

	memberIDs, err := encodeIDs(g.MemberIDs)
	if err != nil {
		return err
	}
	expenseIDs, err := encodeIDs(g.ExpenseIDs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO groups ("+groupColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		g.ID, g.Owner, g.Name, g.Color, g.Currency,
		g.TotalSpent, g.MembersTotal, memberIDs, expenseIDs, g.Version, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by id regardless of owner.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id = ?", id)
	return scanGroup(row)
}

// GetOwnedGroup retrieves a group by id scoped to its owner. A group owned
// by a different principal reports storage.ErrNotFound.
func (s *SQLiteStore) GetOwnedGroup(ctx context.Context, id, owner string) (*models.Group, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id = ? AND owner = ?", id, owner)
	return scanGroup(row)
}

// ListGroups retrieves all groups of the given owner, oldest first.
func (s *SQLiteStore) ListGroups(ctx context.Context, owner string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE owner = ? ORDER BY created_at, id", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// UpdateGroup writes the group conditionally on the version the caller read,
// bumping it by one. Returns storage.ErrVersionConflict when a concurrent
// writer got there first.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, g *models.Group) error {
	memberIDs, err := encodeIDs(g.MemberIDs)
	if err != nil {
		return err
	}
	expenseIDs, err := encodeIDs(g.ExpenseIDs)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE groups
		SET name = ?, color = ?, currency = ?, total_spent = ?, members_total = ?,
		    member_ids = ?, expense_ids = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		g.Name, g.Color, g.Currency, g.TotalSpent, g.MembersTotal,
		memberIDs, expenseIDs, g.ID, g.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if n == 0 {
		return s.groupWriteMiss(ctx, g.ID)
	}
	g.Version++
	return nil
}

// DeleteGroup removes a group record. Members and expenses are untouched:
// cascading is the ledger engine's job.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// groupWriteMiss distinguishes a vanished group from a version conflict.
func (s *SQLiteStore) groupWriteMiss(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check group existence: %w", err)
	}
	return storage.ErrVersionConflict
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(row scanner) (*models.Group, error) {
	g := &models.Group{}
	var memberIDs, expenseIDs string
	err := row.Scan(
		&g.ID, &g.Owner, &g.Name, &g.Color, &g.Currency,
		&g.TotalSpent, &g.MembersTotal, &memberIDs, &expenseIDs,
		&g.Version, &g.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan group: %w", err)
	}
	if g.MemberIDs, err = decodeIDs(memberIDs); err != nil {
		return nil, err
	}
	if g.ExpenseIDs, err = decodeIDs(expenseIDs); err != nil {
		return nil, err
	}
	return g, nil
}
