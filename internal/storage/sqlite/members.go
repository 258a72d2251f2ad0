package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spendbook/spendbook/internal/avatar"
	"github.com/spendbook/spendbook/internal/models"
	"github.com/spendbook/spendbook/internal/storage"
)

const memberColumns = "id, group_id, name, color, avatar, total_spent, expense_ids, version, created_at"

// InsertMember persists a new member. ID, CreatedAt and Avatar default when
// unset.
func (s *SQLiteStore) InsertMember(ctx context.Context, m *models.Member) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().Unix()
	}
	if m.Avatar == "" {
		m.Avatar = avatar.Placeholder
	}

	expenseIDs, err := encodeIDs(m.ExpenseIDs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO members ("+memberColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		m.ID, m.GroupID, m.Name, m.Color, m.Avatar,
		m.TotalSpent, expenseIDs, m.Version, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetGroupMember retrieves a member by id scoped to its group. A member of a
// different group reports storage.ErrNotFound.
func (s *SQLiteStore) GetGroupMember(ctx context.Context, id, groupID string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id = ? AND group_id = ?", id, groupID)
	return scanMember(row)
}

// FindMembers retrieves all members matching the filter, oldest first.
func (s *SQLiteStore) FindMembers(ctx context.Context, f storage.MemberFilter) ([]*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members"
	var where []string
	var args []any
	if f.GroupID != "" {
		where = append(where, "group_id = ?")
		args = append(args, f.GroupID)
	}
	if len(f.IDs) > 0 {
		where = append(where, "id IN ("+inPlaceholders(len(f.IDs))+")")
		args = append(args, stringArgs(f.IDs)...)
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// UpdateMember writes the member conditionally on the version the caller
// read, bumping it by one. Returns storage.ErrVersionConflict when a
// concurrent writer got there first.
func (s *SQLiteStore) UpdateMember(ctx context.Context, m *models.Member) error {
	expenseIDs, err := encodeIDs(m.ExpenseIDs)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET name = ?, color = ?, avatar = ?, total_spent = ?, expense_ids = ?,
		    version = version + 1
		WHERE id = ? AND version = ?`,
		m.Name, m.Color, m.Avatar, m.TotalSpent, expenseIDs, m.ID, m.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if n == 0 {
		return s.memberWriteMiss(ctx, m.ID)
	}
	m.Version++
	return nil
}

// DeleteMember removes a member record.
func (s *SQLiteStore) DeleteMember(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteMembers removes all members with the given ids in one statement and
// returns the number of rows removed. Missing ids are not an error.
func (s *SQLiteStore) DeleteMembers(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM members WHERE id IN ("+inPlaceholders(len(ids))+")",
		stringArgs(ids)...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete members: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete members: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) memberWriteMiss(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM members WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check member existence: %w", err)
	}
	return storage.ErrVersionConflict
}

func scanMember(row scanner) (*models.Member, error) {
	m := &models.Member{}
	var expenseIDs string
	err := row.Scan(
		&m.ID, &m.GroupID, &m.Name, &m.Color, &m.Avatar,
		&m.TotalSpent, &expenseIDs, &m.Version, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}
	if m.ExpenseIDs, err = decodeIDs(expenseIDs); err != nil {
		return nil, err
	}
	return m, nil
}
