// Package storage provides abstractions for persistent record storage.
package storage

import (
	"context"
	"errors"

	"github.com/spendbook/spendbook/internal/models"
)

// ErrNotFound is returned when a record matching the given ids does not
// exist. Ownership misses (wrong owner, wrong group) report the same way.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict is returned by conditional updates when the record's
// stored version no longer matches the one the caller read. The ledger
// engine treats it as a retryable lost-update signal.
var ErrVersionConflict = errors.New("record version conflict")

// MemberFilter selects members for bulk operations. Zero fields do not
// restrict: an empty filter matches everything.
type MemberFilter struct {
	// GroupID restricts to members of one group.
	GroupID string

	// IDs restricts to an explicit id set.
	IDs []string
}

// Store defines the record-store interface the ledger engine depends on.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the engine.
//
// UpdateGroup and UpdateMember are conditional writes: they match on the
// record's Version as read by the caller, bump it by one, and return
// ErrVersionConflict when a concurrent writer got there first. Everything
// else is a plain unconditional operation.
type Store interface {
	// Groups.
	InsertGroup(ctx context.Context, g *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	GetOwnedGroup(ctx context.Context, id, owner string) (*models.Group, error)
	ListGroups(ctx context.Context, owner string) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, g *models.Group) error
	DeleteGroup(ctx context.Context, id string) error

	// Members.
	InsertMember(ctx context.Context, m *models.Member) error
	GetGroupMember(ctx context.Context, id, groupID string) (*models.Member, error)
	FindMembers(ctx context.Context, f MemberFilter) ([]*models.Member, error)
	UpdateMember(ctx context.Context, m *models.Member) error
	DeleteMember(ctx context.Context, id string) error
	DeleteMembers(ctx context.Context, ids []string) (int64, error)

	// Expenses.
	InsertExpense(ctx context.Context, e *models.Expense) error
	GetGroupExpense(ctx context.Context, id, groupID string) (*models.Expense, error)
	FindExpensesByMembers(ctx context.Context, memberIDs []string) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, e *models.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	DeleteExpenses(ctx context.Context, ids []string) (int64, error)

	// Categories (read-mostly lookup registry).
	InsertCategory(ctx context.Context, c *models.ExpenseCategory) error
	CategoryExists(ctx context.Context, id string) (bool, error)
	ListCategories(ctx context.Context) ([]models.ExpenseCategory, error)

	// Close releases any resources held by the store.
	Close() error
}
