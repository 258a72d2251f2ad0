package models

// ExpenseCategory is a lookup record referenced by expenses. Categories are
// read-mostly and never cascade: deleting expenses leaves them untouched.
type ExpenseCategory struct {
	// ID is the unique identifier for the category (UUID format).
	ID string

	// Name is the unique display name (e.g., "Food", "Transport").
	Name string
}
