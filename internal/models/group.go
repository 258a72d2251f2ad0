package models

// DefaultCurrency is assigned to groups created without an explicit currency.
const DefaultCurrency = "EUR"

// Group is the aggregate root of the ledger. All consistency and locking
// boundaries are scoped to a single group: no invariant ever spans two groups.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Owner is the id of the principal the group belongs to. Lookups are
	// always scoped by owner; a group owned by someone else behaves as
	// not found.
	Owner string

	// Name is the display name of the group (e.g., "Trip to Rome").
	Name string

	// Color is the display color tag (hex string).
	Color string

	// Currency is the ISO currency code used for display. Formatting and
	// rounding happen in the presentation layer, never here.
	Currency string

	// TotalSpent is the denormalized sum of the amounts of all live
	// expenses related to this group.
	TotalSpent float64

	// MembersTotal is the denormalized count of live members.
	MembersTotal int

	// MemberIDs is the ordered list of the group's member ids.
	MemberIDs []string

	// ExpenseIDs is the ordered list of the group's expense ids.
	ExpenseIDs []string

	// Version is the optimistic-concurrency revision. Conditional updates
	// match on it and bump it; a mismatch means a concurrent writer won.
	Version int64

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// GroupPatch is a partial update to a group's descriptive fields.
// Nil means "leave unchanged". Rollup fields are not patchable.
type GroupPatch struct {
	Name     *string
	Color    *string
	Currency *string
}

// Empty reports whether the patch carries no fields.
func (p GroupPatch) Empty() bool {
	return p.Name == nil && p.Color == nil && p.Currency == nil
}
