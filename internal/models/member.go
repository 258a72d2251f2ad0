package models

// Member is a participant in a group. Members exist only in relation to
// their group: deleting the group deletes them.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// GroupID is the id of the owning group.
	GroupID string

	// Name is the member's display name.
	Name string

	// Color is the display color tag (hex string).
	Color string

	// Avatar references the member's uploaded image in the blob store.
	// Defaults to the placeholder sentinel, which is shared by all members
	// and must never be released.
	Avatar string

	// TotalSpent is the denormalized sum of the amounts of this member's
	// live expenses.
	TotalSpent float64

	// ExpenseIDs is the ordered list of this member's expense ids.
	ExpenseIDs []string

	// Version is the optimistic-concurrency revision.
	Version int64

	// CreatedAt is the Unix timestamp when the member was created.
	CreatedAt int64
}

// MemberPatch is a partial update to a member's descriptive fields.
// Nil means "leave unchanged".
type MemberPatch struct {
	Name   *string
	Color  *string
	Avatar *string
}

// Empty reports whether the patch carries no fields.
func (p MemberPatch) Empty() bool {
	return p.Name == nil && p.Color == nil && p.Avatar == nil
}
