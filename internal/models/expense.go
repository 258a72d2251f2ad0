package models

// Expense is a single spend record. It is owned by exactly one member at a
// time (reassignable) and carries a denormalized copy of that member's group.
// Apart from debtor, category and amount it is immutable after creation.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Debtor is the id of the member who incurred the expense.
	Debtor string

	// Category is the id of the expense category.
	Category string

	// RelatedGroup is the id of the debtor's group at creation time.
	// The ledger engine keeps it equal to the debtor's group at all times;
	// reassignment never crosses groups.
	RelatedGroup string

	// Amount is the spent amount. Always positive; fractional values are
	// kept as-is, rounding belongs to the currency-formatting layer.
	Amount float64

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// ExpensePatch is a partial update to an expense. Nil means "leave
// unchanged". Debtor reassignment stays within the expense's group.
type ExpensePatch struct {
	Debtor   *string
	Category *string
	Amount   *float64
}

// Empty reports whether the patch carries no fields.
func (p ExpensePatch) Empty() bool {
	return p.Debtor == nil && p.Category == nil && p.Amount == nil
}
