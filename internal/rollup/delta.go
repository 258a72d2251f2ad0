// Package rollup computes the total/count adjustments implied by expense
// mutations. All functions are pure and total: they operate on in-memory
// snapshots, perform no I/O and no rounding, and are safe to call from any
// goroutine.
package rollup

import (
	"github.com/spendbook/spendbook/internal/models"
)

// Delta is the adjustment a single-expense mutation applies to the rollups
// of the expense's member and group.
type Delta struct {
	Member float64
	Group  float64
}

// ForCreate returns the delta a new expense of the given amount applies to
// its member and group totals.
func ForCreate(amount float64) Delta {
	return Delta{Member: amount, Group: amount}
}

// ForDelete returns the (negative) delta deleting the expense applies to its
// current member and group totals.
func ForDelete(e models.Expense) Delta {
	return Delta{Member: -e.Amount, Group: -e.Amount}
}

// BulkDelta aggregates the negative deltas of deleting a set of expenses,
// keyed by debtor member id and by related group id. Callers that discover a
// referenced member or group no longer exists simply ignore that key; the
// expense deletions themselves still proceed.
type BulkDelta struct {
	// PerMember maps debtor id to the summed (negative) amount of that
	// member's deleted expenses.
	PerMember map[string]float64

	// PerGroup maps group id to the summed (negative) amount of that
	// group's deleted expenses.
	PerGroup map[string]float64

	// ExpenseIDsByMember and ExpenseIDsByGroup collect the deleted expense
	// ids per parent, for id-list maintenance alongside the numeric delta.
	ExpenseIDsByMember map[string][]string
	ExpenseIDsByGroup  map[string][]string
}

// ForBulkDelete aggregates the rollup adjustments of deleting all the given
// expenses in one pass, grouping by debtor and by related group.
func ForBulkDelete(expenses []models.Expense) BulkDelta {
	bd := BulkDelta{
		PerMember:          make(map[string]float64),
		PerGroup:           make(map[string]float64),
		ExpenseIDsByMember: make(map[string][]string),
		ExpenseIDsByGroup:  make(map[string][]string),
	}
	for _, e := range expenses {
		if e.Debtor != "" {
			bd.PerMember[e.Debtor] -= e.Amount
			bd.ExpenseIDsByMember[e.Debtor] = append(bd.ExpenseIDsByMember[e.Debtor], e.ID)
		}
		if e.RelatedGroup != "" {
			bd.PerGroup[e.RelatedGroup] -= e.Amount
			bd.ExpenseIDsByGroup[e.RelatedGroup] = append(bd.ExpenseIDsByGroup[e.RelatedGroup], e.ID)
		}
	}
	return bd
}

// UpdateDelta is the adjustment an expense update applies. OldMember applies
// to the expense's current debtor, NewMember to the reassignment target when
// Reassigned is set, Group to the owning group.
type UpdateDelta struct {
	OldMember  float64
	NewMember  float64
	Group      float64
	Reassigned bool
}

// ForUpdate computes the adjustment implied by applying patch to old.
// Four cases:
//
//	amount only changes:    (new-old) on the current member and the group
//	debtor only changes:    -old.Amount off the old member, +old.Amount on
//	                        the new member, group unchanged
//	debtor and amount:      -old.Amount off the old member, +new amount on
//	                        the new member, (new-old) on the group
//	category only changes:  no numeric delta
//
// The caller must pass old as read from the store before overwriting any of
// its fields: the old amount and debtor are the baseline.
func ForUpdate(old models.Expense, patch models.ExpensePatch) UpdateDelta {
	reassigned := patch.Debtor != nil && *patch.Debtor != old.Debtor
	newAmount := old.Amount
	if patch.Amount != nil {
		newAmount = *patch.Amount
	}

	if !reassigned {
		diff := newAmount - old.Amount
		return UpdateDelta{OldMember: diff, Group: diff}
	}
	return UpdateDelta{
		OldMember:  -old.Amount,
		NewMember:  newAmount,
		Group:      newAmount - old.Amount,
		Reassigned: true,
	}
}
