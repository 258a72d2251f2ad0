package rollup

import (
	"math"
	"testing"

	"github.com/spendbook/spendbook/internal/models"
)

func strPtr(s string) *string   { return &s }
func amtPtr(f float64) *float64 { return &f }
func almost(a, b float64) bool  { return math.Abs(a-b) < 1e-9 }

func TestForCreate(t *testing.T) {
	d := ForCreate(12.5)
	if !almost(d.Member, 12.5) || !almost(d.Group, 12.5) {
		t.Errorf("ForCreate(12.5) = %+v, want member and group +12.5", d)
	}
}

func TestForDelete(t *testing.T) {
	d := ForDelete(models.Expense{ID: "e1", Debtor: "m1", RelatedGroup: "g1", Amount: 7.25})
	if !almost(d.Member, -7.25) || !almost(d.Group, -7.25) {
		t.Errorf("ForDelete = %+v, want member and group -7.25", d)
	}
}

func TestForUpdate(t *testing.T) {
	old := models.Expense{ID: "e1", Debtor: "alice", RelatedGroup: "g1", Amount: 50}

	tests := []struct {
		name  string
		patch models.ExpensePatch
		want  UpdateDelta
	}{
		{
			name:  "amount only",
			patch: models.ExpensePatch{Amount: amtPtr(80)},
			want:  UpdateDelta{OldMember: 30, Group: 30},
		},
		{
			name:  "amount only, decrease",
			patch: models.ExpensePatch{Amount: amtPtr(20.5)},
			want:  UpdateDelta{OldMember: -29.5, Group: -29.5},
		},
		{
			name:  "debtor only",
			patch: models.ExpensePatch{Debtor: strPtr("bob")},
			want:  UpdateDelta{OldMember: -50, NewMember: 50, Group: 0, Reassigned: true},
		},
		{
			name:  "debtor and amount",
			patch: models.ExpensePatch{Debtor: strPtr("bob"), Amount: amtPtr(80)},
			want:  UpdateDelta{OldMember: -50, NewMember: 80, Group: 30, Reassigned: true},
		},
		{
			name:  "category only",
			patch: models.ExpensePatch{Category: strPtr("food")},
			want:  UpdateDelta{},
		},
		{
			name:  "same debtor is not a reassignment",
			patch: models.ExpensePatch{Debtor: strPtr("alice"), Amount: amtPtr(60)},
			want:  UpdateDelta{OldMember: 10, Group: 10},
		},
		{
			name:  "amount unchanged yields zero delta",
			patch: models.ExpensePatch{Amount: amtPtr(50)},
			want:  UpdateDelta{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForUpdate(old, tt.patch)
			if got.Reassigned != tt.want.Reassigned ||
				!almost(got.OldMember, tt.want.OldMember) ||
				!almost(got.NewMember, tt.want.NewMember) ||
				!almost(got.Group, tt.want.Group) {
				t.Errorf("ForUpdate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestForBulkDelete(t *testing.T) {
	expenses := []models.Expense{
		{ID: "e1", Debtor: "alice", RelatedGroup: "g1", Amount: 10},
		{ID: "e2", Debtor: "alice", RelatedGroup: "g1", Amount: 20},
		{ID: "e3", Debtor: "bob", RelatedGroup: "g1", Amount: 70},
		{ID: "e4", Debtor: "carol", RelatedGroup: "g2", Amount: 5.5},
	}

	bd := ForBulkDelete(expenses)

	if !almost(bd.PerMember["alice"], -30) {
		t.Errorf("alice delta = %v, want -30", bd.PerMember["alice"])
	}
	if !almost(bd.PerMember["bob"], -70) {
		t.Errorf("bob delta = %v, want -70", bd.PerMember["bob"])
	}
	if !almost(bd.PerGroup["g1"], -100) {
		t.Errorf("g1 delta = %v, want -100", bd.PerGroup["g1"])
	}
	if !almost(bd.PerGroup["g2"], -5.5) {
		t.Errorf("g2 delta = %v, want -5.5", bd.PerGroup["g2"])
	}
	if got := bd.ExpenseIDsByGroup["g1"]; len(got) != 3 {
		t.Errorf("g1 expense ids = %v, want 3 ids", got)
	}
	if got := bd.ExpenseIDsByMember["alice"]; len(got) != 2 {
		t.Errorf("alice expense ids = %v, want 2 ids", got)
	}
}

func TestForBulkDelete_MissingSides(t *testing.T) {
	// An expense with a dangling side contributes nothing for that side but
	// still shows up for the other.
	expenses := []models.Expense{
		{ID: "e1", Debtor: "", RelatedGroup: "g1", Amount: 10},
		{ID: "e2", Debtor: "alice", RelatedGroup: "", Amount: 20},
	}

	bd := ForBulkDelete(expenses)

	if !almost(bd.PerGroup["g1"], -10) {
		t.Errorf("g1 delta = %v, want -10", bd.PerGroup["g1"])
	}
	if !almost(bd.PerMember["alice"], -20) {
		t.Errorf("alice delta = %v, want -20", bd.PerMember["alice"])
	}
	if _, ok := bd.PerMember[""]; ok {
		t.Error("empty debtor must not produce a member delta")
	}
	if _, ok := bd.PerGroup[""]; ok {
		t.Error("empty group must not produce a group delta")
	}
}

func TestForBulkDelete_Empty(t *testing.T) {
	bd := ForBulkDelete(nil)
	if len(bd.PerMember) != 0 || len(bd.PerGroup) != 0 {
		t.Errorf("empty input must aggregate to nothing, got %+v", bd)
	}
}
