package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/spendbook/spendbook/internal/models"
	"github.com/spendbook/spendbook/internal/storage"
)

func TestCreateGroup_Defaults(t *testing.T) {
	eng, _, _ := setupEngine(t)

	g, err := eng.CreateGroup(context.Background(), testOwner, "Trip", "ff0000")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if g.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if g.Currency != models.DefaultCurrency {
		t.Errorf("currency = %q, want default %q", g.Currency, models.DefaultCurrency)
	}
	if g.TotalSpent != 0 || g.MembersTotal != 0 {
		t.Errorf("new group rollups = (%v, %d), want zeros", g.TotalSpent, g.MembersTotal)
	}
	if len(g.MemberIDs) != 0 || len(g.ExpenseIDs) != 0 {
		t.Error("new group id lists must be empty")
	}
}

func TestGroupReads_ScopedToOwner(t *testing.T) {
	eng, _, _ := setupEngine(t)
	ctx := context.Background()
	g := seedGroup(t, eng)

	got, err := eng.Group(ctx, testOwner, g.ID)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	if got.ID != g.ID {
		t.Errorf("got group %s, want %s", got.ID, g.ID)
	}

	var nf *NotFoundError
	if _, err := eng.Group(ctx, "someone-else", g.ID); !errors.As(err, &nf) {
		t.Errorf("foreign owner error = %v, want NotFound(group)", err)
	}

	groups, err := eng.Groups(ctx, testOwner)
	if err != nil {
		t.Fatalf("Groups failed: %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("len(groups) = %d, want 1", len(groups))
	}
	if groups, _ := eng.Groups(ctx, "someone-else"); len(groups) != 0 {
		t.Errorf("foreign owner sees %d groups, want 0", len(groups))
	}
}

func TestMembers(t *testing.T) {
	eng, _, _ := setupEngine(t)
	ctx := context.Background()
	g := seedGroup(t, eng)
	seedMember(t, eng, g.ID, "Alice")
	seedMember(t, eng, g.ID, "Bob")

	members, err := eng.Members(ctx, testOwner, g.ID)
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("len(members) = %d, want 2", len(members))
	}

	var nf *NotFoundError
	if _, err := eng.Members(ctx, "someone-else", g.ID); !errors.As(err, &nf) {
		t.Errorf("foreign owner error = %v, want NotFound(group)", err)
	}
}

func TestUpdateGroup(t *testing.T) {
	eng, store, _ := setupEngine(t)
	ctx := context.Background()
	g := seedGroup(t, eng)

	name := "Road trip"
	currency := "USD"
	err := eng.UpdateGroup(ctx, testOwner, g.ID, models.GroupPatch{Name: &name, Currency: &currency})
	if err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}

	gg, err := store.GetGroup(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if gg.Name != name || gg.Currency != currency {
		t.Errorf("group = (%q, %q), want (%q, %q)", gg.Name, gg.Currency, name, currency)
	}
	if gg.Color != g.Color {
		t.Errorf("color = %q, want unchanged %q", gg.Color, g.Color)
	}

	if err := eng.UpdateGroup(ctx, testOwner, g.ID, models.GroupPatch{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty patch error = %v, want ErrInvalidArgument", err)
	}
	var nf *NotFoundError
	if err := eng.UpdateGroup(ctx, "someone-else", g.ID, models.GroupPatch{Name: &name}); !errors.As(err, &nf) {
		t.Errorf("foreign owner error = %v, want NotFound(group)", err)
	}
}

func TestDeleteGroup_Cascade(t *testing.T) {
	eng, store, avatarDir := setupEngine(t)
	ctx := context.Background()
	g := seedGroup(t, eng)
	cat := seedCategory(t, store)

	ref := seedAvatar(t, avatarDir, "avatar-4-alice.png")
	alice, err := eng.CreateMember(ctx, testOwner, g.ID, "Alice", "", ref)
	if err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}
	bob := seedMember(t, eng, g.ID, "Bob")
	if _, err := eng.CreateExpense(ctx, testOwner, g.ID, alice.ID, cat, 12); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if _, err := eng.CreateExpense(ctx, testOwner, g.ID, bob.ID, cat, 30); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	// An unrelated group must be untouched by the cascade.
	other, err := eng.CreateGroup(ctx, testOwner, "Dinner club", "")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	otherMember := seedMember(t, eng, other.ID, "Carol")
	if _, err := eng.CreateExpense(ctx, testOwner, other.ID, otherMember.ID, cat, 7); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	if err := eng.DeleteGroup(ctx, testOwner, g.ID); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}

	var nf *NotFoundError
	if _, err := eng.Group(ctx, testOwner, g.ID); !errors.As(err, &nf) {
		t.Errorf("deleted group read error = %v, want NotFound(group)", err)
	}
	members, err := store.FindMembers(ctx, storage.MemberFilter{GroupID: g.ID})
	if err != nil {
		t.Fatalf("FindMembers failed: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("found %d surviving members, want 0", len(members))
	}
	expenses, err := store.FindExpensesByMembers(ctx, []string{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("FindExpensesByMembers failed: %v", err)
	}
	if len(expenses) != 0 {
		t.Errorf("found %d surviving expenses, want 0", len(expenses))
	}
	if avatarExists(t, avatarDir, ref) {
		t.Error("expected member avatars to be released with the group")
	}

	requireRollups(t, store, other.ID, 7, 1)

	// Re-deleting reports NotFound.
	if err := eng.DeleteGroup(ctx, testOwner, g.ID); !errors.As(err, &nf) {
		t.Errorf("re-delete error = %v, want NotFound(group)", err)
	}
}

func TestDeleteGroup_ForeignOwner(t *testing.T) {
	eng, store, _ := setupEngine(t)
	ctx := context.Background()
	g := seedGroup(t, eng)

	var nf *NotFoundError
	if err := eng.DeleteGroup(ctx, "someone-else", g.ID); !errors.As(err, &nf) {
		t.Fatalf("error = %v, want NotFound(group)", err)
	}
	if _, err := store.GetGroup(ctx, g.ID); err != nil {
		t.Errorf("group must survive a foreign delete, got %v", err)
	}
}
