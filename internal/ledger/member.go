package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/spendbook/spendbook/internal/models"
	"github.com/spendbook/spendbook/internal/rollup"
	"github.com/spendbook/spendbook/internal/storage"
)

// CreateMember inserts a new member under the group, appends its id to the
// group's member list and increments members_total. An empty avatar
// reference defaults to the shared placeholder.
func (e *Engine) CreateMember(ctx context.Context, owner, groupID, name, color, avatarRef string) (*models.Member, error) {
	var member *models.Member
	err := e.mutate(ctx, "create_member", []string{groupID}, func(ctx context.Context, undo *undoStack) error {
		g, err := e.getOwnedGroup(ctx, groupID, owner)
		if err != nil {
			return err
		}

		member = &models.Member{
			GroupID: g.ID,
			Name:    name,
			Color:   color,
			Avatar:  avatarRef,
		}
		if err := e.store.InsertMember(ctx, member); err != nil {
			return err
		}
		undo.push(func(ctx context.Context) error {
			return e.store.DeleteMember(ctx, member.ID)
		})

		g.MembersTotal++
		g.MemberIDs = append(g.MemberIDs, member.ID)
		if err := e.store.UpdateGroup(ctx, g); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return notFound(EntityGroup)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Member created", "member_id", member.ID, "group_id", groupID, "name", name)
	return member, nil
}

// UpdateMember applies a partial update to a member's descriptive fields.
// Replacing the avatar releases the previous one unless it is the shared
// placeholder.
func (e *Engine) UpdateMember(ctx context.Context, owner, groupID, memberID string, patch models.MemberPatch) error {
	if patch.Empty() {
		return fmt.Errorf("no fields to update: %w", ErrInvalidArgument)
	}

	err := e.mutate(ctx, "update_member", []string{groupID}, func(ctx context.Context, undo *undoStack) error {
		if _, err := e.getOwnedGroup(ctx, groupID, owner); err != nil {
			return err
		}
		m, err := e.getGroupMember(ctx, memberID, groupID)
		if err != nil {
			return err
		}

		if patch.Avatar != nil && *patch.Avatar != m.Avatar {
			if err := e.avatars.Release(ctx, m.Avatar); err != nil {
				return err
			}
		}

		if patch.Name != nil {
			m.Name = *patch.Name
		}
		if patch.Color != nil {
			m.Color = *patch.Color
		}
		if patch.Avatar != nil {
			m.Avatar = *patch.Avatar
		}
		if err := e.store.UpdateMember(ctx, m); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return notFound(EntityMember)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Member updated", "member_id", memberID, "group_id", groupID)
	return nil
}

// DeleteMember removes the member and everything that exists only in
// relation to it: its avatar is released (placeholder excepted), all of its
// expenses are deleted with one aggregated rollup write on the group, the
// member record is deleted, and the group's members_total and member list
// are adjusted.
func (e *Engine) DeleteMember(ctx context.Context, owner, groupID, memberID string) error {
	err := e.mutate(ctx, "delete_member", []string{groupID}, func(ctx context.Context, undo *undoStack) error {
		if _, err := e.getOwnedGroup(ctx, groupID, owner); err != nil {
			return err
		}
		m, err := e.getGroupMember(ctx, memberID, groupID)
		if err != nil {
			return err
		}
		return e.removeMembers(ctx, undo, owner, []*models.Member{m})
	})
	if err != nil {
		return err
	}

	slog.Info("Member deleted", "member_id", memberID, "group_id", groupID)
	return nil
}

// DeleteMembersMatching removes every member matching the filter, with the
// same cascade semantics as DeleteMember computed in aggregate: expenses are
// deleted in one bulk operation and each affected group receives a single
// combined write adjusting total_spent, members_total and both id lists.
// Members whose group is not owned by the caller are skipped. Matching
// nothing is a no-op, not an error. Returns the number of members removed.
func (e *Engine) DeleteMembersMatching(ctx context.Context, owner string, f storage.MemberFilter) (int, error) {
	// Discover the affected groups first so their locks can be taken before
	// the authoritative read.
	matched, err := e.store.FindMembers(ctx, f)
	if err != nil {
		return 0, &StorageError{Op: "delete_members", Err: err}
	}
	if len(matched) == 0 {
		return 0, nil
	}
	groupIDs := make([]string, 0, len(matched))
	for _, m := range matched {
		groupIDs = append(groupIDs, m.GroupID)
	}

	var removed int
	err = e.mutate(ctx, "delete_members", groupIDs, func(ctx context.Context, undo *undoStack) error {
		members, err := e.store.FindMembers(ctx, f)
		if err != nil {
			return err
		}

		// Drop members of groups the caller does not own, and members whose
		// group was not covered by the pre-lock discovery (created
		// concurrently; the next call picks them up).
		locked := make(map[string]struct{}, len(groupIDs))
		for _, id := range groupIDs {
			locked[id] = struct{}{}
		}
		owned := make(map[string]bool)
		kept := members[:0]
		for _, m := range members {
			if _, ok := locked[m.GroupID]; !ok {
				continue
			}
			own, checked := owned[m.GroupID]
			if !checked {
				_, err := e.store.GetOwnedGroup(ctx, m.GroupID, owner)
				switch {
				case err == nil:
					own = true
				case errors.Is(err, storage.ErrNotFound):
					own = false
				default:
					return err
				}
				owned[m.GroupID] = own
			}
			if own {
				kept = append(kept, m)
			}
		}

		removed = len(kept)
		return e.removeMembers(ctx, undo, owner, kept)
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Members deleted", "count", removed)
	return removed, nil
}

// removeMembers is the shared cascade: it releases the members' avatars,
// bulk-deletes their expenses, deletes the member records and applies one
// aggregated rollup write per owning group that still exists. Callers hold
// the locks of every involved group.
func (e *Engine) removeMembers(ctx context.Context, undo *undoStack, owner string, members []*models.Member) error {
	if len(members) == 0 {
		return nil
	}

	ids := make([]string, len(members))
	byGroup := make(map[string][]*models.Member)
	for i, m := range members {
		ids[i] = m.ID
		byGroup[m.GroupID] = append(byGroup[m.GroupID], m)
	}

	expenses, err := e.store.FindExpensesByMembers(ctx, ids)
	if err != nil {
		return err
	}
	bd := rollup.ForBulkDelete(expenses)

	// Avatar releases are not part of the rollup invariants and cannot be
	// undone; they run first, concurrently, and re-running them after a
	// retry is a no-op.
	eg, egCtx := errgroup.WithContext(ctx)
	for _, m := range members {
		eg.Go(func() error {
			return e.avatars.Release(egCtx, m.Avatar)
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to release avatars: %w", err)
	}

	if len(expenses) > 0 {
		expenseIDs := make([]string, len(expenses))
		for i, exp := range expenses {
			expenseIDs[i] = exp.ID
		}
		if _, err := e.store.DeleteExpenses(ctx, expenseIDs); err != nil {
			return err
		}
		undo.push(func(ctx context.Context) error {
			for i := range expenses {
				if err := e.store.InsertExpense(ctx, &expenses[i]); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if _, err := e.store.DeleteMembers(ctx, ids); err != nil {
		return err
	}
	undo.push(func(ctx context.Context) error {
		for _, m := range members {
			if err := e.store.InsertMember(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})

	// One combined write per affected group. Groups that are gone (their
	// own cascade is in flight) are tolerated; so are groups only reachable
	// through a dangling expense reference.
	groupIDs := make(map[string]struct{}, len(byGroup))
	for gid := range byGroup {
		groupIDs[gid] = struct{}{}
	}
	for gid := range bd.PerGroup {
		groupIDs[gid] = struct{}{}
	}

	for gid := range groupIDs {
		groupMembers := byGroup[gid]
		memberIDs := make([]string, len(groupMembers))
		for i, m := range groupMembers {
			memberIDs[i] = m.ID
		}
		totalDelta := bd.PerGroup[gid]
		expenseIDs := bd.ExpenseIDsByGroup[gid]

		g, err := e.store.GetOwnedGroup(ctx, gid, owner)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}

		g.MembersTotal -= len(groupMembers)
		g.MemberIDs = removeIDs(g.MemberIDs, memberIDs)
		g.TotalSpent += totalDelta
		g.ExpenseIDs = removeIDs(g.ExpenseIDs, expenseIDs)
		if err := e.store.UpdateGroup(ctx, g); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return err
		}
		undo.push(func(ctx context.Context) error {
			return e.adjustGroup(ctx, gid, func(g *models.Group) {
				g.MembersTotal += len(memberIDs)
				g.MemberIDs = append(g.MemberIDs, memberIDs...)
				g.TotalSpent -= totalDelta
				g.ExpenseIDs = append(g.ExpenseIDs, expenseIDs...)
			})
		})
	}
	return nil
}
