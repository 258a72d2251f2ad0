package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spendbook/spendbook/internal/models"
	"github.com/spendbook/spendbook/internal/storage"
)

// CreateGroup inserts a new, empty group owned by the given principal.
// Rollups start at zero and the currency defaults when empty.
func (e *Engine) CreateGroup(ctx context.Context, owner, name, color string) (*models.Group, error) {
	group := &models.Group{
		Owner: owner,
		Name:  name,
		Color: color,
	}
	err := e.mutate(ctx, "create_group", nil, func(ctx context.Context, undo *undoStack) error {
		return e.store.InsertGroup(ctx, group)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "name", name)
	return group, nil
}

// Group retrieves a group by id, scoped to its owner.
func (e *Engine) Group(ctx context.Context, owner, groupID string) (*models.Group, error) {
	g, err := e.getOwnedGroup(ctx, groupID, owner)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, &StorageError{Op: "get_group", Err: err}
	}
	return g, nil
}

// Groups retrieves all groups of the given owner.
func (e *Engine) Groups(ctx context.Context, owner string) ([]*models.Group, error) {
	groups, err := e.store.ListGroups(ctx, owner)
	if err != nil {
		return nil, &StorageError{Op: "list_groups", Err: err}
	}
	return groups, nil
}

// Members retrieves all members of an owned group.
func (e *Engine) Members(ctx context.Context, owner, groupID string) ([]*models.Member, error) {
	if _, err := e.getOwnedGroup(ctx, groupID, owner); err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, &StorageError{Op: "list_members", Err: err}
	}
	members, err := e.store.FindMembers(ctx, storage.MemberFilter{GroupID: groupID})
	if err != nil {
		return nil, &StorageError{Op: "list_members", Err: err}
	}
	return members, nil
}

// UpdateGroup applies a partial update to a group's descriptive fields
// (name, color, currency). Rollups are not patchable.
func (e *Engine) UpdateGroup(ctx context.Context, owner, groupID string, patch models.GroupPatch) error {
	if patch.Empty() {
		return fmt.Errorf("no fields to update: %w", ErrInvalidArgument)
	}

	err := e.mutate(ctx, "update_group", []string{groupID}, func(ctx context.Context, undo *undoStack) error {
		g, err := e.getOwnedGroup(ctx, groupID, owner)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			g.Name = *patch.Name
		}
		if patch.Color != nil {
			g.Color = *patch.Color
		}
		if patch.Currency != nil {
			g.Currency = *patch.Currency
		}
		if err := e.store.UpdateGroup(ctx, g); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return notFound(EntityGroup)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Group updated", "group_id", groupID)
	return nil
}

// DeleteGroup removes the group and cascades to everything it owns: the
// group record is deleted first, then all of its members with their
// expenses and avatars, per the bulk member-delete semantics. The group's
// own rollups need no adjustment since the record is gone.
func (e *Engine) DeleteGroup(ctx context.Context, owner, groupID string) error {
	err := e.mutate(ctx, "delete_group", []string{groupID}, func(ctx context.Context, undo *undoStack) error {
		g, err := e.getOwnedGroup(ctx, groupID, owner)
		if err != nil {
			return err
		}

		if err := e.store.DeleteGroup(ctx, g.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return notFound(EntityGroup)
			}
			return err
		}
		undo.push(func(ctx context.Context) error {
			return e.store.InsertGroup(ctx, g)
		})

		members, err := e.store.FindMembers(ctx, storage.MemberFilter{GroupID: g.ID})
		if err != nil {
			return err
		}
		return e.removeMembers(ctx, undo, owner, members)
	})
	if err != nil {
		return err
	}

	slog.Info("Group deleted", "group_id", groupID)
	return nil
}
