// Package ledger implements the consistency engine for the group-expense
// ledger: the operations that create, reassign and delete expenses, members
// and groups while keeping every denormalized rollup (total_spent,
// members_total, id lists) in agreement with the underlying records.
//
// # Consistency discipline
//
// Every mutating operation runs under the per-group lock of each group it
// touches, so read-modify-write sequences against the same group never
// interleave in-process. On top of that, group and member writes are
// conditional on the record version read during the attempt; a lost write
// (for example to an external process sharing the database) unwinds the
// attempt's compensating steps and retries the whole operation up to a fixed
// budget before surfacing ErrConflict.
//
// Precondition failures (NotFoundError, ErrInvalidArgument) are detected
// before the first write. A store failure after the first write triggers the
// compensation stack; if compensation itself fails the error escalates as
// StorageError{Unrecovered: true} so the caller can alert instead of
// trusting a corrupted rollup.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spendbook/spendbook/internal/avatar"
	"github.com/spendbook/spendbook/internal/models"
	"github.com/spendbook/spendbook/internal/storage"
)

const defaultMaxAttempts = 3

// Engine orchestrates record-store operations to keep group, member and
// expense rollups consistent.
type Engine struct {
	store       storage.Store
	avatars     avatar.Store
	locks       *keyedMutex
	metrics     *metrics
	maxAttempts int
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	registerer  prometheus.Registerer
	maxAttempts int
}

// WithRegisterer registers the engine's metrics with reg instead of the
// default Prometheus registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *engineOptions) { o.registerer = reg }
}

// WithMaxAttempts overrides the conditional-write retry budget.
func WithMaxAttempts(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// New creates an Engine over the given record store and avatar blob store.
func New(store storage.Store, avatars avatar.Store, opts ...Option) *Engine {
	o := engineOptions{
		registerer:  prometheus.DefaultRegisterer,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		store:       store,
		avatars:     avatars,
		locks:       newKeyedMutex(),
		metrics:     newMetrics(o.registerer),
		maxAttempts: o.maxAttempts,
	}
}

// undoStack accumulates compensating writes for one attempt. Steps run in
// reverse order on unwind.
type undoStack struct {
	steps []func(context.Context) error
}

func (u *undoStack) push(step func(context.Context) error) {
	u.steps = append(u.steps, step)
}

func (u *undoStack) unwind(ctx context.Context) error {
	// Compensation must finish even when the caller has gone away.
	ctx = context.WithoutCancel(ctx)
	for i := len(u.steps) - 1; i >= 0; i-- {
		if err := u.steps[i](ctx); err != nil {
			return err
		}
	}
	return nil
}

// mutate runs one mutating operation: it takes the per-group locks, runs fn
// with a fresh compensation stack per attempt, unwinds on failure, retries
// version conflicts up to the budget and records the outcome.
func (e *Engine) mutate(ctx context.Context, op string, groupIDs []string, fn func(ctx context.Context, undo *undoStack) error) (err error) {
	defer func() { e.metrics.observe(op, err) }()

	unlock := e.locks.lock(groupIDs)
	defer unlock()

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		undo := &undoStack{}
		err = fn(ctx, undo)
		if err == nil {
			return nil
		}

		if uerr := undo.unwind(ctx); uerr != nil {
			err = &StorageError{Op: op, Unrecovered: true, Err: errors.Join(err, uerr)}
			slog.Error("Compensation failed, rollups may be inconsistent", "op", op, "error", err)
			return err
		}

		if !errors.Is(err, storage.ErrVersionConflict) {
			err = e.classify(op, err)
			return err
		}

		e.metrics.conflictRetries.Inc()
		slog.Warn("Conditional write lost, retrying operation", "op", op, "attempt", attempt+1)
	}

	err = fmt.Errorf("%s: %w", op, ErrConflict)
	return err
}

// classify maps attempt errors onto the public taxonomy. Precondition
// failures pass through; everything else is a storage failure.
func (e *Engine) classify(op string, err error) error {
	if IsNotFound(err) || errors.Is(err, ErrInvalidArgument) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// getOwnedGroup reads a group scoped to its owner, translating a storage
// miss into the public not-found error.
func (e *Engine) getOwnedGroup(ctx context.Context, id, owner string) (*models.Group, error) {
	g, err := e.store.GetOwnedGroup(ctx, id, owner)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFound(EntityGroup)
	}
	return g, err
}

// getGroupMember reads a member scoped to its group, translating a storage
// miss into the public not-found error.
func (e *Engine) getGroupMember(ctx context.Context, id, groupID string) (*models.Member, error) {
	m, err := e.store.GetGroupMember(ctx, id, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFound(EntityMember)
	}
	return m, err
}

// adjustGroup re-reads the group and applies fn under a conditional write,
// retrying lost writes. Used for compensation, where the version read during
// the failed attempt is already stale. A group that no longer exists is
// tolerated.
func (e *Engine) adjustGroup(ctx context.Context, id string, fn func(*models.Group)) error {
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		g, err := e.store.GetGroup(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(g)
		err = e.store.UpdateGroup(ctx, g)
		if err == nil || errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return err
		}
	}
	return storage.ErrVersionConflict
}

// adjustMember is the member-side counterpart of adjustGroup. The member is
// looked up within its group to keep the scoping uniform.
func (e *Engine) adjustMember(ctx context.Context, id, groupID string, fn func(*models.Member)) error {
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		m, err := e.store.GetGroupMember(ctx, id, groupID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(m)
		err = e.store.UpdateMember(ctx, m)
		if err == nil || errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return err
		}
	}
	return storage.ErrVersionConflict
}

// removeID returns ids without the first occurrence of id.
func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

// removeIDs returns ids without any of the given set, preserving order.
func removeIDs(ids []string, remove []string) []string {
	if len(remove) == 0 {
		return ids
	}
	drop := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	kept := ids[:0:0]
	for _, id := range ids {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	return kept
}
