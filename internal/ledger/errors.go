package ledger

import (
	"errors"
	"fmt"
)

// Entity names used in NotFoundError.
const (
	EntityGroup    = "group"
	EntityMember   = "member"
	EntityExpense  = "expense"
	EntityCategory = "category"
)

// NotFoundError reports that a record an operation depends on is absent or
// not visible to the calling principal. It is always detected before any
// mutating write.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s is not found", e.Entity)
}

func notFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ErrInvalidArgument reports a malformed input (non-positive amount, empty
// patch). Detected before any mutating write.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrConflict reports that an operation kept losing conditional writes to
// concurrent writers until its retry budget ran out. The ledger is left in
// its pre-operation state.
var ErrConflict = errors.New("too many conflicting concurrent updates")

// StorageError reports an underlying store failure. When Unrecovered is set,
// a mid-sequence failure occurred and compensation also failed, so the
// group's rollups may disagree with its records and the caller should alert.
type StorageError struct {
	Op          string
	Unrecovered bool
	Err         error
}

func (e *StorageError) Error() string {
	if e.Unrecovered {
		return fmt.Sprintf("%s: storage failure, compensation failed, rollups may be inconsistent: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: storage failure: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
