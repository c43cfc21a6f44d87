package mylar

import (
	"errors"
	"fmt"

	"github.com/comicbridge/comicbridge/internal/domain"
)

// Sentinel errors for Mylar API operations.
var (
	// ErrPlaceholder means downloadIssue served no file for the issue. Mylar
	// answers with a JSON body, or with no filename, for issues it has not
	// downloaded yet.
	ErrPlaceholder = domain.ErrPlaceholder
	ErrNotFound    = errors.New("mylar: not found")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // Command: "getIndex", "getComic", "downloadIssue"
	ID  string // If applicable
	Err error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("mylar %s [%s]: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("mylar %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, id string, err error) error {
	return &Error{
		Op:  op,
		ID:  id,
		Err: err,
	}
}
