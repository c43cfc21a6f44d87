package kapowarr

import (
	"errors"
	"fmt"
)

// Sentinel errors for Kapowarr operations.
var (
	ErrNotFound     = errors.New("kapowarr: not found")
	ErrNoFolder     = errors.New("kapowarr: volume has no folder")
	ErrEmptyFile    = errors.New("kapowarr: refusing to store empty file")
	ErrOutsideRoot  = errors.New("kapowarr: target path escapes root")
	ErrInvalidInput = errors.New("kapowarr: invalid input")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op       string // Operation: "listVolumes", "addVolume", "storeFile"
	VolumeID string // If applicable
	Err      error
}

func (e *Error) Error() string {
	if e.VolumeID != "" {
		return fmt.Sprintf("kapowarr %s [volume %s]: %v", e.Op, e.VolumeID, e.Err)
	}
	return fmt.Sprintf("kapowarr %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, volumeID string, err error) error {
	return &Error{Op: op, VolumeID: volumeID, Err: err}
}
