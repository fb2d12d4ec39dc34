package types

import (
	"errors"
	"fmt"
)

// Store operation errors.
var (
	ErrIO            = errors.New("i/o failure")
	ErrEncode        = errors.New("encode failed")
	ErrDecode        = errors.New("decode failed")
	ErrNotFound      = errors.New("entry not found")
	ErrLinkNotFound  = errors.New("linked entry not found")
	ErrInvalidName   = errors.New("invalid entry name")
	ErrWriteConflict = errors.New("entry already exists")
	ErrNotDirectory  = errors.New("root is not a directory")
	ErrNilEntry      = errors.New("entry must not be nil")
)

// Type dispatch errors.
var (
	ErrTypeMismatch = errors.New("stored type does not match requested type")
	ErrUnknownType  = errors.New("type is not registered")
	ErrLinkCycle    = errors.New("link cycle")
	ErrEnvelope     = errors.New("malformed envelope")
)

// Operation names carried by EntryError.
const (
	OpEncode = "encode"
	OpDecode = "decode"
	OpRead   = "read"
	OpWrite  = "write"
	OpRemove = "remove"
)

// EntryError tags a failure with the entry it concerns. Errors from nested
// components stay reachable through Unwrap, so errors.Is(err,
// ErrLinkNotFound) holds at any nesting depth.
type EntryError struct {
	Op   string // One of the Op constants.
	Type string // Entry type name.
	Name string // Entry name.
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Type, e.Name, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// NewEntryError returns an EntryError whose cause matches both kind and err
// under errors.Is. kind is usually one of the sentinels above.
func NewEntryError(op, typeName, name string, kind, err error) *EntryError {
	cause := kind
	if err != nil && !errors.Is(err, kind) {
		cause = fmt.Errorf("%w: %w", kind, err)
	} else if err != nil {
		cause = err
	}
	return &EntryError{Op: op, Type: typeName, Name: name, Err: cause}
}
