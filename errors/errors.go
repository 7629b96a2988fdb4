// Package errors defines the errors returned by the structbin codec.
// All of them can be matched with errors.Is, regardless of how many times
// they were wrapped on their way to the caller.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrSchemaMismatch is returned when the shape of a value doesn't match the schema
	// describing it, e.g. an array was expected but a string was found.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrCapacityExceeded is returned when a value cannot be represented with the width
	// implied by its type, e.g. an array longer than what its length prefix can express.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrCorruptStream is returned when decoding data that is truncated, has trailing bytes,
	// or references ids that don't exist. It usually means the encoder and the decoder
	// disagree on the schema or on the layout.
	ErrCorruptStream = errors.New("corrupt stream")

	// ErrUnknownEnumValue is returned in strict mode when a value doesn't belong to
	// the list of values of an enum.
	ErrUnknownEnumValue = errors.New("unknown enum value")

	// ErrAssetLookup is returned when an asset referenced by the stream cannot be loaded.
	ErrAssetLookup = errors.New("asset lookup failed")

	// ErrInvalidSchema is returned when building or parsing a malformed schema.
	ErrInvalidSchema = errors.New("invalid schema")
)

// SchemaMismatchError describes where a value diverged from its schema.
type SchemaMismatchError struct {
	Path     string
	Expected string
	Got      string
}

func (e *SchemaMismatchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schema mismatch: expected %s, got %s", e.Expected, e.Got)
	}

	return fmt.Sprintf("schema mismatch at %s: expected %s, got %s", e.Path, e.Expected, e.Got)
}

// Is makes every SchemaMismatchError match ErrSchemaMismatch.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// NewSchemaMismatch returns a SchemaMismatchError with a stack trace attached.
func NewSchemaMismatch(path, expected string, got any) error {
	return errors.WithStack(&SchemaMismatchError{
		Path:     path,
		Expected: expected,
		Got:      describe(got),
	})
}

// CapacityError describes a value that doesn't fit in the width chosen for it.
type CapacityError struct {
	Path  string
	What  string
	Value uint64
	Max   uint64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded at %q: %s %d doesn't fit, max is %d", e.Path, e.What, e.Value, e.Max)
}

// Is makes every CapacityError match ErrCapacityExceeded.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// NewCapacityExceeded returns a CapacityError with a stack trace attached.
func NewCapacityExceeded(path, what string, value, max uint64) error {
	return errors.WithStack(&CapacityError{
		Path:  path,
		What:  what,
		Value: value,
		Max:   max,
	})
}

// Corruptf returns an error matching ErrCorruptStream.
func Corruptf(format string, args ...any) error {
	return errors.Wrapf(ErrCorruptStream, format, args...)
}

func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

func IsCapacityExceeded(err error) bool {
	return errors.Is(err, ErrCapacityExceeded)
}

func IsCorruptStream(err error) bool {
	return errors.Is(err, ErrCorruptStream)
}

func describe(v any) string {
	if v == nil {
		return "nil"
	}

	return fmt.Sprintf("%T", v)
}
