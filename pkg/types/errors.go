package types

import (
	"errors"
	"fmt"
	"strings"
)

// Validation and schema errors.
var (
	ErrValidation  = errors.New("value failed validation")
	ErrBadSchema   = errors.New("schema is malformed")
	ErrUnknownType = errors.New("unknown item type")
)

// EnforceError reports a single value that failed an entry's enforcement
// rule. It matches ErrValidation under errors.Is and unwraps to the
// underlying cause, if any.
type EnforceError struct {
	Key   string // entry key the value was destined for
	Value any    // the offending value
	Doc   string // the entry's EnforceDoc, if declared
	Err   error  // underlying cause (parse failure etc.), may be nil
}

func (e *EnforceError) Error() string {
	msg := fmt.Sprintf("entry %q rejected %v", e.Key, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Doc != "" {
		msg += " (" + e.Doc + ")"
	}
	return msg
}

func (e *EnforceError) Unwrap() error { return e.Err }

func (e *EnforceError) Is(target error) bool { return target == ErrValidation }

// MissingError reports mandatory entries left unset on an Item at
// validation time. It matches ErrValidation under errors.Is.
type MissingError struct {
	Schema string   // schema name of the item
	Fields []string // keys of the unset mandatory entries
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing mandatory information (%s) for %s",
		strings.Join(e.Fields, ", "), e.Schema)
}

func (e *MissingError) Is(target error) bool { return target == ErrValidation }
