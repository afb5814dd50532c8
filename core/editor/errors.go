package editor

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownField      = errors.New("editor: unknown field")
	ErrInvalidValue      = errors.New("editor: invalid field value")
	ErrUnknownAttachment = errors.New("editor: unknown attachment kind")
	ErrUnknownAction     = errors.New("editor: unknown submit action")
	ErrSubmitInProgress  = errors.New("editor: submission already in progress")
	ErrSessionClosed     = errors.New("editor: session closed")
)

// ValidationError is a required field left empty or an attachment that does
// not meet its constraints. Only the first failing rule is reported.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// UploadError means an attachment could not be hosted. Nothing was sent to the
// CMS when it is returned.
type UploadError struct {
	Kind AttachmentKind
	Err  error
}

func (e *UploadError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("upload %s: %v", e.Kind, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// MutationError is a failed create or update. Message is safe to show.
type MutationError struct {
	Message string
	Err     error
}

func (e *MutationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "mutation: " + e.Message
}

func (e *MutationError) Unwrap() error { return e.Err }
