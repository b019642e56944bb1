package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDocument means a document has neither an uploaded binary nor a linked URL.
	ErrNoDocument = errors.New("no pdf available for document")
	// ErrFileRequired is returned when a file operation receives no content.
	ErrFileRequired = errors.New("file is required")
)

// ValidationError reports bad user input. It is always raised before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// RemoteError reports a read or write the remote store rejected or could not complete.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// NotFoundError reports an operation on an id the remote store does not know.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %s not found", e.ID)
}

// UploadError reports an object store failure while transferring a binary.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
