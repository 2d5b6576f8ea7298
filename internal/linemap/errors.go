package linemap

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched (via errors.Is) by errors for paths that do
// not resolve to readable content.
var ErrNotFound = errors.New("source not found")

// ErrUnsupported is returned for files in a language with no mapper.
var ErrUnsupported = errors.New("unsupported language")

// ParseError reports source text that is not syntactically valid.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// NotFoundError reports an unreadable source path.
type NotFoundError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Is makes every NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
