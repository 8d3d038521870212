package model

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBody indicates a document without any content after its front-matter.
	ErrEmptyBody = errors.New("empty body")
	// ErrMissingDate indicates a post whose date can neither be taken from its front-matter nor from its file name.
	ErrMissingDate = errors.New("missing date")
	// ErrInvalidDate indicates a date that could not be parsed.
	ErrInvalidDate = errors.New("invalid date")
	// ErrDuplicatePath indicates that two sources resolve to the same output path.
	ErrDuplicatePath = errors.New("duplicate output path")
)

// DocumentError attaches the path of the offending source file to an error.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err.Error())
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// DuplicatePathError is returned when First and Second both resolve to Output.
type DuplicatePathError struct {
	Output        string
	First, Second string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("%s: %s and %s both resolve to %q", ErrDuplicatePath.Error(), e.First, e.Second, e.Output)
}

func (e *DuplicatePathError) Unwrap() error {
	return ErrDuplicatePath
}
