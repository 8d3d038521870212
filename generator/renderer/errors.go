package renderer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLayout indicates a layout name without registered template.
var ErrUnknownLayout = errors.New("unknown layout")

// ErrNoLayouts indicates a layout directory without any templates.
var ErrNoLayouts = errors.New("no layouts found")

// UnknownLayoutError names the document that requested an unregistered layout.
type UnknownLayoutError struct {
	Path   string
	Layout string
	// Known lists the available layouts.
	Known []string
}

func (e *UnknownLayoutError) Error() string {
	return fmt.Sprintf("%s: %s %q, known layouts: %s", e.Path, ErrUnknownLayout.Error(), e.Layout, strings.Join(e.Known, ", "))
}

func (e *UnknownLayoutError) Unwrap() error {
	return ErrUnknownLayout
}

// RenderError wraps a failure to convert or lay out the document at Path.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s failed: %s", e.Path, e.Err.Error())
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
