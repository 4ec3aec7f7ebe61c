package coff

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFlag indicates a symbolic name missing from its table.
	ErrUnknownFlag = errors.New("unknown flag")
	// ErrNotFound indicates a string table lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrMalformedInput indicates a description that cannot be parsed.
	ErrMalformedInput = errors.New("malformed input")
)

// A LayoutError is an error resolving one field of one record.
type LayoutError struct {
	Entity string // "header", "section" or "symbol"
	Index  int    // index of the record in the description
	Field  string
	Err    error
}

func (e *LayoutError) Error() string {
	if e.Entity == "header" {
		return fmt.Sprintf("header: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %d: %s: %v", e.Entity, e.Index, e.Field, e.Err)
}

func (e *LayoutError) Unwrap() error {
	return e.Err
}

// malformed returns an ErrMalformedInput error for the given YAML line.
func malformed(line int, format string, a ...interface{}) error {
	return fmt.Errorf("line %d: %s: %w", line, fmt.Sprintf(format, a...), ErrMalformedInput)
}
