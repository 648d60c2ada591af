package models

import "fmt"

// ProjectLabel formats a project code the way error messages and reports show it.
func ProjectLabel(code byte) string {
	return fmt.Sprintf("project 0x%02X", code)
}

// MapFormatError indicates a map source that cannot produce a valid MapDefinition.
type MapFormatError struct {
	Map    string
	Field  string
	Reason string
}

func (e *MapFormatError) Error() string {
	switch {
	case e.Map != "" && e.Field != "":
		return fmt.Sprintf("map format: %s: field %s: %s", e.Map, e.Field, e.Reason)
	case e.Map != "":
		return fmt.Sprintf("map format: %s: %s", e.Map, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("map format: field %s: %s", e.Field, e.Reason)
	default:
		return "map format: " + e.Reason
	}
}

// UnknownProjectError indicates that no loaded map matches a blob's project code.
type UnknownProjectError struct {
	Code byte
}

func (e *UnknownProjectError) Error() string {
	return fmt.Sprintf("unsupported project code 0x%02X (%d)", e.Code, e.Code)
}

// RangeError indicates a bit run that does not fit the buffer or is malformed.
type RangeError struct {
	ByteOffset int
	BitOffset  uint
	BitWidth   uint
	BufferLen  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("bit range byte %d bit %d width %d is outside a %d-byte buffer",
		e.ByteOffset, e.BitOffset, e.BitWidth, e.BufferLen)
}

// ValueOverflowError indicates a value that does not fit its field width.
type ValueOverflowError struct {
	Field    string
	Value    string
	BitWidth uint
}

func (e *ValueOverflowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("value %s does not fit in %d bits", e.Value, e.BitWidth)
	}
	return fmt.Sprintf("property %s: value %s does not fit in %d bits", e.Field, e.Value, e.BitWidth)
}

// BlobLengthError indicates a blob whose size disagrees with its map.
type BlobLengthError struct {
	Expected int
	Actual   int
}

func (e *BlobLengthError) Error() string {
	return fmt.Sprintf("config size %d should be %d", e.Actual, e.Expected)
}

// TypeMismatchError indicates a table value whose kind differs from its field's kind.
type TypeMismatchError struct {
	Field    string
	Expected ValueKind
	Actual   ValueKind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("property %s: expected %s value, got %s", e.Field, e.Expected, e.Actual)
}

// MissingFieldError indicates a table that lacks a value for a mapped field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("property %s has no value", e.Field)
}

// UnknownPropertyError indicates a name that the selected map does not define.
type UnknownPropertyError struct {
	Name string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("property '%s' not found in map", e.Name)
}

// ParseError indicates malformed assignment or text input. Line is 1-based
// and zero when the input did not come from a line-oriented source.
type ParseError struct {
	Line   int
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %q: %s", e.Line, e.Input, e.Reason)
	}
	return fmt.Sprintf("%q: %s", e.Input, e.Reason)
}
