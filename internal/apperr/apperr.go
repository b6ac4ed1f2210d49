// Package apperr defines the error kinds surfaced by the conversion pipeline.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindFileNotFound   Kind = "file_not_found"
	KindValidation     Kind = "validation"
	KindExtraction     Kind = "extraction"
	KindMalformedInput Kind = "malformed_input"
	KindNotFound       Kind = "not_found"
	KindCollaborator   Kind = "collaborator"
)

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrFileNotFound   = &Error{Kind: KindFileNotFound}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrExtraction     = &Error{Kind: KindExtraction}
	ErrMalformedInput = &Error{Kind: KindMalformedInput}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrCollaborator   = &Error{Kind: KindCollaborator}
)

// DecodeClass classifies JSON decode failures.
type DecodeClass string

const (
	DecodeDepth       DecodeClass = "depth"
	DecodeControlChar DecodeClass = "control-character"
	DecodeSyntax      DecodeClass = "syntax"
	DecodeEncoding    DecodeClass = "encoding"
	DecodeUnknown     DecodeClass = "unknown"
)

// Message is the user-facing text for the class.
func (c DecodeClass) Message() string {
	switch c {
	case DecodeDepth:
		return "Maximum stack depth exceeded"
	case DecodeControlChar:
		return "Unexpected control character found"
	case DecodeSyntax:
		return "Syntax error, malformed JSON"
	case DecodeEncoding:
		return "Malformed UTF-8 characters"
	default:
		return "Unknown JSON error"
	}
}

type Error struct {
	Kind   Kind
	Op     string
	Msg    string
	Items  []string
	Decode DecodeClass
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Kind == KindMalformedInput && e.Decode != "":
		b.WriteString("Invalid JSON: ")
		b.WriteString(e.Decode.Message())
	default:
		b.WriteString(string(e.Kind))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == "" && t.Err == nil
}

func FileNotFound(op, path string) error {
	return &Error{Kind: KindFileNotFound, Op: op, Msg: fmt.Sprintf("file not found: %s", path), Items: []string{path}}
}

// Validation builds a validation error naming every offending item.
func Validation(op, msg string, items ...string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg, Items: items}
}

func Extraction(op string, err error) error {
	return &Error{Kind: KindExtraction, Op: op, Msg: "archive is corrupt or unreadable", Err: err}
}

func Malformed(op string, class DecodeClass, err error) error {
	return &Error{Kind: KindMalformedInput, Op: op, Decode: class, Err: err}
}

func NotFound(op, what, name string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf("unknown %s: %s", what, name), Items: []string{name}}
}

// Collaborator wraps a failure from an external collaborator unchanged.
func Collaborator(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindCollaborator, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Public returns the message meant for end users: the message of the first
// *Error in the chain without operation prefixes, or err.Error().
func Public(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Kind == KindMalformedInput && e.Decode != "" {
		return "Invalid JSON: " + e.Decode.Message()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}
