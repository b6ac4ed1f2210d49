package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"l2wp/internal/apperr"
)

// MaxDepth is the deepest nesting Decode accepts.
const MaxDepth = 512

// MarshalNoEscape encodes v into JSON without escaping <, >, & into \u003c, etc.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalNoEscapeIndent is MarshalNoEscape with indentation.
func MarshalNoEscapeIndent(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode unmarshals data into v. Failures come back as apperr MalformedInput
// errors tagged with a decode classification.
func Decode(op string, data []byte, v any) error {
	if class, bad := precheck(data); bad {
		return apperr.Malformed(op, class, nil)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.Malformed(op, Classify(err), err)
	}
	return nil
}

// Classify maps an encoding/json error onto a decode class.
func Classify(err error) apperr.DecodeClass {
	if err == nil {
		return ""
	}
	var syn *json.SyntaxError
	switch {
	case strings.Contains(err.Error(), "exceeded max depth"):
		return apperr.DecodeDepth
	case errors.As(err, &syn):
		if strings.Contains(syn.Error(), "in string literal") {
			return apperr.DecodeControlChar
		}
		return apperr.DecodeSyntax
	case errors.Is(err, io.ErrUnexpectedEOF):
		return apperr.DecodeSyntax
	default:
		return apperr.DecodeUnknown
	}
}

// precheck catches what encoding/json tolerates or reports late: invalid
// UTF-8 (silently replaced by the decoder) and excessive nesting.
func precheck(data []byte) (apperr.DecodeClass, bool) {
	if !utf8.Valid(data) {
		return apperr.DecodeEncoding, true
	}
	depth := 0
	inString := false
	escaped := false
	for _, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth > MaxDepth {
				return apperr.DecodeDepth, true
			}
		case '}', ']':
			depth--
		}
	}
	return "", false
}
