package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSentinelsMatchWrappedErrors(t *testing.T) {
	err := fmt.Errorf("analyze: %w", Validation("validate", "Missing required files/directories: package.json", "package.json"))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrExtraction))

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindValidation, kind)
	assert.Equal(t, "Missing required files/directories: package.json", Public(err))
}

func TestMalformedMessages(t *testing.T) {
	cases := map[DecodeClass]string{
		DecodeDepth:       "Invalid JSON: Maximum stack depth exceeded",
		DecodeControlChar: "Invalid JSON: Unexpected control character found",
		DecodeSyntax:      "Invalid JSON: Syntax error, malformed JSON",
		DecodeEncoding:    "Invalid JSON: Malformed UTF-8 characters",
		DecodeUnknown:     "Invalid JSON: Unknown JSON error",
	}
	for class, want := range cases {
		err := Malformed("export", class, errors.New("cause"))
		assert.Equal(t, want, Public(err))
		assert.True(t, errors.Is(err, ErrMalformedInput))
	}
}

func TestCollaboratorKeepsCause(t *testing.T) {
	cause := errors.New("registry offline")
	err := Collaborator("install", cause)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrCollaborator))
	assert.Nil(t, Collaborator("noop", nil))
}
