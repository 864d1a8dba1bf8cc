package jserr

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/jsengine/internal/value"
)

func TestWrapJSON(t *testing.T) {
	err := Wrap(CodeIO, "could not read source", errors.New("no such file"))
	raw := err.JSON()
	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, string(CodeIO), decoded["code"])
	assert.Equal(t, "could not read source", decoded["message"])
	assert.Equal(t, "could not read source: no such file", err.Error())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(Wrap(CodeSyntax, "unexpected token", nil)))
	assert.Equal(t, 3, ExitCode(Wrap(CodeIO, "read failed", nil)))
	assert.Equal(t, 1, ExitCode(Wrap(CodeType, "not a function", nil)))
}

func TestFromValue(t *testing.T) {
	v := value.StrFromGo("boom")
	nameOf := func(value.Value) (string, bool) { return "TypeError", true }
	messageOf := func(value.Value) (string, bool) { return "x is not a function", true }
	e := FromValue(v, nameOf, messageOf)
	assert.True(t, e.HasValue)
	assert.Equal(t, CodeType, e.Code)
	assert.Equal(t, "TypeError: x is not a function", e.Message)
}

func TestCodeFromName(t *testing.T) {
	for _, name := range []string{"SyntaxError", "ReferenceError", "TypeError", "RangeError", "URIError", "WeirdError"} {
		assert.Equal(t, expectedCode(name), codeFromName(name))
	}
}

func expectedCode(name string) Code {
	switch name {
	case "SyntaxError":
		return CodeSyntax
	case "ReferenceError":
		return CodeReference
	case "TypeError":
		return CodeType
	case "RangeError":
		return CodeRange
	case "URIError":
		return CodeURI
	default:
		return CodeNative
	}
}
