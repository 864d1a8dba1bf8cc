package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string, goals ...Goal) []Token {
	t.Helper()
	l := New(src)
	var toks []Token
	i := 0
	for {
		goal := GoalDiv
		if i < len(goals) {
			goal = goals[i]
		}
		tok, err := l.Next(goal)
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Type == EOF {
			break
		}
		i++
	}
	return toks
}

func TestIdentifierAndKeyword(t *testing.T) {
	toks := lexAll(t, "let x = foo")
	require.Len(t, toks, 5)
	assert.Equal(t, Keyword, toks[0].Type)
	assert.Equal(t, "let", toks[0].Value)
	assert.Equal(t, Identifier, toks[1].Type)
	assert.Equal(t, "x", toks[1].Value)
	assert.Equal(t, Punctuator, toks[2].Type)
	assert.Equal(t, Identifier, toks[3].Type)
	assert.Equal(t, "foo", toks[3].Value)
}

func TestEscapedKeywordLosesKeywordStatus(t *testing.T) {
	src := "l" + "\\u0065" + "t"
	l := New(src)
	tok, err := l.Next(GoalDiv)
	require.NoError(t, err)
	assert.Equal(t, Identifier, tok.Type)
	assert.Equal(t, "let", tok.Value)
	assert.True(t, tok.ContainsEscape)
}

func TestNumericLiterals(t *testing.T) {
	for _, src := range []string{"0", "42", "3.14", "1e10", "0x1F", "0o17", "0b101", "1_000"} {
		l := New(src)
		tok, err := l.Next(GoalDiv)
		require.NoError(t, err)
		assert.Equal(t, NumericLiteral, tok.Type)
		assert.Equal(t, src, tok.Raw)
	}
}

func TestStringLiteralWithEscapes(t *testing.T) {
	l := New(`"a\nbc"`)
	tok, err := l.Next(GoalDiv)
	require.NoError(t, err)
	assert.Equal(t, StringLiteral, tok.Type)
	assert.Equal(t, "a\nbc", tok.Value)
}

func TestUnterminatedStringErrors(t *testing.T) {
	l := New(`"abc`)
	_, err := l.Next(GoalDiv)
	assert.Error(t, err)
}

func TestNoSubstitutionTemplate(t *testing.T) {
	l := New("`hello world`")
	tok, err := l.Next(GoalDiv)
	require.NoError(t, err)
	assert.Equal(t, NoSubstitutionTemplate, tok.Type)
	assert.Equal(t, "hello world", tok.TemplateCooked)
}

func TestTemplateHeadMiddleTail(t *testing.T) {
	l := New("`a${ 1 }b${ 2 }c`")
	head, err := l.Next(GoalDiv)
	require.NoError(t, err)
	require.Equal(t, TemplateHead, head.Type)
	assert.Equal(t, "a", head.TemplateCooked)

	one, err := l.Next(GoalDiv)
	require.NoError(t, err)
	assert.Equal(t, NumericLiteral, one.Type)

	mid, err := l.Next(GoalTemplateTail)
	require.NoError(t, err)
	require.Equal(t, TemplateMiddle, mid.Type)
	assert.Equal(t, "b", mid.TemplateCooked)

	two, err := l.Next(GoalDiv)
	require.NoError(t, err)
	assert.Equal(t, NumericLiteral, two.Type)

	tail, err := l.Next(GoalTemplateTail)
	require.NoError(t, err)
	require.Equal(t, TemplateTail, tail.Type)
	assert.Equal(t, "c", tail.TemplateCooked)
}

func TestRegexVsDivisionAmbiguity(t *testing.T) {
	l := New("/abc/g")
	tok, err := l.Next(GoalRegExp)
	require.NoError(t, err)
	assert.Equal(t, RegularExpressionLiteral, tok.Type)
	assert.Equal(t, "abc", tok.Value)
	assert.Equal(t, "g", tok.RegexFlags)

	l2 := New("a / b")
	tok1, err := l2.Next(GoalRegExp)
	require.NoError(t, err)
	assert.Equal(t, Identifier, tok1.Type)
	tok2, err := l2.Next(GoalDiv)
	require.NoError(t, err)
	assert.Equal(t, Punctuator, tok2.Type)
	assert.Equal(t, "/", tok2.Value)
}

func TestRegexCharacterClassAllowsUnescapedSlash(t *testing.T) {
	l := New("/[/]/")
	tok, err := l.Next(GoalRegExp)
	require.NoError(t, err)
	assert.Equal(t, RegularExpressionLiteral, tok.Type)
	assert.Equal(t, "[/]", tok.Value)
}

func TestLineCommentsAndBlockComments(t *testing.T) {
	toks := lexAll(t, "a // comment\n/* block */ b")
	require.Len(t, toks, 3)
	assert.Equal(t, "a", toks[0].Value)
	assert.Equal(t, "b", toks[1].Value)
	assert.True(t, toks[1].NewlineBefore)
}

func TestPunctuatorLongestMatch(t *testing.T) {
	toks := lexAll(t, ">>>= === ?? ?.")
	require.Len(t, toks, 5)
	assert.Equal(t, ">>>=", toks[0].Value)
	assert.Equal(t, "===", toks[1].Value)
	assert.Equal(t, "??", toks[2].Value)
	assert.Equal(t, "?.", toks[3].Value)
}

func TestPrivateIdentifier(t *testing.T) {
	l := New("#field")
	tok, err := l.Next(GoalDiv)
	require.NoError(t, err)
	assert.Equal(t, PrivateIdentifier, tok.Type)
	assert.Equal(t, "#field", tok.Value)
}

func TestShebangIsSkipped(t *testing.T) {
	toks := lexAll(t, "#!/usr/bin/env node\nlet x")
	require.Len(t, toks, 3)
	assert.Equal(t, Keyword, toks[0].Type)
}

func TestASINewlineTracking(t *testing.T) {
	toks := lexAll(t, "a\nb")
	require.Len(t, toks, 3)
	assert.False(t, toks[0].NewlineBefore)
	assert.True(t, toks[1].NewlineBefore)
}

func TestEOFTokenProduced(t *testing.T) {
	toks := lexAll(t, "")
	require.Len(t, toks, 1)
	assert.Equal(t, EOF, toks[0].Type)
}
