package lexer

// Type enumerates the token categories the lexer produces (spec §4.6).
type Type uint8

const (
	EOF Type = iota
	Identifier
	Keyword
	Punctuator
	NumericLiteral
	StringLiteral
	TemplateHead
	TemplateMiddle
	TemplateTail
	NoSubstitutionTemplate
	RegularExpressionLiteral
	PrivateIdentifier
	LineTerminator // never produced by Next; line breaks are reported through Token.NewlineBefore
)

// Goal selects which grammar the lexer should resolve the next token
// against, resolving the `/` (division vs. regex) and `}` (punctuator
// vs. template continuation) ambiguities (spec §4.6 "Goal symbols").
// The parser sets the goal before requesting each token.
type Goal uint8

const (
	GoalDiv Goal = iota
	GoalRegExp
	GoalTemplateTail
)

// Token is one lexical unit plus the metadata the parser needs: its
// source span, whether an identifier/keyword was spelled with a unicode
// escape (which strips its keyword status, spec §4.6 "Escapes &
// Unicode"), and whether a line terminator occurred between this token
// and the previous one (needed for ASI and for restricted productions
// like `return`/`yield`/postfix `++`).
type Token struct {
	Type            Type
	Value           string // the token's textual value (identifier name, string contents, punctuator spelling, ...)
	Raw             string // raw source text, needed for numeric literals and untranslated template cooked/raw pairs
	Start, End      int    // byte offsets into the source
	Line            int
	ContainsEscape  bool
	NewlineBefore   bool
	TemplateCooked  string // for template segments: the cooked (escape-processed) string
	RegexFlags      string // for regex literals: the flag string after the closing slash
}

// keywords is the set of ECMAScript reserved words. Identifiers spelled
// with a \u escape that would otherwise match one of these lose keyword
// status and lex as plain identifiers (spec §4.6).
var keywords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "export": true,
	"extends": true, "finally": true, "for": true, "function": true,
	"if": true, "import": true, "in": true, "instanceof": true,
	"new": true, "return": true, "super": true, "switch": true,
	"this": true, "throw": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true,
	"yield": true, "let": true, "static": true, "async": true,
	"await": true, "null": true, "true": true, "false": true,
	"of": true, "get": true, "set": true, "as": true, "from": true,
}

// IsKeyword reports whether s is a reserved word (and therefore, absent
// a unicode escape, cannot be used as a binding identifier in the
// productions that forbid it).
func IsKeyword(s string) bool { return keywords[s] }
