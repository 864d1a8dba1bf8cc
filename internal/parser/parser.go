// Package parser implements a hand-written recursive-descent parser
// producing the engine's native AST (spec §4.7). It carries one token
// of lookahead, resolves the lexer's goal-symbol ambiguities itself, and
// uses the permissive cover grammar for parenthesized expressions /
// assignment targets, reinterpreting them once the disambiguating token
// (`=>` or `=`) is seen.
package parser

import (
	"fmt"

	"github.com/oxhq/jsengine/internal/ast"
	"github.com/oxhq/jsengine/internal/lexer"
)

// SyntaxError reports a parse failure at a source position (spec §4.6/4.7
// Errors).
type SyntaxError struct {
	Msg  string
	Pos  int
	Line int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError: %s (line %d)", e.Msg, e.Line)
}

// params are the grammar parameters threaded through the parser's
// recursive calls (spec §4.7): Yield/Await/Return gate which
// productions are legal, In controls whether `in` is treated as a
// relational operator (suppressed in for-header initializers), Default
// allows an anonymous default export.
type params struct {
	yield, await, in, return_, default_ bool
}

// Parser holds the token cursor and the ambient grammar parameters for
// the construct currently being parsed.
type Parser struct {
	lex *lexer.Lexer
	tok lexer.Token

	strict bool
	p      params

	// panicErr carries a *SyntaxError across the panic/recover boundary
	// used internally to unwind from deep recursive-descent failures
	// without threading an error return through every production; Parse
	// is the only exported entry point and always returns a plain error.
	panicErr error
}

// Parse parses a complete script (spec §4.11 eval entry point).
func Parse(source string) (prog *ast.Program, err error) {
	return parseWith(source, false)
}

// ParseModule parses source as a module body (spec §4.12), enabling
// import/export declarations and always-strict semantics.
func ParseModule(source string) (prog *ast.Program, err error) {
	return parseWith(source, true)
}

func parseWith(source string, isModule bool) (prog *ast.Program, err error) {
	p := &Parser{lex: lexer.New(source), strict: isModule}
	p.p = params{return_: false}

	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*SyntaxError); ok {
				err = se
				return
			}
			panic(r)
		}
	}()

	p.advance()
	body := p.parseStatementList(func() bool { return p.tok.Type == lexer.EOF })
	prog = &ast.Program{Body: body, IsModule: isModule}
	return prog, nil
}

func (p *Parser) fail(msg string) {
	panic(&SyntaxError{Msg: msg, Pos: p.tok.Start, Line: p.tok.Line})
}

func (p *Parser) failf(format string, args ...any) {
	p.fail(fmt.Sprintf(format, args...))
}

// divGoalAfter reports whether a `/` immediately following the current
// token should be read as division rather than a regex literal — the
// standard heuristic: any token that can end an expression puts the
// lexer in division mode (spec §4.6 "Goal symbols").
func divGoalAfter(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.Identifier, lexer.NumericLiteral, lexer.StringLiteral,
		lexer.TemplateTail, lexer.NoSubstitutionTemplate, lexer.RegularExpressionLiteral,
		lexer.PrivateIdentifier:
		return true
	case lexer.Keyword:
		switch tok.Value {
		case "this", "super", "true", "false", "null":
			return true
		default:
			return false
		}
	case lexer.Punctuator:
		switch tok.Value {
		case ")", "]", "}", "++", "--":
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// advance fetches the next token, choosing Div vs RegExp goal from the
// token just consumed.
func (p *Parser) advance() {
	goal := lexer.GoalRegExp
	if divGoalAfter(p.tok) {
		goal = lexer.GoalDiv
	}
	tok, err := p.lex.Next(goal)
	if err != nil {
		if le, ok := err.(*lexer.Error); ok {
			panic(&SyntaxError{Msg: le.Msg, Pos: le.Pos, Line: le.Line})
		}
		panic(&SyntaxError{Msg: err.Error(), Line: p.tok.Line})
	}
	p.tok = tok
}

// advanceTemplateTail re-enters a template literal after a `}` that
// closed a substitution expression (spec §4.6 Goal symbols).
func (p *Parser) advanceTemplateTail() {
	tok, err := p.lex.Next(lexer.GoalTemplateTail)
	if err != nil {
		if le, ok := err.(*lexer.Error); ok {
			panic(&SyntaxError{Msg: le.Msg, Pos: le.Pos, Line: le.Line})
		}
		panic(&SyntaxError{Msg: err.Error(), Line: p.tok.Line})
	}
	p.tok = tok
}

func (p *Parser) isPunct(v string) bool {
	return p.tok.Type == lexer.Punctuator && p.tok.Value == v
}

func (p *Parser) isKeyword(v string) bool {
	return p.tok.Type == lexer.Keyword && p.tok.Value == v
}

func (p *Parser) isIdentOrKeyword(v string) bool {
	return (p.tok.Type == lexer.Identifier || p.tok.Type == lexer.Keyword) && p.tok.Value == v
}

func (p *Parser) expectPunct(v string) {
	if !p.isPunct(v) {
		p.failf("expected %q, got %q", v, p.tok.Value)
	}
	p.advance()
}

func (p *Parser) expectKeyword(v string) {
	if !p.isKeyword(v) {
		p.failf("expected keyword %q, got %q", v, p.tok.Value)
	}
	p.advance()
}

// consumeSemicolon implements automatic semicolon insertion (spec §4.7
// ASI, testable property 6): an explicit `;` is consumed; otherwise one
// is synthesised if the next token starts on a new line, is `}`, or is
// EOF.
func (p *Parser) consumeSemicolon() {
	if p.isPunct(";") {
		p.advance()
		return
	}
	if p.tok.Type == lexer.EOF || p.isPunct("}") || p.tok.NewlineBefore {
		return
	}
	p.failf("expected ';', got %q", p.tok.Value)
}

func (p *Parser) span(start lexer.Token) ast.Span {
	return ast.Span{Start: start.Start, End: p.tok.Start, Line: start.Line}
}

// checkpoint is a saved cursor position used for the speculative
// lookahead the cover grammar requires (arrow parameters, async-arrow
// detection, labelled statements).
type checkpoint struct {
	lexState lexer.State
	tok      lexer.Token
}

func (p *Parser) mark() checkpoint {
	return checkpoint{lexState: p.lex.Save(), tok: p.tok}
}

func (p *Parser) rewind(c checkpoint) {
	p.lex.Restore(c.lexState)
	p.tok = c.tok
}
