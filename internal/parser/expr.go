package parser

import (
	"github.com/oxhq/jsengine/internal/ast"
	"github.com/oxhq/jsengine/internal/lexer"
)

// parseExpression parses a (possibly comma-separated) expression,
// collapsing to a SequenceExpr when more than one element is present.
func (p *Parser) parseExpression() ast.Expr {
	start := p.tok
	first := p.parseAssignment()
	if !p.isPunct(",") {
		return first
	}
	exprs := []ast.Expr{first}
	for p.isPunct(",") {
		p.advance()
		exprs = append(exprs, p.parseAssignment())
	}
	return &ast.SequenceExpr{Expressions: exprs, Base: ast.Base{Span: p.span(start)}}
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"**=": true, "<<=": true, ">>=": true, ">>>=": true, "&=": true, "|=": true,
	"^=": true, "&&=": true, "||=": true, "??=": true,
}

// parseAssignment parses an AssignmentExpression, including the arrow
// function forms, which are detected only after the cover grammar has
// produced a candidate left-hand side (spec §4.7 cover grammar).
func (p *Parser) parseAssignment() ast.Expr {
	start := p.tok

	if p.isKeyword("yield") && p.p.yield {
		return p.parseYield()
	}

	if arrow, ok := p.tryParseArrow(); ok {
		return arrow
	}

	left := p.parseConditional()

	if p.isPunct("=>") && !p.tok.NewlineBefore {
		return p.finishArrowFromCover(left, false, start)
	}

	if p.tok.Type == lexer.Punctuator && assignOps[p.tok.Value] {
		op := p.tok.Value
		p.advance()
		target := left
		if op == "=" {
			target = toPattern(left)
		}
		value := p.parseAssignment()
		return &ast.AssignmentExpr{Operator: op, Target: target, Value: value, Base: ast.Base{Span: p.span(start)}}
	}
	return left
}


func (p *Parser) parseYield() ast.Expr {
	start := p.tok
	p.advance() // 'yield'
	delegate := false
	if p.isPunct("*") {
		delegate = true
		p.advance()
	}
	var arg ast.Expr
	if !p.tok.NewlineBefore && canStartExpression(p.tok) {
		arg = p.parseAssignment()
	}
	return &ast.YieldExpr{Argument: arg, Delegate: delegate, Base: ast.Base{Span: p.span(start)}}
}

func canStartExpression(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.EOF:
		return false
	case lexer.Punctuator:
		switch tok.Value {
		case ")", "]", "}", ",", ";", ":":
			return false
		}
		return true
	default:
		return true
	}
}

// tryParseArrow speculatively attempts the `async (params) =>` / `async
// ident =>` forms, rewinding on failure. Plain `(params) =>` and
// `ident =>` arrows are recognised by parseAssignment through
// finishArrowFromCover.
func (p *Parser) tryParseArrow() (ast.Expr, bool) {
	if p.isIdentOrKeyword("async") {
		cp := p.mark()
		p.advance()
		if p.tok.NewlineBefore {
			p.rewind(cp)
			return nil, false
		}
		if p.tok.Type == lexer.Identifier || (p.tok.Type == lexer.Keyword && !lexer.IsKeyword(p.tok.Value)) {
			start := cp.tok
			name := p.tok.Value
			p.advance()
			if p.isPunct("=>") && !p.tok.NewlineBefore {
				param := &ast.Identifier{Name: name, Base: ast.Base{Span: ast.Span{Start: start.Start, Line: start.Line}}}
				p.advance()
				return p.finishArrowBody([]ast.Param{{Target: param}}, true, start), true
			}
			p.rewind(cp)
			return nil, false
		}
		if p.isPunct("(") {
			startParen := p.tok
			paramsList, isArrowShape := p.tryParseCoverParenList()
			if isArrowShape && p.isPunct("=>") && !p.tok.NewlineBefore {
				p.advance()
				return p.finishArrowBody(exprsToParams(paramsList), true, cp.tok), true
			}
			_ = startParen
			p.rewind(cp)
			return nil, false
		}
		p.rewind(cp)
		return nil, false
	}
	return nil, false
}

// finishArrowFromCover converts an already-parsed left-hand expression
// (an Identifier, or the SequenceExpr/single-expr produced by a
// parenthesized cover list) into an arrow function once `=>` is seen.
func (p *Parser) finishArrowFromCover(left ast.Expr, async bool, start lexer.Token) ast.Expr {
	p.advance() // consume '=>'
	var list []ast.Expr
	if seq, ok := left.(*ast.SequenceExpr); ok {
		list = seq.Expressions
	} else {
		list = []ast.Expr{left}
	}
	return p.finishArrowBody(exprsToParams(list), async, start)
}

func (p *Parser) finishArrowBody(params []ast.Param, async bool, start lexer.Token) ast.Expr {
	if p.isPunct("{") {
		body := p.parseFunctionBody()
		return &ast.ArrowFunctionExpr{Params: params, Body: body, Async: async, Base: ast.Base{Span: p.span(start)}}
	}
	exprBody := p.parseAssignment()
	return &ast.ArrowFunctionExpr{Params: params, ExprBody: exprBody, Async: async, Base: ast.Base{Span: p.span(start)}}
}

// exprsToParams reinterprets a parenthesized expression list as a
// parameter list (spec §4.7 cover grammar: identifiers, defaults via
// AssignmentExpr, rest via SpreadElement, destructuring patterns).
func exprsToParams(exprs []ast.Expr) []ast.Param {
	params := make([]ast.Param, 0, len(exprs))
	for _, e := range exprs {
		switch t := e.(type) {
		case *ast.SpreadElement:
			params = append(params, ast.Param{Target: toPattern(t.Argument), Rest: true})
		case *ast.AssignmentExpr:
			if t.Operator == "=" {
				params = append(params, ast.Param{Target: t.Target, Default: t.Value})
				continue
			}
			params = append(params, ast.Param{Target: toPattern(e)})
		default:
			params = append(params, ast.Param{Target: toPattern(e)})
		}
	}
	return params
}

// toPattern reinterprets an expression parsed in expression position as
// a destructuring/binding target, the other half of the cover grammar
// (spec §4.7: "An assignment target on the LHS of `=` is similarly
// reinterpreted from expression form into a destructuring pattern").
func toPattern(e ast.Expr) ast.Expr {
	switch t := e.(type) {
	case *ast.ArrayLiteral:
		elems := make([]ast.Expr, len(t.Elements))
		for i, el := range t.Elements {
			if el == nil {
				continue
			}
			elems[i] = toPattern(el)
		}
		return &ast.ArrayPattern{Elements: elems, Base: ast.Base{Span: t.Pos()}}
	case *ast.ObjectLiteral:
		props := make([]ast.ObjectPatternProperty, 0, len(t.Properties))
		for _, pr := range t.Properties {
			if pr.Kind == ast.PropSpread {
				props = append(props, ast.ObjectPatternProperty{Value: &ast.RestElement{Argument: toPattern(pr.Value), Base: ast.Base{Span: pr.Span}}, Rest: true})
				continue
			}
			props = append(props, ast.ObjectPatternProperty{Key: pr.Key, Computed: pr.Computed, Value: toPattern(pr.Value)})
		}
		return &ast.ObjectPattern{Properties: props, Base: ast.Base{Span: t.Pos()}}
	case *ast.AssignmentExpr:
		if t.Operator == "=" {
			return &ast.AssignmentPattern{Target: toPattern(t.Target), Default: t.Value, Base: ast.Base{Span: t.Pos()}}
		}
		return e
	case *ast.SpreadElement:
		return &ast.RestElement{Argument: toPattern(t.Argument), Base: ast.Base{Span: t.Pos()}}
	default:
		return e
	}
}

func (p *Parser) parseConditional() ast.Expr {
	start := p.tok
	test := p.parseNullish()
	if !p.isPunct("?") {
		return test
	}
	p.advance()
	savedIn := p.p.in
	p.p.in = true
	cons := p.parseAssignment()
	p.p.in = savedIn
	p.expectPunct(":")
	alt := p.parseAssignment()
	return &ast.ConditionalExpr{Test: test, Consequent: cons, Alternate: alt, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseNullish() ast.Expr {
	start := p.tok
	left := p.parseLogicalOr()
	for p.isPunct("??") {
		p.advance()
		right := p.parseLogicalOr()
		left = &ast.LogicalExpr{Operator: "??", Left: left, Right: right, Base: ast.Base{Span: p.span(start)}}
	}
	return left
}

func (p *Parser) parseLogicalOr() ast.Expr {
	start := p.tok
	left := p.parseLogicalAnd()
	for p.isPunct("||") {
		p.advance()
		right := p.parseLogicalAnd()
		left = &ast.LogicalExpr{Operator: "||", Left: left, Right: right, Base: ast.Base{Span: p.span(start)}}
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expr {
	start := p.tok
	left := p.parseBinary(1)
	for p.isPunct("&&") {
		p.advance()
		right := p.parseBinary(1)
		left = &ast.LogicalExpr{Operator: "&&", Left: left, Right: right, Base: ast.Base{Span: p.span(start)}}
	}
	return left
}

// binaryPrecedence assigns precedence tiers to binary operators (higher
// binds tighter). `in` is excluded when p.in is false (for-header
// initializers, spec §4.7 grammar parameter In).
func (p *Parser) binaryPrecedence(tok lexer.Token) (int, bool) {
	if tok.Type == lexer.Keyword {
		switch tok.Value {
		case "instanceof":
			return 9, true
		case "in":
			if p.p.in {
				return 9, true
			}
			return 0, false
		}
		return 0, false
	}
	if tok.Type != lexer.Punctuator {
		return 0, false
	}
	switch tok.Value {
	case "|":
		return 4, true
	case "^":
		return 5, true
	case "&":
		return 6, true
	case "==", "!=", "===", "!==":
		return 7, true
	case "<", ">", "<=", ">=":
		return 9, true
	case "<<", ">>", ">>>":
		return 10, true
	case "+", "-":
		return 11, true
	case "*", "/", "%":
		return 12, true
	default:
		return 0, false
	}
}

// parseBinary implements precedence climbing over the non-short-circuit
// binary operators, bottoming out at the right-associative exponent
// operator and then unary expressions.
func (p *Parser) parseBinary(minPrec int) ast.Expr {
	start := p.tok
	left := p.parseExponent()
	for {
		prec, ok := p.binaryPrecedence(p.tok)
		if !ok || prec < minPrec {
			return left
		}
		op := p.tok.Value
		p.advance()
		right := p.parseBinary(prec + 1)
		left = &ast.BinaryExpr{Operator: op, Left: left, Right: right, Base: ast.Base{Span: p.span(start)}}
	}
}

func (p *Parser) parseExponent() ast.Expr {
	start := p.tok
	left := p.parseUnary()
	if p.isPunct("**") {
		p.advance()
		right := p.parseExponent() // right-associative
		return &ast.BinaryExpr{Operator: "**", Left: left, Right: right, Base: ast.Base{Span: p.span(start)}}
	}
	return left
}

var unaryOps = map[string]ast.UnaryOperator{
	"-": ast.UnaryMinus, "+": ast.UnaryPlus, "!": ast.UnaryNot, "~": ast.UnaryBitNot,
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.tok
	if p.tok.Type == lexer.Punctuator {
		if op, ok := unaryOps[p.tok.Value]; ok {
			p.advance()
			arg := p.parseUnary()
			return &ast.UnaryExpr{Operator: op, Argument: arg, Base: ast.Base{Span: p.span(start)}}
		}
		if p.tok.Value == "++" || p.tok.Value == "--" {
			opv := p.tok.Value
			p.advance()
			arg := p.parseUnary()
			return &ast.UpdateExpr{Operator: opv, Argument: arg, Prefix: true, Base: ast.Base{Span: p.span(start)}}
		}
	}
	if p.tok.Type == lexer.Keyword {
		switch p.tok.Value {
		case "typeof":
			p.advance()
			return &ast.UnaryExpr{Operator: ast.UnaryTypeof, Argument: p.parseUnary(), Base: ast.Base{Span: p.span(start)}}
		case "void":
			p.advance()
			return &ast.UnaryExpr{Operator: ast.UnaryVoid, Argument: p.parseUnary(), Base: ast.Base{Span: p.span(start)}}
		case "delete":
			p.advance()
			return &ast.UnaryExpr{Operator: ast.UnaryDelete, Argument: p.parseUnary(), Base: ast.Base{Span: p.span(start)}}
		case "await":
			if p.p.await {
				p.advance()
				return &ast.AwaitExpr{Argument: p.parseUnary(), Base: ast.Base{Span: p.span(start)}}
			}
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	start := p.tok
	expr := p.parseLeftHandSide()
	if (p.isPunct("++") || p.isPunct("--")) && !p.tok.NewlineBefore {
		op := p.tok.Value
		p.advance()
		return &ast.UpdateExpr{Operator: op, Argument: expr, Prefix: false, Base: ast.Base{Span: p.span(start)}}
	}
	return expr
}

func (p *Parser) parseLeftHandSide() ast.Expr {
	start := p.tok
	var expr ast.Expr
	if p.isKeyword("new") {
		expr = p.parseNewExpression()
	} else {
		expr = p.parsePrimary()
	}
	return p.parseCallTail(expr, start)
}

func (p *Parser) parseNewExpression() ast.Expr {
	start := p.tok
	p.advance() // 'new'
	if p.isPunct(".") {
		p.advance()
		if !p.isIdentOrKeyword("target") {
			p.fail("expected 'target' after 'new.'")
		}
		p.advance()
		return &ast.Identifier{Name: "new.target", Base: ast.Base{Span: p.span(start)}}
	}
	var callee ast.Expr
	if p.isKeyword("new") {
		callee = p.parseNewExpression()
	} else {
		callee = p.parsePrimary()
	}
	callee = p.parseMemberTail(callee, start)
	var args []ast.Expr
	if p.isPunct("(") {
		args = p.parseArguments()
	}
	return &ast.NewExpr{Callee: callee, Args: args, Base: ast.Base{Span: p.span(start)}}
}

// parseMemberTail consumes member accesses (but not calls), used while
// parsing a `new` callee which binds tighter than a following call.
func (p *Parser) parseMemberTail(expr ast.Expr, start lexer.Token) ast.Expr {
	for {
		switch {
		case p.isPunct("."):
			p.advance()
			prop := p.parsePropertyName()
			expr = &ast.MemberExpr{Object: expr, Property: prop, Base: ast.Base{Span: p.span(start)}}
		case p.isPunct("["):
			p.advance()
			prop := p.parseExpression()
			p.expectPunct("]")
			expr = &ast.MemberExpr{Object: expr, Property: prop, Computed: true, Base: ast.Base{Span: p.span(start)}}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePropertyName() ast.Expr {
	start := p.tok
	if p.tok.Type == lexer.PrivateIdentifier {
		name := p.tok.Value
		p.advance()
		return &ast.PrivateName{Name: name, Base: ast.Base{Span: p.span(start)}}
	}
	if p.tok.Type != lexer.Identifier && p.tok.Type != lexer.Keyword {
		p.fail("expected property name")
	}
	name := p.tok.Value
	p.advance()
	return &ast.Identifier{Name: name, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseCallTail(expr ast.Expr, start lexer.Token) ast.Expr {
	for {
		switch {
		case p.isPunct("."):
			p.advance()
			prop := p.parsePropertyName()
			expr = &ast.MemberExpr{Object: expr, Property: prop, Base: ast.Base{Span: p.span(start)}}
		case p.isPunct("?."):
			p.advance()
			if p.isPunct("(") {
				args := p.parseArguments()
				expr = &ast.CallExpr{Callee: expr, Args: args, Optional: true, Base: ast.Base{Span: p.span(start)}}
			} else if p.isPunct("[") {
				p.advance()
				prop := p.parseExpression()
				p.expectPunct("]")
				expr = &ast.MemberExpr{Object: expr, Property: prop, Computed: true, Optional: true, Base: ast.Base{Span: p.span(start)}}
			} else {
				prop := p.parsePropertyName()
				expr = &ast.MemberExpr{Object: expr, Property: prop, Optional: true, Base: ast.Base{Span: p.span(start)}}
			}
		case p.isPunct("["):
			p.advance()
			prop := p.parseExpression()
			p.expectPunct("]")
			expr = &ast.MemberExpr{Object: expr, Property: prop, Computed: true, Base: ast.Base{Span: p.span(start)}}
		case p.isPunct("("):
			args := p.parseArguments()
			expr = &ast.CallExpr{Callee: expr, Args: args, Base: ast.Base{Span: p.span(start)}}
		case p.tok.Type == lexer.NoSubstitutionTemplate || p.tok.Type == lexer.TemplateHead:
			quasi := p.parseTemplateLiteral()
			expr = &ast.TaggedTemplateExpr{Tag: expr, Quasi: quasi, Base: ast.Base{Span: p.span(start)}}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArguments() []ast.Expr {
	p.expectPunct("(")
	var args []ast.Expr
	for !p.isPunct(")") {
		if p.isPunct("...") {
			s := p.tok
			p.advance()
			args = append(args, &ast.SpreadElement{Argument: p.parseAssignment(), Base: ast.Base{Span: p.span(s)}})
		} else {
			args = append(args, p.parseAssignment())
		}
		if p.isPunct(",") {
			p.advance()
		} else {
			break
		}
	}
	p.expectPunct(")")
	return args
}

// tryParseCoverParenList parses a parenthesized, comma-separated list of
// assignment expressions (allowing `...rest` in tail position), used by
// both plain grouping and the arrow-parameter cover grammar.
// isArrowShape is true when every element could serve as a parameter
// (always true here; validity is rechecked when actually used as
// params via exprsToParams/toPattern).
func (p *Parser) tryParseCoverParenList() ([]ast.Expr, bool) {
	p.expectPunct("(")
	var list []ast.Expr
	for !p.isPunct(")") {
		if p.isPunct("...") {
			s := p.tok
			p.advance()
			list = append(list, &ast.SpreadElement{Argument: p.parseAssignment(), Base: ast.Base{Span: p.span(s)}})
			break
		}
		list = append(list, p.parseAssignment())
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectPunct(")")
	return list, true
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.tok
	switch {
	case p.tok.Type == lexer.Identifier:
		name := p.tok.Value
		p.advance()
		return &ast.Identifier{Name: name, Base: ast.Base{Span: p.span(start)}}
	case p.tok.Type == lexer.PrivateIdentifier:
		name := p.tok.Value
		p.advance()
		return &ast.PrivateName{Name: name, Base: ast.Base{Span: p.span(start)}}
	case p.tok.Type == lexer.NumericLiteral:
		raw := p.tok.Value
		p.advance()
		return &ast.NumericLiteral{Value: parseNumericValue(raw), Raw: raw, Base: ast.Base{Span: p.span(start)}}
	case p.tok.Type == lexer.StringLiteral:
		val := p.tok.Value
		raw := p.tok.Raw
		p.advance()
		return &ast.StringLiteral{Value: val, Raw: raw, Base: ast.Base{Span: p.span(start)}}
	case p.tok.Type == lexer.RegularExpressionLiteral:
		pattern := p.tok.Value
		flags := p.tok.RegexFlags
		p.advance()
		return &ast.RegExpLiteral{Pattern: pattern, Flags: flags, Base: ast.Base{Span: p.span(start)}}
	case p.tok.Type == lexer.NoSubstitutionTemplate || p.tok.Type == lexer.TemplateHead:
		return p.parseTemplateLiteral()
	case p.isKeyword("this"):
		p.advance()
		return &ast.ThisExpr{Base: ast.Base{Span: p.span(start)}}
	case p.isKeyword("super"):
		p.advance()
		return &ast.SuperExpr{Base: ast.Base{Span: p.span(start)}}
	case p.isKeyword("null"):
		p.advance()
		return &ast.NullLiteral{Base: ast.Base{Span: p.span(start)}}
	case p.isKeyword("true"):
		p.advance()
		return &ast.BooleanLiteral{Value: true, Base: ast.Base{Span: p.span(start)}}
	case p.isKeyword("false"):
		p.advance()
		return &ast.BooleanLiteral{Value: false, Base: ast.Base{Span: p.span(start)}}
	case p.isKeyword("function"):
		return p.parseFunctionExpr(false)
	case p.isIdentOrKeyword("async") && p.peekIsFunctionNoNewline():
		p.advance() // 'async'
		return p.parseFunctionExpr(true)
	case p.isKeyword("class"):
		return p.parseClassExpr()
	case p.isPunct("["):
		return p.parseArrayLiteral()
	case p.isPunct("{"):
		return p.parseObjectLiteral()
	case p.isPunct("("):
		list, _ := p.tryParseCoverParenList()
		if len(list) == 0 {
			return &ast.SequenceExpr{Expressions: list, Base: ast.Base{Span: p.span(start)}}
		}
		if len(list) == 1 {
			if _, isSpread := list[0].(*ast.SpreadElement); !isSpread {
				return list[0]
			}
		}
		return &ast.SequenceExpr{Expressions: list, Base: ast.Base{Span: p.span(start)}}
	default:
		p.failf("unexpected token %q", p.tok.Value)
		return nil
	}
}

// peekIsFunctionNoNewline checks, without permanently consuming, whether
// `async` is immediately followed by `function` on the same line.
func (p *Parser) peekIsFunctionNoNewline() bool {
	cp := p.mark()
	p.advance()
	ok := p.isKeyword("function") && !p.tok.NewlineBefore
	p.rewind(cp)
	return ok
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	start := p.tok
	p.advance() // '['
	var elems []ast.Expr
	for !p.isPunct("]") {
		if p.isPunct(",") {
			elems = append(elems, nil)
			p.advance()
			continue
		}
		if p.isPunct("...") {
			s := p.tok
			p.advance()
			elems = append(elems, &ast.SpreadElement{Argument: p.parseAssignment(), Base: ast.Base{Span: p.span(s)}})
		} else {
			elems = append(elems, p.parseAssignment())
		}
		if p.isPunct(",") {
			p.advance()
		} else {
			break
		}
	}
	p.expectPunct("]")
	return &ast.ArrayLiteral{Elements: elems, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseObjectLiteral() ast.Expr {
	start := p.tok
	p.advance() // '{'
	var props []ast.ObjectProperty
	for !p.isPunct("}") {
		props = append(props, p.parseObjectProperty())
		if p.isPunct(",") {
			p.advance()
		} else {
			break
		}
	}
	p.expectPunct("}")
	return &ast.ObjectLiteral{Properties: props, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseObjectProperty() ast.ObjectProperty {
	start := p.tok
	if p.isPunct("...") {
		p.advance()
		val := p.parseAssignment()
		return ast.ObjectProperty{Span: p.span(start), Kind: ast.PropSpread, Value: val}
	}

	async := false
	if p.isIdentOrKeyword("async") {
		cp := p.mark()
		p.advance()
		if !p.tok.NewlineBefore && !p.isPunct(":") && !p.isPunct(",") && !p.isPunct("}") && !p.isPunct("(") {
			async = true
		} else {
			p.rewind(cp)
		}
	}
	generator := false
	if p.isPunct("*") {
		generator = true
		p.advance()
	}
	if (p.isIdentOrKeyword("get") || p.isIdentOrKeyword("set")) && !generator {
		accessor := p.tok.Value
		cp := p.mark()
		p.advance()
		if !p.isPunct(":") && !p.isPunct(",") && !p.isPunct("}") && !p.isPunct("(") {
			key, computed := p.parsePropertyKey()
			fn := p.parseMethodTail(false, false)
			kind := ast.PropGet
			if accessor == "set" {
				kind = ast.PropSet
			}
			return ast.ObjectProperty{Span: p.span(start), Kind: kind, Key: key, Computed: computed, Value: fn}
		}
		p.rewind(cp)
	}

	key, computed := p.parsePropertyKey()

	if p.isPunct("(") {
		fn := p.parseMethodTail(generator, async)
		return ast.ObjectProperty{Span: p.span(start), Kind: ast.PropMethod, Key: key, Computed: computed, Value: fn}
	}
	if p.isPunct(":") {
		p.advance()
		val := p.parseAssignment()
		return ast.ObjectProperty{Span: p.span(start), Kind: ast.PropInit, Key: key, Computed: computed, Value: val}
	}
	if p.isPunct("=") {
		p.advance()
		def := p.parseAssignment()
		ident, _ := key.(*ast.Identifier)
		return ast.ObjectProperty{
			Span: p.span(start), Kind: ast.PropInit, Key: key, Shorthand: true,
			Value: &ast.AssignmentExpr{Operator: "=", Target: ident, Value: def, Base: ast.Base{Span: p.span(start)}},
		}
	}
	ident, _ := key.(*ast.Identifier)
	return ast.ObjectProperty{Span: p.span(start), Kind: ast.PropInit, Key: key, Shorthand: true, Value: ident}
}

func (p *Parser) parsePropertyKey() (ast.Expr, bool) {
	start := p.tok
	if p.isPunct("[") {
		p.advance()
		e := p.parseAssignment()
		p.expectPunct("]")
		return e, true
	}
	if p.tok.Type == lexer.StringLiteral {
		v := p.tok.Value
		p.advance()
		return &ast.StringLiteral{Value: v, Base: ast.Base{Span: p.span(start)}}, false
	}
	if p.tok.Type == lexer.NumericLiteral {
		raw := p.tok.Value
		p.advance()
		return &ast.NumericLiteral{Value: parseNumericValue(raw), Raw: raw, Base: ast.Base{Span: p.span(start)}}, false
	}
	if p.tok.Type == lexer.PrivateIdentifier {
		name := p.tok.Value
		p.advance()
		return &ast.PrivateName{Name: name, Base: ast.Base{Span: p.span(start)}}, false
	}
	name := p.tok.Value
	p.advance()
	return &ast.Identifier{Name: name, Base: ast.Base{Span: p.span(start)}}, false
}

// parseMethodTail parses `(params) { body }` for an object/class method
// whose key has already been consumed.
func (p *Parser) parseMethodTail(generator, async bool) ast.Expr {
	start := p.tok
	params := p.parseParamList()
	savedYield, savedAwait := p.p.yield, p.p.await
	p.p.yield, p.p.await = generator, async
	body := p.parseFunctionBody()
	p.p.yield, p.p.await = savedYield, savedAwait
	return &ast.FunctionExpr{Params: params, Body: body, Generator: generator, Async: async, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseParamList() []ast.Param {
	p.expectPunct("(")
	var params []ast.Param
	for !p.isPunct(")") {
		if p.isPunct("...") {
			p.advance()
			target := p.parseBindingTarget()
			params = append(params, ast.Param{Target: target, Rest: true})
			break
		}
		target := p.parseBindingTarget()
		var def ast.Expr
		if p.isPunct("=") {
			p.advance()
			def = p.parseAssignment()
		}
		params = append(params, ast.Param{Target: target, Default: def})
		if p.isPunct(",") {
			p.advance()
		} else {
			break
		}
	}
	p.expectPunct(")")
	return params
}

// parseBindingTarget parses an identifier or destructuring pattern
// appearing in a binding position (parameters, var/let/const
// declarators, catch clauses).
func (p *Parser) parseBindingTarget() ast.Expr {
	if p.isPunct("[") {
		return toPattern(p.parseArrayLiteral())
	}
	if p.isPunct("{") {
		return toPattern(p.parseObjectLiteral())
	}
	start := p.tok
	if p.tok.Type != lexer.Identifier && p.tok.Type != lexer.Keyword {
		p.fail("expected binding identifier")
	}
	name := p.tok.Value
	p.advance()
	return &ast.Identifier{Name: name, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseFunctionBody() []ast.Stmt {
	p.expectPunct("{")
	savedReturn := p.p.return_
	p.p.return_ = true
	body := p.parseStatementList(func() bool { return p.isPunct("}") })
	p.p.return_ = savedReturn
	p.expectPunct("}")
	return body
}

func (p *Parser) parseFunctionExpr(async bool) ast.Expr {
	start := p.tok
	p.expectKeyword("function")
	generator := false
	if p.isPunct("*") {
		generator = true
		p.advance()
	}
	var name *ast.Identifier
	if p.tok.Type == lexer.Identifier {
		n := p.tok.Value
		ns := p.tok
		p.advance()
		name = &ast.Identifier{Name: n, Base: ast.Base{Span: p.span(ns)}}
	}
	params := p.parseParamList()
	savedYield, savedAwait := p.p.yield, p.p.await
	p.p.yield, p.p.await = generator, async
	body := p.parseFunctionBody()
	p.p.yield, p.p.await = savedYield, savedAwait
	return &ast.FunctionExpr{Name: name, Params: params, Body: body, Generator: generator, Async: async, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseClassExpr() ast.Expr {
	start := p.tok
	p.expectKeyword("class")
	var name *ast.Identifier
	if p.tok.Type == lexer.Identifier {
		n := p.tok.Value
		ns := p.tok
		p.advance()
		name = &ast.Identifier{Name: n, Base: ast.Base{Span: p.span(ns)}}
	}
	var super ast.Expr
	if p.isKeyword("extends") {
		p.advance()
		super = p.parseLeftHandSide()
	}
	body := p.parseClassBody()
	return &ast.ClassExpr{Name: name, SuperClass: super, Body: body, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseClassBody() []ast.ClassMember {
	p.expectPunct("{")
	var members []ast.ClassMember
	for !p.isPunct("}") {
		if p.isPunct(";") {
			p.advance()
			continue
		}
		members = append(members, p.parseClassMember())
	}
	p.expectPunct("}")
	return members
}

func (p *Parser) parseClassMember() ast.ClassMember {
	start := p.tok
	static := false
	if p.isIdentOrKeyword("static") {
		cp := p.mark()
		p.advance()
		if p.isPunct("{") {
			body := p.parseStatementList(func() bool { return p.isPunct("}") })
			p.expectPunct("}")
			return ast.ClassMember{Span: p.span(start), Kind: ast.ClassStaticBlock, Body: body}
		}
		if p.isPunct("(") || p.isPunct("=") || p.isPunct(";") || p.isPunct("}") {
			p.rewind(cp)
		} else {
			static = true
		}
	}
	async := false
	generator := false
	accessor := ""
	if p.isIdentOrKeyword("async") {
		cp := p.mark()
		p.advance()
		if !p.tok.NewlineBefore && !p.isPunct("(") && !p.isPunct("=") && !p.isPunct(";") && !p.isPunct("}") {
			async = true
		} else {
			p.rewind(cp)
		}
	}
	if p.isPunct("*") {
		generator = true
		p.advance()
	}
	if p.isIdentOrKeyword("get") || p.isIdentOrKeyword("set") {
		cp := p.mark()
		maybeAccessor := p.tok.Value
		p.advance()
		if !p.isPunct("(") && !p.isPunct("=") && !p.isPunct(";") && !p.isPunct("}") {
			accessor = maybeAccessor
		} else {
			p.rewind(cp)
		}
	}

	key, computed := p.parsePropertyKey()

	if p.isPunct("(") {
		fn := p.parseMethodTail(generator, async)
		kind := ast.ClassMethod
		if accessor == "get" {
			kind = ast.ClassGetter
		} else if accessor == "set" {
			kind = ast.ClassSetter
		}
		return ast.ClassMember{Span: p.span(start), Kind: kind, Key: key, Computed: computed, Static: static, Value: fn}
	}

	var init ast.Expr
	if p.isPunct("=") {
		p.advance()
		init = p.parseAssignment()
	}
	p.consumeSemicolon()
	return ast.ClassMember{Span: p.span(start), Kind: ast.ClassField, Key: key, Computed: computed, Static: static, Value: init}
}

func (p *Parser) parseTemplateLiteral() *ast.TemplateLiteral {
	start := p.tok
	var quasis []ast.TemplateElement
	var exprs []ast.Expr

	quasis = append(quasis, ast.TemplateElement{Cooked: p.tok.Value, Raw: p.tok.Raw, Tail: p.tok.Type == lexer.NoSubstitutionTemplate})
	tail := p.tok.Type == lexer.NoSubstitutionTemplate
	p.advance()
	for !tail {
		exprs = append(exprs, p.parseExpression())
		if !p.isPunct("}") {
			p.fail("expected '}' in template substitution")
		}
		p.advanceTemplateTail()
		quasis = append(quasis, ast.TemplateElement{Cooked: p.tok.Value, Raw: p.tok.Raw, Tail: p.tok.Type == lexer.TemplateTail})
		tail = p.tok.Type == lexer.TemplateTail
		p.advance()
	}
	return &ast.TemplateLiteral{Quasis: quasis, Expressions: exprs, Base: ast.Base{Span: p.span(start)}}
}
