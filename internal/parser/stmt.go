package parser

import (
	"github.com/oxhq/jsengine/internal/ast"
	"github.com/oxhq/jsengine/internal/lexer"
)

// parseStatementList parses statements until stop reports true (used
// for both program/block bodies and lets the caller decide the
// terminator: EOF for a program, `}` for a block).
func (p *Parser) parseStatementList(stop func() bool) []ast.Stmt {
	var body []ast.Stmt
	for !stop() {
		body = append(body, p.parseStatement())
	}
	return body
}

func (p *Parser) parseStatement() ast.Stmt {
	switch {
	case p.isPunct("{"):
		return p.parseBlock()
	case p.isPunct(";"):
		start := p.tok
		p.advance()
		return &ast.EmptyStmt{Base: ast.Base{Span: p.span(start)}}
	case p.isKeyword("var") || p.isKeyword("let") || p.isKeyword("const"):
		d := p.parseVarDecl()
		p.consumeSemicolon()
		return d
	case p.isKeyword("function"):
		return p.parseFunctionDecl(false)
	case p.isIdentOrKeyword("async") && p.peekIsFunctionNoNewline():
		p.advance()
		return p.parseFunctionDecl(true)
	case p.isKeyword("class"):
		return p.parseClassDecl()
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("switch"):
		return p.parseSwitch()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("do"):
		return p.parseDoWhile()
	case p.isKeyword("for"):
		return p.parseFor()
	case p.isKeyword("try"):
		return p.parseTry()
	case p.isKeyword("throw"):
		return p.parseThrow()
	case p.isKeyword("return"):
		return p.parseReturn()
	case p.isKeyword("break"):
		return p.parseBreakContinue(true)
	case p.isKeyword("continue"):
		return p.parseBreakContinue(false)
	case p.isKeyword("with"):
		return p.parseWith()
	case p.isKeyword("debugger"):
		start := p.tok
		p.advance()
		p.consumeSemicolon()
		return &ast.DebuggerStmt{Base: ast.Base{Span: p.span(start)}}
	case p.isKeyword("import") && !p.isModuleImportCall():
		return p.parseImport()
	case p.isKeyword("export"):
		return p.parseExport()
	case p.tok.Type == lexer.Identifier:
		return p.parseIdentifierLeadStatement()
	default:
		return p.parseExpressionStatement()
	}
}

// isModuleImportCall distinguishes the `import` declaration keyword from
// the dynamic `import(...)` expression and `import.meta`, both of which
// start an ExpressionStatement instead.
func (p *Parser) isModuleImportCall() bool {
	cp := p.mark()
	p.advance()
	isCall := p.isPunct("(") || p.isPunct(".")
	p.rewind(cp)
	return isCall
}

// parseIdentifierLeadStatement resolves the ambiguity between a labelled
// statement (`ident: stmt`) and an expression statement starting with an
// identifier, using one token of backtracking lookahead.
func (p *Parser) parseIdentifierLeadStatement() ast.Stmt {
	cp := p.mark()
	start := p.tok
	name := p.tok.Value
	p.advance()
	if p.isPunct(":") {
		p.advance()
		label := ast.Identifier{Name: name, Base: ast.Base{Span: ast.Span{Start: start.Start, Line: start.Line}}}
		body := p.parseStatement()
		return &ast.LabeledStmt{Label: label, Body: body, Base: ast.Base{Span: p.span(start)}}
	}
	p.rewind(cp)
	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatement() ast.Stmt {
	start := p.tok
	expr := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ExpressionStmt{Expression: expr, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.tok
	p.expectPunct("{")
	body := p.parseStatementList(func() bool { return p.isPunct("}") })
	p.expectPunct("}")
	return &ast.BlockStmt{Body: body, Base: ast.Base{Span: p.span(start)}}
}

func varKindFromKeyword(v string) ast.VarKind {
	switch v {
	case "let":
		return ast.VarLet
	case "const":
		return ast.VarConst
	default:
		return ast.VarVar
	}
}

// parseVarDecl parses a var/let/const declaration without consuming the
// trailing semicolon, so for-header callers can reuse it.
func (p *Parser) parseVarDecl() *ast.VarDecl {
	start := p.tok
	kind := varKindFromKeyword(p.tok.Value)
	p.advance()

	var decls []ast.VarDeclarator
	for {
		target := p.parseBindingTarget()
		var init ast.Expr
		if p.isPunct("=") {
			p.advance()
			init = p.parseAssignment()
		}
		decls = append(decls, ast.VarDeclarator{Target: target, Init: init})
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return &ast.VarDecl{Kind: kind, Declarations: decls, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseFunctionDecl(async bool) ast.Stmt {
	start := p.tok
	p.expectKeyword("function")
	generator := false
	if p.isPunct("*") {
		generator = true
		p.advance()
	}
	nameStart := p.tok
	name := ""
	if !p.isPunct("(") { // `export default function () {}` has no name
		name = p.tok.Value
		p.advance()
	}
	params := p.parseParamList()
	savedYield, savedAwait := p.p.yield, p.p.await
	p.p.yield, p.p.await = generator, async
	body := p.parseFunctionBody()
	p.p.yield, p.p.await = savedYield, savedAwait
	return &ast.FunctionDecl{
		Name:      ast.Identifier{Name: name, Base: ast.Base{Span: ast.Span{Start: nameStart.Start, Line: nameStart.Line}}},
		Params:    params, Body: body, Generator: generator, Async: async,
		Base: ast.Base{Span: p.span(start)},
	}
}

func (p *Parser) parseClassDecl() ast.Stmt {
	start := p.tok
	p.expectKeyword("class")
	nameStart := p.tok
	name := ""
	if !p.isPunct("{") && !p.isKeyword("extends") { // `export default class {}` has no name
		name = p.tok.Value
		p.advance()
	}
	var super ast.Expr
	if p.isKeyword("extends") {
		p.advance()
		super = p.parseLeftHandSide()
	}
	body := p.parseClassBody()
	return &ast.ClassDecl{
		Name:       ast.Identifier{Name: name, Base: ast.Base{Span: ast.Span{Start: nameStart.Start, Line: nameStart.Line}}},
		SuperClass: super, Body: body,
		Base: ast.Base{Span: p.span(start)},
	}
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.tok
	p.advance() // 'if'
	p.expectPunct("(")
	savedIn := p.p.in
	p.p.in = true
	test := p.parseExpression()
	p.p.in = savedIn
	p.expectPunct(")")
	cons := p.parseStatement()
	var alt ast.Stmt
	if p.isKeyword("else") {
		p.advance()
		alt = p.parseStatement()
	}
	return &ast.IfStmt{Test: test, Consequent: cons, Alternate: alt, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseSwitch() ast.Stmt {
	start := p.tok
	p.advance() // 'switch'
	p.expectPunct("(")
	disc := p.parseExpression()
	p.expectPunct(")")
	p.expectPunct("{")
	var cases []ast.SwitchCase
	for !p.isPunct("}") {
		var test ast.Expr
		if p.isKeyword("case") {
			p.advance()
			test = p.parseExpression()
		} else {
			p.expectKeyword("default")
		}
		p.expectPunct(":")
		var body []ast.Stmt
		for !p.isKeyword("case") && !p.isKeyword("default") && !p.isPunct("}") {
			body = append(body, p.parseStatement())
		}
		cases = append(cases, ast.SwitchCase{Test: test, Body: body})
	}
	p.expectPunct("}")
	return &ast.SwitchStmt{Discriminant: disc, Cases: cases, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.tok
	p.advance() // 'while'
	p.expectPunct("(")
	savedIn := p.p.in
	p.p.in = true
	test := p.parseExpression()
	p.p.in = savedIn
	p.expectPunct(")")
	body := p.parseStatement()
	return &ast.WhileStmt{Test: test, Body: body, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseDoWhile() ast.Stmt {
	start := p.tok
	p.advance() // 'do'
	body := p.parseStatement()
	p.expectKeyword("while")
	p.expectPunct("(")
	test := p.parseExpression()
	p.expectPunct(")")
	if p.isPunct(";") {
		p.advance()
	}
	return &ast.DoWhileStmt{Body: body, Test: test, Base: ast.Base{Span: p.span(start)}}
}

// parseFor disambiguates the three for-header shapes (C-style, for-in,
// for-of) by speculatively parsing the init clause with `in` suppressed
// and then checking which keyword/punctuator follows.
func (p *Parser) parseFor() ast.Stmt {
	start := p.tok
	p.advance() // 'for'
	await := false
	if p.isKeyword("await") {
		await = true
		p.advance()
	}
	p.expectPunct("(")

	var init ast.Node
	if p.isPunct(";") {
		init = nil
	} else if p.isKeyword("var") || p.isKeyword("let") || p.isKeyword("const") {
		savedIn := p.p.in
		p.p.in = false
		decl := p.parseVarDecl()
		p.p.in = savedIn
		init = decl
		if (p.isKeyword("in") || p.isIdentOrKeyword("of")) && len(decl.Declarations) == 1 {
			return p.finishForInOf(start, decl, await)
		}
	} else {
		savedIn := p.p.in
		p.p.in = false
		expr := p.parseExpression()
		p.p.in = savedIn
		if p.isKeyword("in") || p.isIdentOrKeyword("of") {
			return p.finishForInOf(start, toPattern(expr), await)
		}
		init = &ast.ExpressionStmt{Expression: expr, Base: ast.Base{Span: expr.Pos()}}
	}
	p.expectPunct(";")
	var test ast.Expr
	if !p.isPunct(";") {
		test = p.parseExpression()
	}
	p.expectPunct(";")
	var update ast.Expr
	if !p.isPunct(")") {
		update = p.parseExpression()
	}
	p.expectPunct(")")
	body := p.parseStatement()
	return &ast.ForStmt{Init: init, Test: test, Update: update, Body: body, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) finishForInOf(start lexer.Token, left ast.Node, await bool) ast.Stmt {
	isOf := p.isIdentOrKeyword("of")
	p.advance() // 'in' or 'of'
	savedIn := p.p.in
	p.p.in = true
	right := p.parseAssignment()
	p.p.in = savedIn
	p.expectPunct(")")
	body := p.parseStatement()
	if isOf {
		return &ast.ForOfStmt{Left: left, Right: right, Body: body, Await: await, Base: ast.Base{Span: p.span(start)}}
	}
	return &ast.ForInStmt{Left: left, Right: right, Body: body, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseTry() ast.Stmt {
	start := p.tok
	p.advance() // 'try'
	block := p.parseBlock()
	var param ast.Expr
	var handler *ast.BlockStmt
	var finalizer *ast.BlockStmt
	if p.isKeyword("catch") {
		p.advance()
		if p.isPunct("(") {
			p.advance()
			param = p.parseBindingTarget()
			p.expectPunct(")")
		}
		handler = p.parseBlock()
	}
	if p.isKeyword("finally") {
		p.advance()
		finalizer = p.parseBlock()
	}
	return &ast.TryStmt{Block: block, Param: param, Handler: handler, Finalizer: finalizer, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseThrow() ast.Stmt {
	start := p.tok
	p.advance() // 'throw'
	if p.tok.NewlineBefore {
		p.fail("illegal newline after throw")
	}
	arg := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ThrowStmt{Argument: arg, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseReturn() ast.Stmt {
	start := p.tok
	p.advance() // 'return'
	var arg ast.Expr
	if !p.tok.NewlineBefore && canStartExpression(p.tok) {
		arg = p.parseExpression()
	}
	p.consumeSemicolon()
	return &ast.ReturnStmt{Argument: arg, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseBreakContinue(isBreak bool) ast.Stmt {
	start := p.tok
	p.advance() // 'break'/'continue'
	var label *ast.Identifier
	if p.tok.Type == lexer.Identifier && !p.tok.NewlineBefore {
		ls := p.tok
		name := p.tok.Value
		p.advance()
		label = &ast.Identifier{Name: name, Base: ast.Base{Span: ast.Span{Start: ls.Start, Line: ls.Line}}}
	}
	p.consumeSemicolon()
	if isBreak {
		return &ast.BreakStmt{Label: label, Base: ast.Base{Span: p.span(start)}}
	}
	return &ast.ContinueStmt{Label: label, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseWith() ast.Stmt {
	start := p.tok
	p.advance() // 'with'
	p.expectPunct("(")
	obj := p.parseExpression()
	p.expectPunct(")")
	body := p.parseStatement()
	return &ast.WithStmt{Object: obj, Body: body, Base: ast.Base{Span: p.span(start)}}
}

// ---- Modules (spec §4.12) ----

func (p *Parser) parseImport() ast.Stmt {
	start := p.tok
	p.advance() // 'import'
	var specs []ast.ImportSpecifier

	if p.tok.Type == lexer.StringLiteral {
		src := ast.StringLiteral{Value: p.tok.Value}
		p.advance()
		p.consumeSemicolon()
		return &ast.ImportDecl{Specifiers: nil, Source: src, Base: ast.Base{Span: p.span(start)}}
	}

	if p.tok.Type == lexer.Identifier {
		name := p.tok.Value
		ns := p.tok
		p.advance()
		specs = append(specs, ast.ImportSpecifier{Default: true, Local: ast.Identifier{Name: name, Base: ast.Base{Span: ast.Span{Start: ns.Start, Line: ns.Line}}}})
		if p.isPunct(",") {
			p.advance()
		}
	}
	if p.isPunct("*") {
		p.advance()
		p.expectKeyword("as")
		ns := p.tok
		name := p.tok.Value
		p.advance()
		specs = append(specs, ast.ImportSpecifier{Namespace: true, Local: ast.Identifier{Name: name, Base: ast.Base{Span: ast.Span{Start: ns.Start, Line: ns.Line}}}})
	} else if p.isPunct("{") {
		p.advance()
		for !p.isPunct("}") {
			importedStart := p.tok
			imported := p.tok.Value
			p.advance()
			local := imported
			localStart := importedStart
			if p.isKeyword("as") {
				p.advance()
				localStart = p.tok
				local = p.tok.Value
				p.advance()
			}
			impIdent := ast.Identifier{Name: imported, Base: ast.Base{Span: ast.Span{Start: importedStart.Start, Line: importedStart.Line}}}
			specs = append(specs, ast.ImportSpecifier{
				Imported: &impIdent,
				Local:    ast.Identifier{Name: local, Base: ast.Base{Span: ast.Span{Start: localStart.Start, Line: localStart.Line}}},
			})
			if p.isPunct(",") {
				p.advance()
			} else {
				break
			}
		}
		p.expectPunct("}")
	}
	p.expectKeyword("from")
	src := ast.StringLiteral{Value: p.tok.Value}
	p.advance()
	p.consumeSemicolon()
	return &ast.ImportDecl{Specifiers: specs, Source: src, Base: ast.Base{Span: p.span(start)}}
}

func (p *Parser) parseExport() ast.Stmt {
	start := p.tok
	p.advance() // 'export'

	if p.isKeyword("default") {
		p.advance()
		var decl ast.Node
		switch {
		case p.isKeyword("function"):
			decl = p.parseFunctionDecl(false)
		case p.isIdentOrKeyword("async") && p.peekIsFunctionNoNewline():
			p.advance()
			decl = p.parseFunctionDecl(true)
		case p.isKeyword("class"):
			decl = p.parseClassDecl()
		default:
			decl = p.parseAssignment()
			p.consumeSemicolon()
		}
		return &ast.ExportDefaultDecl{Declaration: decl, Base: ast.Base{Span: p.span(start)}}
	}

	if p.isPunct("*") {
		p.advance()
		var exported *ast.Identifier
		if p.isKeyword("as") {
			p.advance()
			ns := p.tok
			name := p.tok.Value
			p.advance()
			exported = &ast.Identifier{Name: name, Base: ast.Base{Span: ast.Span{Start: ns.Start, Line: ns.Line}}}
		}
		p.expectKeyword("from")
		src := ast.StringLiteral{Value: p.tok.Value}
		p.advance()
		p.consumeSemicolon()
		return &ast.ExportAllDecl{Exported: exported, Source: src, Base: ast.Base{Span: p.span(start)}}
	}

	if p.isPunct("{") {
		p.advance()
		var specs []ast.ExportSpecifier
		for !p.isPunct("}") {
			localStart := p.tok
			local := p.tok.Value
			p.advance()
			exported := local
			exportedStart := localStart
			if p.isKeyword("as") {
				p.advance()
				exportedStart = p.tok
				exported = p.tok.Value
				p.advance()
			}
			specs = append(specs, ast.ExportSpecifier{
				Local:    ast.Identifier{Name: local, Base: ast.Base{Span: ast.Span{Start: localStart.Start, Line: localStart.Line}}},
				Exported: ast.Identifier{Name: exported, Base: ast.Base{Span: ast.Span{Start: exportedStart.Start, Line: exportedStart.Line}}},
			})
			if p.isPunct(",") {
				p.advance()
			} else {
				break
			}
		}
		p.expectPunct("}")
		var source *ast.StringLiteral
		if p.isKeyword("from") {
			p.advance()
			s := ast.StringLiteral{Value: p.tok.Value}
			p.advance()
			source = &s
		}
		p.consumeSemicolon()
		return &ast.ExportNamedDecl{Specifiers: specs, Source: source, Base: ast.Base{Span: p.span(start)}}
	}

	var decl ast.Stmt
	switch {
	case p.isKeyword("var") || p.isKeyword("let") || p.isKeyword("const"):
		decl = p.parseVarDecl()
		p.consumeSemicolon()
	case p.isKeyword("function"):
		decl = p.parseFunctionDecl(false)
	case p.isIdentOrKeyword("async") && p.peekIsFunctionNoNewline():
		p.advance()
		decl = p.parseFunctionDecl(true)
	case p.isKeyword("class"):
		decl = p.parseClassDecl()
	default:
		p.fail("unexpected token after export")
	}
	return &ast.ExportNamedDecl{Declaration: decl, Base: ast.Base{Span: p.span(start)}}
}
