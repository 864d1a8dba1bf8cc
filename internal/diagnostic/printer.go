// Package diagnostic implements the round-trip parse/print/reparse check
// described by SPEC_FULL §4.14: a pretty-printer renders an AST back to
// source, the source is reparsed, and the two renderings are compared so a
// parser/printer divergence surfaces as a unified diff instead of a silent
// miscompile. Diff rendering is lifted from the teacher's
// internal/util.UnifiedDiff (providers/base/provider.go uses the same
// difflib call for its own before/after rendering).
package diagnostic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oxhq/jsengine/internal/ast"
)

// Print renders prog back to JavaScript source. It does not attempt to
// preserve the original formatting (comments, exact whitespace) — only
// that reparsing its own output reproduces an equivalent program, which is
// all RoundTrip needs.
func Print(prog *ast.Program) string {
	p := &printer{}
	p.stmts(prog.Body)
	return p.b.String()
}

type printer struct {
	b     strings.Builder
	depth int
}

func (p *printer) indent() {
	p.b.WriteString(strings.Repeat("  ", p.depth))
}

func (p *printer) stmts(body []ast.Stmt) {
	for _, s := range body {
		p.stmt(s)
	}
}

func (p *printer) block(body []ast.Stmt) {
	p.b.WriteString("{\n")
	p.depth++
	p.stmts(body)
	p.depth--
	p.indent()
	p.b.WriteString("}")
}

func (p *printer) stmt(s ast.Stmt) {
	p.indent()
	p.stmtBody(s)
}

// stmtBody renders s without writing a leading indent, for contexts where
// the caller already positioned the cursor (if/else/loop bodies, `export`,
// a case label's own line).
func (p *printer) stmtBody(s ast.Stmt) {
	switch t := s.(type) {
	case *ast.ExpressionStmt:
		p.expr(t.Expression, 0)
		p.b.WriteString(";\n")
	case *ast.BlockStmt:
		p.block(t.Body)
		p.b.WriteString("\n")
	case *ast.EmptyStmt:
		p.b.WriteString(";\n")
	case *ast.DebuggerStmt:
		p.b.WriteString("debugger;\n")
	case *ast.VarDecl:
		p.varDecl(t)
		p.b.WriteString(";\n")
	case *ast.FunctionDecl:
		p.b.WriteString(functionHeader("function", t.Generator, t.Async, t.Name.Name, t.Params))
		p.b.WriteString(" ")
		p.block(t.Body)
		p.b.WriteString("\n")
	case *ast.ClassDecl:
		p.classBody("class "+t.Name.Name, t.SuperClass, t.Body)
		p.b.WriteString("\n")
	case *ast.IfStmt:
		p.b.WriteString("if (")
		p.expr(t.Test, 0)
		p.b.WriteString(") ")
		p.stripIndentStmt(t.Consequent)
		if t.Alternate != nil {
			p.indent()
			p.b.WriteString("else ")
			p.stripIndentStmt(t.Alternate)
		}
	case *ast.SwitchStmt:
		p.b.WriteString("switch (")
		p.expr(t.Discriminant, 0)
		p.b.WriteString(") {\n")
		p.depth++
		for _, c := range t.Cases {
			p.indent()
			if c.Test != nil {
				p.b.WriteString("case ")
				p.expr(c.Test, 0)
				p.b.WriteString(":\n")
			} else {
				p.b.WriteString("default:\n")
			}
			p.depth++
			p.stmts(c.Body)
			p.depth--
		}
		p.depth--
		p.indent()
		p.b.WriteString("}\n")
	case *ast.WhileStmt:
		p.b.WriteString("while (")
		p.expr(t.Test, 0)
		p.b.WriteString(") ")
		p.stripIndentStmt(t.Body)
	case *ast.DoWhileStmt:
		p.b.WriteString("do ")
		p.stripIndentStmt(t.Body)
		p.indent()
		p.b.WriteString("while (")
		p.expr(t.Test, 0)
		p.b.WriteString(");\n")
	case *ast.ForStmt:
		p.b.WriteString("for (")
		p.forInit(t.Init)
		p.b.WriteString("; ")
		if t.Test != nil {
			p.expr(t.Test, 0)
		}
		p.b.WriteString("; ")
		if t.Update != nil {
			p.expr(t.Update, 0)
		}
		p.b.WriteString(") ")
		p.stripIndentStmt(t.Body)
	case *ast.ForInStmt:
		p.b.WriteString("for (")
		p.forInit(t.Left)
		p.b.WriteString(" in ")
		p.expr(t.Right, 0)
		p.b.WriteString(") ")
		p.stripIndentStmt(t.Body)
	case *ast.ForOfStmt:
		p.b.WriteString("for ")
		if t.Await {
			p.b.WriteString("await ")
		}
		p.b.WriteString("(")
		p.forInit(t.Left)
		p.b.WriteString(" of ")
		p.expr(t.Right, 0)
		p.b.WriteString(") ")
		p.stripIndentStmt(t.Body)
	case *ast.TryStmt:
		p.b.WriteString("try ")
		p.block(t.Block.Body)
		p.b.WriteString("\n")
		if t.Handler != nil {
			p.indent()
			p.b.WriteString("catch ")
			if t.Param != nil {
				p.b.WriteString("(")
				p.expr(t.Param, 0)
				p.b.WriteString(") ")
			}
			p.block(t.Handler.Body)
			p.b.WriteString("\n")
		}
		if t.Finalizer != nil {
			p.indent()
			p.b.WriteString("finally ")
			p.block(t.Finalizer.Body)
			p.b.WriteString("\n")
		}
		return
	case *ast.ThrowStmt:
		p.b.WriteString("throw ")
		p.expr(t.Argument, 0)
		p.b.WriteString(";\n")
	case *ast.BreakStmt:
		p.b.WriteString("break")
		if t.Label != nil {
			p.b.WriteString(" " + t.Label.Name)
		}
		p.b.WriteString(";\n")
	case *ast.ContinueStmt:
		p.b.WriteString("continue")
		if t.Label != nil {
			p.b.WriteString(" " + t.Label.Name)
		}
		p.b.WriteString(";\n")
	case *ast.ReturnStmt:
		p.b.WriteString("return")
		if t.Argument != nil {
			p.b.WriteString(" ")
			p.expr(t.Argument, 0)
		}
		p.b.WriteString(";\n")
	case *ast.WithStmt:
		p.b.WriteString("with (")
		p.expr(t.Object, 0)
		p.b.WriteString(") ")
		p.stripIndentStmt(t.Body)
	case *ast.LabeledStmt:
		p.b.WriteString(t.Label.Name + ": ")
		p.stripIndentStmt(t.Body)
	case *ast.ImportDecl:
		p.importDecl(t)
	case *ast.ExportNamedDecl:
		p.b.WriteString("export ")
		if t.Declaration != nil {
			p.stmtBody(t.Declaration)
			return
		}
		p.b.WriteString("{ ")
		for i, s := range t.Specifiers {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.b.WriteString(s.Local.Name)
			if s.Exported.Name != s.Local.Name {
				p.b.WriteString(" as " + s.Exported.Name)
			}
		}
		p.b.WriteString(" }")
		if t.Source != nil {
			p.b.WriteString(" from " + strconv.Quote(t.Source.Value))
		}
		p.b.WriteString(";\n")
	case *ast.ExportDefaultDecl:
		p.b.WriteString("export default ")
		switch d := t.Declaration.(type) {
		case ast.Expr:
			p.expr(d, 0)
			p.b.WriteString(";\n")
		case ast.Stmt:
			p.stmtBody(d)
		}
	case *ast.ExportAllDecl:
		p.b.WriteString("export * ")
		if t.Exported != nil {
			p.b.WriteString("as " + t.Exported.Name + " ")
		}
		p.b.WriteString("from " + strconv.Quote(t.Source.Value) + ";\n")
	default:
		p.b.WriteString(fmt.Sprintf("/* unprintable %T */;\n", s))
	}
}

// stripIndentStmt prints a nested statement (loop/if body) without an
// extra leading indent, since the caller already positioned the cursor:
// a block renders inline on the current line, anything else renders as if
// it were its own statement but skipping the indent prefix.
func (p *printer) stripIndentStmt(s ast.Stmt) {
	if bs, ok := s.(*ast.BlockStmt); ok {
		p.block(bs.Body)
		p.b.WriteString("\n")
		return
	}
	p.stmtBody(s)
}

func (p *printer) forInit(n ast.Node) {
	switch t := n.(type) {
	case nil:
	case *ast.VarDecl:
		p.varDecl(t)
	case ast.Expr:
		p.expr(t, 0)
	}
}

func (p *printer) varDecl(t *ast.VarDecl) {
	switch t.Kind {
	case ast.VarLet:
		p.b.WriteString("let ")
	case ast.VarConst:
		p.b.WriteString("const ")
	default:
		p.b.WriteString("var ")
	}
	for i, d := range t.Declarations {
		if i > 0 {
			p.b.WriteString(", ")
		}
		p.expr(d.Target, 0)
		if d.Init != nil {
			p.b.WriteString(" = ")
			p.expr(d.Init, 0)
		}
	}
}

func (p *printer) importDecl(t *ast.ImportDecl) {
	p.b.WriteString("import ")
	if len(t.Specifiers) > 0 {
		var named []string
		for _, s := range t.Specifiers {
			switch {
			case s.Default:
				p.b.WriteString(s.Local.Name + ", ")
			case s.Namespace:
				p.b.WriteString("* as " + s.Local.Name + ", ")
			default:
				if s.Imported != nil && s.Imported.Name != s.Local.Name {
					named = append(named, s.Imported.Name+" as "+s.Local.Name)
				} else {
					named = append(named, s.Local.Name)
				}
			}
		}
		if len(named) > 0 {
			p.b.WriteString("{ " + strings.Join(named, ", ") + " } ")
		}
		p.b.WriteString("from ")
	}
	p.b.WriteString(strconv.Quote(t.Source.Value) + ";\n")
}

func functionHeader(kw string, gen, async bool, name string, params []ast.Param) string {
	var b strings.Builder
	if async {
		b.WriteString("async ")
	}
	b.WriteString(kw)
	if gen {
		b.WriteString("*")
	}
	if name != "" {
		b.WriteString(" " + name)
	} else {
		b.WriteString(" ")
	}
	b.WriteString("(")
	b.WriteString(paramsString(params))
	b.WriteString(")")
	return b.String()
}

func paramsString(params []ast.Param) string {
	p := &printer{}
	for i, param := range params {
		if i > 0 {
			p.b.WriteString(", ")
		}
		if param.Rest {
			p.b.WriteString("...")
		}
		p.expr(param.Target, 0)
		if param.Default != nil {
			p.b.WriteString(" = ")
			p.expr(param.Default, 0)
		}
	}
	return p.b.String()
}

func (p *printer) classBody(header string, super ast.Expr, members []ast.ClassMember) {
	p.b.WriteString(header)
	if super != nil {
		p.b.WriteString(" extends ")
		p.expr(super, 0)
	}
	p.b.WriteString(" {\n")
	p.depth++
	for _, m := range members {
		p.indent()
		p.classMember(m)
	}
	p.depth--
	p.indent()
	p.b.WriteString("}")
}

func (p *printer) classMember(m ast.ClassMember) {
	if m.Kind == ast.ClassStaticBlock {
		p.b.WriteString("static ")
		p.block(m.Body)
		p.b.WriteString("\n")
		return
	}
	if m.Static {
		p.b.WriteString("static ")
	}
	keyStr := p.exprString(m.Key)
	if m.Computed {
		keyStr = "[" + keyStr + "]"
	}
	switch m.Kind {
	case ast.ClassField:
		p.b.WriteString(keyStr)
		if m.Value != nil {
			p.b.WriteString(" = ")
			p.expr(m.Value, 0)
		}
		p.b.WriteString(";\n")
	case ast.ClassGetter, ast.ClassSetter:
		if m.Kind == ast.ClassGetter {
			p.b.WriteString("get ")
		} else {
			p.b.WriteString("set ")
		}
		fn := m.Value.(*ast.FunctionExpr)
		p.b.WriteString(keyStr + "(" + paramsString(fn.Params) + ") ")
		p.block(fn.Body)
		p.b.WriteString("\n")
	default:
		fn := m.Value.(*ast.FunctionExpr)
		header := ""
		if fn.Async {
			header += "async "
		}
		if fn.Generator {
			header += "*"
		}
		p.b.WriteString(header + keyStr + "(" + paramsString(fn.Params) + ") ")
		p.block(fn.Body)
		p.b.WriteString("\n")
	}
}

// exprString renders an expression to a standalone string, for contexts
// (object/class keys) that need the text without touching p's own buffer.
func (p *printer) exprString(e ast.Expr) string {
	sub := &printer{}
	sub.expr(e, 0)
	return sub.b.String()
}

// precedence levels, loosely graded; ties err on the side of extra parens,
// which is always syntactically valid even if not maximally terse.
func precedence(e ast.Expr) int {
	switch t := e.(type) {
	case *ast.SequenceExpr:
		return 0
	case *ast.AssignmentExpr, *ast.YieldExpr, *ast.ArrowFunctionExpr:
		return 1
	case *ast.ConditionalExpr:
		return 2
	case *ast.LogicalExpr:
		if t.Operator == "??" {
			return 3
		}
		return 4
	case *ast.BinaryExpr:
		return 5
	case *ast.UnaryExpr, *ast.AwaitExpr:
		return 6
	case *ast.UpdateExpr:
		return 7
	case *ast.CallExpr, *ast.NewExpr, *ast.MemberExpr:
		return 8
	default:
		return 9
	}
}

func (p *printer) expr(e ast.Expr, parentPrec int) {
	if e == nil {
		return
	}
	prec := precedence(e)
	wrap := prec < parentPrec
	if wrap {
		p.b.WriteString("(")
	}
	p.exprInner(e, prec)
	if wrap {
		p.b.WriteString(")")
	}
}

func (p *printer) exprInner(e ast.Expr, prec int) {
	switch t := e.(type) {
	case *ast.Identifier:
		p.b.WriteString(t.Name)
	case *ast.PrivateName:
		p.b.WriteString("#" + t.Name)
	case *ast.ThisExpr:
		p.b.WriteString("this")
	case *ast.SuperExpr:
		p.b.WriteString("super")
	case *ast.NullLiteral:
		p.b.WriteString("null")
	case *ast.BooleanLiteral:
		p.b.WriteString(strconv.FormatBool(t.Value))
	case *ast.NumericLiteral:
		p.b.WriteString(strconv.FormatFloat(t.Value, 'g', -1, 64))
	case *ast.BigIntLiteral:
		p.b.WriteString(t.Raw + "n")
	case *ast.StringLiteral:
		p.b.WriteString(strconv.Quote(t.Value))
	case *ast.RegExpLiteral:
		p.b.WriteString("/" + t.Pattern + "/" + t.Flags)
	case *ast.TemplateLiteral:
		p.b.WriteString("`")
		for i, q := range t.Quasis {
			p.b.WriteString(q.Raw)
			if i < len(t.Expressions) {
				p.b.WriteString("${")
				p.expr(t.Expressions[i], 0)
				p.b.WriteString("}")
			}
		}
		p.b.WriteString("`")
	case *ast.TaggedTemplateExpr:
		p.expr(t.Tag, prec)
		p.exprInner(t.Quasi, 0)
	case *ast.ArrayLiteral:
		p.b.WriteString("[")
		for i, el := range t.Elements {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.expr(el, 1)
		}
		p.b.WriteString("]")
	case *ast.SpreadElement:
		p.b.WriteString("...")
		p.expr(t.Argument, 1)
	case *ast.ObjectLiteral:
		p.b.WriteString("{")
		for i, prop := range t.Properties {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.objectProperty(prop)
		}
		p.b.WriteString("}")
	case *ast.UnaryExpr:
		op := string(t.Operator)
		if len(op) > 1 {
			p.b.WriteString(op + " ")
		} else {
			p.b.WriteString(op)
		}
		p.expr(t.Argument, prec)
	case *ast.UpdateExpr:
		if t.Prefix {
			p.b.WriteString(t.Operator)
			p.expr(t.Argument, prec)
		} else {
			p.expr(t.Argument, prec)
			p.b.WriteString(t.Operator)
		}
	case *ast.BinaryExpr:
		p.expr(t.Left, prec)
		p.b.WriteString(" " + t.Operator + " ")
		p.expr(t.Right, prec+1)
	case *ast.LogicalExpr:
		p.expr(t.Left, prec)
		p.b.WriteString(" " + t.Operator + " ")
		p.expr(t.Right, prec+1)
	case *ast.AssignmentExpr:
		p.expr(t.Target, prec+1)
		p.b.WriteString(" " + t.Operator + " ")
		p.expr(t.Value, prec)
	case *ast.ConditionalExpr:
		p.expr(t.Test, prec+1)
		p.b.WriteString(" ? ")
		p.expr(t.Consequent, 1)
		p.b.WriteString(" : ")
		p.expr(t.Alternate, 1)
	case *ast.CallExpr:
		p.expr(t.Callee, prec)
		if t.Optional {
			p.b.WriteString("?.")
		}
		p.b.WriteString("(")
		p.argList(t.Args)
		p.b.WriteString(")")
	case *ast.NewExpr:
		p.b.WriteString("new ")
		p.expr(t.Callee, prec)
		p.b.WriteString("(")
		p.argList(t.Args)
		p.b.WriteString(")")
	case *ast.MemberExpr:
		p.expr(t.Object, prec)
		if t.Computed {
			if t.Optional {
				p.b.WriteString("?.")
			}
			p.b.WriteString("[")
			p.expr(t.Property, 0)
			p.b.WriteString("]")
		} else {
			if t.Optional {
				p.b.WriteString("?.")
			} else {
				p.b.WriteString(".")
			}
			p.expr(t.Property, 0)
		}
	case *ast.SequenceExpr:
		for i, sub := range t.Expressions {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.expr(sub, 1)
		}
	case *ast.YieldExpr:
		p.b.WriteString("yield")
		if t.Delegate {
			p.b.WriteString("*")
		}
		if t.Argument != nil {
			p.b.WriteString(" ")
			p.expr(t.Argument, 1)
		}
	case *ast.AwaitExpr:
		p.b.WriteString("await ")
		p.expr(t.Argument, prec)
	case *ast.FunctionExpr:
		name := ""
		if t.Name != nil {
			name = t.Name.Name
		}
		p.b.WriteString(functionHeader("function", t.Generator, t.Async, name, t.Params))
		p.b.WriteString(" ")
		p.block(t.Body)
	case *ast.ArrowFunctionExpr:
		if t.Async {
			p.b.WriteString("async ")
		}
		p.b.WriteString("(" + paramsString(t.Params) + ") => ")
		if t.ExprBody != nil {
			p.expr(t.ExprBody, 1)
		} else {
			p.block(t.Body)
		}
	case *ast.ClassExpr:
		name := ""
		if t.Name != nil {
			name = " " + t.Name.Name
		}
		p.classBody("class"+name, t.SuperClass, t.Body)
	case *ast.ArrayPattern:
		p.b.WriteString("[")
		for i, el := range t.Elements {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.expr(el, 1)
		}
		p.b.WriteString("]")
	case *ast.ObjectPattern:
		p.b.WriteString("{")
		for i, prop := range t.Properties {
			if i > 0 {
				p.b.WriteString(", ")
			}
			if prop.Rest {
				p.b.WriteString("...")
				p.expr(prop.Value, 1)
				continue
			}
			keyStr := p.exprString(prop.Key)
			if prop.Computed {
				keyStr = "[" + keyStr + "]"
			}
			p.b.WriteString(keyStr + ": ")
			p.expr(prop.Value, 1)
		}
		p.b.WriteString("}")
	case *ast.AssignmentPattern:
		p.expr(t.Target, prec)
		p.b.WriteString(" = ")
		p.expr(t.Default, prec)
	case *ast.RestElement:
		p.b.WriteString("...")
		p.expr(t.Argument, 1)
	default:
		p.b.WriteString(fmt.Sprintf("/* unprintable %T */", e))
	}
}

func (p *printer) objectProperty(prop ast.ObjectProperty) {
	if prop.Kind == ast.PropSpread {
		p.b.WriteString("...")
		p.expr(prop.Value, 1)
		return
	}
	keyStr := p.exprString(prop.Key)
	if prop.Computed {
		keyStr = "[" + keyStr + "]"
	}
	switch prop.Kind {
	case ast.PropGet, ast.PropSet:
		kw := "get"
		if prop.Kind == ast.PropSet {
			kw = "set"
		}
		fn := prop.Value.(*ast.FunctionExpr)
		p.b.WriteString(kw + " " + keyStr + "(" + paramsString(fn.Params) + ") ")
		p.block(fn.Body)
	case ast.PropMethod:
		fn := prop.Value.(*ast.FunctionExpr)
		header := ""
		if fn.Async {
			header += "async "
		}
		if fn.Generator {
			header += "*"
		}
		p.b.WriteString(header + keyStr + "(" + paramsString(fn.Params) + ") ")
		p.block(fn.Body)
	default:
		if prop.Shorthand {
			p.b.WriteString(keyStr)
			return
		}
		p.b.WriteString(keyStr + ": ")
		p.expr(prop.Value, 1)
	}
}

func (p *printer) argList(args []ast.Expr) {
	for i, a := range args {
		if i > 0 {
			p.b.WriteString(", ")
		}
		p.expr(a, 1)
	}
}
