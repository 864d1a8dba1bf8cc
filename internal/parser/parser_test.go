package parser

import (
	"testing"

	"github.com/oxhq/jsengine/internal/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse(src)
	require.NoError(t, err, "source: %s", src)
	return prog
}

func TestParseArithmeticExpression(t *testing.T) {
	prog := mustParse(t, "1 + 2 * 3;")
	require.Len(t, prog.Body, 1)
	stmt := prog.Body[0].(*ast.ExpressionStmt)
	bin := stmt.Expression.(*ast.BinaryExpr)
	assert.Equal(t, "+", bin.Operator)
	assert.Equal(t, float64(1), bin.Left.(*ast.NumericLiteral).Value)
	rhs := bin.Right.(*ast.BinaryExpr)
	assert.Equal(t, "*", rhs.Operator)
}

func TestParseRecursiveFibonacci(t *testing.T) {
	src := `function f(n){return n<2?n:f(n-1)+f(n-2)}`
	prog := mustParse(t, src)
	require.Len(t, prog.Body, 1)
	fn := prog.Body[0].(*ast.FunctionDecl)
	assert.Equal(t, "f", fn.Name.Name)
	require.Len(t, fn.Params, 1)
	require.Len(t, fn.Body, 1)
	ret := fn.Body[0].(*ast.ReturnStmt)
	_, ok := ret.Argument.(*ast.ConditionalExpr)
	assert.True(t, ok)
}

func TestParseClosureOverLoopVariable(t *testing.T) {
	src := `let a=[]; for(let i=0;i<3;i++) a.push(()=>i); a.map(f=>f())`
	prog := mustParse(t, src)
	require.Len(t, prog.Body, 3)
	forStmt := prog.Body[1].(*ast.ForStmt)
	_, ok := forStmt.Init.(*ast.VarDecl)
	assert.True(t, ok)
	exprStmt := forStmt.Body.(*ast.ExpressionStmt)
	call := exprStmt.Expression.(*ast.CallExpr)
	arrow := call.Args[0].(*ast.ArrowFunctionExpr)
	assert.Empty(t, arrow.Params)
	_, isIdent := arrow.ExprBody.(*ast.Identifier)
	assert.True(t, isIdent)
}

func TestParseTryCatchFinally(t *testing.T) {
	src := `try{throw 1}catch(e){var x=e}finally{x+=10} x`
	prog := mustParse(t, src)
	require.Len(t, prog.Body, 2)
	tryStmt := prog.Body[0].(*ast.TryStmt)
	require.NotNil(t, tryStmt.Handler)
	require.NotNil(t, tryStmt.Finalizer)
	_, isIdentParam := tryStmt.Param.(*ast.Identifier)
	assert.True(t, isIdentParam)
}

func TestParseAsyncFunctionAndThen(t *testing.T) {
	src := `async function g(){return 1} g().then(v=>v+1)`
	prog := mustParse(t, src)
	require.Len(t, prog.Body, 2)
	fn := prog.Body[0].(*ast.FunctionDecl)
	assert.True(t, fn.Async)
}

func TestParseGeneratorAndSpread(t *testing.T) {
	src := `function* g(){yield 1; yield 2} [...g()]`
	prog := mustParse(t, src)
	require.Len(t, prog.Body, 2)
	fn := prog.Body[0].(*ast.FunctionDecl)
	assert.True(t, fn.Generator)
	exprStmt := prog.Body[1].(*ast.ExpressionStmt)
	arr := exprStmt.Expression.(*ast.ArrayLiteral)
	_, isSpread := arr.Elements[0].(*ast.SpreadElement)
	assert.True(t, isSpread)
}

func TestASIReturnThenBlock(t *testing.T) {
	src := "function f() {\nreturn\n{}\n}"
	prog := mustParse(t, src)
	fn := prog.Body[0].(*ast.FunctionDecl)
	require.Len(t, fn.Body, 2)
	ret := fn.Body[0].(*ast.ReturnStmt)
	assert.Nil(t, ret.Argument)
	_, isBlock := fn.Body[1].(*ast.BlockStmt)
	assert.True(t, isBlock)
}

func TestASINoLineTerminatorBeforePostfix(t *testing.T) {
	src := "a = b\n++c"
	prog := mustParse(t, src)
	require.Len(t, prog.Body, 2)
	assign := prog.Body[0].(*ast.ExpressionStmt).Expression.(*ast.AssignmentExpr)
	assert.Equal(t, "=", assign.Operator)
	update := prog.Body[1].(*ast.ExpressionStmt).Expression.(*ast.UpdateExpr)
	assert.True(t, update.Prefix)
	assert.Equal(t, "++", update.Operator)
}

func TestArrowFunctionSingleParam(t *testing.T) {
	prog := mustParse(t, "const f = x => x + 1;")
	decl := prog.Body[0].(*ast.VarDecl)
	arrow := decl.Declarations[0].Init.(*ast.ArrowFunctionExpr)
	require.Len(t, arrow.Params, 1)
	assert.NotNil(t, arrow.ExprBody)
}

func TestArrowFunctionMultiParamWithDefaultAndRest(t *testing.T) {
	prog := mustParse(t, "const f = (a, b=2, ...rest) => a;")
	decl := prog.Body[0].(*ast.VarDecl)
	arrow := decl.Declarations[0].Init.(*ast.ArrowFunctionExpr)
	require.Len(t, arrow.Params, 3)
	assert.NotNil(t, arrow.Params[1].Default)
	assert.True(t, arrow.Params[2].Rest)
}

func TestDestructuringAssignmentTarget(t *testing.T) {
	prog := mustParse(t, "let [a, b] = [1, 2];")
	decl := prog.Body[0].(*ast.VarDecl)
	_, isArrPattern := decl.Declarations[0].Target.(*ast.ArrayPattern)
	assert.True(t, isArrPattern)
}

func TestObjectLiteralShorthandAndMethod(t *testing.T) {
	prog := mustParse(t, "const o = {x, f(){return 1}};")
	decl := prog.Body[0].(*ast.VarDecl)
	obj := decl.Declarations[0].Init.(*ast.ObjectLiteral)
	require.Len(t, obj.Properties, 2)
	assert.True(t, obj.Properties[0].Shorthand)
	assert.Equal(t, ast.PropMethod, obj.Properties[1].Kind)
}

func TestClassWithMethodsAndFields(t *testing.T) {
	src := `class C extends B { x = 1; constructor(){super()} m(){return this.x} }`
	prog := mustParse(t, src)
	cls := prog.Body[0].(*ast.ClassDecl)
	assert.NotNil(t, cls.SuperClass)
	require.Len(t, cls.Body, 3)
	assert.Equal(t, ast.ClassField, cls.Body[0].Kind)
}

func TestTemplateLiteralWithSubstitution(t *testing.T) {
	prog := mustParse(t, "`a${1+1}b`;")
	stmt := prog.Body[0].(*ast.ExpressionStmt)
	tpl := stmt.Expression.(*ast.TemplateLiteral)
	require.Len(t, tpl.Quasis, 2)
	require.Len(t, tpl.Expressions, 1)
	assert.Equal(t, "a", tpl.Quasis[0].Cooked)
	assert.Equal(t, "b", tpl.Quasis[1].Cooked)
}

func TestOptionalChainingAndNullishCoalescing(t *testing.T) {
	prog := mustParse(t, "a?.b ?? c;")
	stmt := prog.Body[0].(*ast.ExpressionStmt)
	logical := stmt.Expression.(*ast.LogicalExpr)
	assert.Equal(t, "??", logical.Operator)
	member := logical.Left.(*ast.MemberExpr)
	assert.True(t, member.Optional)
}

func TestForOfLoop(t *testing.T) {
	prog := mustParse(t, "for (const x of xs) { y += x; }")
	forOf := prog.Body[0].(*ast.ForOfStmt)
	assert.NotNil(t, forOf.Left)
	assert.NotNil(t, forOf.Right)
}

func TestForInLoop(t *testing.T) {
	prog := mustParse(t, "for (const k in obj) { y += k; }")
	forIn := prog.Body[0].(*ast.ForInStmt)
	assert.NotNil(t, forIn.Left)
}

func TestLabeledStatementAndBreak(t *testing.T) {
	src := "outer: for(;;) { break outer; }"
	prog := mustParse(t, src)
	labeled := prog.Body[0].(*ast.LabeledStmt)
	assert.Equal(t, "outer", labeled.Label.Name)
}

func TestSwitchStatement(t *testing.T) {
	src := "switch (x) { case 1: y=1; break; default: y=2; }"
	prog := mustParse(t, src)
	sw := prog.Body[0].(*ast.SwitchStmt)
	require.Len(t, sw.Cases, 2)
	assert.Nil(t, sw.Cases[1].Test)
}

func TestSyntaxErrorReportsPosition(t *testing.T) {
	_, err := Parse("let x = ;")
	require.Error(t, err)
	se, ok := err.(*SyntaxError)
	require.True(t, ok)
	assert.Greater(t, se.Pos, 0)
}

func TestImportAndExportDeclarations(t *testing.T) {
	prog, err := ParseModule(`import {a as b} from "m"; export default function(){}; export const c = 1;`)
	require.NoError(t, err)
	// the `;` after the default-exported function is its own empty statement
	require.Len(t, prog.Body, 4)
	imp := prog.Body[0].(*ast.ImportDecl)
	require.Len(t, imp.Specifiers, 1)
	assert.Equal(t, "b", imp.Specifiers[0].Local.Name)
	_, isDefault := prog.Body[1].(*ast.ExportDefaultDecl)
	assert.True(t, isDefault)
}
