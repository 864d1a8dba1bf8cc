package compiler

import (
	"github.com/oxhq/jsengine/internal/ast"
)

// hoistDeclarations runs the two binding-time passes a function body (or
// the top-level program) needs before any statement executes: var names
// get an uninitialized-to-undefined binding at function scope, and the
// direct let/const/class declarators of this block get a TDZ binding
// (spec §4.7 "Scope entry/exit", testable property 5). Block-scoped
// declarations of nested blocks are hoisted again when that block's own
// compileStmt(*ast.BlockStmt) runs.
func (c *Compiler) hoistDeclarations(stmts []ast.Stmt, isFunctionScope bool) {
	if isFunctionScope {
		c.hoistVars(stmts)
	}
	c.hoistLexical(stmts)
}

// hoistVars walks stmts recursively, collecting every `var` name reachable
// without crossing into a nested function/arrow/class body, and declares
// each as an uninitialized-to-undefined function-scoped binding.
func (c *Compiler) hoistVars(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.hoistVarsInStmt(s)
	}
}

func (c *Compiler) hoistVarsInStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		if n.Kind == ast.VarVar {
			for _, d := range n.Declarations {
				c.declareVarPattern(d.Target)
			}
		}
	case *ast.BlockStmt:
		c.hoistVars(n.Body)
	case *ast.IfStmt:
		c.hoistVarsInStmt(n.Consequent)
		if n.Alternate != nil {
			c.hoistVarsInStmt(n.Alternate)
		}
	case *ast.WhileStmt:
		c.hoistVarsInStmt(n.Body)
	case *ast.DoWhileStmt:
		c.hoistVarsInStmt(n.Body)
	case *ast.ForStmt:
		if vd, ok := n.Init.(*ast.VarDecl); ok && vd.Kind == ast.VarVar {
			for _, d := range vd.Declarations {
				c.declareVarPattern(d.Target)
			}
		}
		c.hoistVarsInStmt(n.Body)
	case *ast.ForInStmt:
		if vd, ok := n.Left.(*ast.VarDecl); ok && vd.Kind == ast.VarVar {
			for _, d := range vd.Declarations {
				c.declareVarPattern(d.Target)
			}
		}
		c.hoistVarsInStmt(n.Body)
	case *ast.ForOfStmt:
		if vd, ok := n.Left.(*ast.VarDecl); ok && vd.Kind == ast.VarVar {
			for _, d := range vd.Declarations {
				c.declareVarPattern(d.Target)
			}
		}
		c.hoistVarsInStmt(n.Body)
	case *ast.TryStmt:
		c.hoistVars(n.Block.Body)
		if n.Handler != nil {
			c.hoistVars(n.Handler.Body)
		}
		if n.Finalizer != nil {
			c.hoistVars(n.Finalizer.Body)
		}
	case *ast.SwitchStmt:
		for _, cs := range n.Cases {
			c.hoistVars(cs.Body)
		}
	case *ast.WithStmt:
		c.hoistVarsInStmt(n.Body)
	case *ast.LabeledStmt:
		c.hoistVarsInStmt(n.Body)
	case *ast.FunctionDecl:
		// function declarations bind at the scope they appear in; the
		// var-like top-level/function-body case is handled directly by
		// compileStmt, not here.
	}
}

func (c *Compiler) declareVarPattern(target ast.Expr) {
	switch t := target.(type) {
	case *ast.Identifier:
		c.emit(OpDefVar, c.addName(t.Name), 0, 0)
	case *ast.AssignmentPattern:
		c.declareVarPattern(t.Target)
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el == nil {
				continue
			}
			if rest, ok := el.(*ast.RestElement); ok {
				c.declareVarPattern(rest.Argument)
				continue
			}
			c.declareVarPattern(el)
		}
	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			c.declareVarPattern(p.Value)
		}
	case *ast.RestElement:
		c.declareVarPattern(t.Argument)
	}
}

// hoistLexical declares (but does not initialize) every let/const/class
// binding introduced directly in stmts, in source order, at the current
// program counter - i.e. at entry to the block stmts belongs to.
func (c *Compiler) hoistLexical(stmts []ast.Stmt) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.VarDecl:
			if n.Kind == ast.VarLet {
				for _, d := range n.Declarations {
					c.declareLexicalPattern(d.Target, OpDeclareLet)
				}
			} else if n.Kind == ast.VarConst {
				for _, d := range n.Declarations {
					c.declareLexicalPattern(d.Target, OpDeclareConst)
				}
			}
		case *ast.ClassDecl:
			c.emit(OpDeclareLet, c.addName(n.Name.Name), 0, 0)
		}
	}
}

func (c *Compiler) declareLexicalPattern(target ast.Expr, op Opcode) {
	switch t := target.(type) {
	case *ast.Identifier:
		c.emit(op, c.addName(t.Name), 0, 0)
	case *ast.AssignmentPattern:
		c.declareLexicalPattern(t.Target, op)
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el == nil {
				continue
			}
			if rest, ok := el.(*ast.RestElement); ok {
				c.declareLexicalPattern(rest.Argument, op)
				continue
			}
			c.declareLexicalPattern(el, op)
		}
	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			c.declareLexicalPattern(p.Value, op)
		}
	case *ast.RestElement:
		c.declareLexicalPattern(t.Argument, op)
	}
}

// compileStmt lowers one statement. Loop/switch/labeled constructs push a
// loopScope so break/continue can find their target and the environment/
// iterator depth to unwind to.
func (c *Compiler) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ExpressionStmt:
		m := c.mark()
		c.compileExpr(n.Expression)
		c.release(m)

	case *ast.BlockStmt:
		c.compileBlock(n)

	case *ast.EmptyStmt:
		// nothing to emit

	case *ast.DebuggerStmt:
		// no host debugger hook; treated as a no-op

	case *ast.VarDecl:
		c.compileVarDecl(n)

	case *ast.FunctionDecl:
		idx := c.compileFunctionLike(n.Name.Name, paramPtrs(n.Params), n.Body, false, n.Generator, n.Async, false)
		dest := c.alloc()
		c.emit(OpMakeClosure, dest, idx, 0)
		nameIdx := c.addName(n.Name.Name)
		c.emit(OpDefVar, nameIdx, 0, 0)
		c.emit(OpSetName, nameIdx, dest, 0)
		c.release(dest)

	case *ast.ClassDecl:
		dest := c.compileClass(&n.Name, n.SuperClass, n.Body)
		nameIdx := c.addName(n.Name.Name)
		c.emit(OpDefInitLet, nameIdx, dest, 0)
		c.release(dest)

	case *ast.IfStmt:
		c.compileIf(n)

	case *ast.SwitchStmt:
		c.compileSwitch(n)

	case *ast.WhileStmt:
		c.compileWhile(n, "")

	case *ast.DoWhileStmt:
		c.compileDoWhile(n, "")

	case *ast.ForStmt:
		c.compileFor(n, "")

	case *ast.ForInStmt:
		c.compileForIn(n, "")

	case *ast.ForOfStmt:
		c.compileForOf(n, "")

	case *ast.TryStmt:
		c.compileTry(n)

	case *ast.ThrowStmt:
		m := c.mark()
		r := c.compileExpr(n.Argument)
		c.emit(OpThrow, r, 0, 0)
		c.release(m)

	case *ast.BreakStmt:
		c.compileBreak(n)

	case *ast.ContinueStmt:
		c.compileContinue(n)

	case *ast.ReturnStmt:
		m := c.mark()
		var r int32
		if n.Argument != nil {
			r = c.compileExpr(n.Argument)
		} else {
			r = c.alloc()
			c.emit(OpLoadUndef, r, 0, 0)
		}
		c.runFinallysAbove(-1)
		c.emit(OpReturn, r, 0, 0)
		c.release(m)

	case *ast.WithStmt:
		c.compileWith(n)

	case *ast.LabeledStmt:
		c.compileLabeled(n)

	case *ast.ImportDecl:
		// module linkage is resolved ahead of compilation; nothing to emit here

	case *ast.ExportNamedDecl:
		if n.Declaration != nil {
			c.compileStmt(n.Declaration)
		}

	case *ast.ExportDefaultDecl:
		switch d := n.Declaration.(type) {
		case ast.Stmt:
			c.compileStmt(d)
		case ast.Expr:
			m := c.mark()
			r := c.compileExpr(d)
			nameIdx := c.addName("default")
			c.emit(OpDefVar, nameIdx, 0, 0)
			c.emit(OpSetName, nameIdx, r, 0)
			c.release(m)
		}

	case *ast.ExportAllDecl:
		// re-export linkage is resolved by the module loader, not the compiler

	default:
		c.fail("unsupported statement", s.Pos())
	}
}

func (c *Compiler) compileBlock(n *ast.BlockStmt) {
	c.emit(OpPushEnv, -1, 0, 0)
	c.envDepth++
	c.hoistLexical(n.Body)
	for _, s := range n.Body {
		c.compileStmt(s)
	}
	c.emit(OpPopEnv, 0, 0, 0)
	c.envDepth--
}

func (c *Compiler) compileVarDecl(n *ast.VarDecl) {
	var kind bindKind
	switch n.Kind {
	case ast.VarVar:
		kind = bindVar
	case ast.VarLet:
		kind = bindLet
	case ast.VarConst:
		kind = bindConst
	}
	for _, d := range n.Declarations {
		m := c.mark()
		var r int32
		if d.Init != nil {
			r = c.compileExpr(d.Init)
		} else {
			r = c.alloc()
			c.emit(OpLoadUndef, r, 0, 0)
		}
		c.compileDestructure(d.Target, r, kind)
		c.release(m)
	}
}

func (c *Compiler) compileIf(n *ast.IfStmt) {
	m := c.mark()
	cond := c.compileExpr(n.Test)
	elseJump := c.emit(OpJumpIfFalse, cond, 0, 0)
	c.release(m)
	c.compileStmt(n.Consequent)
	if n.Alternate != nil {
		endJump := c.emit(OpJump, 0, 0, 0)
		c.patchJumpCondTo(elseJump, c.pc())
		c.compileStmt(n.Alternate)
		c.patchJumpTo(endJump, c.pc())
	} else {
		c.patchJumpCondTo(elseJump, c.pc())
	}
}

func (c *Compiler) compileSwitch(n *ast.SwitchStmt) {
	m := c.mark()
	disc := c.compileExpr(n.Discriminant)

	scope := &loopScope{isSwitch: true, envDepth: c.envDepth, iterDepth: c.iterDepth}
	c.loops = append(c.loops, scope)

	c.emit(OpPushEnv, -1, 0, 0)
	c.envDepth++
	for _, cs := range n.Cases {
		c.hoistLexical(cs.Body)
	}

	type patch struct {
		caseIdx int
		jumpIdx int
	}
	var testJumps []patch
	defaultIdx := -1
	for i, cs := range n.Cases {
		if cs.Test == nil {
			defaultIdx = i
			continue
		}
		eq := c.alloc()
		testReg := c.compileExpr(cs.Test)
		c.emit(OpStrictEq, eq, disc, testReg)
		c.release(eq)
		j := c.emit(OpJumpIfTrue, eq, 0, 0)
		testJumps = append(testJumps, patch{i, j})
	}
	noMatchJump := c.emit(OpJump, 0, 0, 0)

	caseStarts := make([]int, len(n.Cases))
	for i, cs := range n.Cases {
		caseStarts[i] = c.pc()
		for _, s := range cs.Body {
			c.compileStmt(s)
		}
	}
	end := c.pc()

	for _, p := range testJumps {
		c.patchJumpCondTo(p.jumpIdx, caseStarts[p.caseIdx])
	}
	if defaultIdx >= 0 {
		c.patchJumpTo(noMatchJump, caseStarts[defaultIdx])
	} else {
		c.patchJumpTo(noMatchJump, end)
	}

	c.emit(OpPopEnv, 0, 0, 0)
	c.envDepth--
	c.release(m)

	c.loops = c.loops[:len(c.loops)-1]
	for _, j := range scope.breakPatches {
		c.patchJumpTo(j, c.pc())
	}
}

func (c *Compiler) compileWhile(n *ast.WhileStmt, label string) {
	scope := &loopScope{label: label, envDepth: c.envDepth, iterDepth: c.iterDepth}
	c.loops = append(c.loops, scope)

	top := c.pc()
	m := c.mark()
	cond := c.compileExpr(n.Test)
	exit := c.emit(OpJumpIfFalse, cond, 0, 0)
	c.release(m)
	c.compileStmt(n.Body)
	for _, j := range scope.continuePatches {
		c.patchJumpTo(j, c.pc())
	}
	c.emit(OpJump, int32(top), 0, 0)
	c.patchJumpCondTo(exit, c.pc())

	c.loops = c.loops[:len(c.loops)-1]
	for _, j := range scope.breakPatches {
		c.patchJumpTo(j, c.pc())
	}
}

func (c *Compiler) compileDoWhile(n *ast.DoWhileStmt, label string) {
	scope := &loopScope{label: label, envDepth: c.envDepth, iterDepth: c.iterDepth}
	c.loops = append(c.loops, scope)

	top := c.pc()
	c.compileStmt(n.Body)
	for _, j := range scope.continuePatches {
		c.patchJumpTo(j, c.pc())
	}
	m := c.mark()
	cond := c.compileExpr(n.Test)
	c.emit(OpJumpIfTrue, cond, int32(top), 0)
	c.release(m)

	c.loops = c.loops[:len(c.loops)-1]
	for _, j := range scope.breakPatches {
		c.patchJumpTo(j, c.pc())
	}
}

// collectPatternNames flattens every leaf binding name out of a
// destructuring target, in source order.
func collectPatternNames(target ast.Expr) []string {
	switch t := target.(type) {
	case *ast.Identifier:
		return []string{t.Name}
	case *ast.AssignmentPattern:
		return collectPatternNames(t.Target)
	case *ast.ArrayPattern:
		var out []string
		for _, el := range t.Elements {
			if el == nil {
				continue
			}
			if rest, ok := el.(*ast.RestElement); ok {
				out = append(out, collectPatternNames(rest.Argument)...)
				continue
			}
			out = append(out, collectPatternNames(el)...)
		}
		return out
	case *ast.ObjectPattern:
		var out []string
		for _, p := range t.Properties {
			out = append(out, collectPatternNames(p.Value)...)
		}
		return out
	case *ast.RestElement:
		return collectPatternNames(t.Argument)
	}
	return nil
}

// compileFor lowers a C-style for loop. When its header declares let/const
// bindings, each iteration gets its own copy of them (spec's per-iteration
// environment for `for`), so a closure created in the body captures that
// iteration's value rather than a single binding shared across the loop -
// the classic `for (let i = 0; ...) setTimeout(() => use(i))` case.
func (c *Compiler) compileFor(n *ast.ForStmt, label string) {
	var iterNames []string
	isLexical := false
	if vd, ok := n.Init.(*ast.VarDecl); ok && vd.Kind != ast.VarVar {
		isLexical = true
		for _, d := range vd.Declarations {
			iterNames = append(iterNames, collectPatternNames(d.Target)...)
		}
	}

	c.emit(OpPushEnv, -1, 0, 0)
	c.envDepth++
	if n.Init != nil {
		switch init := n.Init.(type) {
		case *ast.VarDecl:
			if init.Kind != ast.VarVar {
				c.hoistLexical([]ast.Stmt{init})
			}
			c.compileVarDecl(init)
		case ast.Expr:
			m := c.mark()
			c.compileExpr(init)
			c.release(m)
		}
	}

	scope := &loopScope{label: label, envDepth: c.envDepth, iterDepth: c.iterDepth}
	c.loops = append(c.loops, scope)

	top := c.pc()
	var exit int = -1
	if n.Test != nil {
		m := c.mark()
		cond := c.compileExpr(n.Test)
		exit = c.emit(OpJumpIfFalse, cond, 0, 0)
		c.release(m)
	}
	c.compileStmt(n.Body)
	for _, j := range scope.continuePatches {
		c.patchJumpTo(j, c.pc())
	}
	if isLexical && len(iterNames) > 0 {
		c.copyPerIterationEnv(iterNames)
	}
	if n.Update != nil {
		m := c.mark()
		c.compileExpr(n.Update)
		c.release(m)
	}
	c.emit(OpJump, int32(top), 0, 0)
	if exit >= 0 {
		c.patchJumpCondTo(exit, c.pc())
	}

	c.loops = c.loops[:len(c.loops)-1]
	for _, j := range scope.breakPatches {
		c.patchJumpTo(j, c.pc())
	}

	c.emit(OpPopEnv, 0, 0, 0)
	c.envDepth--
}

// copyPerIterationEnv replaces the current loop-header environment with a
// fresh one holding the same values, so mutations the body makes (e.g. to
// the loop counter) are visible to the next test/update, while anything
// captured by a closure in the just-finished iteration keeps pointing at
// the old, now-detached environment.
func (c *Compiler) copyPerIterationEnv(names []string) {
	m := c.mark()
	regs := make([]int32, len(names))
	for i, nm := range names {
		r := c.alloc()
		c.emit(OpGetName, r, c.addName(nm), 0)
		regs[i] = r
	}
	c.emit(OpPopEnv, 0, 0, 0)
	c.emit(OpPushEnv, -1, 0, 0)
	for i, nm := range names {
		idx := c.addName(nm)
		c.emit(OpDeclareLet, idx, 0, 0)
		c.emit(OpDefInitLet, idx, regs[i], 0)
	}
	c.release(m)
}

// forBindLeft binds valueReg to a for-in/for-of left side: as a fresh
// var/let/const declaration, or as an assignment to an existing
// binding/member expression.
func (c *Compiler) forBindLeft(left ast.Node, valueReg int32) {
	switch l := left.(type) {
	case *ast.VarDecl:
		var kind bindKind
		switch l.Kind {
		case ast.VarVar:
			kind = bindVar
		case ast.VarLet:
			kind = bindLet
		case ast.VarConst:
			kind = bindConst
		}
		c.compileDestructure(l.Declarations[0].Target, valueReg, kind)
	case ast.Expr:
		c.compileDestructure(l, valueReg, bindAssign)
	}
}

func (c *Compiler) compileForIn(n *ast.ForInStmt, label string) {
	m := c.mark()
	rightReg := c.compileExpr(n.Right)
	iterReg := c.alloc()
	c.emit(OpGetIterator, iterReg, rightReg, 0)
	c.emit(OpIterPush, iterReg, 0, 0)
	c.iterDepth++

	scope := &loopScope{label: label, envDepth: c.envDepth, iterDepth: c.iterDepth}
	c.loops = append(c.loops, scope)

	top := c.pc()
	valR := c.alloc()
	doneR := c.alloc()
	c.emit(OpIteratorNext, valR, doneR, iterReg)
	exit := c.emit(OpJumpIfTrue, doneR, 0, 0)

	c.emit(OpPushEnv, -1, 0, 0)
	c.envDepth++
	if vd, ok := n.Left.(*ast.VarDecl); ok && vd.Kind != ast.VarVar {
		c.hoistLexical([]ast.Stmt{vd})
	}
	c.forBindLeft(n.Left, valR)
	c.compileStmt(n.Body)
	c.emit(OpPopEnv, 0, 0, 0)
	c.envDepth--

	for _, j := range scope.continuePatches {
		c.patchJumpTo(j, c.pc())
	}
	c.emit(OpJump, int32(top), 0, 0)
	c.patchJumpCondTo(exit, c.pc())

	c.loops = c.loops[:len(c.loops)-1]
	for _, j := range scope.breakPatches {
		c.patchJumpTo(j, c.pc())
	}

	c.emit(OpIterPop, 0, 0, 0)
	c.iterDepth--
	c.release(m)
}

func (c *Compiler) compileForOf(n *ast.ForOfStmt, label string) {
	m := c.mark()
	rightReg := c.compileExpr(n.Right)
	iterReg := c.alloc()
	asyncFlag := int32(0)
	if n.Await {
		asyncFlag = 1
	}
	c.emit(OpGetIterator, iterReg, rightReg, asyncFlag)
	c.emit(OpIterPush, iterReg, 0, 0)
	c.iterDepth++

	scope := &loopScope{label: label, envDepth: c.envDepth, iterDepth: c.iterDepth}
	c.loops = append(c.loops, scope)

	top := c.pc()
	valR := c.alloc()
	doneR := c.alloc()
	c.emit(OpIteratorNext, valR, doneR, iterReg)
	if n.Await {
		awaited := c.alloc()
		c.emit(OpAwait, awaited, valR, 0)
		c.emit(OpMove, valR, awaited, 0)
		c.release(awaited)
	}
	exit := c.emit(OpJumpIfTrue, doneR, 0, 0)

	c.emit(OpPushEnv, -1, 0, 0)
	c.envDepth++
	if vd, ok := n.Left.(*ast.VarDecl); ok && vd.Kind != ast.VarVar {
		c.hoistLexical([]ast.Stmt{vd})
	}
	c.forBindLeft(n.Left, valR)
	c.compileStmt(n.Body)
	c.emit(OpPopEnv, 0, 0, 0)
	c.envDepth--

	for _, j := range scope.continuePatches {
		c.patchJumpTo(j, c.pc())
	}
	c.emit(OpJump, int32(top), 0, 0)
	c.patchJumpCondTo(exit, c.pc())

	c.loops = c.loops[:len(c.loops)-1]
	for _, j := range scope.breakPatches {
		c.patchJumpTo(j, c.pc())
	}

	c.emit(OpIterPop, 0, 0, 0)
	c.iterDepth--
	c.release(m)
}

// compileTry compiles a try/catch/finally statement (spec §4.8 "Exception
// handler table"). The finally body, when present, is compiled three ways:
// once inline for the normal-completion fallthrough path, once as a
// handler reached only when an exception escapes the try (and catch, if
// any) unhandled - that copy re-throws the stashed exception once it
// finishes, so an enclosing handler still sees it - and once more, via
// runFinallysAbove, detoured through by any break/continue/return
// compiled inside the try or catch body while this statement's
// finallyFrame is on the stack, so those completions also re-enter the
// finally block before resuming (spec §4.8).
func (c *Compiler) compileTry(n *ast.TryStmt) {
	envAtEntry := c.envDepth
	iterAtEntry := c.iterDepth

	var frame *finallyFrame
	if n.Finalizer != nil {
		frame = &finallyFrame{stmts: n.Finalizer.Body, envDepth: envAtEntry}
		c.finallys = append(c.finallys, frame)
	}

	startPC := c.pc()
	c.compileBlock(n.Block)
	endPC := c.pc()

	afterTry := -1
	if n.Handler != nil || n.Finalizer != nil {
		afterTry = c.emit(OpJump, 0, 0, 0)
	}

	if n.Handler != nil {
		handlerPC := c.pc()
		c.emit(OpPushEnv, -1, 0, 0)
		c.envDepth++
		catchReg := int32(-1)
		if n.Param != nil {
			catchReg = c.alloc()
			c.declareLexicalPattern(n.Param, OpDeclareLet)
			c.compileDestructure(n.Param, catchReg, bindLet)
		}
		c.cb.Handlers = append(c.cb.Handlers, ExceptionHandler{
			StartPC: startPC, EndPC: endPC, HandlerPC: handlerPC,
			Kind: HandlerCatch, CatchReg: catchReg,
			EnvDepth: envAtEntry, IterDepth: iterAtEntry,
		})
		for _, s := range n.Handler.Body {
			c.compileStmt(s)
		}
		c.emit(OpPopEnv, 0, 0, 0)
		c.envDepth--
	}

	if frame != nil {
		c.finallys = c.finallys[:len(c.finallys)-1]
	}

	if n.Finalizer == nil {
		if afterTry >= 0 {
			c.patchJumpTo(afterTry, c.pc())
		}
		return
	}

	// Exceptional path: an exception escaping the try (and catch, if any)
	// lands here, stashed in excReg; run the finally body, then rethrow.
	rethrowPC := c.pc()
	m := c.mark()
	excReg := c.alloc()
	for _, s := range n.Finalizer.Body {
		c.compileStmt(s)
	}
	c.emit(OpThrow, excReg, 0, 0)
	c.release(m)

	c.cb.Handlers = append(c.cb.Handlers, ExceptionHandler{
		StartPC: startPC, EndPC: rethrowPC, HandlerPC: rethrowPC,
		Kind: HandlerFinally, CatchReg: excReg,
		EnvDepth: envAtEntry, IterDepth: iterAtEntry,
	})

	// Normal-completion path: try (or try+catch) finished without
	// throwing; run the finally body inline and fall through.
	if afterTry >= 0 {
		c.patchJumpTo(afterTry, c.pc())
	}
	for _, s := range n.Finalizer.Body {
		c.compileStmt(s)
	}
}

// findLoop resolves a break/continue label (empty label = nearest
// enclosing loop/switch for break, nearest loop for continue).
func (c *Compiler) findLoop(label string, continueTarget bool) *loopScope {
	for i := len(c.loops) - 1; i >= 0; i-- {
		s := c.loops[i]
		if label != "" {
			if s.label == label {
				return s
			}
			continue
		}
		if continueTarget && s.isSwitch {
			continue
		}
		return s
	}
	return nil
}

func (c *Compiler) unwindTo(scope *loopScope) {
	for d := c.envDepth; d > scope.envDepth; d-- {
		c.emit(OpPopEnv, 0, 0, 0)
	}
	if c.iterDepth > scope.iterDepth {
		c.emit(OpIterUnwindTo, int32(scope.iterDepth), 0, 0)
	}
}

// runFinallysAbove inline-compiles the body of every enclosing try's
// finally whose envDepth is deeper than floor, innermost first, so a
// break/continue/return that escapes past one or more try statements
// still runs their finally blocks (spec §4.8). It is compiled in place,
// while the try's own environments are still pushed, so the finally body
// resolves names exactly as it would on the normal-completion path.
// Passing -1 selects every currently open finally (used by return, which
// always escapes the whole function body this Compiler is compiling).
func (c *Compiler) runFinallysAbove(floor int) {
	for i := len(c.finallys) - 1; i >= 0; i-- {
		f := c.finallys[i]
		if f.envDepth <= floor {
			break
		}
		m := c.mark()
		for _, s := range f.stmts {
			c.compileStmt(s)
		}
		c.release(m)
	}
}

func (c *Compiler) compileBreak(n *ast.BreakStmt) {
	label := ""
	if n.Label != nil {
		label = n.Label.Name
	}
	scope := c.findLoop(label, false)
	if scope == nil {
		c.fail("illegal break statement", n.Pos())
	}
	c.runFinallysAbove(scope.envDepth)
	c.unwindTo(scope)
	j := c.emit(OpJump, 0, 0, 0)
	scope.breakPatches = append(scope.breakPatches, j)
}

func (c *Compiler) compileContinue(n *ast.ContinueStmt) {
	label := ""
	if n.Label != nil {
		label = n.Label.Name
	}
	scope := c.findLoop(label, true)
	if scope == nil {
		c.fail("illegal continue statement", n.Pos())
	}
	c.runFinallysAbove(scope.envDepth)
	c.unwindTo(scope)
	j := c.emit(OpJump, 0, 0, 0)
	scope.continuePatches = append(scope.continuePatches, j)
}

func (c *Compiler) compileWith(n *ast.WithStmt) {
	m := c.mark()
	obj := c.compileExpr(n.Object)
	c.emit(OpPushEnv, obj, 0, 0)
	c.envDepth++
	c.release(m)
	c.compileStmt(n.Body)
	c.emit(OpPopEnv, 0, 0, 0)
	c.envDepth--
}

// compileLabeled attaches a label to the loop it wraps so labeled break/
// continue can target it; a label on a non-loop statement only supports
// labeled break.
func (c *Compiler) compileLabeled(n *ast.LabeledStmt) {
	switch body := n.Body.(type) {
	case *ast.WhileStmt:
		c.compileWhile(body, n.Label.Name)
	case *ast.DoWhileStmt:
		c.compileDoWhile(body, n.Label.Name)
	case *ast.ForStmt:
		c.compileFor(body, n.Label.Name)
	case *ast.ForInStmt:
		c.compileForIn(body, n.Label.Name)
	case *ast.ForOfStmt:
		c.compileForOf(body, n.Label.Name)
	default:
		scope := &loopScope{label: n.Label.Name, isSwitch: true, envDepth: c.envDepth, iterDepth: c.iterDepth}
		c.loops = append(c.loops, scope)
		c.compileStmt(n.Body)
		c.loops = c.loops[:len(c.loops)-1]
		for _, j := range scope.breakPatches {
			c.patchJumpTo(j, c.pc())
		}
	}
}
