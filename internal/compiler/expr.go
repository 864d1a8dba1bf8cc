package compiler

import (
	"github.com/oxhq/jsengine/internal/ast"
	"github.com/oxhq/jsengine/internal/value"
)

// compileExpr lowers e into a single freshly allocated register holding
// its value: on entry the allocation frontier is m := c.mark(); on return
// the result occupies register m and c.nextReg == m+1, with every
// internal temporary released. This invariant is what lets call/binary/
// member compilation lay out contiguous register windows just by
// compiling sub-expressions back to back.
func (c *Compiler) compileExpr(e ast.Expr) int32 {
	c.note(e.Pos())
	switch n := e.(type) {
	case *ast.Identifier:
		dest := c.alloc()
		c.emit(OpGetName, dest, c.addName(n.Name), 0)
		return dest
	case *ast.ThisExpr:
		dest := c.alloc()
		c.emit(OpGetName, dest, c.addName("this"), 0)
		return dest
	case *ast.NullLiteral:
		dest := c.alloc()
		c.emit(OpLoadNull, dest, 0, 0)
		return dest
	case *ast.BooleanLiteral:
		dest := c.alloc()
		if n.Value {
			c.emit(OpLoadTrue, dest, 0, 0)
		} else {
			c.emit(OpLoadFalse, dest, 0, 0)
		}
		return dest
	case *ast.NumericLiteral:
		dest := c.alloc()
		c.emit(OpLoadConst, dest, c.addConst(value.Number(n.Value)), 0)
		return dest
	case *ast.BigIntLiteral:
		dest := c.alloc()
		c.emit(OpLoadConst, dest, c.addConst(value.StrFromGo(n.Raw+"n")), 0)
		return dest
	case *ast.StringLiteral:
		dest := c.alloc()
		c.emit(OpLoadConst, dest, c.addConst(value.StrFromGo(n.Value)), 0)
		return dest
	case *ast.RegExpLiteral:
		dest := c.alloc()
		c.emit(OpLoadConst, dest, c.addConst(value.StrFromGo("/"+n.Pattern+"/"+n.Flags)), 0)
		return dest
	case *ast.TemplateLiteral:
		return c.compileTemplateLiteral(n)
	case *ast.TaggedTemplateExpr:
		return c.compileTaggedTemplate(n)
	case *ast.ArrayLiteral:
		return c.compileArrayLiteral(n)
	case *ast.ObjectLiteral:
		return c.compileObjectLiteral(n)
	case *ast.UnaryExpr:
		return c.compileUnary(n)
	case *ast.UpdateExpr:
		return c.compileUpdate(n)
	case *ast.BinaryExpr:
		return c.compileBinary(n)
	case *ast.LogicalExpr:
		return c.compileLogical(n)
	case *ast.AssignmentExpr:
		return c.compileAssignment(n)
	case *ast.ConditionalExpr:
		return c.compileConditional(n)
	case *ast.CallExpr:
		return c.compileCall(n)
	case *ast.NewExpr:
		return c.compileNew(n)
	case *ast.MemberExpr:
		return c.compileMember(n)
	case *ast.SequenceExpr:
		var dest int32
		for i, sub := range n.Expressions {
			m := c.mark()
			r := c.compileExpr(sub)
			c.release(m)
			if i == len(n.Expressions)-1 {
				dest = c.alloc()
				c.emit(OpMove, dest, r, 0)
			}
		}
		return dest
	case *ast.YieldExpr:
		return c.compileYield(n)
	case *ast.AwaitExpr:
		arg := c.compileExpr(n.Argument)
		dest := c.alloc()
		c.emit(OpAwait, dest, arg, 0)
		c.release(arg)
		// arg and dest may be the same slot already (arg==dest-1); move down.
		c.emit(OpMove, arg, dest, 0)
		c.release(dest)
		return arg
	case *ast.FunctionExpr:
		name := ""
		if n.Name != nil {
			name = n.Name.Name
		}
		idx := c.compileFunctionLike(name, paramPtrs(n.Params), n.Body, false, n.Generator, n.Async, false)
		dest := c.alloc()
		c.emit(OpMakeClosure, dest, idx, 0)
		return dest
	case *ast.ArrowFunctionExpr:
		var idx int32
		if n.ExprBody != nil {
			idx = c.compileFunctionLike("", paramPtrs(n.Params), n.ExprBody, true, false, n.Async, true)
		} else {
			idx = c.compileFunctionLike("", paramPtrs(n.Params), n.Body, true, false, n.Async, false)
		}
		dest := c.alloc()
		c.emit(OpMakeClosure, dest, idx, 0)
		return dest
	case *ast.ClassExpr:
		return c.compileClass(n.Name, n.SuperClass, n.Body)
	case *ast.SpreadElement:
		// Only reachable here if used outside a context that special-cases
		// it (array/object literal, call arguments); treat it as its bare
		// argument so a misplaced spread degrades gracefully instead of
		// panicking the compiler.
		return c.compileExpr(n.Argument)
	case *ast.PrivateName:
		dest := c.alloc()
		c.emit(OpLoadConst, dest, c.addConst(value.StrFromGo("#"+n.Name)), 0)
		return dest
	case *ast.SuperExpr:
		// Only reachable here if `super` appears outside a member access
		// or call, which is a syntax error the parser should have already
		// rejected; degrade to undefined rather than panicking.
		dest := c.alloc()
		c.emit(OpLoadUndef, dest, 0, 0)
		return dest
	default:
		c.fail("unsupported expression", e.Pos())
		return 0
	}
}

func paramPtrs(params []ast.Param) []*ast.Param {
	out := make([]*ast.Param, len(params))
	for i := range params {
		out[i] = &params[i]
	}
	return out
}

func (c *Compiler) compileTemplateLiteral(n *ast.TemplateLiteral) int32 {
	dest := c.alloc()
	c.emit(OpLoadConst, dest, c.addConst(value.StrFromGo(n.Quasis[0].Cooked)), 0)
	for i, expr := range n.Expressions {
		m := c.mark()
		r := c.compileExpr(expr)
		strReg := c.alloc()
		c.emit(OpLoadConst, strReg, c.addConst(value.StrFromGo("")), 0) // ToString coercion happens in OpAdd when either side is a string
		c.emit(OpAdd, dest, dest, r)
		quasi := n.Quasis[i+1].Cooked
		if quasi != "" {
			qReg := c.alloc()
			c.emit(OpLoadConst, qReg, c.addConst(value.StrFromGo(quasi)), 0)
			c.emit(OpAdd, dest, dest, qReg)
		}
		c.release(m)
	}
	return dest
}

func (c *Compiler) compileTaggedTemplate(n *ast.TaggedTemplateExpr) int32 {
	base := c.mark()
	this := c.alloc()
	c.emit(OpLoadUndef, this, 0, 0)
	var calleeReg int32
	if mem, ok := n.Tag.(*ast.MemberExpr); ok {
		objReg := c.compileExpr(mem.Object)
		c.emit(OpMove, this, objReg, 0)
		c.release(this + 1)
		calleeReg = c.alloc()
		c.compileMemberGet(mem, objReg, calleeReg)
	} else {
		calleeReg = c.compileExpr(n.Tag)
	}
	idConst := c.addConst(value.Int(c.nextTemplateID()))
	stringsArr := c.alloc()
	hit := c.emit(OpTemplateCacheGet, stringsArr, 0, idConst)
	c.emit(OpNewArray, stringsArr, 0, 0)
	for _, q := range n.Quasi.Quasis {
		m := c.mark()
		sReg := c.alloc()
		c.emit(OpLoadConst, sReg, c.addConst(value.StrFromGo(q.Cooked)), 0)
		c.emit(OpArrayPush, stringsArr, sReg, 0)
		c.release(m)
	}
	c.emit(OpTemplateCacheSet, stringsArr, idConst, 0)
	c.patchJumpCondTo(hit, c.pc())
	argc := int32(1)
	for _, sub := range n.Quasi.Expressions {
		c.compileExpr(sub)
		argc++
	}
	dest := base
	c.emit(OpCall, dest, base, argc)
	c.release(base + 1)
	return dest
}

func (c *Compiler) compileArrayLiteral(n *ast.ArrayLiteral) int32 {
	dest := c.alloc()
	c.emit(OpNewArray, dest, 0, 0)
	for _, el := range n.Elements {
		if el == nil {
			m := c.mark()
			u := c.alloc()
			c.emit(OpLoadUndef, u, 0, 0)
			c.emit(OpArrayPush, dest, u, 0)
			c.release(m)
			continue
		}
		if sp, ok := el.(*ast.SpreadElement); ok {
			c.compileSpreadInto(dest, sp.Argument)
			continue
		}
		m := c.mark()
		r := c.compileExpr(el)
		c.emit(OpArrayPush, dest, r, 0)
		c.release(m)
	}
	return dest
}

// compileSpreadInto iterates iterable and pushes each produced value onto
// the array in dest.
func (c *Compiler) compileSpreadInto(dest int32, iterable ast.Expr) {
	m := c.mark()
	srcReg := c.compileExpr(iterable)
	iterReg := c.alloc()
	c.emit(OpGetIterator, iterReg, srcReg, 0)
	valReg := c.alloc()
	doneReg := c.alloc()
	loopStart := c.pc()
	c.emit(OpIteratorNext, valReg, doneReg, iterReg)
	exitJump := c.emit(OpJumpIfTrue, doneReg, 0, 0)
	c.emit(OpArrayPush, dest, valReg, 0)
	c.emit(OpJump, int32(loopStart), 0, 0)
	c.patchJumpCondTo(exitJump, c.pc())
	c.release(m)
}

func (c *Compiler) compileObjectLiteral(n *ast.ObjectLiteral) int32 {
	dest := c.alloc()
	c.emit(OpNewObject, dest, 0, 0)
	for _, p := range n.Properties {
		m := c.mark()
		if p.Kind == ast.PropSpread {
			srcReg := c.compileExpr(p.Value)
			names := c.addName("")
			c.emit(OpRestObject, dest, srcReg, names) // merge: dest already has own keys, so this call additively copies (see VM semantics)
			c.release(m)
			continue
		}
		switch p.Kind {
		case ast.PropGet, ast.PropSet:
			fn, ok := p.Value.(*ast.FunctionExpr)
			if !ok {
				c.fail("accessor without function body", p.Span)
			}
			idx := c.compileFunctionLike("", paramPtrs(fn.Params), fn.Body, false, fn.Generator, fn.Async, false)
			fnReg := c.alloc()
			c.emit(OpMakeClosure, fnReg, idx, 0)
			keyReg := c.compilePropertyKeyValue(p.Key, p.Computed)
			if p.Kind == ast.PropSet {
				c.emit(OpDefineSetter, dest, keyReg, fnReg)
			} else {
				c.emit(OpDefineGetter, dest, keyReg, fnReg)
			}
		default:
			var valReg int32
			if p.Kind == ast.PropMethod {
				fn, ok := p.Value.(*ast.FunctionExpr)
				if !ok {
					c.fail("method without function body", p.Span)
				}
				idx := c.compileFunctionLike("", paramPtrs(fn.Params), fn.Body, false, fn.Generator, fn.Async, false)
				valReg = c.alloc()
				c.emit(OpMakeClosure, valReg, idx, 0)
			} else {
				valReg = c.compileExpr(p.Value)
			}
			keyReg := c.compilePropertyKeyValue(p.Key, p.Computed)
			c.emit(OpDefineProp, dest, keyReg, valReg)
		}
		c.release(m)
	}
	return dest
}

// compilePropertyKeyValue compiles a property key to a register holding
// its runtime value (a string or symbol), regardless of whether the
// source used a computed `[expr]` key, a plain identifier, or a literal.
func (c *Compiler) compilePropertyKeyValue(key ast.Expr, computed bool) int32 {
	if computed {
		return c.compileExpr(key)
	}
	switch k := key.(type) {
	case *ast.Identifier:
		r := c.alloc()
		c.emit(OpLoadConst, r, c.addConst(value.StrFromGo(k.Name)), 0)
		return r
	case *ast.StringLiteral:
		r := c.alloc()
		c.emit(OpLoadConst, r, c.addConst(value.StrFromGo(k.Value)), 0)
		return r
	case *ast.NumericLiteral:
		r := c.alloc()
		c.emit(OpLoadConst, r, c.addConst(value.Number(k.Value)), 0)
		return r
	default:
		return c.compileExpr(key)
	}
}

func (c *Compiler) compileUnary(n *ast.UnaryExpr) int32 {
	if n.Operator == ast.UnaryTypeof {
		if id, ok := n.Argument.(*ast.Identifier); ok {
			dest := c.alloc()
			c.emit(OpTypeofName, dest, c.addName(id.Name), 0)
			return dest
		}
	}
	if n.Operator == ast.UnaryDelete {
		switch t := n.Argument.(type) {
		case *ast.MemberExpr:
			objReg := c.compileExpr(t.Object)
			dest := c.alloc()
			if t.Computed {
				keyReg := c.compileExpr(t.Property)
				c.emit(OpDeleteByValue, dest, objReg, keyReg)
				c.release(keyReg)
			} else {
				name, _ := c.propertyKeyName(t.Property)
				c.emit(OpDeleteByName, dest, objReg, c.addName(name))
			}
			c.emit(OpMove, objReg, dest, 0)
			c.release(objReg + 1)
			return objReg
		case *ast.Identifier:
			dest := c.alloc()
			c.emit(OpDeleteName, dest, c.addName(t.Name), 0)
			return dest
		default:
			dest := c.alloc()
			c.emit(OpLoadTrue, dest, 0, 0)
			return dest
		}
	}
	arg := c.compileExpr(n.Argument)
	dest := c.alloc()
	var op Opcode
	switch n.Operator {
	case ast.UnaryMinus:
		op = OpNeg
	case ast.UnaryPlus:
		op = OpPlus
	case ast.UnaryNot:
		op = OpNot
	case ast.UnaryBitNot:
		op = OpBitNot
	case ast.UnaryTypeof:
		op = OpTypeof
	case ast.UnaryVoid:
		op = OpVoid
	default:
		c.fail("unknown unary operator "+string(n.Operator), n.Pos())
	}
	c.emit(op, dest, arg, 0)
	c.release(arg)
	c.emit(OpMove, arg, dest, 0)
	c.release(dest)
	return arg
}

func (c *Compiler) compileUpdate(n *ast.UpdateExpr) int32 {
	var addOrSub Opcode = OpAdd
	if n.Operator == "--" {
		addOrSub = OpSub
	}
	switch t := n.Argument.(type) {
	case *ast.Identifier:
		oldReg := c.alloc()
		c.emit(OpGetName, oldReg, c.addName(t.Name), 0)
		oneReg := c.alloc()
		c.emit(OpLoadConst, oneReg, c.addConst(value.Int(1)), 0)
		newReg := c.alloc()
		c.emit(addOrSub, newReg, oldReg, oneReg)
		c.emit(OpSetName, c.addName(t.Name), newReg, 0)
		if n.Prefix {
			c.emit(OpMove, oldReg, newReg, 0) // reuse oldReg to hold the new value
			c.release(oldReg + 1)
			return oldReg
		}
		// Postfix: result is the old value, already in oldReg; copy new
		// value out of the way is unnecessary since oldReg retains the
		// pre-increment value (only newReg/oneReg were mutated).
		c.release(oldReg + 1)
		return oldReg
	case *ast.MemberExpr:
		objReg := c.compileExpr(t.Object)
		var keyName int32 = -1
		var keyReg int32 = -1
		if t.Computed {
			keyReg = c.compileExpr(t.Property)
		} else {
			name, _ := c.propertyKeyName(t.Property)
			keyName = c.addName(name)
		}
		oldReg := c.alloc()
		if keyReg >= 0 {
			c.emit(OpGetByValue, oldReg, objReg, keyReg)
		} else {
			c.emit(OpGetByName, oldReg, objReg, keyName)
		}
		oneReg := c.alloc()
		c.emit(OpLoadConst, oneReg, c.addConst(value.Int(1)), 0)
		newReg := c.alloc()
		c.emit(addOrSub, newReg, oldReg, oneReg)
		if keyReg >= 0 {
			c.emit(OpSetByValue, objReg, keyReg, newReg)
		} else {
			c.emit(OpSetByName, objReg, keyName, newReg)
		}
		result := objReg
		if n.Prefix {
			c.emit(OpMove, result, newReg, 0)
		} else {
			c.emit(OpMove, result, oldReg, 0)
		}
		c.release(objReg + 1)
		return result
	default:
		c.fail("invalid update target", n.Pos())
		return 0
	}
}

var binOpcodes = map[string]Opcode{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod, "**": OpExp,
	"&": OpBitAnd, "|": OpBitOr, "^": OpBitXor, "<<": OpShl, ">>": OpShr, ">>>": OpUShr,
	"==": OpEq, "!=": OpNotEq, "===": OpStrictEq, "!==": OpStrictNotEq,
	"<": OpLess, "<=": OpLessEq, ">": OpGreater, ">=": OpGreaterEq,
	"in": OpIn, "instanceof": OpInstanceOf,
}

func (c *Compiler) compileBinary(n *ast.BinaryExpr) int32 {
	left := c.compileExpr(n.Left)
	right := c.compileExpr(n.Right)
	op, ok := binOpcodes[n.Operator]
	if !ok {
		c.fail("unknown binary operator "+n.Operator, n.Pos())
	}
	c.emit(op, left, left, right)
	c.release(right)
	return left
}

func (c *Compiler) compileLogical(n *ast.LogicalExpr) int32 {
	left := c.compileExpr(n.Left)
	var skip int
	switch n.Operator {
	case "&&":
		skip = c.emit(OpJumpIfFalse, left, 0, 0)
	case "||":
		skip = c.emit(OpJumpIfTrue, left, 0, 0)
	case "??":
		skip = c.emit(OpJumpIfNullish, left, 0, 0)
		// Nullish jumps to the RHS evaluation on a nullish value, not past
		// it, so invert: we need "jump over RHS when NOT nullish". Handled
		// below by swapping jump polarity.
	default:
		c.fail("unknown logical operator "+n.Operator, n.Pos())
	}
	if n.Operator == "??" {
		// OpJumpIfNullish jumps to target when left IS nullish; we want the
		// opposite (skip RHS when left is NOT nullish), so jump over a
		// short unconditional jump into the RHS block instead.
		toRHS := skip
		overRHS := c.emit(OpJump, 0, 0, 0)
		c.patchJumpCondTo(toRHS, c.pc())
		m := c.mark()
		right := c.compileExpr(n.Right)
		c.emit(OpMove, left, right, 0)
		c.release(m)
		c.patchJumpTo(overRHS, c.pc())
		return left
	}
	m := c.mark()
	right := c.compileExpr(n.Right)
	c.emit(OpMove, left, right, 0)
	c.release(m)
	c.patchJumpCondTo(skip, c.pc())
	return left
}

func (c *Compiler) compileConditional(n *ast.ConditionalExpr) int32 {
	test := c.compileExpr(n.Test)
	elseJump := c.emit(OpJumpIfFalse, test, 0, 0)
	c.release(test)
	dest := test // reuse test's slot as the shared result register
	m := c.mark()
	cons := c.compileExpr(n.Consequent)
	c.emit(OpMove, dest, cons, 0)
	c.release(m)
	doneJump := c.emit(OpJump, 0, 0, 0)
	c.patchJumpCondTo(elseJump, c.pc())
	alt := c.compileExpr(n.Alternate)
	c.emit(OpMove, dest, alt, 0)
	c.release(dest + 1)
	c.patchJumpTo(doneJump, c.pc())
	return dest
}

// propertyKeyName extracts a static name from a non-computed member
// property (Identifier or PrivateName).
func (c *Compiler) propertyKeyName(prop ast.Expr) (string, bool) {
	switch p := prop.(type) {
	case *ast.Identifier:
		return p.Name, true
	case *ast.PrivateName:
		return "#" + p.Name, true
	default:
		return "", false
	}
}

func (c *Compiler) compileMemberGet(n *ast.MemberExpr, objReg, dest int32) {
	if n.Computed {
		keyReg := c.compileExpr(n.Property)
		c.emit(OpGetByValue, dest, objReg, keyReg)
		c.release(keyReg)
		return
	}
	name, _ := c.propertyKeyName(n.Property)
	c.emit(OpGetByName, dest, objReg, c.addName(name))
}

// compileMember is the entry point for a MemberExpr reached directly from
// compileExpr (i.e. not itself a nested link of an enclosing optional
// chain): it compiles the whole contiguous chain of `.`/`[]`/`()` links
// rooted at n, then - if any link along the way used `?.` - wraps the
// result with a single shared short-circuit so one nullish link yields
// `undefined` for the entire chain (spec §4.7 "optional chains"), not just
// the link that tested nullish.
func (c *Compiler) compileMember(n *ast.MemberExpr) int32 {
	if _, ok := n.Object.(*ast.SuperExpr); ok {
		dest := c.alloc()
		if n.Computed {
			keyReg := c.compileExpr(n.Property)
			c.emit(OpGetSuperByValue, dest, keyReg, 0)
			c.release(keyReg)
		} else {
			name, _ := c.propertyKeyName(n.Property)
			c.emit(OpGetSuperByName, dest, c.addName(name), 0)
		}
		return dest
	}
	var skips []int
	dest := c.compileMemberChain(n, &skips)
	c.closeChain(dest, skips)
	return dest
}

// closeChain patches every collected nullish short-circuit jump in skips
// to land just past a final `OpLoadUndef dest`, making any one of them
// short-circuit the whole chain to `undefined` (spec §4.7 "optional
// chains"). A nil/empty skips is a no-op: a chain with no `?.` link never
// emitted a short-circuit jump to begin with.
func (c *Compiler) closeChain(dest int32, skips []int) {
	if len(skips) == 0 {
		return
	}
	done := c.emit(OpJump, 0, 0, 0)
	for _, j := range skips {
		c.patchJumpCondTo(j, c.pc())
	}
	c.emit(OpLoadUndef, dest, 0, 0)
	c.patchJumpTo(done, c.pc())
}

// compileChainBase compiles e as the base (Object/Callee position) of one
// link of an optional chain: if e continues the same chain (another
// MemberExpr or CallExpr, not a `super` access), its own `?.` test is
// folded into skips instead of being given its own short-circuit wrapper;
// anything else (an Identifier, a parenthesized sub-expression, a literal,
// ...) starts a new, independent chain via the ordinary compileExpr path -
// matching the rule that parenthesizing breaks chain propagation.
func (c *Compiler) compileChainBase(e ast.Expr, skips *[]int) int32 {
	switch t := e.(type) {
	case *ast.MemberExpr:
		if _, ok := t.Object.(*ast.SuperExpr); ok {
			return c.compileExpr(e)
		}
		return c.compileMemberChain(t, skips)
	case *ast.CallExpr:
		if _, ok := t.Callee.(*ast.SuperExpr); ok {
			return c.compileExpr(e)
		}
		return c.compileCallChain(t, skips)
	default:
		return c.compileExpr(e)
	}
}

// compileMemberChain compiles one MemberExpr link of a chain, appending
// its own nullish-base jump (if `?.`) to skips rather than closing it
// locally; the caller (compileMember at the chain's root) closes the
// whole collected list once via closeChain.
func (c *Compiler) compileMemberChain(n *ast.MemberExpr, skips *[]int) int32 {
	objReg := c.compileChainBase(n.Object, skips)
	if n.Optional {
		j := c.emit(OpJumpIfNullish, objReg, 0, 0)
		*skips = append(*skips, j)
	}
	c.compileMemberGet(n, objReg, objReg)
	return objReg
}

// compileArgsArray evaluates args (which may include SpreadElement nodes)
// into a freshly built array, for the call-with-spread path.
func (c *Compiler) compileArgsArray(args []ast.Expr) int32 {
	dest := c.alloc()
	c.emit(OpNewArray, dest, 0, 0)
	for _, a := range args {
		if sp, ok := a.(*ast.SpreadElement); ok {
			c.compileSpreadInto(dest, sp.Argument)
			continue
		}
		m := c.mark()
		r := c.compileExpr(a)
		c.emit(OpArrayPush, dest, r, 0)
		c.release(m)
	}
	return dest
}

func hasSpread(args []ast.Expr) bool {
	for _, a := range args {
		if _, ok := a.(*ast.SpreadElement); ok {
			return true
		}
	}
	return false
}

// compileCall is the entry point for a CallExpr reached directly from
// compileExpr (i.e. the outermost link of whatever optional chain it
// participates in): it compiles the chain via compileCallChain, then
// closes any collected nullish short-circuits exactly once, the same way
// compileMember does for a MemberExpr chain (spec §4.7 "optional chains").
func (c *Compiler) compileCall(n *ast.CallExpr) int32 {
	if _, ok := n.Callee.(*ast.SuperExpr); ok {
		return c.compileSuperCall(n)
	}
	var skips []int
	dest := c.compileCallChain(n, &skips)
	c.closeChain(dest, skips)
	return dest
}

// compileCallChain compiles one CallExpr link of a chain, folding its own
// `?.` tests (on the member base, when the callee is `a.b?.(...)`-shaped,
// and on the call itself, `a?.(...)`) into skips instead of closing them
// locally.
func (c *Compiler) compileCallChain(n *ast.CallExpr, skips *[]int) int32 {
	base := c.mark()
	var this, calleeReg int32
	if mem, ok := n.Callee.(*ast.MemberExpr); ok {
		if _, ok := mem.Object.(*ast.SuperExpr); ok {
			// super.method(...): invoke with the current `this` as
			// receiver, the method looked up starting at the home
			// object's prototype.
			this = c.alloc() // base
			c.emit(OpGetName, this, c.addName("this"), 0)
			calleeReg = c.alloc() // base+1
			if mem.Computed {
				keyReg := c.compileExpr(mem.Property)
				c.emit(OpGetSuperByValue, calleeReg, keyReg, 0)
				c.release(keyReg)
			} else {
				name, _ := c.propertyKeyName(mem.Property)
				c.emit(OpGetSuperByName, calleeReg, c.addName(name), 0)
			}
		} else {
			this = c.compileChainBase(mem.Object, skips) // base
			if mem.Optional {
				j := c.emit(OpJumpIfNullish, this, 0, 0)
				*skips = append(*skips, j)
			}
			calleeReg = c.alloc() // base+1
			c.compileMemberGet(mem, this, calleeReg)
		}
	} else {
		this = c.alloc() // base
		c.emit(OpLoadUndef, this, 0, 0)
		calleeReg = c.compileChainBase(n.Callee, skips) // base+1
	}
	if n.Optional {
		j := c.emit(OpJumpIfNullish, calleeReg, 0, 0)
		*skips = append(*skips, j)
	}
	dest := base
	if hasSpread(n.Args) {
		argsArr := c.compileArgsArray(n.Args) // base+2
		c.emit(OpCallSpread, dest, base, 0)
		c.release(argsArr)
	} else {
		argc := int32(0)
		for _, a := range n.Args {
			c.compileExpr(a)
			argc++
		}
		c.emit(OpCall, dest, base, argc)
	}
	c.release(base + 1)
	return dest
}

// compileSuperCall lowers `super(...)`, a derived constructor invoking its
// parent class constructor with the current new.target (spec §4.8 class
// instruction family). The VM resolves the superclass constructor from
// the running function's own linkage, so base and base+1 are unused
// placeholders kept only for calling-convention parity with OpCall.
func (c *Compiler) compileSuperCall(n *ast.CallExpr) int32 {
	base := c.mark()
	c.alloc() // base: unused
	c.alloc() // base+1: unused
	dest := base
	if hasSpread(n.Args) {
		argsArr := c.compileArgsArray(n.Args)
		c.emit(OpSuperCallSpread, dest, base, 0)
		c.release(argsArr)
	} else {
		argc := int32(0)
		for _, a := range n.Args {
			c.compileExpr(a)
			argc++
		}
		c.emit(OpSuperCall, dest, base, argc)
	}
	c.release(base + 1)
	return dest
}

func (c *Compiler) compileNew(n *ast.NewExpr) int32 {
	base := c.mark()
	placeholder := c.alloc() // base: reserved for new.target wiring, unused by the VM's Construct path directly
	c.emit(OpLoadUndef, placeholder, 0, 0)
	ctorReg := c.compileExpr(n.Callee) // base+1
	dest := base
	if hasSpread(n.Args) {
		argsArr := c.compileArgsArray(n.Args)
		c.emit(OpConstructSpread, dest, base, 0)
		c.release(argsArr)
	} else {
		argc := int32(0)
		for _, a := range n.Args {
			c.compileExpr(a)
			argc++
		}
		c.emit(OpConstruct, dest, base, argc)
	}
	c.release(base + 1)
	_ = ctorReg
	return dest
}

func (c *Compiler) compileYield(n *ast.YieldExpr) int32 {
	var argReg int32
	if n.Argument != nil {
		argReg = c.compileExpr(n.Argument)
	} else {
		argReg = c.alloc()
		c.emit(OpLoadUndef, argReg, 0, 0)
	}
	if n.Delegate {
		iterReg := c.alloc()
		c.emit(OpGetIterator, iterReg, argReg, 0)
		valReg := c.alloc()
		doneReg := c.alloc()
		loopStart := c.pc()
		c.emit(OpIteratorNext, valReg, doneReg, iterReg)
		exit := c.emit(OpJumpIfTrue, doneReg, 0, 0)
		resumeReg := c.alloc()
		c.emit(OpYield, resumeReg, valReg, 0)
		c.release(resumeReg)
		c.emit(OpJump, int32(loopStart), 0, 0)
		c.patchJumpCondTo(exit, c.pc())
		c.emit(OpMove, argReg, valReg, 0)
		c.release(argReg + 1)
		return argReg
	}
	dest := c.alloc()
	c.emit(OpYield, dest, argReg, 0)
	c.release(argReg)
	c.emit(OpMove, argReg, dest, 0)
	c.release(dest)
	return argReg
}

// compileAssignment handles `=` and compound assignment, dispatching the
// LHS to either a plain binding/member target or a destructuring pattern
// (array/object literal reinterpreted by the parser's cover grammar).
func (c *Compiler) compileAssignment(n *ast.AssignmentExpr) int32 {
	if n.Operator == "=" {
		switch n.Target.(type) {
		case *ast.ArrayPattern, *ast.ObjectPattern:
			valReg := c.compileExpr(n.Value)
			c.compileDestructure(n.Target, valReg, bindAssign)
			return valReg
		}
		return c.compileSimpleAssign(n.Target, n.Value)
	}
	// Compound assignment: x op= y  =>  x = x op y (logical variants
	// short-circuit without re-evaluating the RHS when unnecessary).
	switch n.Operator {
	case "&&=", "||=", "??=":
		return c.compileCompoundLogicalAssign(n)
	}
	baseOp, ok := binOpcodes[n.Operator[:len(n.Operator)-1]]
	if !ok {
		c.fail("unknown compound assignment operator "+n.Operator, n.Pos())
	}
	switch t := n.Target.(type) {
	case *ast.Identifier:
		cur := c.alloc()
		c.emit(OpGetName, cur, c.addName(t.Name), 0)
		rhs := c.compileExpr(n.Value)
		c.emit(baseOp, cur, cur, rhs)
		c.release(rhs)
		c.emit(OpSetName, c.addName(t.Name), cur, 0)
		return cur
	case *ast.MemberExpr:
		objReg := c.compileExpr(t.Object)
		if t.Computed {
			keyReg := c.compileExpr(t.Property)
			cur := c.alloc()
			c.emit(OpGetByValue, cur, objReg, keyReg)
			rhs := c.compileExpr(n.Value)
			c.emit(baseOp, cur, cur, rhs)
			c.emit(OpSetByValue, objReg, keyReg, cur)
			c.release(keyReg)
			c.emit(OpMove, objReg, cur, 0)
		} else {
			name, _ := c.propertyKeyName(t.Property)
			idx := c.addName(name)
			cur := c.alloc()
			c.emit(OpGetByName, cur, objReg, idx)
			rhs := c.compileExpr(n.Value)
			c.emit(baseOp, cur, cur, rhs)
			c.emit(OpSetByName, objReg, idx, cur)
			c.emit(OpMove, objReg, cur, 0)
		}
		c.release(objReg + 1)
		return objReg
	default:
		c.fail("invalid assignment target", n.Pos())
		return 0
	}
}

func (c *Compiler) compileCompoundLogicalAssign(n *ast.AssignmentExpr) int32 {
	id, ok := n.Target.(*ast.Identifier)
	if !ok {
		c.fail("unsupported compound-logical assignment target", n.Pos())
	}
	cur := c.alloc()
	c.emit(OpGetName, cur, c.addName(id.Name), 0)
	var skip int
	switch n.Operator {
	case "&&=":
		skip = c.emit(OpJumpIfFalse, cur, 0, 0)
	case "||=":
		skip = c.emit(OpJumpIfTrue, cur, 0, 0)
	case "??=":
		skip = c.emit(OpJumpIfNullish, cur, 0, 0)
		over := c.emit(OpJump, 0, 0, 0)
		c.patchJumpCondTo(skip, c.pc())
		m := c.mark()
		rhs := c.compileExpr(n.Value)
		c.emit(OpMove, cur, rhs, 0)
		c.release(m)
		c.emit(OpSetName, c.addName(id.Name), cur, 0)
		c.patchJumpTo(over, c.pc())
		return cur
	}
	m := c.mark()
	rhs := c.compileExpr(n.Value)
	c.emit(OpMove, cur, rhs, 0)
	c.release(m)
	c.emit(OpSetName, c.addName(id.Name), cur, 0)
	c.patchJumpCondTo(skip, c.pc())
	return cur
}

func (c *Compiler) compileSimpleAssign(target, valueExpr ast.Expr) int32 {
	switch t := target.(type) {
	case *ast.Identifier:
		val := c.compileExpr(valueExpr)
		c.emit(OpSetName, c.addName(t.Name), val, 0)
		return val
	case *ast.MemberExpr:
		objReg := c.compileExpr(t.Object)
		if t.Computed {
			keyReg := c.compileExpr(t.Property)
			val := c.compileExpr(valueExpr)
			c.emit(OpSetByValue, objReg, keyReg, val)
			c.release(keyReg)
			c.emit(OpMove, objReg, val, 0)
		} else {
			name, _ := c.propertyKeyName(t.Property)
			val := c.compileExpr(valueExpr)
			c.emit(OpSetByName, objReg, c.addName(name), val)
			c.emit(OpMove, objReg, val, 0)
		}
		c.release(objReg + 1)
		return objReg
	default:
		c.fail("invalid assignment target", target.Pos())
		return 0
	}
}
