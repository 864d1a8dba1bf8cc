package compiler

import "github.com/oxhq/jsengine/internal/ast"

// compileClass lowers a class declaration or expression to a constructor
// function plus a sequence of installation instructions that wire methods,
// accessors, and static fields onto it (spec §4.8 class instruction
// family). Instance field initializers are compiled directly into the
// constructor body: at the very start for a base class, or right after the
// super() call for a derived class - the forwarding super call of a
// synthesized constructor, or the top-level super() call of an explicit one
// (the earliest point `this` is actually initialized). name is used only as the compiled function's
// display name for stack traces.
func (c *Compiler) compileClass(name *ast.Identifier, superClass ast.Expr, body []ast.ClassMember) int32 {
	m := c.mark()
	superReg := int32(-1)
	if superClass != nil {
		superReg = c.compileExpr(superClass)
	}

	var ctorMember *ast.ClassMember
	var instanceFields []*ast.ClassMember
	for i := range body {
		mem := &body[i]
		if mem.Kind == ast.ClassMethod && !mem.Static && !mem.Computed {
			if nm, ok := mem.Key.(*ast.Identifier); ok && nm.Name == "constructor" {
				ctorMember = mem
				continue
			}
		}
		if mem.Kind == ast.ClassField && !mem.Static {
			instanceFields = append(instanceFields, mem)
		}
	}

	className := ""
	if name != nil {
		className = name.Name
	}
	ctorIdx := c.compileClassConstructor(className, ctorMember, instanceFields, superClass != nil)

	dest := c.alloc()
	c.emit(OpMakeClass, dest, ctorIdx, superReg)

	var protoReg int32 = -1
	protoOf := func() int32 {
		if protoReg == -1 {
			protoReg = c.alloc()
			c.emit(OpGetByName, protoReg, dest, c.addName("prototype"))
		}
		return protoReg
	}

	for i := range body {
		mem := &body[i]
		if mem == ctorMember {
			continue
		}
		switch mem.Kind {
		case ast.ClassMethod, ast.ClassGetter, ast.ClassSetter:
			target := dest
			if !mem.Static {
				target = protoOf()
			}
			c.installClassMethod(target, mem)
		case ast.ClassField:
			if !mem.Static {
				continue // handled inside the constructor body
			}
			c.installStaticField(dest, mem)
		case ast.ClassStaticBlock:
			c.emit(OpPushEnv, -1, 0, 0)
			c.envDepth++
			for _, s := range mem.Body {
				c.compileStmt(s)
			}
			c.emit(OpPopEnv, 0, 0, 0)
			c.envDepth--
		}
	}

	c.release(m)
	final := c.alloc()
	c.emit(OpMove, final, dest, 0)
	return final
}

func (c *Compiler) installClassMethod(target int32, mem *ast.ClassMember) {
	fn, ok := mem.Value.(*ast.FunctionExpr)
	if !ok {
		c.fail("class method without function body", mem.Span)
	}
	m := c.mark()
	keyReg := c.compilePropertyKeyValue(mem.Key, mem.Computed)
	idx := c.compileFunctionLike("", paramPtrs(fn.Params), fn.Body, false, fn.Generator, fn.Async, false)
	fnReg := c.alloc()
	c.emit(OpMakeClosure, fnReg, idx, 0)
	switch mem.Kind {
	case ast.ClassGetter:
		c.emit(OpDefineGetter, target, keyReg, fnReg)
	case ast.ClassSetter:
		c.emit(OpDefineSetter, target, keyReg, fnReg)
	default:
		c.emit(OpDefineProp, target, keyReg, fnReg)
	}
	c.release(m)
}

func (c *Compiler) installStaticField(dest int32, mem *ast.ClassMember) {
	m := c.mark()
	keyReg := c.compilePropertyKeyValue(mem.Key, mem.Computed)
	var valReg int32
	if mem.Value != nil {
		valReg = c.compileExpr(mem.Value)
	} else {
		valReg = c.alloc()
		c.emit(OpLoadUndef, valReg, 0, 0)
	}
	if mem.Computed {
		c.emit(OpSetByValue, dest, keyReg, valReg)
	} else {
		name, _ := c.propertyKeyName(mem.Key)
		c.emit(OpSetByName, dest, c.addName(name), valReg)
	}
	c.release(m)
}

// compileClassConstructor compiles the constructor body as a child
// CodeBlock: the user's own constructor method if the class declares one,
// or a synthesized default (forwarding all arguments to super() in a
// derived class, or an empty body otherwise).
func (c *Compiler) compileClassConstructor(name string, ctorMember *ast.ClassMember, instanceFields []*ast.ClassMember, hasSuper bool) int32 {
	fc := newCompiler(c)
	fc.cb.Name = name
	fc.cb.IsClassCtor = true

	var params []*ast.Param
	var body []ast.Stmt
	if ctorMember != nil {
		fn, _ := ctorMember.Value.(*ast.FunctionExpr)
		if fn != nil {
			params = paramPtrs(fn.Params)
			body = fn.Body
		}
	} else if hasSuper {
		rest := &ast.Identifier{Name: "__superArgs"}
		params = []*ast.Param{{Target: rest, Rest: true}}
	}
	fc.cb.Params = fc.compileParams(params)

	fc.hoistDeclarations(body, true)

	switch {
	case ctorMember == nil && hasSuper:
		base := fc.mark()
		fc.alloc() // base: unused
		fc.alloc() // base+1: unused
		argsArr := fc.alloc()
		fc.emit(OpGetName, argsArr, fc.addName("__superArgs"), 0)
		fc.emit(OpSuperCallSpread, base, base, 0)
		fc.release(base)
		fc.emitFieldInitializers(instanceFields)
		for _, s := range body {
			fc.compileStmt(s)
		}
	case hasSuper:
		// An explicit derived-class constructor: `this` stays in its TDZ
		// until the user's own super() call runs, so field initializers
		// (which read `this`) must follow that call rather than run at the
		// very start of the body - splice them in right after the
		// top-level statement that calls super().
		splitAt := findTopLevelSuperCall(body)
		for _, s := range body[:splitAt] {
			fc.compileStmt(s)
		}
		fc.emitFieldInitializers(instanceFields)
		for _, s := range body[splitAt:] {
			fc.compileStmt(s)
		}
	default:
		fc.emitFieldInitializers(instanceFields)
		for _, s := range body {
			fc.compileStmt(s)
		}
	}
	fc.emit(OpLoadUndef, fc.alloc(), 0, 0)
	fc.emit(OpReturn, fc.nextReg-1, 0, 0)
	fc.emit(OpHalt, 0, 0, 0)
	fc.cb.NumRegs = fc.maxRegSeen
	c.cb.Children = append(c.cb.Children, fc.cb)
	return int32(len(c.cb.Children) - 1)
}

// findTopLevelSuperCall locates the first top-level statement that is a
// bare super(...) call, returning the index just past it (spec requires a
// derived constructor to call super() before touching `this`, so a
// well-formed body always has one at the top level). Falls back to 0 - field
// initializers first - if none is found, rather than panicking on
// malformed input the parser should have already rejected.
func findTopLevelSuperCall(body []ast.Stmt) int {
	for i, s := range body {
		es, ok := s.(*ast.ExpressionStmt)
		if !ok {
			continue
		}
		ce, ok := es.Expression.(*ast.CallExpr)
		if !ok {
			continue
		}
		if _, ok := ce.Callee.(*ast.SuperExpr); ok {
			return i + 1
		}
	}
	return 0
}

// emitFieldInitializers runs each instance field's initializer against
// `this` and installs the result as an own property, in declaration order.
func (c *Compiler) emitFieldInitializers(fields []*ast.ClassMember) {
	if len(fields) == 0 {
		return
	}
	thisReg := c.alloc()
	c.emit(OpGetName, thisReg, c.addName("this"), 0)
	for _, f := range fields {
		m := c.mark()
		keyReg := c.compilePropertyKeyValue(f.Key, f.Computed)
		var valReg int32
		if f.Value != nil {
			valReg = c.compileExpr(f.Value)
		} else {
			valReg = c.alloc()
			c.emit(OpLoadUndef, valReg, 0, 0)
		}
		if f.Computed {
			c.emit(OpSetByValue, thisReg, keyReg, valReg)
		} else {
			name, _ := c.propertyKeyName(f.Key)
			c.emit(OpSetByName, thisReg, c.addName(name), valReg)
		}
		c.release(m)
	}
	c.release(thisReg)
}
