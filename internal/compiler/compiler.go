package compiler

import (
	"fmt"

	"github.com/oxhq/jsengine/internal/ast"
	"github.com/oxhq/jsengine/internal/value"
)

// CompileError reports a failure to lower an AST node, for constructs the
// compiler rejects statically (spec §4.7 "Early errors" overlap: a few of
// these are only caught here, once the full tree is visible).
type CompileError struct {
	Msg  string
	Span ast.Span
}

func (e *CompileError) Error() string { return fmt.Sprintf("SyntaxError: %s", e.Msg) }

// loopScope tracks one enclosing iteration or switch statement so break/
// continue can resolve their target, and the environment/iterator depth
// that must be unwound to reach it (spec §4.8 "Scope entry/exit").
type loopScope struct {
	label         string
	isSwitch      bool // switch only supports break, not continue
	envDepth      int
	iterDepth     int
	breakPatches  []int
	continuePatches []int
}

// finallyFrame tracks one enclosing try's finally body so a break,
// continue, or return compiled inside the try (or its catch) can detour
// through it before jumping or returning (spec §4.8: "finally is recorded
// separately so that normal, break, continue, throw, and return
// completions can re-enter the finally block and resume their original
// completion afterward"). envDepth is the depth at the try's own entry, so
// a break/continue/return only detours through finallys it actually exits
// past, not ones nested inside the statement it targets.
type finallyFrame struct {
	stmts    []ast.Stmt
	envDepth int
}

// Compiler lowers one function body (or the top-level program) into a
// CodeBlock. A new Compiler is created per function; nested functions get
// their own Compiler feeding into the parent's Children list.
type Compiler struct {
	cb       *CodeBlock
	nextReg  int32
	maxRegSeen int32
	envDepth int
	iterDepth int
	loops    []*loopScope
	finallys []*finallyFrame
	nameIdx  map[string]int32
	parent   *Compiler

	// templateSeq is shared across an entire compiled program (root and every
	// nested function Compiler) so each tagged-template call site gets a
	// distinct, stable id for the VM's per-call-site template object cache.
	templateSeq *int32
}

func newCompiler(parent *Compiler) *Compiler {
	c := &Compiler{cb: &CodeBlock{}, nameIdx: make(map[string]int32), parent: parent}
	if parent != nil {
		c.templateSeq = parent.templateSeq
	} else {
		c.templateSeq = new(int32)
	}
	return c
}

// nextTemplateID hands out the next call-site id for a tagged template.
func (c *Compiler) nextTemplateID() int32 {
	id := *c.templateSeq
	*c.templateSeq++
	return id
}

// CompileProgram compiles a top-level script or module body (spec §4.11
// eval entry point / §4.12 module instantiation).
func CompileProgram(prog *ast.Program) (cb *CodeBlock, err error) {
	c := newCompiler(nil)
	c.cb.IsStrict = prog.IsModule
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()
	c.hoistDeclarations(prog.Body, true)
	for _, stmt := range prog.Body {
		c.compileStmt(stmt)
	}
	c.emit(OpHalt, 0, 0, 0)
	c.cb.NumRegs = c.maxRegSeen
	return c.cb, nil
}

// compileFunctionLike compiles a function/arrow/method body into a child
// CodeBlock of the enclosing compiler, registering it in Children and
// returning its index.
func (c *Compiler) compileFunctionLike(name string, params []*ast.Param, body any, isArrow, isGenerator, isAsync, exprBody bool) int32 {
	fc := newCompiler(c)
	fc.cb.Name = name
	fc.cb.IsArrow = isArrow
	fc.cb.IsGenerator = isGenerator
	fc.cb.IsAsync = isAsync
	fc.cb.Params = fc.compileParams(params)

	switch b := body.(type) {
	case []ast.Stmt:
		fc.hoistDeclarations(b, true)
		for _, s := range b {
			fc.compileStmt(s)
		}
		fc.emit(OpLoadUndef, fc.alloc(), 0, 0)
		fc.emit(OpReturn, fc.nextReg-1, 0, 0)
	case ast.Expr:
		r := fc.compileExpr(b)
		fc.emit(OpReturn, r, 0, 0)
	}
	fc.emit(OpHalt, 0, 0, 0)
	fc.cb.NumRegs = fc.maxRegSeen
	c.cb.Children = append(c.cb.Children, fc.cb)
	return int32(len(c.cb.Children) - 1)
}

func (c *Compiler) compileParams(params []*ast.Param) []ParamInfo {
	out := make([]ParamInfo, 0, len(params))
	for _, p := range params {
		pi := ParamInfo{Rest: p.Rest}
		if id, ok := p.Target.(*ast.Identifier); ok {
			pi.Name = id.Name
		} else {
			// A destructuring parameter: compile a thunk that binds the
			// incoming value (placed in register 0 by the caller) against
			// the pattern, reusing the same destructuring lowering ordinary
			// declarations use. Run against the call's own parameter
			// environment, so the bindings it declares land where the rest
			// of the function body expects them.
			bc := newCompiler(c)
			valReg := bc.alloc()
			bc.compileDestructure(p.Target, valReg, bindArg)
			bc.emit(OpLoadUndef, bc.alloc(), 0, 0)
			bc.emit(OpReturn, bc.nextReg-1, 0, 0)
			bc.emit(OpHalt, 0, 0, 0)
			bc.cb.NumRegs = bc.maxRegSeen
			pi.Bind = bc.cb
		}
		if p.Default != nil {
			dc := newCompiler(c)
			r := dc.compileExpr(p.Default)
			dc.emit(OpReturn, r, 0, 0)
			dc.emit(OpHalt, 0, 0, 0)
			dc.cb.NumRegs = dc.maxRegSeen
			pi.Default = dc.cb
		}
		out = append(out, pi)
	}
	return out
}

// --- register allocation -------------------------------------------------

// maxRegSeen tracks the high-water mark separately from nextReg, since
// nextReg drops back down as temporaries are released.
func (c *Compiler) bump() {
	if c.nextReg > c.maxRegSeen {
		c.maxRegSeen = c.nextReg
	}
}

// alloc reserves one fresh register above every currently-live temporary.
func (c *Compiler) alloc() int32 {
	r := c.nextReg
	c.nextReg++
	c.bump()
	return r
}

// mark captures the current allocation frontier, to be restored by release
// once the temporaries above it are no longer needed.
func (c *Compiler) mark() int32 { return c.nextReg }

func (c *Compiler) release(m int32) { c.nextReg = m }

// --- emission -------------------------------------------------------------

func (c *Compiler) emit(op Opcode, a, b, cc int32) int {
	c.cb.Instructions = append(c.cb.Instructions, Instruction{Op: op, A: a, B: b, C: cc})
	return len(c.cb.Instructions) - 1
}

func (c *Compiler) pc() int { return len(c.cb.Instructions) }

func (c *Compiler) patchJumpTo(idx int, target int) {
	c.cb.Instructions[idx].A = int32(target)
}

// patchJumpCondTo patches a two-operand conditional jump's target (operand
// B); used for JumpIfTrue/JumpIfFalse.
func (c *Compiler) patchJumpCondTo(idx int, target int) {
	c.cb.Instructions[idx].B = int32(target)
}

func (c *Compiler) note(span ast.Span) {
	c.cb.SourceMap = append(c.cb.SourceMap, SourceMapEntry{PC: c.pc(), Span: span})
}

func (c *Compiler) addConst(v value.Value) int32 {
	c.cb.Constants = append(c.cb.Constants, v)
	return int32(len(c.cb.Constants) - 1)
}

// addName dedups name constants so repeated references to the same
// identifier (common inside loops) don't bloat the constant pool.
func (c *Compiler) addName(name string) int32 {
	if idx, ok := c.nameIdx[name]; ok {
		return idx
	}
	idx := c.addConst(value.StrFromGo(name))
	c.nameIdx[name] = idx
	return idx
}

func (c *Compiler) fail(msg string, span ast.Span) {
	panic(&CompileError{Msg: msg, Span: span})
}
