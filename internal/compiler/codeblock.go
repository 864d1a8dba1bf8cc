package compiler

import (
	"github.com/oxhq/jsengine/internal/ast"
	"github.com/oxhq/jsengine/internal/value"
)

// Instruction is one bytecode instruction: an opcode plus up to three
// register/constant/pc operands, meaning depending on Op (see opcode.go
// doc comments next to each constant).
type Instruction struct {
	Op   Opcode
	A, B, C int32
}

// HandlerKind distinguishes a catch handler from a finally handler in the
// exception handler table (spec §4.8 "Exception handler table").
type HandlerKind uint8

const (
	HandlerCatch HandlerKind = iota
	HandlerFinally
)

// ExceptionHandler records one protected pc range and where control
// transfers to on an unwind that reaches it.
type ExceptionHandler struct {
	StartPC, EndPC int // [StartPC, EndPC) is protected
	HandlerPC      int
	Kind           HandlerKind
	CatchReg       int32 // register to receive the exception value; -1 if the catch clause has no binding
	EnvDepth       int   // number of OpPushEnv frames active at handler entry, for environment truncation on unwind
	IterDepth      int   // number of active iterators at handler entry, for iterator-stack unwinding
}

// SourceMapEntry maps one instruction index to the AST span that produced
// it, for stack-trace rendering (spec §4.9 "Stack traces").
type SourceMapEntry struct {
	PC   int
	Span ast.Span
}

// ParamInfo describes one formal parameter for binding at call time.
type ParamInfo struct {
	Name    string     // empty for a destructuring parameter (Bind is used instead)
	Bind    *CodeBlock // non-nil for a destructuring target: a thunk taking the incoming value in register 0 and binding its leaves via OpDefInitArg, run against the call's parameter environment
	Default *CodeBlock // non-nil if the parameter has a default-value initialiser, compiled as a nullary thunk
	Rest    bool
}

// CodeBlock is the compiled form of one function body or the top-level
// program (spec §4.8). Nested functions compile to child CodeBlocks
// referenced from OpMakeClosure/OpMakeClass by index into Children.
type CodeBlock struct {
	Name      string
	Params    []ParamInfo
	NumRegs   int32
	Instructions []Instruction
	Constants []value.Value
	Handlers  []ExceptionHandler
	Children  []*CodeBlock
	SourceMap []SourceMapEntry

	IsStrict    bool
	IsGenerator bool
	IsAsync     bool
	IsArrow     bool
	IsClassCtor bool

	// UsesArguments reports whether the body references the arguments
	// object, so the VM can skip materialising it otherwise.
	UsesArguments bool
}

// SourcePos returns the source span recorded for instruction pc, or the
// zero Span if none was recorded (e.g. synthetic instructions).
func (cb *CodeBlock) SourcePos(pc int) ast.Span {
	var best ast.Span
	for _, e := range cb.SourceMap {
		if e.PC > pc {
			break
		}
		best = e.Span
	}
	return best
}

// HandlerFor returns the innermost handler whose range contains pc: the
// containing range with the smallest width, which is always the most
// tightly nested protected region for any two ranges that share a start
// (a catch handler's narrower try-only range vs. its enclosing finally
// handler's try+catch range).
func (cb *CodeBlock) HandlerFor(pc int) (ExceptionHandler, bool) {
	best := -1
	for i, h := range cb.Handlers {
		if pc < h.StartPC || pc >= h.EndPC {
			continue
		}
		if best == -1 || (h.EndPC-h.StartPC) < (cb.Handlers[best].EndPC-cb.Handlers[best].StartPC) {
			best = i
		}
	}
	if best == -1 {
		return ExceptionHandler{}, false
	}
	return cb.Handlers[best], true
}
