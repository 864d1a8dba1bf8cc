// Package compiler lowers the parser's AST into bytecode for a
// register-based virtual machine (spec §4.8). Named bindings (var/let/
// const/function parameters) are not register-allocated: they live in
// the environment chain built at runtime by internal/environment, and
// are addressed by name through the GetName/SetName instruction family.
// Registers hold only expression temporaries, which keeps the compiler's
// allocator a simple per-frame counter rather than a full liveness-based
// allocator.
//
// This is a deliberate simplification of spec §4.8's variable-width
// (u8/u16/u32) operand encoding: instructions here carry three fixed
// int32 operands. A real engine picks the narrower encoding to shrink
// bytecode size; this engine trades that for simplicity, since nothing
// in the spec's testable properties depends on instruction width.
package compiler

// Opcode identifies one VM instruction.
type Opcode uint8

const (
	OpNop Opcode = iota

	// Constant/register moves and literal loads.
	OpLoadConst   // A = dest, B = const index
	OpLoadUndef   // A = dest
	OpLoadNull    // A = dest
	OpLoadTrue    // A = dest
	OpLoadFalse   // A = dest
	OpMove        // A = dest, B = src

	// Binary/unary/update ops. A = dest, B = left, C = right (unary: B only).
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpExp
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpUShr
	OpEq
	OpNotEq
	OpStrictEq
	OpStrictNotEq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpIn
	OpInstanceOf
	OpNeg
	OpPlus
	OpNot
	OpBitNot
	OpTypeof
	OpTypeofName // A = dest, B = const index (name); typeof on an unresolvable name yields "undefined" rather than throwing
	OpDelete     // A = dest, B = object reg, C = key reg
	OpVoid       // A = dest, B = src (evaluated, discarded)

	// Property access.
	OpGetByName // A = dest, B = object reg, C = const index (name)
	OpSetByName // A = object reg, B = const index (name), C = value reg
	OpGetByValue
	OpSetByValue
	OpDefineProp    // A = object reg, B = key reg, C = value reg: own data prop, writable/enumerable/configurable
	OpDefineGetter  // A = object reg, B = key reg, C = getter function reg
	OpDefineSetter  // A = object reg, B = key reg, C = setter function reg
	OpDeleteByName
	OpDeleteByValue
	OpRestObject // A = dest, B = src object reg, C = const index of a "\x00"-joined list of already-destructured keys to exclude
	OpGetSuperByName  // A = dest, B = const index (name); looks up name on the running method's home object's prototype, with `this` as receiver
	OpGetSuperByValue // A = dest, B = key reg
	OpSetSuperByName  // A = const index (name), B = value reg; sets on `this` starting the search at the home object's prototype

	// Array/object literal construction.
	OpNewObject  // A = dest
	OpNewArray   // A = dest
	OpArrayPush  // A = array reg, B = value reg (appends to dense storage)

	// Tagged-template call-site identity cache (spec §9 "caller-unique
	// template objects"): a tagged template's strings array must be the
	// same object reference on every evaluation of the same call site.
	OpTemplateCacheGet // A = dest, B = target pc (patched; jump here on a cache hit, dest already holds the cached array), C = const index (per-call-site id)
	OpTemplateCacheSet // A = src reg (the freshly built array), B = const index (id)

	// Binding ops.
	OpDefVar        // A = const index (name)
	OpDeclareLet    // A = const index (name); creates an uninitialized (TDZ) mutable binding, run at block entry
	OpDeclareConst  // A = const index (name); creates an uninitialized (TDZ) immutable binding, run at block entry
	OpDefInitLet    // A = const index (name), B = value reg; initializes a binding predeclared by OpDeclareLet
	OpDefInitConst  // A = const index (name), B = value reg; initializes a binding predeclared by OpDeclareConst
	OpDefInitArg    // A = const index (name), B = value reg (no TDZ, always initialised)
	OpGetName       // A = dest, B = const index (name)
	OpGetNameOrUndef // A = dest, B = const index (name); typeof-safe read of a possibly-unresolvable name
	OpSetName       // A = const index (name), B = value reg
	OpDeleteName    // A = dest, B = const index (name)

	// Control flow.
	OpJump        // A = target pc
	OpJumpIfTrue  // A = cond reg, B = target pc
	OpJumpIfFalse // A = cond reg, B = target pc
	OpJumpIfNullish // A = reg, B = target pc; tests null-or-undefined (for optional chaining)
	OpThrow       // A = value reg
	OpReturn      // A = value reg
	OpPushEnv     // A = object reg for an object-backed (`with`) environment, or -1 for a plain declarative one
	OpPopEnv      // leave the current declarative environment

	// Iteration protocol.
	OpGetIterator      // A = dest iterator reg, B = iterable reg, C = 1 for async
	OpIteratorNext      // A = dest value reg, B = dest done reg, C = iterator reg
	OpIteratorClose     // A = iterator reg
	OpIterPush          // A = iterator reg: push onto the frame's close-on-unwind stack
	OpIterPop           // pop one iterator off the close-on-unwind stack without closing it (normal exit)
	OpIterUnwindTo      // A = target iterator-stack depth; closes every iterator above that depth (non-local exit through a for-of/for-await-of)

	// Generator/async.
	OpYield        // A = dest (resume value), B = yielded value reg
	OpAwait        // A = dest (resolved value), B = awaited value reg
	OpCreateIterResult // A = dest, B = value reg, C = done reg

	// Calls/construct. Calling convention: reg[B] = this, reg[B+1] =
	// callee, reg[B+2 .. B+2+C) = arguments.
	OpCall        // A = dest, B = base, C = argc
	OpCallSpread  // A = dest, B = base; reg[B+2] holds a single array of arguments to spread
	OpConstruct   // A = dest, B = base (reg[B+1] = constructor, reg[B+2..) = args), C = argc
	OpConstructSpread // A = dest, B = base; reg[B+2] holds a single array of arguments to spread
	OpSuperCall   // A = dest, B = base (reg[B+2..) = args), C = argc
	OpSuperCallSpread // A = dest, B = base; reg[B+2] holds a single array of arguments to spread

	// Functions/classes.
	OpMakeClosure // A = dest, B = child code block index
	OpMakeClass   // A = dest, B = child code block index (constructor), C = superclass reg (-1 if none)

	OpHalt
)
