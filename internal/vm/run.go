package vm

import (
	"github.com/oxhq/jsengine/internal/compiler"
	"github.com/oxhq/jsengine/internal/environment"
	"github.com/oxhq/jsengine/internal/object"
	"github.com/oxhq/jsengine/internal/value"
)

// run is the dispatch loop over one Frame (spec §4.9). It returns the
// completion value, which of the four ways the frame stopped, the payload
// for completionThrow (the JS exception value, already unwound) and a Go
// error only for a condition the frame's own handler table cannot resolve
// (an uncaught throw, or a Go-level failure from an abstract operation).
func (m *Machine) run(f *Frame) (value.Value, completion, value.Value, error) {
	if f.suspendedAt >= 0 {
		resumeAt := f.suspendedAt
		f.suspendedAt = -1
		if f.resumeErr != nil {
			err := f.resumeErr
			f.resumeErr = nil
			if rs, ok := err.(*returnSignal); ok {
				return rs.val, completionReturn, value.Undefined, nil
			}
			if !m.unwind(f, err) {
				v, _ := ThrownValue(err)
				if v.IsUndefined() {
					v = m.errToValue(err)
				}
				return value.Undefined, completionThrow, v, nil
			}
		} else {
			ins := f.cb.Instructions[resumeAt]
			f.regs[ins.A] = f.resumeVal
			f.resumeVal = value.Undefined
		}
	}

	for {
		if f.pc >= len(f.cb.Instructions) {
			return value.Undefined, completionReturn, value.Undefined, nil
		}
		ins := f.cb.Instructions[f.pc]
		f.execPC = f.pc
		f.pc++

		val, oc, payload, done, err := m.step(f, ins)
		if err != nil {
			if m.unwind(f, err) {
				continue
			}
			v, ok := ThrownValue(err)
			if !ok {
				v = m.errToValue(err)
			}
			return value.Undefined, completionThrow, v, nil
		}
		if done {
			return val, oc, payload, nil
		}
	}
}

// unwind looks up the innermost exception handler protecting f.execPC and,
// if found, truncates the environment chain and iterator stack back to the
// handler's recorded depth, writes the exception value into its catch
// register (if any), and resumes dispatch at its handler pc. Both catch and
// finally handlers are handled identically here: a finally block's
// re-raise-after-cleanup is itself ordinary compiled OpThrow bytecode.
func (m *Machine) unwind(f *Frame, err error) bool {
	h, ok := f.cb.HandlerFor(f.execPC)
	if !ok {
		return false
	}
	for f.envDepth > h.EnvDepth {
		f.env = f.env.Outer()
		f.envDepth--
	}
	for len(f.iterStack) > h.IterDepth {
		n := len(f.iterStack) - 1
		m.iteratorClose(f.iterStack[n])
		f.iterStack = f.iterStack[:n]
	}
	if h.CatchReg >= 0 {
		v, ok := ThrownValue(err)
		if !ok {
			v = m.errToValue(err)
		}
		f.regs[h.CatchReg] = v
	}
	f.pc = h.HandlerPC
	return true
}

// step executes one instruction. done reports whether the frame has
// completed (return/throw escaping the whole frame, or yield/await
// suspension); val/oc/payload are only meaningful when done is true.
func (m *Machine) step(f *Frame, ins compiler.Instruction) (value.Value, completion, value.Value, bool, error) {
	switch ins.Op {
	case compiler.OpNop:

	case compiler.OpLoadConst:
		f.regs[ins.A] = f.cb.Constants[ins.B]
	case compiler.OpLoadUndef:
		f.regs[ins.A] = value.Undefined
	case compiler.OpLoadNull:
		f.regs[ins.A] = value.Null
	case compiler.OpLoadTrue:
		f.regs[ins.A] = value.Bool(true)
	case compiler.OpLoadFalse:
		f.regs[ins.A] = value.Bool(false)
	case compiler.OpMove:
		f.regs[ins.A] = f.regs[ins.B]

	case compiler.OpAdd:
		v, err := object.Add(f.regs[ins.B], f.regs[ins.C])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = v
	case compiler.OpSub:
		return m.binNumeric(f, ins, object.Sub)
	case compiler.OpMul:
		return m.binNumeric(f, ins, object.Mul)
	case compiler.OpDiv:
		return m.binNumeric(f, ins, object.Div)
	case compiler.OpMod:
		return m.binNumeric(f, ins, object.Mod)
	case compiler.OpExp:
		return m.binNumeric(f, ins, object.Exp)
	case compiler.OpBitAnd:
		return m.binNumeric(f, ins, object.BitAnd)
	case compiler.OpBitOr:
		return m.binNumeric(f, ins, object.BitOr)
	case compiler.OpBitXor:
		return m.binNumeric(f, ins, object.BitXor)
	case compiler.OpShl:
		return m.binNumeric(f, ins, object.Shl)
	case compiler.OpShr:
		return m.binNumeric(f, ins, object.Shr)
	case compiler.OpUShr:
		return m.binNumeric(f, ins, object.UShr)

	case compiler.OpEq:
		eq, err := object.LooseEquals(f.regs[ins.B], f.regs[ins.C])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = value.Bool(eq)
	case compiler.OpNotEq:
		eq, err := object.LooseEquals(f.regs[ins.B], f.regs[ins.C])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = value.Bool(!eq)
	case compiler.OpStrictEq:
		f.regs[ins.A] = value.Bool(value.StrictEquals(f.regs[ins.B], f.regs[ins.C]))
	case compiler.OpStrictNotEq:
		f.regs[ins.A] = value.Bool(!value.StrictEquals(f.regs[ins.B], f.regs[ins.C]))
	case compiler.OpLess:
		lt, err := object.LessThan(f.regs[ins.B], f.regs[ins.C])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = value.Bool(lt.IsBoolean() && lt.AsBool())
	case compiler.OpLessEq:
		gt, err := object.LessThan(f.regs[ins.C], f.regs[ins.B])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = value.Bool(!gt.IsUndefined() && !(gt.IsBoolean() && gt.AsBool()))
	case compiler.OpGreater:
		gt, err := object.LessThan(f.regs[ins.C], f.regs[ins.B])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = value.Bool(gt.IsBoolean() && gt.AsBool())
	case compiler.OpGreaterEq:
		lt, err := object.LessThan(f.regs[ins.B], f.regs[ins.C])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = value.Bool(!lt.IsUndefined() && !(lt.IsBoolean() && lt.AsBool()))
	case compiler.OpIn:
		obj, ok := object.Wrap(f.regs[ins.C])
		if !ok {
			return value.Undefined, 0, value.Undefined, false, object.TypeError("cannot use 'in' on a non-object")
		}
		key, err := object.ToPropertyKey(f.regs[ins.B])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = value.Bool(object.HasProperty(obj, key))
	case compiler.OpInstanceOf:
		ctor, ok := object.Wrap(f.regs[ins.C])
		if !ok || !ctor.IsCallable() {
			return value.Undefined, 0, value.Undefined, false, object.TypeError("right-hand side of 'instanceof' is not callable")
		}
		r, err := object.OrdinaryHasInstance(ctor, f.regs[ins.B])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = value.Bool(r)
	case compiler.OpNeg:
		v, err := object.Neg(f.regs[ins.B])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = v
	case compiler.OpPlus:
		v, err := object.ToNumber(f.regs[ins.B])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = v
	case compiler.OpNot:
		f.regs[ins.A] = value.Bool(!f.regs[ins.B].ToBoolean())
	case compiler.OpBitNot:
		v, err := object.BitNot(f.regs[ins.B])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = v
	case compiler.OpTypeof:
		f.regs[ins.A] = value.StrFromGo(object.Typeof(f.regs[ins.B]))
	case compiler.OpTypeofName:
		v, err := environment.GetBindingValue(f.env, f.cb.Constants[ins.B].AsString().String())
		if err != nil {
			f.regs[ins.A] = value.StrFromGo("undefined")
			break
		}
		f.regs[ins.A] = value.StrFromGo(object.Typeof(v))
	case compiler.OpDelete:
		obj, ok := object.Wrap(f.regs[ins.B])
		if !ok {
			f.regs[ins.A] = value.Bool(true)
			break
		}
		key, err := object.ToPropertyKey(f.regs[ins.C])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = value.Bool(obj.Delete(key))
	case compiler.OpVoid:
		f.regs[ins.A] = value.Undefined

	case compiler.OpGetByName:
		v, err := m.getProp(f.regs[ins.B], nameKey(f, ins.C))
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = v
	case compiler.OpSetByName:
		if err := m.setProp(f.regs[ins.A], nameKey(f, ins.B), f.regs[ins.C]); err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
	case compiler.OpGetByValue:
		key, err := object.ToPropertyKey(f.regs[ins.C])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		v, err := m.getProp(f.regs[ins.B], key)
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = v
	case compiler.OpSetByValue:
		key, err := object.ToPropertyKey(f.regs[ins.B])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		if err := m.setProp(f.regs[ins.A], key, f.regs[ins.C]); err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
	case compiler.OpDefineProp:
		obj, ok := object.Wrap(f.regs[ins.A])
		if !ok {
			return value.Undefined, 0, value.Undefined, false, object.TypeError("cannot define a property on a non-object")
		}
		key, err := object.ToPropertyKey(f.regs[ins.B])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		obj.DefineOwnProperty(key, f.regs[ins.C], object.DataAttributes(true, true, true))
	case compiler.OpDefineGetter:
		if err := m.defineAccessor(f.regs[ins.A], f.regs[ins.B], f.regs[ins.C], value.Undefined, true); err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
	case compiler.OpDefineSetter:
		if err := m.defineAccessor(f.regs[ins.A], f.regs[ins.B], value.Undefined, f.regs[ins.C], false); err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
	case compiler.OpDeleteByName:
		obj, ok := object.Wrap(f.regs[ins.B])
		if !ok {
			f.regs[ins.A] = value.Bool(true)
			break
		}
		f.regs[ins.A] = value.Bool(obj.Delete(nameKey(f, ins.C)))
	case compiler.OpDeleteByValue:
		obj, ok := object.Wrap(f.regs[ins.B])
		if !ok {
			f.regs[ins.A] = value.Bool(true)
			break
		}
		key, err := object.ToPropertyKey(f.regs[ins.C])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = value.Bool(obj.Delete(key))
	case compiler.OpRestObject:
		src, ok := object.Wrap(f.regs[ins.B])
		dest, destOK := object.Wrap(f.regs[ins.A])
		if !ok || !destOK {
			return value.Undefined, 0, value.Undefined, false, object.TypeError("destructuring rest target is not an object")
		}
		excluded := splitExcludedKeys(f.cb.Constants[ins.C].AsString().String())
		for _, k := range src.OwnPropertyKeys() {
			if k.IsSymbol() || excluded[k.String()] {
				continue
			}
			cell, ok := src.GetOwnProperty(k)
			if !ok || !cell.Attrs.Enumerable {
				continue
			}
			v, err := src.Get(k, f.regs[ins.B])
			if err != nil {
				return value.Undefined, 0, value.Undefined, false, err
			}
			dest.DefineOwnProperty(k, v, object.DataAttributes(true, true, true))
		}
	case compiler.OpGetSuperByName:
		v, err := m.getSuper(f, nameKey(f, ins.B))
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = v
	case compiler.OpGetSuperByValue:
		key, err := object.ToPropertyKey(f.regs[ins.B])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		v, err := m.getSuper(f, key)
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = v
	case compiler.OpSetSuperByName:
		thisVal, err := environment.GetBindingValue(f.env, "this")
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		if obj, ok := object.Wrap(thisVal); ok {
			obj.Set(nameKey(f, ins.A), f.regs[ins.B], thisVal)
		}

	case compiler.OpNewObject:
		f.regs[ins.A] = value.FromObject(m.Own(object.New(m.Shapes.RootFor(m.ObjectProto))))
	case compiler.OpNewArray:
		f.regs[ins.A] = value.FromObject(m.Own(object.NewArray(m.Shapes.RootFor(m.ArrayProto))))
	case compiler.OpArrayPush:
		arr, ok := object.Wrap(f.regs[ins.A])
		if !ok {
			return value.Undefined, 0, value.Undefined, false, object.TypeError("array push target is not an object")
		}
		arr.Push(f.regs[ins.B])

	case compiler.OpTemplateCacheGet:
		id := f.cb.Constants[ins.C].AsInt32()
		if cached, ok := m.templateCache[id]; ok {
			f.regs[ins.A] = value.FromObject(cached)
			f.pc = int(ins.B)
		}
	case compiler.OpTemplateCacheSet:
		id := f.cb.Constants[ins.B].AsInt32()
		if obj, ok := object.Wrap(f.regs[ins.A]); ok {
			m.templateCache[id] = obj
		}

	case compiler.OpDefVar:
		name := f.cb.Constants[ins.A].AsString().String()
		if !f.env.HasBinding(name) {
			f.env.CreateMutableBinding(name, false)
			f.env.InitializeBinding(name, value.Undefined)
		}
	case compiler.OpDeclareLet:
		f.env.CreateMutableBinding(f.cb.Constants[ins.A].AsString().String(), false)
	case compiler.OpDeclareConst:
		f.env.CreateImmutableBinding(f.cb.Constants[ins.A].AsString().String())
	case compiler.OpDefInitLet, compiler.OpDefInitConst, compiler.OpDefInitArg:
		name := f.cb.Constants[ins.A].AsString().String()
		if err := f.env.InitializeBinding(name, f.regs[ins.B]); err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
	case compiler.OpGetName:
		v, err := environment.GetBindingValue(f.env, f.cb.Constants[ins.B].AsString().String())
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = v
	case compiler.OpGetNameOrUndef:
		name := f.cb.Constants[ins.B].AsString().String()
		if !f.env.HasBinding(name) {
			f.regs[ins.A] = value.Undefined
			break
		}
		v, err := environment.GetBindingValue(f.env, name)
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = v
	case compiler.OpSetName:
		name := f.cb.Constants[ins.A].AsString().String()
		if err := environment.SetMutableBinding(f.env, name, f.regs[ins.B]); err != nil {
			if err != environment.ErrUnresolvable || f.cb.IsStrict {
				return value.Undefined, 0, value.Undefined, false, err
			}
			// Sloppy-mode assignment to an undeclared name creates an
			// implicit property on the global object (spec §4.5).
			root := f.env
			for root.Outer() != nil {
				root = root.Outer()
			}
			if err := root.CreateMutableBinding(name, true); err != nil {
				return value.Undefined, 0, value.Undefined, false, err
			}
			if err := root.InitializeBinding(name, f.regs[ins.B]); err != nil {
				return value.Undefined, 0, value.Undefined, false, err
			}
		}
	case compiler.OpDeleteName:
		f.regs[ins.A] = value.Bool(f.env.DeleteBinding(f.cb.Constants[ins.B].AsString().String()))

	case compiler.OpJump:
		target := int(ins.A)
		if target <= f.execPC {
			m.Heap.MaybeCollect()
			if m.Canceller != nil {
				if err := m.Canceller.Check(); err != nil {
					return value.Undefined, 0, value.Undefined, false, err
				}
			}
		}
		f.pc = target
	case compiler.OpJumpIfTrue:
		if f.regs[ins.A].ToBoolean() {
			f.pc = int(ins.B)
		}
	case compiler.OpJumpIfFalse:
		if !f.regs[ins.A].ToBoolean() {
			f.pc = int(ins.B)
		}
	case compiler.OpJumpIfNullish:
		if f.regs[ins.A].IsNullOrUndefined() {
			f.pc = int(ins.B)
		}
	case compiler.OpThrow:
		return value.Undefined, 0, value.Undefined, false, Throw(f.regs[ins.A])
	case compiler.OpReturn:
		return f.regs[ins.A], completionReturn, value.Undefined, true, nil
	case compiler.OpPushEnv:
		f.envDepth++
		if ins.A < 0 {
			f.env = environment.NewDeclarative(f.env)
			break
		}
		obj, ok := object.Wrap(f.regs[ins.A])
		if !ok {
			return value.Undefined, 0, value.Undefined, false, object.TypeError("with target is not an object")
		}
		f.env = environment.NewObjectBacked(f.env, objBinding{obj})
	case compiler.OpPopEnv:
		f.env = f.env.Outer()
		f.envDepth--

	case compiler.OpGetIterator:
		it, err := m.getIterator(f.regs[ins.B])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = m.wrapIterator(it)
	case compiler.OpIteratorNext:
		it, ok := unwrapIterator(f.regs[ins.C])
		if !ok {
			return value.Undefined, 0, value.Undefined, false, object.TypeError("not an iterator")
		}
		v, done, err := m.iteratorNext(it)
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		f.regs[ins.A] = v
		f.regs[ins.B] = value.Bool(done)
	case compiler.OpIteratorClose:
		if it, ok := unwrapIterator(f.regs[ins.A]); ok {
			m.iteratorClose(it)
		}
	case compiler.OpIterPush:
		if it, ok := unwrapIterator(f.regs[ins.A]); ok {
			f.iterStack = append(f.iterStack, it)
		}
	case compiler.OpIterPop:
		if len(f.iterStack) > 0 {
			f.iterStack = f.iterStack[:len(f.iterStack)-1]
		}
	case compiler.OpIterUnwindTo:
		for len(f.iterStack) > int(ins.A) {
			n := len(f.iterStack) - 1
			m.iteratorClose(f.iterStack[n])
			f.iterStack = f.iterStack[:n]
		}

	case compiler.OpYield:
		f.suspendedAt = f.execPC
		return f.regs[ins.B], completionYield, value.Undefined, true, nil
	case compiler.OpAwait:
		f.suspendedAt = f.execPC
		return f.regs[ins.B], completionAwait, value.Undefined, true, nil
	case compiler.OpCreateIterResult:
		f.regs[ins.A] = m.newIterResult(f.regs[ins.B], f.regs[ins.C].ToBoolean())

	case compiler.OpCall:
		return m.doCall(f, ins.A, ins.B, f.regs[ins.B+2:ins.B+2+ins.C])
	case compiler.OpCallSpread:
		args, err := spreadArgs(f.regs[ins.B+2])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		return m.doCall(f, ins.A, ins.B, args)
	case compiler.OpConstruct:
		return m.doConstruct(f, ins.A, ins.B, f.regs[ins.B+2:ins.B+2+ins.C], nil)
	case compiler.OpConstructSpread:
		args, err := spreadArgs(f.regs[ins.B+2])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		return m.doConstruct(f, ins.A, ins.B, args, nil)
	case compiler.OpSuperCall:
		return m.doSuperCall(f, ins.A, f.regs[ins.B+2:ins.B+2+ins.C])
	case compiler.OpSuperCallSpread:
		args, err := spreadArgs(f.regs[ins.B+2])
		if err != nil {
			return value.Undefined, 0, value.Undefined, false, err
		}
		return m.doSuperCall(f, ins.A, args)

	case compiler.OpMakeClosure:
		f.regs[ins.A] = value.FromObject(m.MakeClosure(f.cb.Children[ins.B], f.env))
	case compiler.OpMakeClass:
		var super *object.Object
		if ins.C >= 0 {
			s, ok := object.Wrap(f.regs[ins.C])
			if !ok || !s.IsConstructor() {
				return value.Undefined, 0, value.Undefined, false, object.TypeError("class extends value is not a constructor")
			}
			super = s
		}
		f.regs[ins.A] = value.FromObject(m.MakeClass(f.cb.Children[ins.B], f.env, super))

	case compiler.OpHalt:
		return value.Undefined, completionReturn, value.Undefined, true, nil

	default:
		return value.Undefined, 0, value.Undefined, false, object.TypeError("unimplemented opcode")
	}
	return value.Undefined, 0, value.Undefined, false, nil
}

func (m *Machine) binNumeric(f *Frame, ins compiler.Instruction, op func(a, b value.Value) (value.Value, error)) (value.Value, completion, value.Value, bool, error) {
	v, err := op(f.regs[ins.B], f.regs[ins.C])
	if err != nil {
		return value.Undefined, 0, value.Undefined, false, err
	}
	f.regs[ins.A] = v
	return value.Undefined, 0, value.Undefined, false, nil
}

func nameKey(f *Frame, constIdx int32) object.PropertyKey {
	return object.StringKey(f.cb.Constants[constIdx].AsString())
}

// getProp reads a property off v, boxing a primitive receiver through
// ToObject first (spec §4.7 "property access on a primitive").
func (m *Machine) getProp(v value.Value, key object.PropertyKey) (value.Value, error) {
	obj, ok := object.Wrap(v)
	if !ok {
		boxed, err := object.ToObject(v)
		if err != nil {
			return value.Undefined, err
		}
		obj = boxed
	}
	return obj.Get(key, v)
}

// setProp writes a property on v. A write through a primitive receiver is a
// no-op (spec-compliant: no own property persists on a boxed primitive that
// is immediately discarded).
func (m *Machine) setProp(v value.Value, key object.PropertyKey, val value.Value) error {
	obj, ok := object.Wrap(v)
	if !ok {
		return nil
	}
	_, err := obj.Set(key, val, v)
	return err
}

// getSuper resolves key starting at the running method's home object's
// prototype, with the current `this` as receiver (spec §4.8 "Super
// Reference").
func (m *Machine) getSuper(f *Frame, key object.PropertyKey) (value.Value, error) {
	thisVal, err := environment.GetBindingValue(f.env, "this")
	if err != nil {
		return value.Undefined, err
	}
	if f.closure == nil || f.closure.homeObject == nil {
		return value.Undefined, nil
	}
	proto := f.closure.homeObject.Prototype()
	if proto == nil {
		return value.Undefined, nil
	}
	return proto.Get(key, thisVal)
}

// defineAccessor installs a getter or setter on an object literal/class
// member without clobbering a previously defined sibling on the same key
// (object literals may compile a getter and a setter as two separate
// instructions on the same property).
func (m *Machine) defineAccessor(objVal, keyVal, getterVal, setterVal value.Value, settingGetter bool) error {
	obj, ok := object.Wrap(objVal)
	if !ok {
		return object.TypeError("cannot define an accessor on a non-object")
	}
	key, err := object.ToPropertyKey(keyVal)
	if err != nil {
		return err
	}
	var getter, setter object.Callable
	if cell, ok := obj.GetOwnProperty(key); ok && cell.Attrs.IsAccessor {
		getter, setter = cell.Getter, cell.Setter
	}
	if settingGetter {
		if g, ok := object.Wrap(getterVal); ok {
			getter = g
		}
	} else {
		if s, ok := object.Wrap(setterVal); ok {
			setter = s
		}
	}
	obj.DefineAccessorProperty(key, getter, setter, true, true)
	return nil
}

func splitExcludedKeys(joined string) map[string]bool {
	out := make(map[string]bool)
	start := 0
	for i := 0; i < len(joined); i++ {
		if joined[i] == 0 {
			if i > start {
				out[joined[start:i]] = true
			}
			start = i + 1
		}
	}
	if start < len(joined) {
		out[joined[start:]] = true
	}
	return out
}

func spreadArgs(v value.Value) ([]value.Value, error) {
	obj, ok := object.Wrap(v)
	if !ok {
		return nil, object.TypeError("spread arguments target is not an array")
	}
	return append([]value.Value(nil), obj.Elements()...), nil
}

// doCall dispatches an ordinary call: reg[base]=this, reg[base+1]=callee.
func (m *Machine) doCall(f *Frame, dest, base int32, args []value.Value) (value.Value, completion, value.Value, bool, error) {
	callee, ok := object.Wrap(f.regs[base+1])
	if !ok || !callee.IsCallable() {
		return value.Undefined, 0, value.Undefined, false, object.TypeError("value is not a function")
	}
	v, err := callee.Call(f.regs[base], args)
	if err != nil {
		return value.Undefined, 0, value.Undefined, false, err
	}
	f.regs[dest] = v
	return value.Undefined, 0, value.Undefined, false, nil
}

func (m *Machine) doConstruct(f *Frame, dest, base int32, args []value.Value, newTarget *object.Object) (value.Value, completion, value.Value, bool, error) {
	ctor, ok := object.Wrap(f.regs[base+1])
	if !ok || !ctor.IsConstructor() {
		return value.Undefined, 0, value.Undefined, false, object.TypeError("value is not a constructor")
	}
	nt := newTarget
	if nt == nil {
		nt = ctor
	}
	inst, err := ctor.Construct(args, nt)
	if err != nil {
		return value.Undefined, 0, value.Undefined, false, err
	}
	f.regs[dest] = value.FromObject(inst)
	return value.Undefined, 0, value.Undefined, false, nil
}

// doSuperCall invokes the running derived constructor's superclass
// constructor and binds its result as `this` (spec §4.8 "SuperCall").
func (m *Machine) doSuperCall(f *Frame, dest int32, args []value.Value) (value.Value, completion, value.Value, bool, error) {
	if f.closure == nil || f.closure.superClass == nil {
		return value.Undefined, 0, value.Undefined, false, object.TypeError("'super' keyword is only valid inside a derived class constructor")
	}
	superCtor := f.closure.superClass
	if !superCtor.IsConstructor() {
		return value.Undefined, 0, value.Undefined, false, object.TypeError("super class is not a constructor")
	}
	nt := f.newTargetObj
	if nt == nil {
		nt = f.closure.self
	}
	inst, err := superCtor.Construct(args, nt)
	if err != nil {
		return value.Undefined, 0, value.Undefined, false, err
	}
	if err := f.env.InitializeBinding("this", value.FromObject(inst)); err != nil {
		return value.Undefined, 0, value.Undefined, false, err
	}
	f.regs[dest] = value.FromObject(inst)
	return value.Undefined, 0, value.Undefined, false, nil
}
