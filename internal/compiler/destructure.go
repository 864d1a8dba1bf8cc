package compiler

import (
	"github.com/oxhq/jsengine/internal/ast"
	"github.com/oxhq/jsengine/internal/value"
)

// bindKind selects which binding operation compileDestructure emits for
// each leaf identifier it reaches: a fresh declaration (var/let/const/
// parameter) or a plain assignment into an existing binding/property.
type bindKind uint8

const (
	bindVar bindKind = iota
	bindLet
	bindConst
	bindArg
	bindAssign
)

// compileDestructure binds valueReg's contents to target, recursing
// through array/object destructuring patterns (spec §4.7 cover grammar:
// an assignment target reinterpreted as a pattern). kind selects whether
// each leaf identifier is freshly declared or assigned to an existing
// binding/property.
func (c *Compiler) compileDestructure(target ast.Expr, valueReg int32, kind bindKind) {
	switch t := target.(type) {
	case *ast.Identifier:
		c.bindIdentifier(t.Name, valueReg, kind)
	case *ast.MemberExpr:
		if kind != bindAssign {
			c.fail("invalid destructuring target", t.Pos())
		}
		if t.Computed {
			objReg := c.compileExpr(t.Object)
			keyReg := c.compileExpr(t.Property)
			c.emit(OpSetByValue, objReg, keyReg, valueReg)
			c.release(objReg)
		} else {
			objReg := c.compileExpr(t.Object)
			name, _ := c.propertyKeyName(t.Property)
			c.emit(OpSetByName, objReg, c.addName(name), valueReg)
			c.release(objReg)
		}
	case *ast.AssignmentPattern:
		m := c.mark()
		filled := c.alloc()
		c.emit(OpMove, filled, valueReg, 0)
		undef := c.alloc()
		c.emit(OpLoadUndef, undef, 0, 0)
		isUndef := c.alloc()
		c.emit(OpStrictEq, isUndef, filled, undef)
		skip := c.emit(OpJumpIfFalse, isUndef, 0, 0)
		def := c.compileExpr(t.Default)
		c.emit(OpMove, filled, def, 0)
		c.patchJumpCondTo(skip, c.pc())
		c.compileDestructure(t.Target, filled, kind)
		c.release(m)
	case *ast.ArrayPattern:
		c.compileArrayPatternBind(t, valueReg, kind)
	case *ast.ObjectPattern:
		c.compileObjectPatternBind(t, valueReg, kind)
	default:
		c.fail("unsupported binding target", target.Pos())
	}
}

func (c *Compiler) bindIdentifier(name string, valueReg int32, kind bindKind) {
	idx := c.addName(name)
	switch kind {
	case bindVar:
		c.emit(OpDefVar, idx, 0, 0)
		c.emit(OpSetName, idx, valueReg, 0)
	case bindLet:
		c.emit(OpDefInitLet, idx, valueReg, 0)
	case bindConst:
		c.emit(OpDefInitConst, idx, valueReg, 0)
	case bindArg:
		c.emit(OpDefInitArg, idx, valueReg, 0)
	case bindAssign:
		c.emit(OpSetName, idx, valueReg, 0)
	}
}

func (c *Compiler) compileArrayPatternBind(pat *ast.ArrayPattern, valueReg int32, kind bindKind) {
	m := c.mark()
	iterReg := c.alloc()
	c.emit(OpGetIterator, iterReg, valueReg, 0)
	for _, el := range pat.Elements {
		if rest, ok := el.(*ast.RestElement); ok {
			arr := c.alloc()
			c.emit(OpNewArray, arr, 0, 0)
			valR := c.alloc()
			doneR := c.alloc()
			loop := c.pc()
			c.emit(OpIteratorNext, valR, doneR, iterReg)
			exit := c.emit(OpJumpIfTrue, doneR, 0, 0)
			c.emit(OpArrayPush, arr, valR, 0)
			c.emit(OpJump, int32(loop), 0, 0)
			c.patchJumpCondTo(exit, c.pc())
			c.compileDestructure(rest.Argument, arr, kind)
			c.release(arr)
			continue
		}
		valR := c.alloc()
		doneR := c.alloc()
		c.emit(OpIteratorNext, valR, doneR, iterReg)
		if el == nil {
			c.release(valR)
			continue
		}
		c.compileDestructure(el, valR, kind)
		c.release(valR)
	}
	c.release(m)
}

func (c *Compiler) compileObjectPatternBind(pat *ast.ObjectPattern, valueReg int32, kind bindKind) {
	var excluded []string
	for _, p := range pat.Properties {
		m := c.mark()
		if p.Rest {
			joined := ""
			for i, k := range excluded {
				if i > 0 {
					joined += "\x00"
				}
				joined += k
			}
			rest := c.alloc()
			c.emit(OpNewObject, rest, 0, 0)
			c.emit(OpRestObject, rest, valueReg, c.addConst(value.StrFromGo(joined)))
			c.compileDestructure(p.Value, rest, kind)
			c.release(m)
			continue
		}
		var fieldReg int32
		if p.Computed {
			keyReg := c.compileExpr(p.Key)
			fieldReg = c.alloc()
			c.emit(OpGetByValue, fieldReg, valueReg, keyReg)
		} else {
			name, _ := c.propertyKeyName(p.Key)
			if name == "" {
				if sl, ok := p.Key.(*ast.StringLiteral); ok {
					name = sl.Value
				}
			}
			excluded = append(excluded, name)
			fieldReg = c.alloc()
			c.emit(OpGetByName, fieldReg, valueReg, c.addName(name))
		}
		c.compileDestructure(p.Value, fieldReg, kind)
		c.release(m)
	}
}
