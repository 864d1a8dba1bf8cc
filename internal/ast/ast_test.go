package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingVisitor struct {
	entered []string
}

func (c *countingVisitor) Enter(n Node) bool {
	switch n.(type) {
	case *Identifier:
		c.entered = append(c.entered, "Identifier")
	case *BinaryExpr:
		c.entered = append(c.entered, "BinaryExpr")
	case *NumericLiteral:
		c.entered = append(c.entered, "NumericLiteral")
	case *ExpressionStmt:
		c.entered = append(c.entered, "ExpressionStmt")
	case *Program:
		c.entered = append(c.entered, "Program")
	}
	return true
}

func (c *countingVisitor) Leave(Node) {}

func TestWalkVisitsBinaryExpressionChildren(t *testing.T) {
	prog := &Program{
		Body: []Stmt{
			&ExpressionStmt{
				Expression: &BinaryExpr{
					Operator: "+",
					Left:     &NumericLiteral{Value: 1},
					Right: &BinaryExpr{
						Operator: "*",
						Left:     &NumericLiteral{Value: 2},
						Right:    &Identifier{Name: "x"},
					},
				},
			},
		},
	}

	cv := &countingVisitor{}
	Walk(cv, prog)

	assert.Equal(t, []string{
		"Program", "ExpressionStmt", "BinaryExpr", "NumericLiteral", "BinaryExpr", "NumericLiteral", "Identifier",
	}, cv.entered)
}

func TestWalkSkipsNilOptionalChildren(t *testing.T) {
	stmt := &IfStmt{
		Test:       &Identifier{Name: "cond"},
		Consequent: &EmptyStmt{},
		Alternate:  nil,
	}
	cv := &countingVisitor{}
	assert.NotPanics(t, func() { Walk(cv, stmt) })
}

func TestPosReturnsSpan(t *testing.T) {
	id := &Identifier{Base: Base{Span: Span{Start: 3, End: 7, Line: 2}}, Name: "foo"}
	assert.Equal(t, Span{Start: 3, End: 7, Line: 2}, id.Pos())
}
