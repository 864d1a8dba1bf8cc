package ast

// Visitor is implemented by tree consumers (the compiler, the diagnostic
// round-trip printer) that need to walk a Program without switching on
// every concrete node type themselves. Enter returns false to skip a
// node's children; Leave runs only for nodes whose Enter returned true.
type Visitor interface {
	Enter(n Node) bool
	Leave(n Node)
}

// Walk traverses n and its children in source order, calling v's Enter
// before and Leave after visiting each node's children.
func Walk(v Visitor, n Node) {
	if n == nil || isNilNode(n) {
		return
	}
	if !v.Enter(n) {
		return
	}
	defer v.Leave(n)

	switch t := n.(type) {
	case *Program:
		walkStmts(v, t.Body)
	case *Identifier, *PrivateName, *ThisExpr, *SuperExpr,
		*NullLiteral, *BooleanLiteral, *NumericLiteral, *BigIntLiteral,
		*StringLiteral, *RegExpLiteral, *EmptyStmt, *DebuggerStmt:
		// leaf nodes
	case *TemplateLiteral:
		for _, e := range t.Expressions {
			Walk(v, e)
		}
	case *TaggedTemplateExpr:
		Walk(v, t.Tag)
		Walk(v, t.Quasi)
	case *ArrayLiteral:
		for _, e := range t.Elements {
			Walk(v, e)
		}
	case *SpreadElement:
		Walk(v, t.Argument)
	case *ObjectLiteral:
		for _, p := range t.Properties {
			if p.Computed {
				Walk(v, p.Key)
			}
			Walk(v, p.Value)
		}
	case *UnaryExpr:
		Walk(v, t.Argument)
	case *UpdateExpr:
		Walk(v, t.Argument)
	case *BinaryExpr:
		Walk(v, t.Left)
		Walk(v, t.Right)
	case *LogicalExpr:
		Walk(v, t.Left)
		Walk(v, t.Right)
	case *AssignmentExpr:
		Walk(v, t.Target)
		Walk(v, t.Value)
	case *ConditionalExpr:
		Walk(v, t.Test)
		Walk(v, t.Consequent)
		Walk(v, t.Alternate)
	case *CallExpr:
		Walk(v, t.Callee)
		for _, a := range t.Args {
			Walk(v, a)
		}
	case *NewExpr:
		Walk(v, t.Callee)
		for _, a := range t.Args {
			Walk(v, a)
		}
	case *MemberExpr:
		Walk(v, t.Object)
		if t.Computed {
			Walk(v, t.Property)
		}
	case *SequenceExpr:
		for _, e := range t.Expressions {
			Walk(v, e)
		}
	case *YieldExpr:
		Walk(v, t.Argument)
	case *AwaitExpr:
		Walk(v, t.Argument)
	case *FunctionExpr:
		walkParams(v, t.Params)
		walkStmts(v, t.Body)
	case *ArrowFunctionExpr:
		walkParams(v, t.Params)
		if t.ExprBody != nil {
			Walk(v, t.ExprBody)
		} else {
			walkStmts(v, t.Body)
		}
	case *ClassExpr:
		Walk(v, t.SuperClass)
		walkClassBody(v, t.Body)
	case *ArrayPattern:
		for _, e := range t.Elements {
			Walk(v, e)
		}
	case *ObjectPattern:
		for _, p := range t.Properties {
			if p.Computed {
				Walk(v, p.Key)
			}
			Walk(v, p.Value)
		}
	case *AssignmentPattern:
		Walk(v, t.Target)
		Walk(v, t.Default)
	case *RestElement:
		Walk(v, t.Argument)
	case *ExpressionStmt:
		Walk(v, t.Expression)
	case *BlockStmt:
		walkStmts(v, t.Body)
	case *IfStmt:
		Walk(v, t.Test)
		Walk(v, t.Consequent)
		Walk(v, t.Alternate)
	case *SwitchStmt:
		Walk(v, t.Discriminant)
		for _, c := range t.Cases {
			Walk(v, c.Test)
			walkStmts(v, c.Body)
		}
	case *WhileStmt:
		Walk(v, t.Test)
		Walk(v, t.Body)
	case *DoWhileStmt:
		Walk(v, t.Body)
		Walk(v, t.Test)
	case *ForStmt:
		Walk(v, t.Init)
		Walk(v, t.Test)
		Walk(v, t.Update)
		Walk(v, t.Body)
	case *ForInStmt:
		Walk(v, t.Left)
		Walk(v, t.Right)
		Walk(v, t.Body)
	case *ForOfStmt:
		Walk(v, t.Left)
		Walk(v, t.Right)
		Walk(v, t.Body)
	case *TryStmt:
		Walk(v, t.Block)
		Walk(v, t.Param)
		Walk(v, t.Handler)
		Walk(v, t.Finalizer)
	case *ThrowStmt:
		Walk(v, t.Argument)
	case *BreakStmt, *ContinueStmt:
		// label is not a walkable sub-expression
	case *ReturnStmt:
		Walk(v, t.Argument)
	case *WithStmt:
		Walk(v, t.Object)
		Walk(v, t.Body)
	case *LabeledStmt:
		Walk(v, t.Body)
	case *VarDecl:
		for _, d := range t.Declarations {
			Walk(v, d.Target)
			Walk(v, d.Init)
		}
	case *FunctionDecl:
		walkParams(v, t.Params)
		walkStmts(v, t.Body)
	case *ClassDecl:
		Walk(v, t.SuperClass)
		walkClassBody(v, t.Body)
	case *ImportDecl:
		// specifiers/source carry no walkable sub-expressions
	case *ExportNamedDecl:
		Walk(v, t.Declaration)
	case *ExportDefaultDecl:
		Walk(v, t.Declaration)
	case *ExportAllDecl:
		// no sub-expressions
	}
}

func walkStmts(v Visitor, body []Stmt) {
	for _, s := range body {
		Walk(v, s)
	}
}

func walkParams(v Visitor, params []Param) {
	for _, p := range params {
		Walk(v, p.Target)
		Walk(v, p.Default)
	}
}

func walkClassBody(v Visitor, members []ClassMember) {
	for _, m := range members {
		if m.Computed {
			Walk(v, m.Key)
		}
		Walk(v, m.Value)
		walkStmts(v, m.Body)
	}
}
