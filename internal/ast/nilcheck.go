package ast

import "reflect"

// isNilNode reports whether n holds a typed nil pointer (e.g. a (*Identifier)(nil)
// stored in a Node/Expr interface field that was left unset), which n == nil
// alone does not catch once the interface has a concrete type.
func isNilNode(n Node) bool {
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
