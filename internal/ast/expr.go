// Package ast is the expression tree checking code is built from.
//
// The compiler produces trees over a hole (Pith) standing for the value
// under check. Trees are closed over the hole by Substitute and turned
// into Go source by Render.
package ast

import "strconv"

// Expr is a node of a checking expression.
type Expr interface {
	exprNode()
}

// Pith is the hole standing for the checked value.
type Pith struct{}

// Arg is the parameter of the innermost enclosing Lambda.
type Arg struct{}

// Ident is a name bound in the generated function's scope.
type Ident struct {
	Name string
}

// Int is an integer literal.
type Int struct {
	Value int
}

// Bool is a boolean literal.
type Bool struct {
	Value bool
}

// Call calls the callable bound to Func.
type Call struct {
	Func string
	Args []Expr
}

// Not negates X.
type Not struct {
	X Expr
}

// Binary is X Op Y for Op in "&&", "||", "==", "!=".
type Binary struct {
	Op   string
	X, Y Expr
}

// Lambda is a one-parameter predicate. Arg nodes in Body refer to its
// parameter.
type Lambda struct {
	Body Expr
}

// Raw is a Go expression template (a validator's code). Every occurrence
// of the object placeholder is replaced by Obj when rendering.
type Raw struct {
	Code string
	Obj  Expr
}

func (Pith) exprNode()   {}
func (Arg) exprNode()    {}
func (Ident) exprNode()  {}
func (Int) exprNode()    {}
func (Bool) exprNode()   {}
func (Call) exprNode()   {}
func (Not) exprNode()    {}
func (Binary) exprNode() {}
func (Lambda) exprNode() {}
func (Raw) exprNode()    {}

var (
	True  = Bool{Value: true}
	False = Bool{Value: false}
)

// NewCall builds a call expression.
func NewCall(fn string, args ...Expr) Call {
	return Call{Func: fn, Args: args}
}

// And conjoins xs left to right, dropping literal trues.
func And(xs ...Expr) Expr {
	return fold("&&", True, xs)
}

// Or disjoins xs left to right, dropping literal falses.
func Or(xs ...Expr) Expr {
	return fold("||", False, xs)
}

func fold(op string, unit Bool, xs []Expr) Expr {
	var out Expr
	for _, x := range xs {
		if b, ok := x.(Bool); ok && b == unit {
			continue
		}
		if out == nil {
			out = x
			continue
		}
		out = Binary{Op: op, X: out, Y: x}
	}
	if out == nil {
		return unit
	}
	return out
}

// Substitute returns e with every Pith hole replaced by obj.
func Substitute(e Expr, obj Expr) Expr {
	switch n := e.(type) {
	case Pith:
		return obj
	case Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Substitute(a, obj)
		}
		return Call{Func: n.Func, Args: args}
	case Not:
		return Not{X: Substitute(n.X, obj)}
	case Binary:
		return Binary{Op: n.Op, X: Substitute(n.X, obj), Y: Substitute(n.Y, obj)}
	case Lambda:
		return Lambda{Body: Substitute(n.Body, obj)}
	case Raw:
		return Raw{Code: n.Code, Obj: Substitute(n.Obj, obj)}
	}
	return e
}

// Walk calls fn for e and every node below it, stopping descent where fn
// returns false.
func Walk(e Expr, fn func(Expr) bool) {
	if !fn(e) {
		return
	}
	switch n := e.(type) {
	case Call:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case Not:
		Walk(n.X, fn)
	case Binary:
		Walk(n.X, fn)
		Walk(n.Y, fn)
	case Lambda:
		Walk(n.Body, fn)
	case Raw:
		Walk(n.Obj, fn)
	}
}

// ParamName returns the parameter name of a Lambda at nesting depth.
func ParamName(prefix string, depth int) string {
	return prefix + strconv.Itoa(depth)
}
