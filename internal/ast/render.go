package ast

import (
	"strconv"
	"strings"

	"github.com/funvibe/hintguard/internal/config"
)

// Operator precedences as in the Go grammar.
const (
	precLowest = iota
	precOr
	precAnd
	precCompare
	precUnary
	precPrimary
)

// Render returns e as Go expression source.
func Render(e Expr) string {
	var r renderer
	r.expr(e, precLowest)
	return r.b.String()
}

type renderer struct {
	b     strings.Builder
	depth int
}

func precedence(e Expr) int {
	switch n := e.(type) {
	case Binary:
		switch n.Op {
		case "||":
			return precOr
		case "&&":
			return precAnd
		}
		return precCompare
	case Not:
		return precUnary
	case Raw:
		return precLowest
	}
	return precPrimary
}

func (r *renderer) expr(e Expr, min int) {
	if precedence(e) < min {
		r.b.WriteByte('(')
		r.expr(e, precLowest)
		r.b.WriteByte(')')
		return
	}

	switch n := e.(type) {
	case Pith:
		r.b.WriteString(config.PithPlaceholder)
	case Arg:
		r.b.WriteString(ParamName(config.ElemParamPrefix, r.depth))
	case Ident:
		r.b.WriteString(n.Name)
	case Int:
		r.b.WriteString(strconv.Itoa(n.Value))
	case Bool:
		r.b.WriteString(strconv.FormatBool(n.Value))
	case Call:
		r.b.WriteString(n.Func)
		r.b.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				r.b.WriteString(", ")
			}
			r.expr(a, precLowest)
		}
		r.b.WriteByte(')')
	case Not:
		r.b.WriteByte('!')
		r.expr(n.X, precUnary)
	case Binary:
		p := precedence(n)
		r.expr(n.X, p)
		r.b.WriteString(" " + n.Op + " ")
		// Left associative: an equal-precedence right operand needs parens
		// only for comparisons, which do not chain.
		right := p
		if p == precCompare {
			right = p + 1
		}
		r.expr(n.Y, right)
	case Lambda:
		r.depth++
		r.b.WriteString("func(")
		r.b.WriteString(ParamName(config.ElemParamPrefix, r.depth))
		r.b.WriteString(" any) bool { return ")
		r.expr(n.Body, precLowest)
		r.b.WriteString(" }")
		r.depth--
	case Raw:
		var obj renderer
		obj.depth = r.depth
		obj.expr(n.Obj, precPrimary)
		r.b.WriteString(strings.ReplaceAll(n.Code, config.ObjPlaceholder, obj.b.String()))
	}
}
