// Package parser reads hints written as text.
//
// Hints use Go type-expression syntax extended with a few generic-looking
// forms:
//
//	int | nil
//	[]string
//	map[string][]int
//	*T
//	Optional[T]
//	Sequence[T]
//	Tuple[int, string]
//	Literal["a", 1, true]
//	Annotated[string, IsUUID, IsSemver(">= 1.0"), IsLen(1, 10), IsMatch("^v")]
//	"example.com/pkg.Type"  (forward reference)
//	pkg.Type                (forward reference)
package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/funvibe/hintguard/pkg/hint"
	"github.com/funvibe/hintguard/pkg/vale"
)

// ParseHint parses text into a hint.
func ParseHint(text string) (hint.Hint, error) {
	expr, err := parser.ParseExpr(text)
	if err != nil {
		return nil, fmt.Errorf("parse hint %q: %w", text, err)
	}
	p := &hintParser{src: text}
	h, err := p.hint(expr)
	if err != nil {
		return nil, fmt.Errorf("parse hint %q: %w", text, err)
	}
	return h, nil
}

type hintParser struct {
	src string
}

func (p *hintParser) errorf(n ast.Node, format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", int(n.Pos())-1, fmt.Sprintf(format, args...))
}

func (p *hintParser) text(n ast.Node) string {
	start, end := int(n.Pos())-1, int(n.End())-1
	if start < 0 || end > len(p.src) || start > end {
		return ""
	}
	return p.src[start:end]
}

func (p *hintParser) hint(e ast.Expr) (hint.Hint, error) {
	switch n := e.(type) {
	case *ast.ParenExpr:
		return p.hint(n.X)

	case *ast.Ident:
		switch n.Name {
		case "nil":
			return nil, nil
		case "any", "Any":
			return hint.Any, nil
		case "Self":
			return hint.Self, nil
		}
		if t, ok := hint.Builtin(n.Name); ok {
			return t, nil
		}
		return hint.Ref(n.Name), nil

	case *ast.SelectorExpr:
		return hint.Ref(p.text(n)), nil

	case *ast.BasicLit:
		if n.Kind != token.STRING {
			return nil, p.errorf(n, "literal %s is not a hint; use Literal[...]", n.Value)
		}
		name, err := strconv.Unquote(n.Value)
		if err != nil {
			return nil, p.errorf(n, "bad string %s", n.Value)
		}
		return hint.Ref(name), nil

	case *ast.BinaryExpr:
		if n.Op != token.OR {
			return nil, p.errorf(n, "unexpected operator %s", n.Op)
		}
		var members []hint.Hint
		if err := p.flattenUnion(n, &members); err != nil {
			return nil, err
		}
		return hint.Union(members...), nil

	case *ast.StarExpr:
		elem, err := p.hint(n.X)
		if err != nil {
			return nil, err
		}
		return hint.PointerTo(elem), nil

	case *ast.ArrayType:
		if n.Len != nil {
			return nil, p.errorf(n, "fixed-length arrays are not supported; use Sequence[T] or Tuple[...]")
		}
		elem, err := p.hint(n.Elt)
		if err != nil {
			return nil, err
		}
		return hint.SliceOf(elem), nil

	case *ast.MapType:
		key, err := p.hint(n.Key)
		if err != nil {
			return nil, err
		}
		val, err := p.hint(n.Value)
		if err != nil {
			return nil, err
		}
		return hint.MapOf(key, val), nil

	case *ast.InterfaceType:
		if n.Methods != nil && len(n.Methods.List) > 0 {
			return nil, p.errorf(n, "interfaces with methods are not supported; register the type and reference it")
		}
		return hint.Any, nil

	case *ast.IndexExpr:
		return p.generic(n.X, []ast.Expr{n.Index})

	case *ast.IndexListExpr:
		return p.generic(n.X, n.Indices)
	}
	return nil, p.errorf(e, "unsupported hint syntax %q", p.text(e))
}

func (p *hintParser) flattenUnion(e ast.Expr, out *[]hint.Hint) error {
	if b, ok := e.(*ast.BinaryExpr); ok && b.Op == token.OR {
		if err := p.flattenUnion(b.X, out); err != nil {
			return err
		}
		return p.flattenUnion(b.Y, out)
	}
	h, err := p.hint(e)
	if err != nil {
		return err
	}
	*out = append(*out, h)
	return nil
}

func (p *hintParser) hints(es []ast.Expr) ([]hint.Hint, error) {
	out := make([]hint.Hint, len(es))
	for i, e := range es {
		h, err := p.hint(e)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

func (p *hintParser) generic(fn ast.Expr, args []ast.Expr) (hint.Hint, error) {
	id, ok := fn.(*ast.Ident)
	if !ok {
		return nil, p.errorf(fn, "unknown generic %q", p.text(fn))
	}
	one := func() (hint.Hint, error) {
		if len(args) != 1 {
			return nil, p.errorf(fn, "%s takes one argument, got %d", id.Name, len(args))
		}
		return p.hint(args[0])
	}

	switch id.Name {
	case "Optional":
		h, err := one()
		if err != nil {
			return nil, err
		}
		return hint.Optional(h), nil
	case "Sequence":
		h, err := one()
		if err != nil {
			return nil, err
		}
		return hint.SequenceOf(h), nil
	case "Union":
		hs, err := p.hints(args)
		if err != nil {
			return nil, err
		}
		return hint.Union(hs...), nil
	case "Tuple":
		hs, err := p.hints(args)
		if err != nil {
			return nil, err
		}
		return hint.Tuple(hs...), nil
	case "Literal":
		values := make([]any, len(args))
		for i, a := range args {
			v, err := p.literal(a)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return hint.Literal(values...), nil
	case "Annotated":
		if len(args) < 2 {
			return nil, p.errorf(fn, "Annotated takes a hint and at least one validator")
		}
		base, err := p.hint(args[0])
		if err != nil {
			return nil, err
		}
		validators := make([]hint.Validator, 0, len(args)-1)
		for _, a := range args[1:] {
			v, err := p.validator(a)
			if err != nil {
				return nil, err
			}
			validators = append(validators, v)
		}
		return hint.Annotated(base, validators...), nil
	}
	return nil, p.errorf(fn, "unknown generic %q", id.Name)
}

func (p *hintParser) literal(e ast.Expr) (any, error) {
	switch n := e.(type) {
	case *ast.Ident:
		switch n.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	case *ast.BasicLit:
		switch n.Kind {
		case token.STRING:
			return strconv.Unquote(n.Value)
		case token.INT:
			return strconv.Atoi(n.Value)
		case token.FLOAT:
			return strconv.ParseFloat(n.Value, 64)
		}
	case *ast.UnaryExpr:
		if n.Op == token.SUB {
			v, err := p.literal(n.X)
			if err != nil {
				return nil, err
			}
			switch x := v.(type) {
			case int:
				return -x, nil
			case float64:
				return -x, nil
			}
		}
	}
	return nil, p.errorf(e, "literal value %q unsupported", p.text(e))
}

func (p *hintParser) validator(e ast.Expr) (hint.Validator, error) {
	var name string
	var args []ast.Expr
	switch n := e.(type) {
	case *ast.Ident:
		name = n.Name
	case *ast.CallExpr:
		id, ok := n.Fun.(*ast.Ident)
		if !ok {
			return nil, p.errorf(n, "unknown validator %q", p.text(n.Fun))
		}
		name, args = id.Name, n.Args
	default:
		return nil, p.errorf(e, "unknown validator %q", p.text(e))
	}

	values := make([]any, len(args))
	for i, a := range args {
		v, err := p.literal(a)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	switch name {
	case "IsUUID":
		if len(values) != 0 {
			return nil, p.errorf(e, "IsUUID takes no arguments")
		}
		return vale.IsUUID(), nil
	case "IsSemver":
		constraint := ""
		if len(values) == 1 {
			s, ok := values[0].(string)
			if !ok {
				return nil, p.errorf(e, "IsSemver takes a constraint string")
			}
			constraint = s
		} else if len(values) > 1 {
			return nil, p.errorf(e, "IsSemver takes at most one argument")
		}
		v, err := vale.IsSemver(constraint)
		if err != nil {
			return nil, p.errorf(e, "%v", err)
		}
		return v, nil
	case "IsMatch":
		s, ok := singleString(values)
		if !ok {
			return nil, p.errorf(e, "IsMatch takes a pattern string")
		}
		v, err := vale.IsMatch(s)
		if err != nil {
			return nil, p.errorf(e, "%v", err)
		}
		return v, nil
	case "IsLen":
		if len(values) != 2 {
			return nil, p.errorf(e, "IsLen takes a minimum and a maximum")
		}
		lo, ok1 := values[0].(int)
		hi, ok2 := values[1].(int)
		if !ok1 || !ok2 {
			return nil, p.errorf(e, "IsLen bounds must be integers")
		}
		return vale.IsLen(lo, hi), nil
	}
	return nil, p.errorf(e, "unknown validator %q", name)
}

func singleString(values []any) (string, bool) {
	if len(values) != 1 {
		return "", false
	}
	s, ok := values[0].(string)
	return s, ok
}
