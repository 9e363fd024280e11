package canon

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/funvibe/hintguard/internal/diagnostics"
	"github.com/funvibe/hintguard/internal/typesystem"
	"github.com/funvibe/hintguard/pkg/hint"
)

// RawKey returns a structural key for an uncanonicalized hint. Hints with
// equal raw keys canonicalize identically under the same configuration, so
// the factory can look up memoized artifacts without canonicalizing first.
func RawKey(h hint.Hint) (string, error) {
	var b strings.Builder
	if err := rawKey(&b, h, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func rawKey(b *strings.Builder, h hint.Hint, depth int) error {
	if depth > MaxDepth {
		return diagnostics.NewHintUnsupportedError(shortRepr(h), "nesting deeper than %d levels", MaxDepth)
	}
	depth++

	list := func(tag string, hs []hint.Hint) error {
		b.WriteString(tag)
		b.WriteByte('(')
		for i, m := range hs {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := rawKey(b, m, depth); err != nil {
				return err
			}
		}
		b.WriteByte(')')
		return nil
	}

	switch v := h.(type) {
	case nil:
		b.WriteString("N")
	case reflect.Type:
		b.WriteString("T" + typesystem.TypeID(v))
	case hint.AnyHint:
		b.WriteString("A")
	case hint.SelfHint:
		b.WriteString("S")
	case string:
		b.WriteString("r" + strconv.Quote(v))
	case hint.RefHint:
		b.WriteString("r" + strconv.Quote(v.Name))
	case hint.UnionHint:
		return list("U", v.Members)
	case hint.ContainerHint:
		b.WriteString("C" + strconv.Itoa(int(v.Origin)))
		return list("", []hint.Hint{v.Key, v.Elem})
	case hint.TupleHint:
		return list("P", v.Elems)
	case hint.LiteralHint:
		b.WriteString("L(")
		for i, val := range v.Values {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%T:%#v", val, val)
		}
		b.WriteByte(')')
	case hint.TypeVarHint:
		b.WriteString("V" + strconv.Quote(v.Name))
		return list("", append([]hint.Hint{v.Bound}, v.Constraints...))
	case hint.AnnotatedHint:
		b.WriteString("M(")
		if err := rawKey(b, v.Base, depth); err != nil {
			return err
		}
		for _, val := range v.Validators {
			b.WriteByte(';')
			if val != nil {
				b.WriteString(val.ID())
			}
		}
		b.WriteByte(')')
	case []any:
		return list("X", v)
	case []reflect.Type:
		b.WriteString("X(")
		for i, t := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			if t == nil {
				b.WriteString("N")
				continue
			}
			b.WriteString("T" + typesystem.TypeID(t))
		}
		b.WriteByte(')')
	default:
		return diagnostics.NewHintUnsupportedError(shortRepr(h), "%T is not a type hint", h)
	}
	return nil
}
