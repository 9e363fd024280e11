// Package compiler turns canonical hints into checking expressions.
//
// A CompiledCheck is an expression over the ast.Pith hole together with the
// scope of names it references. Compiled checks are memoized by hint key,
// configuration key and class stack, for whole hints and every sub-hint
// alike, so a hint shared by many checkers is compiled once.
package compiler

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/funvibe/hintguard/internal/ast"
	"github.com/funvibe/hintguard/internal/config"
	"github.com/funvibe/hintguard/internal/diagnostics"
	"github.com/funvibe/hintguard/internal/typesystem"
	"github.com/funvibe/hintguard/pkg/hint"
)

// Builtin function names checking expressions call. They are provided by
// the vm package.
const (
	FnIsInstance    = "isinstance"
	FnIsAnyInstance = "isanyinstance"
	FnIsNil         = "isnil"
	FnIsLiteral     = "isliteral"
	FnIsSequence    = "issequence"
	FnIsSlice       = "isslice"
	FnIsMap         = "ismap"
	FnIsPointer     = "ispointer"
	FnIsTuple       = "istuple"
	FnAll           = "all"
	FnSample        = "sample"
	FnAllMap        = "allmap"
	FnSampleMap     = "samplemap"
	FnPointee       = "pointee"
	FnIndex         = "index"
	FnResolve       = "resolve"
)

// CompiledCheck is the compiled form of one canonical hint.
type CompiledCheck struct {
	Hint typesystem.Type
	// Expr evaluates to true exactly when the value in the ast.Pith hole
	// satisfies Hint.
	Expr ast.Expr
	// Scope binds every identifier Expr references besides builtins,
	// the pith and randInt.
	Scope map[string]any
	// Args are sibling argument names validators read, in first-use order.
	Args []string
	// Refs are the relative forward references Hint contains.
	Refs []string
	// NeedsRand reports whether Expr reads randInt.
	NeedsRand bool
}

type memoKey struct {
	hint, conf, cls string
}

func (k memoKey) String() string {
	return k.hint + "\x00" + k.conf + "\x00" + k.cls
}

// Compiler compiles canonical hints, memoizing results. Each key is built
// at most once at a time, even when concurrent compilations share it.
type Compiler struct {
	mu     sync.Mutex
	memo   map[memoKey]*CompiledCheck
	group  singleflight.Group
	calls  atomic.Int64
	builds atomic.Int64
}

// New creates a compiler with an empty memo.
func New() *Compiler {
	return &Compiler{memo: make(map[memoKey]*CompiledCheck)}
}

// Default is the process-wide compiler used by the checker factory.
var Default = New()

// Calls reports how many times Compile has been invoked.
func (c *Compiler) Calls() int64 {
	return c.calls.Load()
}

// Compile compiles t under conf. clsStack is the stack of enclosing types
// SelfRef resolves against; it may be empty.
func (c *Compiler) Compile(t typesystem.Type, conf config.Conf, clsStack []reflect.Type) (*CompiledCheck, error) {
	c.calls.Add(1)
	conf = conf.Normalize()
	return c.compile(t, &session{conf: conf, confKey: conf.Key(), clsStack: clsStack, clsKey: ClsKey(clsStack)})
}

type session struct {
	conf     config.Conf
	confKey  string
	clsStack []reflect.Type
	clsKey   string
}

func (c *Compiler) compile(t typesystem.Type, s *session) (*CompiledCheck, error) {
	key := memoKey{hint: t.Key(), conf: s.confKey, cls: s.clsKey}
	if cc, ok := c.lookup(key); ok {
		return cc, nil
	}
	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		if cc, ok := c.lookup(key); ok {
			return cc, nil
		}
		cc, err := c.build(t, s)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.memo[key] = cc
		c.mu.Unlock()
		return cc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CompiledCheck), nil
}

func (c *Compiler) lookup(key memoKey) (*CompiledCheck, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cc, ok := c.memo[key]
	return cc, ok
}

func (c *Compiler) build(t typesystem.Type, s *session) (*CompiledCheck, error) {
	c.builds.Add(1)
	out := &CompiledCheck{Hint: t, Scope: make(map[string]any)}

	switch n := t.(type) {
	case typesystem.Ignorable:
		out.Expr = ast.True

	case typesystem.Simple:
		name := bind("type")
		out.Scope[name] = n.Type
		out.Expr = ast.NewCall(FnIsInstance, ast.Pith{}, ast.Ident{Name: name})

	case typesystem.Nil:
		out.Expr = ast.NewCall(FnIsNil, ast.Pith{})

	case typesystem.Literal:
		name := bind("lit")
		out.Scope[name] = slices.Clone(n.Values)
		out.Expr = ast.NewCall(FnIsLiteral, ast.Pith{}, ast.Ident{Name: name})

	case typesystem.ForwardRef:
		name := bind("ref")
		out.Scope[name] = n.Qualified()
		out.Expr = ast.NewCall(FnIsInstance, ast.Pith{}, ast.NewCall(FnResolve, ast.Ident{Name: name}))
		if n.Relative() {
			out.Refs = []string{n.Name}
		}

	case typesystem.SelfRef:
		if len(s.clsStack) == 0 {
			return nil, diagnostics.NewHintUnsupportedError(n.String(), "Self outside a class stack")
		}
		return c.compile(typesystem.Simple{Type: s.clsStack[len(s.clsStack)-1]}, s)

	case typesystem.Union:
		if err := c.union(out, n, s); err != nil {
			return nil, err
		}

	case typesystem.Container:
		if err := c.container(out, n, s); err != nil {
			return nil, err
		}

	case typesystem.Tuple:
		checks := []ast.Expr{ast.NewCall(FnIsTuple, ast.Pith{}, ast.Int{Value: len(n.Elems)})}
		for i, e := range n.Elems {
			if e.Kind() == typesystem.KindIgnorable {
				continue
			}
			sub, err := c.compile(e, s)
			if err != nil {
				return nil, err
			}
			out.merge(sub)
			checks = append(checks, ast.Substitute(sub.Expr, ast.NewCall(FnIndex, ast.Pith{}, ast.Int{Value: i})))
		}
		out.Expr = ast.And(checks...)

	case typesystem.Validated:
		base, err := c.compile(n.Base, s)
		if err != nil {
			return nil, err
		}
		out.merge(base)
		checks := []ast.Expr{base.Expr}
		for _, v := range n.Validators {
			for name, local := range v.Locals() {
				out.Scope[name] = local
			}
			out.addArgs(v.RemainingArgs())
			checks = append(checks, ast.Raw{Code: v.Code(), Obj: ast.Pith{}})
		}
		out.Expr = ast.And(checks...)

	default:
		return nil, diagnostics.NewHintUnsupportedError(t.String(), "no checking semantics for %s hints", t.Kind())
	}
	return out, nil
}

func (c *Compiler) union(out *CompiledCheck, u typesystem.Union, s *session) error {
	var simple []reflect.Type
	var rest []typesystem.Type
	for _, m := range u.Members {
		if st, ok := m.(typesystem.Simple); ok {
			simple = append(simple, st.Type)
			continue
		}
		rest = append(rest, m)
	}
	slices.SortStableFunc(rest, func(a, b typesystem.Type) int { return cost(a) - cost(b) })

	var checks []ast.Expr
	switch len(simple) {
	case 0:
	case 1:
		sub, err := c.compile(typesystem.Simple{Type: simple[0]}, s)
		if err != nil {
			return err
		}
		out.merge(sub)
		checks = append(checks, sub.Expr)
	default:
		name := bind("types")
		out.Scope[name] = simple
		checks = append(checks, ast.NewCall(FnIsAnyInstance, ast.Pith{}, ast.Ident{Name: name}))
	}
	for _, m := range rest {
		sub, err := c.compile(m, s)
		if err != nil {
			return err
		}
		out.merge(sub)
		checks = append(checks, sub.Expr)
	}
	out.Expr = ast.Or(checks...)
	return nil
}

func (c *Compiler) container(out *CompiledCheck, n typesystem.Container, s *session) error {
	var guard string
	switch n.Origin {
	case hint.OriginSequence:
		guard = FnIsSequence
	case hint.OriginSlice:
		guard = FnIsSlice
	case hint.OriginMap:
		guard = FnIsMap
	case hint.OriginPointer:
		guard = FnIsPointer
	default:
		return diagnostics.NewHintUnsupportedError(n.String(), "unknown container origin %s", n.Origin)
	}
	checks := []ast.Expr{ast.NewCall(guard, ast.Pith{})}
	if n.IgnoresElements() {
		out.Expr = checks[0]
		return nil
	}

	elem, err := c.predicate(out, n.Elem, s)
	if err != nil {
		return err
	}
	randInt := ast.Ident{Name: config.RandIntName}
	sampleAll := s.conf.SampleAll()

	switch n.Origin {
	case hint.OriginPointer:
		checks = append(checks, ast.NewCall(FnPointee, ast.Pith{}, elem))
	case hint.OriginMap:
		key, err := c.predicate(out, n.KeyType, s)
		if err != nil {
			return err
		}
		if sampleAll {
			checks = append(checks, ast.NewCall(FnAllMap, ast.Pith{}, key, elem))
		} else {
			out.NeedsRand = true
			checks = append(checks, ast.NewCall(FnSampleMap, ast.Pith{}, randInt, key, elem))
		}
	default:
		if sampleAll {
			checks = append(checks, ast.NewCall(FnAll, ast.Pith{}, elem))
		} else {
			out.NeedsRand = true
			checks = append(checks, ast.NewCall(FnSample, ast.Pith{}, randInt, elem))
		}
	}
	out.Expr = ast.And(checks...)
	return nil
}

// predicate compiles t into a one-parameter lambda, or the nil identifier
// when t is ignorable.
func (c *Compiler) predicate(out *CompiledCheck, t typesystem.Type, s *session) (ast.Expr, error) {
	if t == nil || t.Kind() == typesystem.KindIgnorable {
		return ast.Ident{Name: "nil"}, nil
	}
	sub, err := c.compile(t, s)
	if err != nil {
		return nil, err
	}
	out.merge(sub)
	return ast.Lambda{Body: ast.Substitute(sub.Expr, ast.Arg{})}, nil
}

func (cc *CompiledCheck) merge(sub *CompiledCheck) {
	for k, v := range sub.Scope {
		cc.Scope[k] = v
	}
	cc.addArgs(sub.Args)
	for _, r := range sub.Refs {
		if !slices.Contains(cc.Refs, r) {
			cc.Refs = append(cc.Refs, r)
		}
	}
	cc.NeedsRand = cc.NeedsRand || sub.NeedsRand
}

func (cc *CompiledCheck) addArgs(args []string) {
	for _, a := range args {
		if !slices.Contains(cc.Args, a) {
			cc.Args = append(cc.Args, a)
		}
	}
}

// cost orders union members so cheap checks short-circuit expensive ones.
func cost(t typesystem.Type) int {
	switch t.Kind() {
	case typesystem.KindNil, typesystem.KindLiteral, typesystem.KindSimple:
		return 0
	case typesystem.KindForwardRef, typesystem.KindSelf:
		return 1
	case typesystem.KindValidated:
		return 2
	case typesystem.KindTuple:
		return 3
	}
	return 4
}

var nameSeq atomic.Uint64

// bind returns a fresh scope name for a value of the given kind.
func bind(kind string) string {
	return config.NamePrefix + kind + "_" + strconv.FormatUint(nameSeq.Add(1), 10)
}

// ClsKey identifies a class stack for memoization.
func ClsKey(clsStack []reflect.Type) string {
	ids := make([]string, len(clsStack))
	for i, t := range clsStack {
		ids[i] = typesystem.TypeID(t)
	}
	return strings.Join(ids, "/")
}
