// Package vm loads generated checker source into callable programs.
//
// Generated source is ordinary Go syntax restricted to what checkers need:
// one function declaration whose parameters are all of type any, short
// variable declarations, if statements, returns, the boolean operators,
// equality, calls and single-parameter predicate literals. The default
// loader parses it with go/parser and compiles the syntax tree into nested
// closures over a slot-based frame.
package vm

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"
)

// Loader turns generated source into a Program. scope binds the free
// identifiers of the source besides builtins.
type Loader interface {
	Load(name, source string, scope map[string]any) (*Program, error)
}

// Program is a loaded generated function.
type Program struct {
	Name   string
	Params []string
	nslots int
	body   stmtFn
}

// Call runs the program. It panics when len(args) differs from
// len(p.Params); argument counts are fixed when the checker is synthesized.
func (p *Program) Call(args ...any) any {
	if len(args) != len(p.Params) {
		panic(fmt.Sprintf("vm: %s called with %d arguments, want %d", p.Name, len(args), len(p.Params)))
	}
	f := &frame{slots: make([]any, p.nslots)}
	copy(f.slots, args)
	res, _ := p.body(f)
	return res
}

// ASTLoader is the default Loader.
type ASTLoader struct{}

// Load parses source, which must declare a function called name.
func (ASTLoader) Load(name, source string, scope map[string]any) (*Program, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name+".go", "package generated\n\n"+source, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	stripParens(file)

	var decl *ast.FuncDecl
	for _, d := range file.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Name.Name == name {
			decl = fd
			break
		}
	}
	if decl == nil {
		return nil, fmt.Errorf("no function %s declared", name)
	}
	if decl.Recv != nil || decl.Body == nil {
		return nil, fmt.Errorf("%s: want a plain function with a body", name)
	}

	c := newCompiler(nil, scope, fset)
	params, err := c.declareParams(decl.Type)
	if err != nil {
		return nil, err
	}
	body, err := c.block(decl.Body.List)
	if err != nil {
		return nil, err
	}
	return &Program{Name: name, Params: params, nslots: c.slotCount, body: body}, nil
}

// stripParens removes parenthesized expressions; grouping is already
// encoded in the tree shape.
func stripParens(file *ast.File) {
	astutil.Apply(file, nil, func(cur *astutil.Cursor) bool {
		if p, ok := cur.Node().(*ast.ParenExpr); ok {
			cur.Replace(p.X)
		}
		return true
	})
}

type frame struct {
	slots  []any
	parent *frame
}

type (
	exprFn func(*frame) any
	stmtFn func(*frame) (result any, returned bool)
)

// Local is a variable declared in a generated function.
type Local struct {
	Name  string
	Depth int
	Slot  int
}

type compiler struct {
	enclosing  *compiler
	globals    map[string]any
	fset       *token.FileSet
	locals     []Local
	scopeDepth int
	slotCount  int
}

func newCompiler(enclosing *compiler, globals map[string]any, fset *token.FileSet) *compiler {
	return &compiler{enclosing: enclosing, globals: globals, fset: fset}
}

func (c *compiler) errorf(n ast.Node, format string, args ...any) error {
	return fmt.Errorf("%s: %s", c.fset.Position(n.Pos()), fmt.Sprintf(format, args...))
}

func (c *compiler) beginScope() { c.scopeDepth++ }

func (c *compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *compiler) addLocal(name string) int {
	slot := c.slotCount
	c.slotCount++
	c.locals = append(c.locals, Local{Name: name, Depth: c.scopeDepth, Slot: slot})
	return slot
}

func (c *compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return c.locals[i].Slot
		}
	}
	return -1
}

// resolveUpvalue finds name in an enclosing function, returning how many
// frames up it lives.
func (c *compiler) resolveUpvalue(name string) (up, slot int) {
	for enc, n := c.enclosing, 1; enc != nil; enc, n = enc.enclosing, n+1 {
		if s := enc.resolveLocal(name); s >= 0 {
			return n, s
		}
	}
	return -1, -1
}

func (c *compiler) declareParams(ft *ast.FuncType) ([]string, error) {
	var names []string
	for _, field := range ft.Params.List {
		if !isAnyType(field.Type) {
			return nil, c.errorf(field, "parameters must be of type any")
		}
		if len(field.Names) == 0 {
			return nil, c.errorf(field, "unnamed parameter")
		}
		for _, n := range field.Names {
			if c.resolveLocal(n.Name) >= 0 {
				return nil, c.errorf(n, "duplicate parameter %s", n.Name)
			}
			c.addLocal(n.Name)
			names = append(names, n.Name)
		}
	}
	if ft.Results == nil || len(ft.Results.List) != 1 || len(ft.Results.List[0].Names) > 0 {
		return nil, c.errorf(ft, "want exactly one unnamed result")
	}
	return names, nil
}

func isAnyType(e ast.Expr) bool {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name == "any"
	case *ast.InterfaceType:
		return t.Methods == nil || len(t.Methods.List) == 0
	}
	return false
}

func (c *compiler) block(list []ast.Stmt) (stmtFn, error) {
	c.beginScope()
	defer c.endScope()

	stmts := make([]stmtFn, 0, len(list))
	for _, s := range list {
		fn, err := c.stmt(s)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, fn)
	}
	return func(f *frame) (any, bool) {
		for _, s := range stmts {
			if res, ok := s(f); ok {
				return res, true
			}
		}
		return nil, false
	}, nil
}

func (c *compiler) stmt(s ast.Stmt) (stmtFn, error) {
	switch n := s.(type) {
	case *ast.AssignStmt:
		if n.Tok != token.DEFINE || len(n.Lhs) != 1 || len(n.Rhs) != 1 {
			return nil, c.errorf(n, "only single short variable declarations are supported")
		}
		id, ok := n.Lhs[0].(*ast.Ident)
		if !ok {
			return nil, c.errorf(n, "assignment target must be an identifier")
		}
		rhs, err := c.expr(n.Rhs[0])
		if err != nil {
			return nil, err
		}
		slot := c.addLocal(id.Name)
		return func(f *frame) (any, bool) {
			f.slots[slot] = rhs(f)
			return nil, false
		}, nil

	case *ast.IfStmt:
		if n.Init != nil {
			return nil, c.errorf(n, "if statements with init are not supported")
		}
		cond, err := c.expr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := c.block(n.Body.List)
		if err != nil {
			return nil, err
		}
		var els stmtFn
		switch e := n.Else.(type) {
		case nil:
		case *ast.BlockStmt:
			if els, err = c.block(e.List); err != nil {
				return nil, err
			}
		case *ast.IfStmt:
			if els, err = c.stmt(e); err != nil {
				return nil, err
			}
		}
		return func(f *frame) (any, bool) {
			if truthy(cond(f)) {
				return then(f)
			}
			if els != nil {
				return els(f)
			}
			return nil, false
		}, nil

	case *ast.ReturnStmt:
		switch len(n.Results) {
		case 0:
			return func(*frame) (any, bool) { return nil, true }, nil
		case 1:
			res, err := c.expr(n.Results[0])
			if err != nil {
				return nil, err
			}
			return func(f *frame) (any, bool) { return res(f), true }, nil
		}
		return nil, c.errorf(n, "multiple return values are not supported")

	case *ast.ExprStmt:
		x, err := c.expr(n.X)
		if err != nil {
			return nil, err
		}
		return func(f *frame) (any, bool) {
			x(f)
			return nil, false
		}, nil

	case *ast.BlockStmt:
		return c.block(n.List)
	}
	return nil, c.errorf(s, "unsupported statement %T", s)
}

func (c *compiler) expr(e ast.Expr) (exprFn, error) {
	switch n := e.(type) {
	case *ast.Ident:
		return c.ident(n)

	case *ast.BasicLit:
		var v any
		switch n.Kind {
		case token.INT:
			i, err := strconv.Atoi(n.Value)
			if err != nil {
				return nil, c.errorf(n, "bad integer %s", n.Value)
			}
			v = i
		case token.STRING:
			s, err := strconv.Unquote(n.Value)
			if err != nil {
				return nil, c.errorf(n, "bad string %s", n.Value)
			}
			v = s
		default:
			return nil, c.errorf(n, "unsupported literal %s", n.Value)
		}
		return func(*frame) any { return v }, nil

	case *ast.UnaryExpr:
		if n.Op != token.NOT {
			return nil, c.errorf(n, "unsupported operator %s", n.Op)
		}
		x, err := c.expr(n.X)
		if err != nil {
			return nil, err
		}
		return func(f *frame) any { return !truthy(x(f)) }, nil

	case *ast.BinaryExpr:
		x, err := c.expr(n.X)
		if err != nil {
			return nil, err
		}
		y, err := c.expr(n.Y)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.LAND:
			return func(f *frame) any { return truthy(x(f)) && truthy(y(f)) }, nil
		case token.LOR:
			return func(f *frame) any { return truthy(x(f)) || truthy(y(f)) }, nil
		case token.EQL:
			return func(f *frame) any { return x(f) == y(f) }, nil
		case token.NEQ:
			return func(f *frame) any { return x(f) != y(f) }, nil
		}
		return nil, c.errorf(n, "unsupported operator %s", n.Op)

	case *ast.CallExpr:
		if n.Ellipsis.IsValid() {
			return nil, c.errorf(n, "variadic calls are not supported")
		}
		fn, err := c.expr(n.Fun)
		if err != nil {
			return nil, err
		}
		args := make([]exprFn, len(n.Args))
		for i, a := range n.Args {
			if args[i], err = c.expr(a); err != nil {
				return nil, err
			}
		}
		return func(f *frame) any {
			vals := make([]any, len(args))
			for i, a := range args {
				vals[i] = a(f)
			}
			return invoke(fn(f), vals)
		}, nil

	case *ast.FuncLit:
		return c.funcLit(n)
	}
	return nil, c.errorf(e, "unsupported expression %T", e)
}

func (c *compiler) ident(n *ast.Ident) (exprFn, error) {
	switch n.Name {
	case "true":
		return func(*frame) any { return true }, nil
	case "false":
		return func(*frame) any { return false }, nil
	case "nil":
		return func(*frame) any { return nil }, nil
	}
	if slot := c.resolveLocal(n.Name); slot >= 0 {
		return func(f *frame) any { return f.slots[slot] }, nil
	}
	if up, slot := c.resolveUpvalue(n.Name); up > 0 {
		return func(f *frame) any {
			for range up {
				f = f.parent
			}
			return f.slots[slot]
		}, nil
	}
	if v, ok := c.globals[n.Name]; ok {
		return func(*frame) any { return v }, nil
	}
	if b, ok := builtins[n.Name]; ok {
		return func(*frame) any { return b }, nil
	}
	return nil, c.errorf(n, "undefined: %s", n.Name)
}

// funcLit compiles a predicate literal func(x any) bool { ... } into a
// func(any) bool closing over the enclosing frame.
func (c *compiler) funcLit(n *ast.FuncLit) (exprFn, error) {
	inner := newCompiler(c, c.globals, c.fset)
	params, err := inner.declareParams(n.Type)
	if err != nil {
		return nil, err
	}
	if len(params) != 1 {
		return nil, c.errorf(n, "predicate literals take exactly one parameter")
	}
	if res, ok := n.Type.Results.List[0].Type.(*ast.Ident); !ok || res.Name != "bool" {
		return nil, c.errorf(n, "predicate literals must return bool")
	}
	body, err := inner.block(n.Body.List)
	if err != nil {
		return nil, err
	}
	nslots := inner.slotCount
	return func(parent *frame) any {
		return func(x any) bool {
			f := &frame{slots: make([]any, nslots), parent: parent}
			f.slots[0] = x
			res, _ := body(f)
			return truthy(res)
		}
	}, nil
}

func truthy(v any) bool {
	b, ok := v.(bool)
	if !ok {
		panic(fmt.Sprintf("vm: non-boolean condition %T", v))
	}
	return b
}
