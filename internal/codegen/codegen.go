// Package codegen synthesizes checker functions from compiled checks.
//
// A compiled check is wrapped in the source of a named Go function (a
// tester returning bool, or a raiser returning a violation), loaded through
// a vm.Loader together with its scope, and returned as an Artifact.
package codegen

import (
	"fmt"
	"go/format"
	"go/token"
	"log/slog"
	"maps"
	"math/rand/v2"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"text/template"

	"github.com/funvibe/hintguard/internal/ast"
	"github.com/funvibe/hintguard/internal/compiler"
	"github.com/funvibe/hintguard/internal/config"
	"github.com/funvibe/hintguard/internal/diagnostics"
	"github.com/funvibe/hintguard/internal/violation"
	"github.com/funvibe/hintguard/internal/vm"
)

// Kind selects what a synthesized function does on failure.
type Kind int

const (
	// Tester returns false.
	Tester Kind = iota
	// Raiser returns a violation.
	Raiser
)

func (k Kind) String() string {
	if k == Raiser {
		return "raiser"
	}
	return "tester"
}

const testerTemplate = `func {{.Name}}({{.Params}}) bool {
{{- if .NeedsRand}}
	{{.RandInt}} := {{.GetRandBits}}()
{{- end}}
	return {{.Expr}}
}
`

const raiserTemplate = `func {{.Name}}({{.Params}}) any {
{{- if .NeedsRand}}
	{{.RandInt}} := {{.GetRandBits}}()
{{- end}}
	if {{.Expr}} {
		return nil
	}
	{{.Violation}} := {{.GetViolation}}({{.ViolationArgs}})
	return {{.Emit}}({{.Violation}})
}
`

var templates = map[Kind]*template.Template{
	Tester: template.Must(template.New("tester").Parse(testerTemplate)),
	Raiser: template.Must(template.New("raiser").Parse(raiserTemplate)),
}

// Request describes a function to synthesize.
type Request struct {
	Check    *compiler.CompiledCheck
	Kind     Kind
	Conf     config.Conf
	Site     config.CallSite
	ClsStack []reflect.Type
	// HintRepr describes the hint in violation messages.
	HintRepr string
}

// Artifact is a synthesized, loaded checker function.
type Artifact struct {
	Name string
	Kind Kind
	// Args are the sibling argument names the function takes after the
	// pith, in order.
	Args []string
	// Source is the generated source, retained only in debug mode.
	Source  string
	program *vm.Program
}

// Run calls the function. Testers return a bool; raisers return nil, a
// *diagnostics.ViolationError, a *diagnostics.ViolationWarning or a
// *diagnostics.ForwardRefError.
func (a *Artifact) Run(pith any, args ...any) any {
	return a.program.Call(append([]any{pith}, args...)...)
}

// Synthesizer turns compiled checks into artifacts.
type Synthesizer struct {
	loader vm.Loader
}

// nameSeq numbers generated functions across every synthesizer in the
// process, so names are never reused.
var nameSeq atomic.Uint64

// New creates a synthesizer loading source through loader.
func New(loader vm.Loader) *Synthesizer {
	return &Synthesizer{loader: loader}
}

// Default is the process-wide synthesizer.
var Default = New(vm.ASTLoader{})

// Synthesize generates, loads and returns the function described by req.
func (s *Synthesizer) Synthesize(req Request) (*Artifact, error) {
	check := req.Check
	for _, a := range check.Args {
		if err := checkArgName(a); err != nil {
			return nil, diagnostics.NewHintUnsupportedError(req.HintRepr, "%v", err)
		}
	}

	prefix := config.TesterNamePrefix
	if req.Kind == Raiser {
		prefix = config.RaiserNamePrefix
	}
	name := prefix + strconv.FormatUint(nameSeq.Add(1), 10)

	scope := maps.Clone(check.Scope)
	if scope == nil {
		scope = make(map[string]any)
	}
	if check.NeedsRand {
		scope[config.GetRandBitsName] = rand.Uint64
	}

	params := []string{config.PithName + " any"}
	for _, a := range check.Args {
		params = append(params, a+" any")
	}

	data := map[string]any{
		"Name":        name,
		"Params":      strings.Join(params, ", "),
		"NeedsRand":   check.NeedsRand,
		"RandInt":     config.RandIntName,
		"GetRandBits": config.GetRandBitsName,
		"Expr":        ast.Render(ast.Substitute(check.Expr, ast.Ident{Name: config.PithName})),
	}

	if req.Kind == Raiser {
		vargs := []string{config.PithName}
		if len(req.ClsStack) > 0 {
			vargs = append(vargs, config.ClsStackName)
			scope[config.ClsStackName] = req.ClsStack
		}
		if check.NeedsRand {
			vargs = append(vargs, config.RandIntName)
		}
		vargs = append(vargs, check.Args...)

		emit, emitFn := config.RaiseName, vm.Builtin(raise)
		if req.Conf.WarnOn(req.Site) {
			emit, emitFn = config.WarnName, vm.Builtin(warn)
		}
		scope[emit] = emitFn
		scope[config.GetViolationName] = getViolation(req)

		data["Violation"] = config.ViolationName
		data["GetViolation"] = config.GetViolationName
		data["ViolationArgs"] = strings.Join(vargs, ", ")
		data["Emit"] = emit
	}

	var buf strings.Builder
	if err := templates[req.Kind].Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing %s template: %w", req.Kind, err)
	}
	src := buf.String()

	program, err := s.loader.Load(name, src, scope)
	if err != nil {
		return nil, diagnostics.NewInvalidGeneratedCodeError(name, src, err)
	}

	art := &Artifact{Name: name, Kind: req.Kind, Args: append([]string(nil), check.Args...), program: program}
	if req.Conf.Debug {
		if formatted, err := format.Source([]byte(src)); err == nil {
			src = string(formatted)
		}
		art.Source = src
		slog.Debug("synthesized checker", "name", name, "hint", req.HintRepr, "source", src)
	}
	return art, nil
}

// getViolation builds the function raisers call on failure. Its arguments
// are the pith, then the class stack when there is one, then randInt when
// the check samples, then the sibling arguments.
func getViolation(req Request) vm.Builtin {
	check := req.Check
	hasCls := len(req.ClsStack) > 0
	opts := violation.Options{SampleAll: req.Conf.SampleAll(), ClsStack: req.ClsStack}
	return func(args []any) any {
		pith, i := args[0], 1
		if hasCls {
			i++
		}
		o := opts
		if check.NeedsRand {
			o.Seed = args[i].(uint64)
			i++
		}
		if len(check.Args) > 0 {
			o.Args = make(map[string]any, len(check.Args))
			for j, name := range check.Args {
				o.Args[name] = args[i+j]
			}
		}
		v, err := violation.Describe(check.Hint, pith, o)
		if err != nil {
			return err
		}
		v.Hint = req.HintRepr
		return v
	}
}

func raise(args []any) any {
	if v, ok := args[0].(*diagnostics.Violation); ok {
		return &diagnostics.ViolationError{Violation: v}
	}
	return args[0]
}

func warn(args []any) any {
	if v, ok := args[0].(*diagnostics.Violation); ok {
		return &diagnostics.ViolationWarning{Violation: v}
	}
	return args[0]
}

var predeclared = map[string]bool{
	"any": true, "bool": true, "nil": true, "true": true, "false": true,
	"error": true, "string": true, "int": true, "uint64": true,
}

// checkArgName rejects sibling argument names that would collide with
// names generated code relies on.
func checkArgName(name string) error {
	switch {
	case !token.IsIdentifier(name):
		return fmt.Errorf("argument name %q is not an identifier", name)
	case strings.HasPrefix(name, config.NamePrefix),
		name == config.PithName, name == config.RandIntName, name == config.ViolationName,
		predeclared[name], vm.IsBuiltin(name):
		return fmt.Errorf("argument name %q is reserved", name)
	}
	return nil
}
