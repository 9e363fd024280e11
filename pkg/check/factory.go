// Package check builds runtime type checkers from hints.
//
// MakeTester returns a Tester reporting whether a value satisfies a hint;
// MakeRaiser returns a Raiser producing a descriptive error (or warning)
// when it does not. Checkers are memoized: requesting the same hint under
// the same configuration returns the same checker.
//
//	t, err := check.MakeTester(hint.MapOf(hint.Of[string](), hint.Of[int]()), check.Conf{})
//	if err != nil { ... }
//	t.Test(map[string]int{"a": 1}) // true
package check

import (
	"crypto/sha256"
	"encoding/hex"
	"reflect"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/funvibe/hintguard/internal/canon"
	"github.com/funvibe/hintguard/internal/codegen"
	"github.com/funvibe/hintguard/internal/compiler"
	"github.com/funvibe/hintguard/internal/config"
	"github.com/funvibe/hintguard/internal/diagnostics"
	"github.com/funvibe/hintguard/internal/pipeline"
	"github.com/funvibe/hintguard/internal/vm"
	"github.com/funvibe/hintguard/pkg/hint"
)

// Factory builds and memoizes checkers.
type Factory struct {
	compilers pipeline.Compilers
	pipeline  *pipeline.Pipeline

	mu    sync.Mutex
	memo  map[string]any
	group singleflight.Group
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithLoader loads generated source through l instead of vm.ASTLoader.
func WithLoader(l vm.Loader) FactoryOption {
	return func(f *Factory) {
		f.compilers.Synthesizer = codegen.New(l)
	}
}

// WithCompiler compiles hints with c, e.g. to observe c.Calls().
func WithCompiler(c *compiler.Compiler) FactoryOption {
	return func(f *Factory) {
		f.compilers.Compiler = c
	}
}

// NewFactory creates a factory with its own memo. Unless overridden it
// shares the process-wide compiler and synthesizer.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		compilers: pipeline.Compilers{Compiler: compiler.Default, Synthesizer: codegen.Default},
		memo:      make(map[string]any),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.pipeline = pipeline.Checker(f.compilers)
	return f
}

// defaultFactory backs the package-level functions.
var defaultFactory = NewFactory()

// MakeTester returns a tester for h under conf using the default factory.
func MakeTester(h hint.Hint, conf Conf) (*Tester, error) {
	return defaultFactory.MakeTester(h, conf)
}

// MakeRaiser returns a raiser for free-standing values.
func MakeRaiser(h hint.Hint, conf Conf) (*Raiser, error) {
	return defaultFactory.MakeRaiser(h, conf)
}

// MakeFuncRaiser returns a raiser for a parameter or return value of a
// function; clsStack lists the enclosing types Self resolves against.
func MakeFuncRaiser(h hint.Hint, conf Conf, clsStack []reflect.Type, site CallSite) (*Raiser, error) {
	return defaultFactory.MakeFuncRaiser(h, conf, clsStack, site)
}

// MakeSiteRaiser is MakeFuncRaiser for a site naming the callable and
// parameter, which then appear in build-time errors, reissued warnings and
// violation messages.
//
//	r, err := check.MakeSiteRaiser(h, conf, nil, check.Site{Kind: check.CallSiteParam, Func: "app.Load", Param: "path"})
func MakeSiteRaiser(h hint.Hint, conf Conf, clsStack []reflect.Type, site Site) (*Raiser, error) {
	return defaultFactory.MakeSiteRaiser(h, conf, clsStack, site)
}

// IsBearable reports whether pith satisfies h.
func IsBearable(pith any, h hint.Hint, conf Conf) (bool, error) {
	t, err := MakeTester(h, conf)
	if err != nil {
		return false, err
	}
	return t.Test(pith), nil
}

// DieIfUnbearable returns a violation error when pith does not satisfy h.
// Under a warn policy it emits a warning and returns nil instead.
func DieIfUnbearable(pith any, h hint.Hint, conf Conf) error {
	r, err := MakeRaiser(h, conf)
	if err != nil {
		return err
	}
	return r.Check(pith)
}

func (f *Factory) MakeTester(h hint.Hint, conf Conf) (*Tester, error) {
	v, err := f.make(h, conf, nil, codegen.Tester, Site{})
	if err != nil {
		return nil, err
	}
	return v.(*Tester), nil
}

func (f *Factory) MakeRaiser(h hint.Hint, conf Conf) (*Raiser, error) {
	return f.MakeFuncRaiser(h, conf, nil, config.CallSiteFree)
}

func (f *Factory) MakeFuncRaiser(h hint.Hint, conf Conf, clsStack []reflect.Type, site CallSite) (*Raiser, error) {
	return f.MakeSiteRaiser(h, conf, clsStack, Site{Kind: site})
}

func (f *Factory) MakeSiteRaiser(h hint.Hint, conf Conf, clsStack []reflect.Type, site Site) (*Raiser, error) {
	v, err := f.make(h, conf, clsStack, codegen.Raiser, site)
	if err != nil {
		return nil, err
	}
	return v.(*Raiser), nil
}

// Cached reports how many checkers the factory holds.
func (f *Factory) Cached() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.memo)
}

func (f *Factory) make(h hint.Hint, conf Conf, clsStack []reflect.Type, kind codegen.Kind, site Site) (any, error) {
	target := site.Target()
	if err := conf.Validate(); err != nil {
		return nil, diagnostics.ReplacePlaceholder(err, target)
	}
	rawKey, err := canon.RawKey(h)
	if err != nil {
		return nil, diagnostics.ReplacePlaceholder(err, target)
	}
	key := computeKey(rawKey, conf.Key(), kind.String(), site.Kind.String(), site.Func, site.Param, compiler.ClsKey(clsStack))

	if v, ok := f.lookup(key); ok {
		return v, nil
	}
	v, err, _ := f.group.Do(key, func() (any, error) {
		if v, ok := f.lookup(key); ok {
			return v, nil
		}
		v, err := f.build(h, conf, clsStack, kind, site)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.memo[key] = v
		f.mu.Unlock()
		return v, nil
	})
	return v, err
}

func (f *Factory) lookup(key string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.memo[key]
	return v, ok
}

func (f *Factory) build(h hint.Hint, conf Conf, clsStack []reflect.Type, kind codegen.Kind, site Site) (any, error) {
	ctx := f.pipeline.Run(pipeline.NewContext(h, conf, clsStack, kind, site.Kind))
	target := site.Target()
	ctx.Warnings.Reissue(target)
	if ctx.Err != nil {
		return nil, diagnostics.ReplacePlaceholder(ctx.Err, target)
	}

	if ctx.Ignorable() {
		if kind == codegen.Tester {
			return ignorableTester, nil
		}
		return ignorableRaiser, nil
	}
	if kind == codegen.Tester {
		return &Tester{art: ctx.Artifact, hint: ctx.HintRepr}, nil
	}
	return &Raiser{art: ctx.Artifact, hint: ctx.HintRepr, site: site, target: target}, nil
}

// computeKey hashes the parts of a checker request.
func computeKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strconv.Itoa(len(p))))
		h.Write([]byte("\x00"))
		h.Write([]byte(p))
		h.Write([]byte("\x00"))
	}
	return hex.EncodeToString(h.Sum(nil))
}
