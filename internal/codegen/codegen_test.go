package codegen

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/hintguard/internal/compiler"
	"github.com/funvibe/hintguard/internal/config"
	"github.com/funvibe/hintguard/internal/diagnostics"
	"github.com/funvibe/hintguard/internal/typesystem"
	"github.com/funvibe/hintguard/internal/vm"
	"github.com/funvibe/hintguard/pkg/hint"
	"github.com/funvibe/hintguard/pkg/vale"
)

var intSlice = typesystem.Container{Origin: hint.OriginSlice, Elem: typesystem.Simple{Type: reflect.TypeFor[int]()}}

func compile(t *testing.T, h typesystem.Type, conf config.Conf) *compiler.CompiledCheck {
	t.Helper()
	cc, err := compiler.New().Compile(h, conf, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return cc
}

func TestSynthesizeTester(t *testing.T) {
	conf := config.Default()
	conf.Debug = true
	art, err := Default.Synthesize(Request{Check: compile(t, intSlice, conf), Kind: Tester, Conf: conf, HintRepr: "[]int"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.HasPrefix(art.Name, config.TesterNamePrefix) {
		t.Errorf("Name = %q", art.Name)
	}
	for _, want := range []string{"func " + art.Name + "(pith any) bool", "randInt := hg_getrandbits()", "return isslice(pith)"} {
		if !strings.Contains(art.Source, want) {
			t.Errorf("source missing %q:\n%s", want, art.Source)
		}
	}
	if art.Run([]int{1, 2}) != true || art.Run("no") != false {
		t.Error("tester results wrong")
	}
}

func TestSynthesizeRaiser(t *testing.T) {
	conf := config.Conf{Strategy: config.StrategyOn}
	art, err := Default.Synthesize(Request{Check: compile(t, intSlice, conf), Kind: Raiser, Conf: conf, HintRepr: "[]int"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if art.Source != "" {
		t.Error("source retained outside debug mode")
	}
	if got := art.Run([]int{1}); got != nil {
		t.Errorf("passing value produced %v", got)
	}
	got := art.Run([]any{1, "x"})
	ve, ok := got.(*diagnostics.ViolationError)
	if !ok {
		t.Fatalf("got %T; want *ViolationError", got)
	}
	if ve.Violation.Path != "[1]" || ve.Violation.Hint != "[]int" {
		t.Errorf("violation = %+v", ve.Violation)
	}
}

func TestSynthesizeWarnPolicy(t *testing.T) {
	conf := config.Default()
	conf.Violation.Param = config.PolicyWarn
	check := compile(t, typesystem.Simple{Type: reflect.TypeFor[int]()}, conf)

	art, err := Default.Synthesize(Request{Check: check, Kind: Raiser, Conf: conf, Site: config.CallSiteParam, HintRepr: "int"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := art.Run("x").(*diagnostics.ViolationWarning); !ok {
		t.Error("param site should warn")
	}

	art, err = Default.Synthesize(Request{Check: check, Kind: Raiser, Conf: conf, Site: config.CallSiteReturn, HintRepr: "int"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := art.Run("x").(*diagnostics.ViolationError); !ok {
		t.Error("return site should raise")
	}
}

func TestSynthesizeSiblingArgs(t *testing.T) {
	v, err := vale.IsArgumentative(func(out any, others ...any) bool {
		return out.(int) > others[0].(int)
	}, "out", "floor")
	if err != nil {
		t.Fatal(err)
	}
	h := typesystem.Validated{Base: typesystem.Simple{Type: reflect.TypeFor[int]()}, Validators: []hint.Validator{v}}
	art, err := Default.Synthesize(Request{Check: compile(t, h, config.Default()), Kind: Raiser, Conf: config.Default(), HintRepr: "int"})
	if err != nil {
		t.Fatal(err)
	}
	if len(art.Args) != 1 || art.Args[0] != "floor" {
		t.Fatalf("Args = %v", art.Args)
	}
	if art.Run(5, 3) != nil {
		t.Error("5 > 3 should pass")
	}
	if _, ok := art.Run(2, 3).(*diagnostics.ViolationError); !ok {
		t.Error("2 > 3 should fail")
	}
}

func TestSynthesizeRejectsReservedArgs(t *testing.T) {
	check := &compiler.CompiledCheck{Hint: typesystem.Ignorable{}, Expr: nil, Args: []string{"all"}}
	_, err := Default.Synthesize(Request{Check: check, Kind: Tester, Conf: config.Default(), HintRepr: "x"})
	var hue *diagnostics.HintUnsupportedError
	if !errors.As(err, &hue) {
		t.Fatalf("expected HintUnsupportedError, got %v", err)
	}
}

type brokenLoader struct{}

func (brokenLoader) Load(string, string, map[string]any) (*vm.Program, error) {
	return nil, errors.New("boom")
}

func TestSynthesizeInvalidGeneratedCode(t *testing.T) {
	s := New(brokenLoader{})
	_, err := s.Synthesize(Request{Check: compile(t, intSlice, config.Default()), Kind: Tester, Conf: config.Default(), HintRepr: "[]int"})
	var igc *diagnostics.InvalidGeneratedCodeError
	if !errors.As(err, &igc) {
		t.Fatalf("expected InvalidGeneratedCodeError, got %v", err)
	}
	if !strings.Contains(igc.Source, "func hg_tester_") {
		t.Errorf("error does not carry the source: %q", igc.Source)
	}
}

func TestSynthesizeNamesUniqueAcrossSynthesizers(t *testing.T) {
	conf := config.Default()
	cc := compile(t, intSlice, conf)
	seen := map[string]bool{}
	for _, s := range []*Synthesizer{New(vm.ASTLoader{}), New(vm.ASTLoader{}), Default} {
		for _, kind := range []Kind{Tester, Raiser} {
			art, err := s.Synthesize(Request{Check: cc, Kind: kind, Conf: conf, HintRepr: "[]int"})
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			if seen[art.Name] {
				t.Fatalf("generated name %s reused", art.Name)
			}
			seen[art.Name] = true
		}
	}
}
