package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/hintguard/pkg/hint"
)

func TestParseHint(t *testing.T) {
	intT := reflect.TypeFor[int]()
	strT := reflect.TypeFor[string]()

	tests := []struct {
		input    string
		expected string
	}{
		{"int", "int"},
		{"nil", "nil"},
		{"any", "any"},
		{"interface{}", "any"},
		{"[]string", "[]string"},
		{"map[string][]int", "map[string][]int"},
		{"*int", "*int"},
		{"int | string | nil", "int | string | nil"},
		{"(int | string)", "int | string"},
		{"Optional[int]", "int | nil"},
		{"[]Union[int, string]", "[]Union[int, string]"},
		{"[]Optional[int]", "[]Optional[int]"},
		{"map[Union[int, string]]*Optional[int]", "map[Union[int, string]]*Optional[int]"},
		{"Sequence[float64]", "Sequence[float64]"},
		{"Tuple[int, string]", "Tuple[int, string]"},
		{`Literal["a", 1, -2, true]`, `Literal["a", 1, -2, true]`},
		{`"example.com/app.User"`, `"example.com/app.User"`},
		{"app.User", `"app.User"`},
		{"Widget", `"Widget"`},
		{"Self", "Self"},
		{"Annotated[string, IsUUID]", "Annotated[string, IsUUID]"},
		{`Annotated[string, IsSemver(">= 1.0"), IsLen(1, -1)]`, `Annotated[string, IsSemver[">= 1.0"], IsLen[1, -1]]`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h, err := ParseHint(tt.input)
			if err != nil {
				t.Fatalf("ParseHint(%q): %v", tt.input, err)
			}
			if got := hint.Repr(h); got != tt.expected {
				t.Errorf("ParseHint(%q) = %s; want %s", tt.input, got, tt.expected)
			}
		})
	}

	h, err := ParseHint("map[string]int")
	if err != nil {
		t.Fatal(err)
	}
	c, ok := h.(hint.ContainerHint)
	if !ok || c.Key != strT || c.Elem != intT {
		t.Errorf("map hint = %#v", h)
	}
}

func TestParseHintErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"map[string", "parse hint"},
		{"[3]int", "fixed-length"},
		{"int + string", "unexpected operator"},
		{"42", "use Literal"},
		{"Optional[int, string]", "takes one argument"},
		{"Frobnicate[int]", "unknown generic"},
		{"Annotated[int]", "at least one validator"},
		{"Annotated[int, IsPrime]", "unknown validator"},
		{`Annotated[string, IsMatch("(")]`, "IsMatch"},
		{"Literal[x]", "unsupported"},
		{"interface{ String() string }", "methods"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseHint(tt.input)
			if err == nil {
				t.Fatalf("ParseHint(%q) succeeded", tt.input)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseHintRoundTripsUnionOperands(t *testing.T) {
	for _, h := range []hint.Hint{
		hint.SliceOf(hint.Union(hint.Of[int](), hint.Of[string]())),
		hint.MapOf(hint.Of[string](), hint.SliceOf(hint.Optional(hint.Of[int]()))),
		hint.Union(hint.SliceOf(hint.Of[int]()), hint.Of[string]()),
	} {
		text := hint.Repr(h)
		parsed, err := ParseHint(text)
		if err != nil {
			t.Fatalf("ParseHint(%q): %v", text, err)
		}
		if got := hint.Repr(parsed); got != text {
			t.Errorf("round trip of %q gave %q", text, got)
		}
		if _, isUnion := parsed.(hint.UnionHint); isUnion != (reflect.TypeOf(h) == reflect.TypeOf(hint.UnionHint{})) {
			t.Errorf("%q parsed as %T; want %T", text, parsed, h)
		}
	}
}
