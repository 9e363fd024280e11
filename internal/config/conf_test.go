package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/hintguard/internal/diagnostics"
)

func TestConfValidate(t *testing.T) {
	tests := []struct {
		name string
		conf Conf
		want string
	}{
		{"zero", Conf{}, ""},
		{"default", Default(), ""},
		{"on", Conf{Strategy: StrategyOn, Violation: Policies{Param: PolicyWarn}}, ""},
		{"bad strategy", Conf{Strategy: "Ologn"}, `strategy "Ologn" invalid`},
		{"bad policy", Conf{Violation: Policies{Return: "ignore"}}, `violation.return policy "ignore" invalid`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conf.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			var ce *diagnostics.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() = %v; want *ConfigurationError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestConfKey(t *testing.T) {
	if (Conf{}).Key() != Default().Key() {
		t.Errorf("zero conf and default conf have different keys")
	}
	variants := []Conf{
		Default(),
		{Strategy: StrategyOn},
		{Debug: true},
		{Strict: true},
		{NumericTower: true},
		{Violation: Policies{Param: PolicyWarn}},
		{Violation: Policies{Return: PolicyWarn}},
		{Violation: Policies{Free: PolicyWarn}},
	}
	seen := make(map[string]Conf)
	for _, c := range variants {
		k := c.Key()
		if prev, ok := seen[k]; ok {
			t.Errorf("%s and %s share key", prev, c)
		}
		seen[k] = c
	}
}

func TestConfPolicies(t *testing.T) {
	c := Conf{Strategy: StrategyOn, Violation: Policies{Return: PolicyWarn}}
	tests := []struct {
		site CallSite
		warn bool
	}{
		{CallSiteParam, false},
		{CallSiteReturn, true},
		{CallSiteFree, false},
	}
	for _, tt := range tests {
		if got := c.WarnOn(tt.site); got != tt.warn {
			t.Errorf("WarnOn(%s) = %t; want %t", tt.site, got, tt.warn)
		}
	}
	if !c.SampleAll() || (Conf{}).SampleAll() {
		t.Errorf("SampleAll mismatch")
	}
}

func TestCallSite(t *testing.T) {
	tests := []struct {
		text  string
		site  CallSite
		label string
	}{
		{"", CallSiteFree, "value"},
		{"free", CallSiteFree, "value"},
		{"param", CallSiteParam, "parameter"},
		{"return", CallSiteReturn, "return value"},
	}
	for _, tt := range tests {
		site, err := ParseCallSite(tt.text)
		if err != nil {
			t.Fatalf("ParseCallSite(%q): %v", tt.text, err)
		}
		if site != tt.site || site.Label() != tt.label {
			t.Errorf("ParseCallSite(%q) = %s (%s); want %s (%s)", tt.text, site, site.Label(), tt.site, tt.label)
		}
	}
	if _, err := ParseCallSite("door"); err == nil {
		t.Errorf("ParseCallSite accepted %q", "door")
	}
}

func TestSiteDescriptions(t *testing.T) {
	tests := []struct {
		site   Site
		param  string
		target string
		label  string
	}{
		{Site{}, "", "", "value"},
		{Site{Kind: CallSiteParam}, "", "parameter ", "parameter"},
		{Site{Kind: CallSiteParam}, "n", "parameter ", `parameter "n"`},
		{Site{Kind: CallSiteParam, Func: "app.Load", Param: "path"}, "", `app.Load() parameter "path" `, `app.Load() parameter "path"`},
		{Site{Kind: CallSiteParam, Func: "app.Load", Param: "path"}, "mode", `app.Load() parameter "path" `, `app.Load() parameter "mode"`},
		{Site{Kind: CallSiteReturn, Func: "app.Load"}, "", "app.Load() return ", "app.Load() return value"},
		{Site{Func: "app.Load"}, "", "app.Load() ", "app.Load() value"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := tt.site.Target(); got != tt.target {
				t.Errorf("Target() = %q; want %q", got, tt.target)
			}
			if got := tt.site.Label(tt.param); got != tt.label {
				t.Errorf("Label(%q) = %q; want %q", tt.param, got, tt.label)
			}
		})
	}
}
