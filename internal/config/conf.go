// Package config holds the configuration consumed by the checker factory.
//
// Conf is an immutable, comparable value. Every field takes part in Key, so
// two confs produce the same checkers exactly when their keys match.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/hintguard/internal/diagnostics"
)

// Strategy selects how many container elements a check inspects.
type Strategy string

const (
	// StrategyO1 checks one pseudo-randomly sampled element per container.
	// Every call samples afresh, so two checks of the same container may
	// inspect different elements.
	StrategyO1 Strategy = "O1"
	// StrategyOn checks every element.
	StrategyOn Strategy = "On"
)

// Policy selects what a raiser does with a violation.
type Policy string

const (
	PolicyRaise Policy = "raise"
	PolicyWarn  Policy = "warn"
)

// CallSite tags what a raiser checks.
type CallSite int

const (
	// CallSiteFree is a value handed directly to a checker.
	CallSiteFree CallSite = iota
	// CallSiteParam is a parameter of a checked function.
	CallSiteParam
	// CallSiteReturn is the return value of a checked function.
	CallSiteReturn
)

func (c CallSite) String() string {
	switch c {
	case CallSiteFree:
		return "free"
	case CallSiteParam:
		return "param"
	case CallSiteReturn:
		return "return"
	default:
		return "CallSite(" + strconv.Itoa(int(c)) + ")"
	}
}

// Label describes the call site in violation messages.
func (c CallSite) Label() string {
	switch c {
	case CallSiteParam:
		return "parameter"
	case CallSiteReturn:
		return "return value"
	default:
		return "value"
	}
}

// Site locates a raiser: what it checks and, when known, the callable and
// parameter it guards.
type Site struct {
	Kind  CallSite
	Func  string
	Param string
}

// Target describes the site in build-time messages, where it prefixes
// "type hint ...". It is empty for an anonymous free value.
func (s Site) Target() string {
	var b strings.Builder
	if s.Func != "" {
		b.WriteString(s.Func + "() ")
	}
	switch s.Kind {
	case CallSiteParam:
		b.WriteString("parameter ")
	case CallSiteReturn:
		b.WriteString("return ")
	}
	if s.Param != "" {
		b.WriteString(strconv.Quote(s.Param) + " ")
	}
	return b.String()
}

// Label describes the site in violation messages. A non-empty param
// overrides s.Param.
func (s Site) Label(param string) string {
	if param == "" {
		param = s.Param
	}
	label := s.Kind.Label()
	if s.Func != "" {
		label = s.Func + "() " + label
	}
	if param != "" {
		label += " " + strconv.Quote(param)
	}
	return label
}

// ParseCallSite parses the YAML spelling of a call site.
func ParseCallSite(s string) (CallSite, error) {
	switch s {
	case "", "free":
		return CallSiteFree, nil
	case "param":
		return CallSiteParam, nil
	case "return":
		return CallSiteReturn, nil
	}
	return 0, fmt.Errorf("unknown call site %q (want free, param or return)", s)
}

// Policies holds one violation policy per call site.
type Policies struct {
	Param  Policy `yaml:"param,omitempty"`
	Return Policy `yaml:"return,omitempty"`
	Free   Policy `yaml:"free,omitempty"`
}

// Conf configures checker generation.
type Conf struct {
	// Strategy is the container checking strategy. Defaults to StrategyO1.
	Strategy Strategy `yaml:"strategy,omitempty"`

	// Debug retains generated source on artifacts and logs it.
	Debug bool `yaml:"debug,omitempty"`

	// Strict rejects legacy hint forms instead of accepting them with a
	// deprecation warning.
	Strict bool `yaml:"strict,omitempty"`

	// NumericTower lets integer values satisfy float hints and integer or
	// float values satisfy complex hints.
	NumericTower bool `yaml:"numeric_tower,omitempty"`

	// Violation selects raise or warn per call site. Empty entries raise.
	Violation Policies `yaml:"violation,omitempty"`
}

// Default returns the default configuration.
func Default() Conf {
	return Conf{
		Strategy: StrategyO1,
		Violation: Policies{
			Param:  PolicyRaise,
			Return: PolicyRaise,
			Free:   PolicyRaise,
		},
	}
}

// Normalize fills omitted fields with their defaults.
func (c Conf) Normalize() Conf {
	if c.Strategy == "" {
		c.Strategy = StrategyO1
	}
	if c.Violation.Param == "" {
		c.Violation.Param = PolicyRaise
	}
	if c.Violation.Return == "" {
		c.Violation.Return = PolicyRaise
	}
	if c.Violation.Free == "" {
		c.Violation.Free = PolicyRaise
	}
	return c
}

// Validate reports a malformed configuration.
func (c Conf) Validate() error {
	switch c.Strategy {
	case "", StrategyO1, StrategyOn:
	default:
		return diagnostics.NewConfigurationError("%sconfiguration strategy %q invalid (want %q or %q)",
			diagnostics.Placeholder, c.Strategy, StrategyO1, StrategyOn)
	}
	for _, p := range []struct {
		name string
		val  Policy
	}{
		{"param", c.Violation.Param},
		{"return", c.Violation.Return},
		{"free", c.Violation.Free},
	} {
		switch p.val {
		case "", PolicyRaise, PolicyWarn:
		default:
			return diagnostics.NewConfigurationError("%sconfiguration violation.%s policy %q invalid (want %q or %q)",
				diagnostics.Placeholder, p.name, p.val, PolicyRaise, PolicyWarn)
		}
	}
	return nil
}

// WarnOn reports whether violations at the given call site are warnings.
func (c Conf) WarnOn(site CallSite) bool {
	switch site {
	case CallSiteParam:
		return c.Violation.Param == PolicyWarn
	case CallSiteReturn:
		return c.Violation.Return == PolicyWarn
	default:
		return c.Violation.Free == PolicyWarn
	}
}

// SampleAll reports whether every container element is checked.
func (c Conf) SampleAll() bool {
	return c.Strategy == StrategyOn
}

// Key returns a content hash over every field of the normalized conf.
func (c Conf) Key() string {
	c = c.Normalize()
	h := sha256.New()
	for _, part := range []string{
		string(c.Strategy),
		strconv.FormatBool(c.Debug),
		strconv.FormatBool(c.Strict),
		strconv.FormatBool(c.NumericTower),
		string(c.Violation.Param),
		string(c.Violation.Return),
		string(c.Violation.Free),
	} {
		h.Write([]byte(part))
		h.Write([]byte("\x00"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c Conf) String() string {
	c = c.Normalize()
	return fmt.Sprintf("Conf(strategy=%s, debug=%t, strict=%t, numeric_tower=%t, violation=%s/%s/%s)",
		c.Strategy, c.Debug, c.Strict, c.NumericTower,
		c.Violation.Param, c.Violation.Return, c.Violation.Free)
}
