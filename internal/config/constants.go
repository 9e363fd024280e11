package config

// ConfigFileNames are the file names FindConfig looks for, in order.
var ConfigFileNames = []string{"hintguard.yaml", "hintguard.yml"}

// Generated identifier prefixes. Every name the compiler binds into a
// lexical scope starts with NamePrefix so it cannot collide with sibling
// argument names supplied by validators.
const (
	NamePrefix = "hg_"

	TesterNamePrefix = NamePrefix + "tester_"
	RaiserNamePrefix = NamePrefix + "raiser_"

	// PithName is the parameter holding the value under check.
	PithName = "pith"
	// RandIntName is the local holding the per-call random integer.
	RandIntName = "randInt"
	// ViolationName is the local holding a produced violation.
	ViolationName = "violation"

	// Scope names bound by the synthesizer.
	GetRandBitsName  = NamePrefix + "getrandbits"
	GetViolationName = NamePrefix + "get_violation"
	RaiseName        = NamePrefix + "raise"
	WarnName         = NamePrefix + "warn"
	ClsStackName     = NamePrefix + "cls_stack"
)

// PithPlaceholder stands for the root pith in rendered expression templates.
const PithPlaceholder = "{pith}"

// ObjPlaceholder stands for the checked value in validator code templates.
const ObjPlaceholder = "{obj}"

// ElemParamPrefix prefixes the parameters of generated element predicates;
// the nesting depth is appended.
const ElemParamPrefix = NamePrefix + "e"
