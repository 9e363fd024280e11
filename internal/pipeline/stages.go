package pipeline

import (
	"reflect"

	"github.com/funvibe/hintguard/internal/canon"
	"github.com/funvibe/hintguard/internal/codegen"
	"github.com/funvibe/hintguard/internal/compiler"
	"github.com/funvibe/hintguard/internal/config"
	"github.com/funvibe/hintguard/internal/diagnostics"
	"github.com/funvibe/hintguard/internal/typesystem"
	"github.com/funvibe/hintguard/internal/warnings"
	"github.com/funvibe/hintguard/pkg/hint"
)

// PipelineContext carries one checker request through the stages.
type PipelineContext struct {
	Hint     hint.Hint
	HintRepr string
	Conf     config.Conf
	ClsStack []reflect.Type
	Kind     codegen.Kind
	Site     config.CallSite
	// Warnings collects warnings raised while building; they still carry
	// the call-site placeholder.
	Warnings *warnings.Recorder

	Canonical typesystem.Type
	Check     *compiler.CompiledCheck
	Artifact  *codegen.Artifact
	Err       error
}

// NewContext creates a context for building a checker for h.
func NewContext(h hint.Hint, conf config.Conf, clsStack []reflect.Type, kind codegen.Kind, site config.CallSite) *PipelineContext {
	return &PipelineContext{
		Hint:     h,
		HintRepr: hint.Repr(h),
		Conf:     conf,
		ClsStack: clsStack,
		Kind:     kind,
		Site:     site,
		Warnings: &warnings.Recorder{},
	}
}

// Ignorable reports whether the hint needs no checking at all.
func (ctx *PipelineContext) Ignorable() bool {
	return ctx.Canonical != nil && ctx.Canonical.Kind() == typesystem.KindIgnorable
}

// Processor is a single pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Compilers are the stateful collaborators of the checker pipeline.
type Compilers struct {
	Compiler    *compiler.Compiler
	Synthesizer *codegen.Synthesizer
}

// ConfProcessor validates and normalizes the configuration.
type ConfProcessor struct{}

func (ConfProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if err := ctx.Conf.Validate(); err != nil {
		ctx.Err = err
		return ctx
	}
	ctx.Conf = ctx.Conf.Normalize()
	return ctx
}

// CanonProcessor canonicalizes the hint.
type CanonProcessor struct{}

func (CanonProcessor) Process(ctx *PipelineContext) *PipelineContext {
	ctx.Canonical, ctx.Err = canon.Canonicalize(ctx.Hint, ctx.Conf, ctx.Warnings)
	return ctx
}

// CompileProcessor compiles the canonical hint.
type CompileProcessor struct {
	Compiler *compiler.Compiler
}

func (p CompileProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Ignorable() {
		return ctx
	}
	ctx.Check, ctx.Err = p.Compiler.Compile(ctx.Canonical, ctx.Conf, ctx.ClsStack)
	return ctx
}

// PortabilityProcessor rejects checks depending on relative forward
// references.
type PortabilityProcessor struct{}

func (PortabilityProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Check != nil && len(ctx.Check.Refs) > 0 {
		ctx.Err = diagnostics.NewPortabilityError(ctx.HintRepr, ctx.Check.Refs)
	}
	return ctx
}

// SynthesisProcessor generates and loads the checker function.
type SynthesisProcessor struct {
	Synthesizer *codegen.Synthesizer
}

func (p SynthesisProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Check == nil {
		return ctx
	}
	ctx.Artifact, ctx.Err = p.Synthesizer.Synthesize(codegen.Request{
		Check:    ctx.Check,
		Kind:     ctx.Kind,
		Conf:     ctx.Conf,
		Site:     ctx.Site,
		ClsStack: ctx.ClsStack,
		HintRepr: ctx.HintRepr,
	})
	return ctx
}
