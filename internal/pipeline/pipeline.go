package pipeline

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Stages after the first failing one are
// skipped; ctx.Err holds the failure.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		if ctx.Err != nil {
			break
		}
		ctx = processor.Process(ctx)
	}
	return ctx
}

// Checker builds the pipeline turning a hint into a checker artifact.
func Checker(c Compilers) *Pipeline {
	return New(
		ConfProcessor{},
		CanonProcessor{},
		CompileProcessor{Compiler: c.Compiler},
		PortabilityProcessor{},
		SynthesisProcessor{Synthesizer: c.Synthesizer},
	)
}
