package violation

import (
	"strings"
	"sync"

	"github.com/funvibe/hintguard/internal/config"
	"github.com/funvibe/hintguard/internal/diagnostics"
	"github.com/funvibe/hintguard/internal/vm"
	"github.com/funvibe/hintguard/pkg/hint"
)

const validatorFuncName = config.NamePrefix + "validator"

// validatorPrograms caches loaded single-validator programs by validator ID.
var validatorPrograms sync.Map // string -> *vm.Program

// Loader loads single-validator programs.
var Loader vm.Loader = vm.ASTLoader{}

// evalValidator runs one validator's code against obj.
func evalValidator(v hint.Validator, obj any, args map[string]any) (bool, error) {
	p, err := validatorProgram(v)
	if err != nil {
		return false, err
	}
	in := make([]any, len(p.Params))
	in[0] = obj
	for i, name := range p.Params[1:] {
		in[i+1] = args[name]
	}
	ok, _ := p.Call(in...).(bool)
	return ok, nil
}

func validatorProgram(v hint.Validator) (*vm.Program, error) {
	if p, ok := validatorPrograms.Load(v.ID()); ok {
		return p.(*vm.Program), nil
	}

	var src strings.Builder
	src.WriteString("func " + validatorFuncName + "(" + config.PithName + " any")
	for _, a := range v.RemainingArgs() {
		src.WriteString(", " + a + " any")
	}
	src.WriteString(") bool {\n\treturn ")
	src.WriteString(strings.ReplaceAll(v.Code(), config.ObjPlaceholder, config.PithName))
	src.WriteString("\n}\n")

	p, err := Loader.Load(validatorFuncName, src.String(), v.Locals())
	if err != nil {
		return nil, diagnostics.NewInvalidGeneratedCodeError(validatorFuncName, src.String(), err)
	}
	actual, _ := validatorPrograms.LoadOrStore(v.ID(), p)
	return actual.(*vm.Program), nil
}
