// Package warnings delivers non-fatal diagnostics.
//
// Warnings go to a process-wide Handler (slog by default). Code that must
// not attribute warnings to the wrong call site records them in a Recorder
// and re-issues them once the call site is known.
package warnings

import (
	"log/slog"
	"sync"

	"github.com/funvibe/hintguard/internal/diagnostics"
)

// Category classifies a warning.
type Category string

const (
	Deprecation Category = "deprecation"
	Violation   Category = "violation"
	Validator   Category = "validator"
)

// Warning is a single non-fatal diagnostic.
type Warning struct {
	Category Category
	Message  string
	// Payload carries the structured value behind the message, e.g. a
	// *diagnostics.ViolationWarning.
	Payload any
}

// Sink accepts warnings.
type Sink interface {
	Warn(Warning)
}

// Handler receives emitted warnings.
type Handler interface {
	Handle(Warning)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Warning)

func (f HandlerFunc) Handle(w Warning) { f(w) }

type slogHandler struct{}

func (slogHandler) Handle(w Warning) {
	slog.Warn(w.Message, "category", string(w.Category))
}

var (
	handlerMu sync.RWMutex
	handler   Handler = slogHandler{}
)

// SetHandler installs h as the process-wide handler and returns a function
// restoring the previous one. A nil h restores the slog handler.
func SetHandler(h Handler) (restore func()) {
	if h == nil {
		h = slogHandler{}
	}
	handlerMu.Lock()
	prev := handler
	handler = h
	handlerMu.Unlock()
	return func() {
		handlerMu.Lock()
		handler = prev
		handlerMu.Unlock()
	}
}

// Emit delivers w to the current handler.
func Emit(w Warning) {
	handlerMu.RLock()
	h := handler
	handlerMu.RUnlock()
	h.Handle(w)
}

// Emitter is a Sink that emits immediately.
type Emitter struct{}

func (Emitter) Warn(w Warning) { Emit(w) }

// Recorder is a Sink that holds warnings until Reissue.
type Recorder struct {
	mu       sync.Mutex
	warnings []Warning
}

func (r *Recorder) Warn(w Warning) {
	r.mu.Lock()
	r.warnings = append(r.warnings, w)
	r.mu.Unlock()
}

// Warnings returns the recorded warnings in order.
func (r *Recorder) Warnings() []Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Warning(nil), r.warnings...)
}

// Reissue emits every recorded warning with the call-site placeholder
// replaced by target, then clears the recorder.
func (r *Recorder) Reissue(target string) {
	r.mu.Lock()
	ws := r.warnings
	r.warnings = nil
	r.mu.Unlock()

	for _, w := range ws {
		w.Message = diagnostics.Substitute(w.Message, target)
		Emit(w)
	}
}
