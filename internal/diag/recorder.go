package diag

import "sync"

// Recorder is a Reporter that records diagnostics for test assertions.
type Recorder struct {
	mu   sync.Mutex
	seen []Diagnostic
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report appends the diagnostic.
func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	r.seen = append(r.seen, d)
	r.mu.Unlock()
}

// All returns a copy of everything reported so far.
func (r *Recorder) All() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.seen))
	copy(out, r.seen)
	return out
}

// OfKind returns the recorded diagnostics matching kind.
func (r *Recorder) OfKind(kind Kind) []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Diagnostic
	for _, d := range r.seen {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Reset clears recorded diagnostics.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.seen = nil
	r.mu.Unlock()
}
