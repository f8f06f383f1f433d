package testsupport

import (
	"context"
	"sync"

	"textloom/internal/services/textgen"
)

// GeneratorCall records one invocation of the fake generator.
type GeneratorCall struct {
	SystemPrompt string
	UserPrompt   string
	Model        textgen.Model
}

// FakeGenerator is a scriptable stand-in for the textgen client. Respond is
// consulted per call; a nil Respond echoes the prompt back. The fake tracks
// the highest number of concurrent in-flight calls it observed.
type FakeGenerator struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	calls    []GeneratorCall

	// Respond produces the scripted result for a call.
	Respond func(call GeneratorCall) (textgen.Result, error)
	// Block, when non-nil, is closed by the test to release in-flight calls.
	Block chan struct{}
}

func (f *FakeGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, model textgen.Model) (textgen.Result, error) {
	call := GeneratorCall{SystemPrompt: systemPrompt, UserPrompt: userPrompt, Model: model}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	block := f.Block
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return textgen.Result{}, ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return textgen.Result{}, ctx.Err()
	}

	if f.Respond == nil {
		return textgen.Result{Text: "generated: " + userPrompt}, nil
	}
	return f.Respond(call)
}

// Calls returns a copy of the recorded invocations.
func (f *FakeGenerator) Calls() []GeneratorCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]GeneratorCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many generations were attempted.
func (f *FakeGenerator) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// PeakConcurrency returns the highest number of simultaneous in-flight calls.
func (f *FakeGenerator) PeakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}
