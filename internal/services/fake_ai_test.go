package services

import (
	"context"
	"fmt"
	"sync"

	contextutils "studyapp/internal/utils"
)

// fakeAIClient replays a scripted sequence of responses. Each scripted step
// is either a payload or an error, consumed in order across both Generate
// and GenerateJSON.
type fakeAIClient struct {
	mu      sync.Mutex
	steps   []fakeStep
	calls   int
	prompts []string
}

type fakeStep struct {
	payload string
	err     error
}

func respond(payload string) fakeStep { return fakeStep{payload: payload} }
func fail(err error) fakeStep         { return fakeStep{err: err} }

// transientFailure is a provider-side fault the retry wrapper should retry.
func transientFailure() fakeStep {
	return fail(contextutils.WrapError(contextutils.ErrAIProviderUnavailable, "upstream 503"))
}

func newFakeAIClient(steps ...fakeStep) *fakeAIClient {
	return &fakeAIClient{steps: steps}
}

func (f *fakeAIClient) next(prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.calls >= len(f.steps) {
		return "", contextutils.WrapError(contextutils.ErrAIRequestFailed, "fake client script exhausted")
	}
	step := f.steps[f.calls]
	f.calls++
	return step.payload, step.err
}

func (f *fakeAIClient) Generate(_ context.Context, prompt string) (string, error) {
	return f.next(prompt)
}

func (f *fakeAIClient) GenerateJSON(_ context.Context, prompt string) (string, error) {
	return f.next(prompt)
}

func (f *fakeAIClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAIClient) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// seqIDGenerator yields deterministic IDs for assertions.
type seqIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}
