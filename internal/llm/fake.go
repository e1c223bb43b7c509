package llm

import (
	"context"
	"sync"
	"time"
)

// FakeResponse is one scripted reply.
type FakeResponse struct {
	Text  string
	Err   error
	Delay time.Duration // Waits before replying; cut short by the context
}

// Fake is an in-memory Generator that replays scripted responses in order and
// records every request. When the script runs out, the last response repeats.
type Fake struct {
	mu        sync.Mutex
	responses []FakeResponse
	requests  []Request
	model     string
}

// NewFake returns a Fake that replies with the given texts.
func NewFake(texts ...string) *Fake {
	f := &Fake{model: "fake"}
	for _, t := range texts {
		f.responses = append(f.responses, FakeResponse{Text: t})
	}
	return f
}

// Push appends scripted responses.
func (f *Fake) Push(responses ...FakeResponse) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, responses...)
	return f
}

// Generate records req and returns the next scripted response.
func (f *Fake) Generate(ctx context.Context, req Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	var resp FakeResponse
	switch len(f.responses) {
	case 0:
		f.mu.Unlock()
		return "", &ServiceError{Provider: f.model, Msg: "no scripted response"}
	case 1:
		resp = f.responses[0]
	default:
		resp = f.responses[0]
		f.responses = f.responses[1:]
	}
	f.mu.Unlock()

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-ctx.Done():
			return "", &ServiceError{Provider: f.model, Msg: "request cancelled", Err: ctx.Err()}
		}
	}
	if resp.Err != nil {
		return "", resp.Err
	}
	return resp.Text, nil
}

func (f *Fake) Model() string {
	return f.model
}

// Requests returns a copy of every request received so far.
func (f *Fake) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// Calls returns how many requests were received.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}
