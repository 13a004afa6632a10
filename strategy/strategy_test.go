package strategy

import (
	"context"
	"sync"

	"github.com/stridekit/stride/core"
	"github.com/stridekit/stride/model"
)

// stubModel is a scriptable model for strategy tests. Results are consumed in
// FIFO order; errAt injects a failure at a given 1-based call index, and a
// non-nil block channel makes every call hang until closed (or the context
// ends), which the abort tests rely on.
type stubModel struct {
	mu     sync.Mutex
	script []*model.Result
	errAt  map[int]error
	block  chan struct{}

	// defaultFn produces the result once the script is exhausted (plain
	// text when nil). Lets tests model an always-proposing model.
	defaultFn func() *model.Result

	calls [][]core.Message
}

func (s *stubModel) Info() model.Info {
	return model.Info{Name: "stub", Provider: "mock", SupportsTools: true}
}

func (s *stubModel) next(ctx context.Context, messages []core.Message) (*model.Result, error) {
	if s.block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.block:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]core.Message, len(messages))
	copy(msgs, messages)
	s.calls = append(s.calls, msgs)

	if err, ok := s.errAt[len(s.calls)]; ok {
		return nil, err
	}
	if len(s.script) > 0 {
		r := s.script[0]
		s.script = s.script[1:]
		return r, nil
	}
	if s.defaultFn != nil {
		return s.defaultFn(), nil
	}
	return textResult("stub response"), nil
}

func (s *stubModel) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubModel) callMessages(i int) []core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}

// Infer implements model.Model.
func (s *stubModel) Infer(ctx context.Context, messages []core.Message) (*model.Result, error) {
	return s.next(ctx, messages)
}

// InferStream implements model.Model; one delta then the terminal result.
func (s *stubModel) InferStream(ctx context.Context, messages []core.Message) (<-chan model.StreamEvent, <-chan error) {
	out := make(chan model.StreamEvent, 4)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		res, err := s.next(ctx, messages)
		if err != nil {
			errCh <- err
			return
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			return
		case out <- model.StreamEvent{Type: "delta", Text: res.Text}:
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case out <- model.StreamEvent{Type: model.StreamEventResult, Result: res}:
		}
	}()

	return out, errCh
}

// textResult builds a plain assistant response.
func textResult(text string) *model.Result {
	return &model.Result{
		Text:     text,
		Messages: []core.Message{core.NewAssistantMessage(text)},
		Usage:    model.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// toolCallResult builds a response proposing the given calls.
func toolCallResult(text string, calls ...core.ToolCall) *model.Result {
	r := textResult(text)
	r.Messages = []core.Message{{Role: core.RoleAssistant, Content: text, ToolCalls: calls}}
	r.ToolCalls = calls
	return r
}
