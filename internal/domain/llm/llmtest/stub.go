// Package llmtest provides a scripted llm.Capability for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/janhq/drivethru-server/internal/domain/llm"
)

// Stub replays scripted responses per stage. Responses for a stage are
// consumed in order; the last one repeats once the script runs out.
type Stub struct {
	mu        sync.Mutex
	responses map[llm.Stage][]string
	errs      map[llm.Stage]error
	calls     []llm.Prompt
}

// NewStub creates an empty stub.
func NewStub() *Stub {
	return &Stub{
		responses: make(map[llm.Stage][]string),
		errs:      make(map[llm.Stage]error),
	}
}

// Respond queues responses for stage.
func (s *Stub) Respond(stage llm.Stage, responses ...string) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[stage] = append(s.responses[stage], responses...)
	return s
}

// Fail makes every call for stage return err.
func (s *Stub) Fail(stage llm.Stage, err error) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[stage] = err
	return s
}

// Generate implements llm.Capability.
func (s *Stub) Generate(ctx context.Context, prompt llm.Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, prompt)

	if err := s.errs[prompt.Stage]; err != nil {
		return "", err
	}
	queue := s.responses[prompt.Stage]
	if len(queue) == 0 {
		return "", fmt.Errorf("llmtest: no scripted response for stage %s", prompt.Stage)
	}
	out := queue[0]
	if len(queue) > 1 {
		s.responses[prompt.Stage] = queue[1:]
	}
	return out, nil
}

// Calls returns every prompt received so far.
func (s *Stub) Calls() []llm.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Prompt, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsFor counts prompts received for stage.
func (s *Stub) CallsFor(stage llm.Stage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Stage == stage {
			n++
		}
	}
	return n
}

var _ llm.Capability = (*Stub)(nil)
