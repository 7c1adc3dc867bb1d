package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tripweaver/internal/agentdef"
	"tripweaver/internal/provider"
)

type scriptedLLM struct {
	calls []string // system prompts seen
	fail  bool
}

func (s *scriptedLLM) Complete(_ context.Context, messages []provider.Message, _ []provider.ToolDef) (provider.Completion, error) {
	if s.fail {
		return provider.Completion{}, errors.New("model unavailable")
	}
	s.calls = append(s.calls, messages[0].Content)
	return provider.Completion{Text: "refined: " + messages[1].Content}, nil
}

func newRouter(t *testing.T, llm provider.Provider) *Router {
	t.Helper()
	dir := t.TempDir()
	agents, err := agentdef.NewRegistry(filepath.Join(dir, "agents.json"), nil)
	if err != nil {
		t.Fatalf("agent registry: %v", err)
	}
	for _, a := range []*agentdef.Agent{
		{ID: "planner", Name: "Planner", SystemPrompt: "You draft itineraries."},
		{ID: "reviewer", Name: "Reviewer", SystemPrompt: "You tighten itineraries."},
	} {
		if err := agents.Save(a); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	workflows := NewRegistry(filepath.Join(dir, "workflows.json"), nil)
	if err := workflows.Save(linear("plan-review")); err != nil {
		t.Fatalf("Save workflow: %v", err)
	}
	return &Router{Workflows: workflows, Agents: agents, LLM: llm}
}

func TestRouteWalksAgentChain(t *testing.T) {
	llm := &scriptedLLM{}
	r := newRouter(t, llm)

	out, err := r.Route(context.Background(), "plan-review", "3 days in Bali")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if out != "refined: refined: 3 days in Bali" {
		t.Fatalf("out = %q", out)
	}
	if len(llm.calls) != 2 || llm.calls[0] != "You draft itineraries." || llm.calls[1] != "You tighten itineraries." {
		t.Fatalf("system prompts = %v", llm.calls)
	}
}

func TestRouteErrors(t *testing.T) {
	r := newRouter(t, &scriptedLLM{})
	if _, err := r.Route(context.Background(), "ghost", "hi"); err == nil {
		t.Fatal("unknown workflow accepted")
	}

	r = newRouter(t, &scriptedLLM{fail: true})
	if _, err := r.Route(context.Background(), "plan-review", "hi"); err == nil {
		t.Fatal("agent failure not surfaced")
	}
}
