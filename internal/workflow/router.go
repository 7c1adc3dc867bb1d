package workflow

import (
	"context"
	"fmt"
	"log"

	"tripweaver/internal/agentdef"
	"tripweaver/internal/provider"
)

// Router executes a workflow: the message walks the single agent path, each
// agent seeing the previous agent's output.
type Router struct {
	Workflows *Registry
	Agents    *agentdef.Registry
	LLM       provider.Provider
	Logger    *log.Logger
}

// Route runs the workflow's agent chain over a message and returns the final
// agent's output.
func (r *Router) Route(ctx context.Context, workflowID, message string) (string, error) {
	w, err := r.Workflows.Get(workflowID)
	if err != nil {
		return "", err
	}
	if w == nil {
		return "", fmt.Errorf("workflow %q not found", workflowID)
	}
	path, err := w.Path()
	if err != nil {
		return "", fmt.Errorf("workflow %q: %w", workflowID, err)
	}
	if len(path) == 0 {
		return "", fmt.Errorf("workflow %q has no agent nodes", workflowID)
	}

	current := message
	for i, agentID := range path {
		agent, err := r.Agents.Get(agentID)
		if err != nil {
			return "", err
		}
		if agent == nil {
			return "", fmt.Errorf("workflow %q references unknown agent %q", workflowID, agentID)
		}

		comp, err := r.LLM.Complete(ctx, []provider.Message{
			{Role: provider.RoleSystem, Content: agent.SystemPrompt},
			{Role: provider.RoleUser, Content: current},
		}, nil)
		if err != nil {
			return "", fmt.Errorf("agent %q (step %d): %w", agentID, i+1, err)
		}
		if r.Logger != nil {
			r.Logger.Printf("workflow %s step %d/%d agent %s produced %d chars", workflowID, i+1, len(path), agentID, len(comp.Text))
		}
		current = comp.Text
	}
	return current, nil
}
