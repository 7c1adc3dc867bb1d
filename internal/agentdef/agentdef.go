// Package agentdef manages agent definitions: the persona, system prompt,
// model routing, and tool allowlist the chat engine executes against. The
// registry is a single JSON file, edited through the admin API.
package agentdef

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultAgentID is seeded on first start and used when a chat request
// names no agent.
const DefaultAgentID = "travel-bot-default"

// Agent is one configured assistant persona. The system prompt is carried
// inline or referenced as a file; exactly one of the two must be set.
type Agent struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	PromptFile   string    `json:"prompt_file,omitempty"` // resolved relative to the registry directory
	Provider     string    `json:"provider,omitempty"`    // LLM routing name; empty uses the chat default
	Model        string    `json:"model,omitempty"`
	Tools        []string  `json:"tools,omitempty"` // enabled tool names; empty enables all
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToolEnabled reports whether the agent may use the named tool.
func (a *Agent) ToolEnabled(name string) bool {
	if len(a.Tools) == 0 {
		return true
	}
	for _, t := range a.Tools {
		if t == name {
			return true
		}
	}
	return false
}

// Registry is the file-backed agent store. Safe for concurrent use.
type Registry struct {
	path   string
	mu     sync.RWMutex
	logger *log.Logger
}

// NewRegistry opens (or creates) the registry file and seeds the default
// agent when the file is empty.
func NewRegistry(path string, logger *log.Logger) (*Registry, error) {
	r := &Registry{path: path, logger: logger}
	agents, err := r.load()
	if err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		agents[DefaultAgentID] = defaultAgent()
		if err := r.save(agents); err != nil {
			return nil, err
		}
		if logger != nil {
			logger.Printf("seeded default agent %s", DefaultAgentID)
		}
	}
	return r, nil
}

func defaultAgent() Agent {
	now := time.Now().UTC()
	return Agent{
		ID:          DefaultAgentID,
		Name:        "Travel Planner",
		Description: "Plans trips out of Singapore to supported destinations.",
		SystemPrompt: "You are a friendly travel planner for trips departing Singapore. " +
			"Build day-by-day itineraries matched to the traveler's duration, dates, budget, " +
			"and interests. Name real places and keep each day practical: no more than one " +
			"area of the city per day. When flight options are provided, mention the earliest " +
			"one in the arrival-day plan. Answer weather questions using the travel dates.",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// List returns all agents sorted by ID.
func (r *Registry) List() ([]Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agents, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]Agent, 0, len(agents))
	for _, a := range agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns an agent, or (nil, nil) when the ID is unknown.
func (r *Registry) Get(id string) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agents, err := r.load()
	if err != nil {
		return nil, err
	}
	a, ok := agents[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// Prompt returns the agent's system prompt, reading the prompt file when
// the definition references one instead of carrying the text inline.
func (r *Registry) Prompt(a *Agent) (string, error) {
	if a.SystemPrompt != "" {
		return a.SystemPrompt, nil
	}
	if a.PromptFile == "" {
		return "", fmt.Errorf("agent %s has no prompt", a.ID)
	}
	data, err := os.ReadFile(r.promptPath(a.PromptFile))
	if err != nil {
		return "", fmt.Errorf("prompt file for agent %s: %w", a.ID, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (r *Registry) promptPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(filepath.Dir(r.path), name)
}

// Save creates or updates an agent, keeping CreatedAt across updates.
func (r *Registry) Save(a *Agent) error {
	if err := r.validateAgent(a); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	agents, err := r.load()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if existing, ok := agents[a.ID]; ok {
		a.CreatedAt = existing.CreatedAt
	} else {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	agents[a.ID] = *a
	return r.save(agents)
}

// Delete removes an agent; false means it did not exist. The default agent
// cannot be deleted.
func (r *Registry) Delete(id string) (bool, error) {
	if id == DefaultAgentID {
		return false, errors.New("default agent cannot be deleted")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	agents, err := r.load()
	if err != nil {
		return false, err
	}
	if _, ok := agents[id]; !ok {
		return false, nil
	}
	delete(agents, id)
	return true, r.save(agents)
}

func (r *Registry) validateAgent(a *Agent) error {
	if a.ID == "" {
		return errors.New("agent id is required")
	}
	if a.Name == "" {
		return errors.New("agent name is required")
	}
	if a.SystemPrompt == "" && a.PromptFile == "" {
		return errors.New("agent needs a system_prompt or a prompt_file")
	}
	if a.PromptFile != "" {
		if _, err := os.Stat(r.promptPath(a.PromptFile)); err != nil {
			return fmt.Errorf("prompt_file %s: %w", a.PromptFile, err)
		}
	}
	return nil
}

func (r *Registry) load() (map[string]Agent, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Agent{}, nil
		}
		return nil, fmt.Errorf("read agents: %w", err)
	}
	if len(data) == 0 {
		return map[string]Agent{}, nil
	}
	agents := map[string]Agent{}
	if err := json.Unmarshal(data, &agents); err != nil {
		return nil, fmt.Errorf("decode agents: %w", err)
	}
	return agents, nil
}

func (r *Registry) save(agents map[string]Agent) error {
	data, err := json.MarshalIndent(agents, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}
