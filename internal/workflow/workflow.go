// Package workflow manages multi-agent workflow definitions: small directed
// graphs whose nodes name agents. Execution is a single-path walk from the
// start node; branching conditions are not modeled.
package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// NodeType distinguishes graph roles.
type NodeType string

const (
	NodeAgent        NodeType = "agent"
	NodeOrchestrator NodeType = "orchestrator"
	NodeStart        NodeType = "start"
	NodeEnd          NodeType = "end"
)

// Node is one step of a workflow.
type Node struct {
	ID      string   `json:"id"`
	Type    NodeType `json:"type"`
	AgentID string   `json:"agent_id,omitempty"`
	Label   string   `json:"label,omitempty"`
}

// Edge connects two nodes.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Workflow is a stored definition.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Nodes       []Node    `json:"nodes"`
	Edges       []Edge    `json:"edges"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks structural rules: a name and ID, at least one node, unique
// node IDs, edges referencing real nodes, and an agent on every agent or
// orchestrator node. It returns every violation, not just the first.
func (w *Workflow) Validate() []string {
	var errs []string
	if w.ID == "" {
		errs = append(errs, "workflow id is required")
	}
	if w.Name == "" {
		errs = append(errs, "workflow name is required")
	}
	if len(w.Nodes) == 0 {
		errs = append(errs, "workflow must have at least one node")
	}

	ids := make(map[string]bool, len(w.Nodes))
	for _, n := range w.Nodes {
		if ids[n.ID] {
			errs = append(errs, fmt.Sprintf("duplicate node id %q", n.ID))
		}
		ids[n.ID] = true
		switch n.Type {
		case NodeAgent, NodeOrchestrator, "":
			if n.AgentID == "" {
				errs = append(errs, fmt.Sprintf("node %q requires an agent", n.ID))
			}
		}
	}
	for _, e := range w.Edges {
		if !ids[e.Source] {
			errs = append(errs, fmt.Sprintf("edge source %q references non-existent node", e.Source))
		}
		if !ids[e.Target] {
			errs = append(errs, fmt.Sprintf("edge target %q references non-existent node", e.Target))
		}
	}
	return errs
}

// Path resolves the execution order: start at the node with no incoming
// edge and follow outgoing edges until a node has none. Returns the agent
// IDs in order. Fails on cycles, forks, and graphs with no clear start.
func (w *Workflow) Path() ([]string, error) {
	if len(w.Nodes) == 0 {
		return nil, errors.New("workflow has no nodes")
	}

	incoming := map[string]int{}
	next := map[string]string{}
	for _, e := range w.Edges {
		incoming[e.Target]++
		if _, dup := next[e.Source]; dup {
			return nil, fmt.Errorf("node %q has more than one outgoing edge", e.Source)
		}
		next[e.Source] = e.Target
	}

	byID := make(map[string]Node, len(w.Nodes))
	var start string
	for _, n := range w.Nodes {
		byID[n.ID] = n
		if incoming[n.ID] == 0 {
			if start != "" {
				return nil, errors.New("workflow has more than one start node")
			}
			start = n.ID
		}
	}
	if start == "" {
		return nil, errors.New("workflow has no start node (cycle)")
	}

	var agents []string
	visited := map[string]bool{}
	for id := start; id != ""; id = next[id] {
		if visited[id] {
			return nil, errors.New("workflow contains a cycle")
		}
		visited[id] = true
		n := byID[id]
		if n.AgentID != "" {
			agents = append(agents, n.AgentID)
		}
	}
	if len(visited) != len(w.Nodes) {
		return nil, errors.New("workflow has unreachable nodes")
	}
	return agents, nil
}

// Registry is the file-backed workflow store. Safe for concurrent use.
type Registry struct {
	path   string
	mu     sync.RWMutex
	logger *log.Logger
}

// NewRegistry opens (or lazily creates) the registry file.
func NewRegistry(path string, logger *log.Logger) *Registry {
	return &Registry{path: path, logger: logger}
}

// List returns all workflows sorted by ID.
func (r *Registry) List() ([]Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]Workflow, 0, len(all))
	for _, w := range all {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns a workflow, or (nil, nil) when unknown.
func (r *Registry) Get(id string) (*Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all, err := r.load()
	if err != nil {
		return nil, err
	}
	w, ok := all[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

// Save creates or updates a workflow after validation.
func (r *Registry) Save(w *Workflow) error {
	if errs := w.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid workflow: %v", errs)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if existing, ok := all[w.ID]; ok {
		w.CreatedAt = existing.CreatedAt
	} else {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	all[w.ID] = *w
	return r.save(all)
}

// Delete removes a workflow; false means it did not exist.
func (r *Registry) Delete(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load()
	if err != nil {
		return false, err
	}
	if _, ok := all[id]; !ok {
		return false, nil
	}
	delete(all, id)
	return true, r.save(all)
}

func (r *Registry) load() (map[string]Workflow, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Workflow{}, nil
		}
		return nil, fmt.Errorf("read workflows: %w", err)
	}
	if len(data) == 0 {
		return map[string]Workflow{}, nil
	}
	all := map[string]Workflow{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("decode workflows: %w", err)
	}
	return all, nil
}

func (r *Registry) save(all map[string]Workflow) error {
	data, err := json.MarshalIndent(all, "", "  ")
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
