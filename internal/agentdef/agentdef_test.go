package agentdef

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(filepath.Join(t.TempDir(), "agents.json"), nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestSeedsDefaultAgent(t *testing.T) {
	r := newTestRegistry(t)
	a, err := r.Get(DefaultAgentID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a == nil || a.SystemPrompt == "" {
		t.Fatalf("default agent not seeded: %+v", a)
	}
}

func TestSaveGetDelete(t *testing.T) {
	r := newTestRegistry(t)

	a := &Agent{ID: "foodie", Name: "Foodie Guide", SystemPrompt: "Plan trips around eating."}
	if err := r.Save(a); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}

	got, err := r.Get("foodie")
	if err != nil || got == nil {
		t.Fatalf("Get: (%+v, %v)", got, err)
	}

	// update keeps CreatedAt
	created := got.CreatedAt
	got.Description = "updated"
	if err := r.Save(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, _ := r.Get("foodie")
	if !again.CreatedAt.Equal(created) {
		t.Fatal("update changed CreatedAt")
	}

	ok, err := r.Delete("foodie")
	if err != nil || !ok {
		t.Fatalf("Delete: (%v, %v)", ok, err)
	}
	if gone, _ := r.Get("foodie"); gone != nil {
		t.Fatal("agent survived delete")
	}
	if ok, _ := r.Delete("foodie"); ok {
		t.Fatal("second delete should report missing")
	}
}

func TestDefaultAgentProtected(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Delete(DefaultAgentID); err == nil {
		t.Fatal("default agent should not be deletable")
	}
}

func TestSaveValidation(t *testing.T) {
	r := newTestRegistry(t)
	for _, a := range []*Agent{
		{Name: "n", SystemPrompt: "p"},
		{ID: "x", SystemPrompt: "p"},
		{ID: "x", Name: "n"},
	} {
		if err := r.Save(a); err == nil {
			t.Fatalf("expected validation error for %+v", a)
		}
	}
}

func TestPromptFromFile(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry(filepath.Join(dir, "agents.json"), nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "foodie.txt"), []byte("Plan trips around eating.\n"), 0o644); err != nil {
		t.Fatalf("write prompt file: %v", err)
	}

	if err := r.Save(&Agent{ID: "foodie", Name: "Foodie Guide", PromptFile: "foodie.txt"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := r.Get("foodie")
	if err != nil || got == nil {
		t.Fatalf("Get: (%+v, %v)", got, err)
	}
	prompt, err := r.Prompt(got)
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if prompt != "Plan trips around eating." {
		t.Fatalf("prompt = %q", prompt)
	}

	// inline text wins when both are present
	inline := &Agent{ID: "both", SystemPrompt: "inline wins", PromptFile: "foodie.txt"}
	if p, err := r.Prompt(inline); err != nil || p != "inline wins" {
		t.Fatalf("Prompt: (%q, %v)", p, err)
	}
}

func TestSaveRejectsMissingPromptFile(t *testing.T) {
	r := newTestRegistry(t)
	a := &Agent{ID: "ghost", Name: "Ghost", PromptFile: "does-not-exist.txt"}
	if err := r.Save(a); err == nil {
		t.Fatal("expected validation error for a dangling prompt_file")
	}
}

func TestToolEnabled(t *testing.T) {
	open := &Agent{}
	if !open.ToolEnabled("search_flights") {
		t.Fatal("empty allowlist should enable everything")
	}
	limited := &Agent{Tools: []string{"fetch_articles"}}
	if limited.ToolEnabled("search_flights") || !limited.ToolEnabled("fetch_articles") {
		t.Fatal("allowlist not honored")
	}
}

func TestListSorted(t *testing.T) {
	r := newTestRegistry(t)
	_ = r.Save(&Agent{ID: "zeta", Name: "Z", SystemPrompt: "p"})
	_ = r.Save(&Agent{ID: "alpha", Name: "A", SystemPrompt: "p"})
	list, err := r.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].ID != "alpha" {
		t.Fatalf("got %+v", list)
	}
}
