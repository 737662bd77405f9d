package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPromptsComplete(t *testing.T) {
	p := DefaultPrompts()
	if p.Evaluator == "" || p.Synthesizer == "" {
		t.Fatalf("default prompt set has empty entries: %+v", p)
	}
}

func TestLoadPromptsEmptyPathReturnsDefaults(t *testing.T) {
	p, err := LoadPrompts("")
	if err != nil {
		t.Fatalf("LoadPrompts: %v", err)
	}
	if p != DefaultPrompts() {
		t.Error("empty path should return embedded defaults")
	}
}

func TestLoadPromptsPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := "evaluator: \"Custom evaluator prompt.\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPrompts(path)
	if err != nil {
		t.Fatalf("LoadPrompts: %v", err)
	}
	if p.Evaluator != "Custom evaluator prompt." {
		t.Errorf("evaluator = %q, want override", p.Evaluator)
	}
	if p.Synthesizer != DefaultPrompts().Synthesizer {
		t.Error("fields absent from the file must keep their defaults")
	}
}

func TestLoadPromptsMissingFile(t *testing.T) {
	if _, err := LoadPrompts(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing prompts file")
	}
}

func TestLoadPromptsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte("evaluator: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPrompts(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
