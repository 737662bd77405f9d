// Package registry holds the prompt templates used by the reasoning steps.
// Templates ship as embedded defaults and can be overridden from a YAML file.
package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Prompts holds the system prompts for the reasoning steps. Only the
// evaluator and synthesizer call the reasoner; planning and recall are pure.
type Prompts struct {
	Evaluator   string `yaml:"evaluator"`
	Synthesizer string `yaml:"synthesizer"`
}

// DefaultPrompts returns the built-in prompt set.
func DefaultPrompts() Prompts {
	return Prompts{
		Evaluator: "You are a fantasy hockey analyst. For each listed roster player, " +
			"write one concise sentence explaining whether the player is safe to drop, " +
			"stating the key number. Respond with a JSON object mapping player ID to " +
			"rationale text, nothing else.",
		Synthesizer: "You are writing a weekly fantasy hockey recommendation summary. " +
			"Combine the droppable list, streaming plan and caveats into 2-3 readable " +
			"sentences. Respond with JSON: {\"summary\": \"...\"}.",
	}
}

// LoadPrompts reads prompt overrides from a YAML file. Fields left empty in
// the file keep their embedded defaults. An empty path returns the defaults.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prompts, eris.Wrap(err, "registry: read prompts file")
	}

	var overrides Prompts
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return prompts, eris.Wrap(err, "registry: unmarshal prompts")
	}

	if overrides.Evaluator != "" {
		prompts.Evaluator = overrides.Evaluator
	}
	if overrides.Synthesizer != "" {
		prompts.Synthesizer = overrides.Synthesizer
	}
	return prompts, nil
}
