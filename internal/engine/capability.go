// Package engine implements the recommendation orchestration core: the
// historical analyst, player evaluator, strategy planner and synthesizer,
// coordinated by a bounded reason-then-act loop.
package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/blueline-sports/streamer-cli/internal/model"
	"github.com/blueline-sports/streamer-cli/internal/resilience"
	"github.com/blueline-sports/streamer-cli/pkg/anthropic"
	"github.com/blueline-sports/streamer-cli/pkg/retrieval"
)

// Task identifies one sub-task of a run. The orchestrator maps tasks to
// capability implementations through an explicit registry rather than
// dispatching by name.
type Task string

const (
	TaskRecall     Task = "recall"
	TaskAssess     Task = "assess"
	TaskPlan       Task = "plan"
	TaskSynthesize Task = "synthesize"
)

// taskComponents maps each task to the component the degradation policy
// knows it by.
var taskComponents = map[Task]resilience.Component{
	TaskRecall:     resilience.ComponentAnalyst,
	TaskAssess:     resilience.ComponentEvaluator,
	TaskPlan:       resilience.ComponentPlanner,
	TaskSynthesize: resilience.ComponentSynthesizer,
}

// Reasoner is the opaque LLM reasoning capability: a prompt in, a text
// response out. Provider specifics stay behind this interface.
type Reasoner interface {
	Reason(ctx context.Context, system, prompt string) (string, error)
}

// anthropicReasoner adapts the Anthropic client to the Reasoner capability.
type anthropicReasoner struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewReasoner wraps an Anthropic client as a Reasoner.
func NewReasoner(client anthropic.Client, model string, maxTokens int64) Reasoner {
	return &anthropicReasoner{client: client, model: model, maxTokens: maxTokens}
}

func (r *anthropicReasoner) Reason(ctx context.Context, system, prompt string) (string, error) {
	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		System:    system,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(r.model, "reason")
	return resp.Text(), nil
}

// parseJSONResponse extracts a JSON object from a reasoning response,
// tolerating surrounding prose and markdown fences.
func parseJSONResponse(component string, text string, out any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return resilience.NewValidationError(component, eris.New("no JSON object in response"))
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), out); err != nil {
		return resilience.NewValidationError(component, err)
	}
	return nil
}

// Retriever is the semantic-retrieval capability over past recommendation
// records.
type Retriever interface {
	Query(ctx context.Context, text string, topK int) ([]model.HistoricalRecord, error)
}

// retrievalBackend adapts the retrieval service client to the Retriever
// capability, mapping retryable HTTP statuses to transient errors.
type retrievalBackend struct {
	client retrieval.Client
}

// NewRetriever wraps a retrieval service client as a Retriever.
func NewRetriever(client retrieval.Client) Retriever {
	return &retrievalBackend{client: client}
}

func (b *retrievalBackend) Query(ctx context.Context, text string, topK int) ([]model.HistoricalRecord, error) {
	resp, err := b.client.Query(ctx, retrieval.QueryRequest{Text: text, TopK: topK})
	if err != nil {
		var se *retrieval.StatusError
		if eris.As(err, &se) && resilience.IsTransientHTTPStatus(se.Code) {
			return nil, resilience.NewTransientError(err, se.Code)
		}
		return nil, err
	}

	records := make([]model.HistoricalRecord, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		var rec model.HistoricalRecord
		if err := json.Unmarshal(hit.Document, &rec); err != nil {
			return nil, resilience.NewValidationError(string(resilience.ComponentAnalyst), err)
		}
		if rec.ID == "" {
			rec.ID = hit.ID
		}
		rec.Similarity = hit.Score
		records = append(records, rec)
	}
	return records, nil
}
