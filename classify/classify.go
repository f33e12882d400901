// Package classify provides model-backed implementations of the
// core.Classifier contract. Adapters share a single JSON decision contract:
// the model sees the registered node catalog and answers with the node to
// dispatch, or a direct response when no specialist is needed.
package classify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/tenantmesh/core"
)

// BuildSystemPrompt renders the routing instructions including the node
// catalog the model may choose from.
func BuildSystemPrompt(nodes []core.NodeInfo) string {
	var b strings.Builder
	b.WriteString("You are a routing supervisor for a conversational workflow engine.\n")
	b.WriteString("Decide which specialist handles the user's latest request.\n\n")
	b.WriteString("Available specialists:\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "- %s: %s\n", n.Name, n.Description)
	}
	b.WriteString("\nAnswer with a single JSON object, no prose, matching:\n")
	b.WriteString(`{"next_capability_id": "<specialist name or empty string>", ` +
		`"rationale": "<one sentence>", ` +
		`"required_tool_ids": ["<capability ids the step will call>"], ` +
		`"direct_response": "<reply text, only when next_capability_id is empty>"}`)
	b.WriteString("\nUse an empty next_capability_id with a direct_response when no specialist is needed.")
	return b.String()
}

// ParseDecision decodes a model answer into a routing decision, tolerating
// markdown code fences around the JSON object.
func ParseDecision(raw string) (core.RoutingDecision, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var dec core.RoutingDecision
	if err := json.Unmarshal([]byte(trimmed), &dec); err != nil {
		return core.RoutingDecision{}, fmt.Errorf("decode routing decision: %w", err)
	}
	dec.DecidedAt = time.Now().UTC()
	return dec, nil
}
