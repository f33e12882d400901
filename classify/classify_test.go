package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tenantmesh/core"
)

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt([]core.NodeInfo{
		{Name: "calendar", Description: "Books meetings."},
		{Name: "email", Description: "Drafts and sends mail."},
	})

	assert.Contains(t, prompt, "- calendar: Books meetings.")
	assert.Contains(t, prompt, "- email: Drafts and sends mail.")
	assert.Contains(t, prompt, "next_capability_id")
	assert.Contains(t, prompt, "direct_response")
}

func TestParseDecision(t *testing.T) {
	dec, err := ParseDecision(`{"next_capability_id": "calendar", "rationale": "scheduling", "required_tool_ids": ["calendar"]}`)
	require.NoError(t, err)
	assert.Equal(t, "calendar", dec.Next)
	assert.Equal(t, "scheduling", dec.Rationale)
	assert.Equal(t, []string{"calendar"}, dec.RequiredToolIDs)
	assert.False(t, dec.DecidedAt.IsZero())
}

func TestParseDecision_CodeFences(t *testing.T) {
	raw := "```json\n{\"next_capability_id\": \"\", \"direct_response\": \"Hi!\"}\n```"
	dec, err := ParseDecision(raw)
	require.NoError(t, err)
	assert.Empty(t, dec.Next)
	assert.Equal(t, "Hi!", dec.DirectResponse)
}

func TestParseDecision_Invalid(t *testing.T) {
	_, err := ParseDecision("I think you should use the calendar.")
	assert.Error(t, err)
}
