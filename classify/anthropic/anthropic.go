// Package anthropic provides a core.Classifier backed by the Anthropic
// Messages API, using the shared JSON decision contract.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/tenantmesh/classify"
	"github.com/hupe1980/tenantmesh/core"
)

// Options configure the Anthropic classifier adapter (model id, temperature,
// max tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Classifier wraps the Anthropic Messages API behind the generic
// core.Classifier interface.
type Classifier struct {
	client *anthropic.Client
	opts   Options
}

// NewClassifier creates a new Anthropic classifier using the official client.
func NewClassifier(optFns ...func(o *Options)) *Classifier {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.0,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Classifier{client: &client, opts: opts}
}

// NewClassifierFromClient creates a new Anthropic classifier from an existing client.
func NewClassifierFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Classifier {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.0,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{client: client, opts: opts}
}

// Classify implements core.Classifier.
func (c *Classifier) Classify(ctx context.Context, messages []core.Message, nodes []core.NodeInfo) (core.RoutingDecision, error) {
	var chat []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case core.RoleUser:
			chat = append(chat, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case core.RoleAssistant:
			chat = append(chat, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.opts.Model,
		Messages:    chat,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: classify.BuildSystemPrompt(nodes)},
		},
	})
	if err != nil {
		return core.RoutingDecision{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}
	if text.Len() == 0 {
		return core.RoutingDecision{}, fmt.Errorf("anthropic returned no text content")
	}

	return classify.ParseDecision(text.String())
}
