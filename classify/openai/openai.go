// Package openai provides a core.Classifier backed by the OpenAI Chat
// Completions API. It adapts the conversation history and node catalog into
// chat messages and decodes the shared JSON decision contract.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/tenantmesh/classify"
	"github.com/hupe1980/tenantmesh/core"
)

// Options configure the OpenAI classifier adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Classifier wraps the OpenAI Chat Completions API behind the generic
// core.Classifier interface.
type Classifier struct {
	client *openai.Client
	opts   Options
}

// NewClassifier creates a new OpenAI classifier using the official client.
func NewClassifier(optFns ...func(o *Options)) *Classifier {
	client := openai.NewClient()
	return NewClassifierFromClient(&client, optFns...)
}

// NewClassifierFromClient creates a new OpenAI classifier from an existing client.
func NewClassifierFromClient(client *openai.Client, optFns ...func(o *Options)) *Classifier {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.0,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{client: client, opts: opts}
}

// Classify implements core.Classifier.
func (c *Classifier) Classify(ctx context.Context, messages []core.Message, nodes []core.NodeInfo) (core.RoutingDecision, error) {
	chat := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	chat = append(chat, openai.SystemMessage(classify.BuildSystemPrompt(nodes)))
	for _, m := range messages {
		switch m.Role {
		case core.RoleUser:
			chat = append(chat, openai.UserMessage(m.Content))
		case core.RoleAssistant:
			chat = append(chat, openai.AssistantMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            chat,
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	})
	if err != nil {
		return core.RoutingDecision{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.RoutingDecision{}, fmt.Errorf("openai returned no choices")
	}

	return classify.ParseDecision(resp.Choices[0].Message.Content)
}
