// Package openai provides a Completer implementation for OpenAI-compatible
// chat-completions APIs. It serves OpenAI itself, OpenRouter, and any custom
// endpoint that speaks the same wire format.
package openai

import (
	"context"

	"github.com/voxenlabs/voxgate/pkg/chats/message"
	"github.com/voxenlabs/voxgate/pkg/modeladapter"
)

const (
	completionsPath = "/chat/completions"
	modelsPath      = "/models"

	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

var (
	_ modeladapter.Completer   = (*Adapter)(nil)
	_ modeladapter.ModelLister = (*Adapter)(nil)
)

// Adapter implements modeladapter.Completer for OpenAI-compatible APIs.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter for the named provider. The baseURL should include
// the API version prefix (e.g. "https://api.openai.com/v1", no trailing
// slash); auth is a bearer token.
func New(providerName, baseURL, apiKey string) *Adapter {
	a := &Adapter{}
	a.Provider = providerName
	a.Family = modeladapter.FamilyOpenAI
	a.BaseURL = baseURL
	a.Auth = modeladapter.Auth{Key: apiKey}
	a.Temperature = defaultTemperature
	a.MaxTokens = defaultMaxTokens

	return a
}

// Complete posts the full message list unmodified, plus tuning parameters,
// and returns the first completion's content.
func (a *Adapter) Complete(ctx context.Context, msgs []message.Message, model string) (string, error) {
	req := apiRequest{
		Model:       model,
		Messages:    make([]apiMessage, 0, len(msgs)),
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
		Stream:      false,
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, apiMessage{Role: m.Role.String(), Content: m.Content})
	}

	var resp apiResponse
	if err := a.PostJSON(ctx, completionsPath, req, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", &modeladapter.Error{
			Kind:     modeladapter.KindUnexpected,
			Provider: a.Provider,
			Message:  "no choices in response",
		}
	}

	return resp.Choices[0].Message.Content, nil
}

// ListModels queries the provider's model discovery endpoint and returns the
// model identifiers in the order the provider reports them.
func (a *Adapter) ListModels(ctx context.Context) ([]string, error) {
	var resp modelsResponse
	if err := a.GetJSON(ctx, modelsPath, &resp); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		names = append(names, m.ID)
	}

	return names, nil
}

// --- request types ---

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
	Stream      bool         `json:"stream"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- response types ---

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
}

type apiChoice struct {
	Message apiMessage `json:"message"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}
