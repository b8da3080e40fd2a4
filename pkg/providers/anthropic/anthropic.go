// Package anthropic provides a Completer implementation for the Anthropic Messages API.
package anthropic

import (
	"context"

	"github.com/voxenlabs/voxgate/pkg/chats/message"
	"github.com/voxenlabs/voxgate/pkg/chats/role"
	"github.com/voxenlabs/voxgate/pkg/modeladapter"
)

const (
	messagesPath = "/messages"

	defaultMaxTokens = 1000
)

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer for the Anthropic Messages API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter configured for the Anthropic API. The baseURL
// should include the version prefix (e.g. "https://api.anthropic.com/v1",
// no trailing slash). The key is sent via the x-api-key header, not
// Authorization.
func New(providerName, baseURL, apiKey string) *Adapter {
	a := &Adapter{}
	a.Provider = providerName
	a.Family = modeladapter.FamilyAnthropic
	a.BaseURL = baseURL
	a.Auth = modeladapter.Auth{
		Key:    apiKey,
		Header: "x-api-key",
	}
	a.MaxTokens = defaultMaxTokens
	a.Headers = map[string]string{
		"anthropic-version": "2023-06-01",
	}

	return a
}

// Complete sends the conversation to the Messages API and returns the first
// text block of the reply. The leading system message, if any, is carried in
// the request's dedicated system field rather than the messages array.
func (a *Adapter) Complete(ctx context.Context, msgs []message.Message, model string) (string, error) {
	req := apiRequest{
		Model:     model,
		MaxTokens: a.MaxTokens,
	}

	for _, m := range msgs {
		if m.Role == role.System {
			if req.System == "" {
				req.System = m.Content
			}
			continue
		}
		req.Messages = append(req.Messages, apiMessage{Role: m.Role.String(), Content: m.Content})
	}

	var resp apiResponse
	if err := a.PostJSON(ctx, messagesPath, req, &resp); err != nil {
		return "", err
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", &modeladapter.Error{
		Kind:     modeladapter.KindUnexpected,
		Provider: a.Provider,
		Message:  "no text block in response",
	}
}

// --- wire types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
	System    string       `json:"system,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
