// Package ollama provides a Completer implementation for a local Ollama
// runner's generate endpoint. No credential is required.
package ollama

import (
	"context"
	"strings"

	"github.com/voxenlabs/voxgate/pkg/chats/message"
	"github.com/voxenlabs/voxgate/pkg/modeladapter"
)

const (
	generatePath = "/generate"
	tagsPath     = "/tags"

	// DefaultBaseURL is where a stock Ollama install listens.
	DefaultBaseURL = "http://localhost:11434/api"

	defaultSystemPrompt = "You are a helpful voice assistant. Answer briefly and conversationally."

	defaultNumCtx = 1024
)

// stopSequences cuts generation before the model starts a new dialogue turn
// on its own.
var stopSequences = []string{"\nUser:", "User:", "\nSystem:", "System:"}

var (
	_ modeladapter.Completer   = (*Adapter)(nil)
	_ modeladapter.ModelLister = (*Adapter)(nil)
)

// Adapter implements modeladapter.Completer for a local Ollama runner.
type Adapter struct {
	modeladapter.ModelAdapter
	NumCtx int // Context window size in tokens.
	NumGPU int // Layers offloaded to the GPU (0 = CPU only).
}

// New creates an Adapter for the named local provider. The baseURL should
// include the API prefix (e.g. "http://localhost:11434/api", no trailing
// slash); an empty baseURL falls back to DefaultBaseURL.
func New(providerName, baseURL string) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	a := &Adapter{NumCtx: defaultNumCtx}
	a.Provider = providerName
	a.Family = modeladapter.FamilyLocal
	a.BaseURL = baseURL

	return a
}

// Complete renders the conversation into a single prompt, sends it to the
// generate endpoint with the fixed stop list, and post-processes the raw
// reply. An empty cleaned reply is a failure, not a success.
func (a *Adapter) Complete(ctx context.Context, msgs []message.Message, model string) (string, error) {
	req := apiRequest{
		Model:  model,
		Prompt: renderPrompt(msgs),
		Stream: false,
		Options: apiOptions{
			NumCtx:      a.NumCtx,
			NumGPU:      a.NumGPU,
			Temperature: a.Temperature,
			Stop:        stopSequences,
		},
	}

	var resp apiResponse
	if err := a.PostJSON(ctx, generatePath, req, &resp); err != nil {
		return "", err
	}

	reply := CleanReply(resp.Response)
	if reply == "" {
		return "", &modeladapter.Error{
			Kind:     modeladapter.KindEmptyResponse,
			Provider: a.Provider,
			Message:  "model returned no usable text",
		}
	}

	return reply, nil
}

// ListModels queries the runner's tag listing and returns the installed
// model names.
func (a *Adapter) ListModels(ctx context.Context) ([]string, error) {
	var resp tagsResponse
	if err := a.GetJSON(ctx, tagsPath, &resp); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}

	return names, nil
}

// renderPrompt concatenates the system message (default text when absent)
// with the latest user message and appends an assistant cue, so the model
// answers exactly one turn.
func renderPrompt(msgs []message.Message) string {
	system := strings.TrimSpace(message.SystemText(msgs))
	if system == "" {
		system = defaultSystemPrompt
	}

	user := strings.TrimSpace(message.LastUserText(msgs))

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nUser: ")
	b.WriteString(user)
	b.WriteString("\nAssistant:")

	return b.String()
}

// --- wire types ---

type apiRequest struct {
	Model   string     `json:"model"`
	Prompt  string     `json:"prompt"`
	Stream  bool       `json:"stream"`
	Options apiOptions `json:"options"`
}

type apiOptions struct {
	NumCtx      int      `json:"num_ctx"`
	NumGPU      int      `json:"num_gpu"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop"`
}

type apiResponse struct {
	Response string `json:"response"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}
