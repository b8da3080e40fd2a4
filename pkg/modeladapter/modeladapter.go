package modeladapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/voxenlabs/voxgate/pkg/chats/message"
)

// Completer sends a conversation to an LLM and returns the assistant's reply
// as plain text. Any failure is reported as a *Error so callers can branch
// on its Kind without knowing the provider.
type Completer interface {
	Complete(ctx context.Context, msgs []message.Message, model string) (string, error)
}

// ModelLister is an optional capability for adapters whose provider exposes
// a model discovery endpoint.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Auth holds authentication settings for an LLM provider API.
type Auth struct {
	Key    string // API key value.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// ModelAdapter holds shared state for LLM provider implementations. Embed it
// in concrete adapter structs to get HTTP helpers, auth, custom headers, and
// canonical error normalization. Concrete types should define their own
// Complete method to shadow the default stub.
type ModelAdapter struct {
	Provider    string            // Provider name, used to tag canonical errors.
	Family      Family            // Status-code mapping family.
	BaseURL     string            // API base URL (no trailing slash).
	Auth        Auth              // Authentication settings.
	Client      *http.Client      // HTTP client; falls back to a cached default.
	Headers     map[string]string // Extra headers applied to every request.
	Temperature float64           // Sampling temperature (0 = provider default).
	MaxTokens   int               // Maximum tokens in the response.

	clientOnce    sync.Once
	defaultClient *http.Client
}

// Complete is a stub that returns an error. Concrete adapters that embed
// ModelAdapter should define their own Complete method to shadow this one.
func (a *ModelAdapter) Complete(_ context.Context, _ []message.Message, _ string) (string, error) {
	return "", &Error{Kind: KindUnexpected, Provider: a.Provider, Message: "Complete not implemented"}
}

// httpClient returns the configured client or a cached default client with a 10-minute timeout.
func (a *ModelAdapter) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	a.clientOnce.Do(func() {
		a.defaultClient = &http.Client{Timeout: 10 * time.Minute}
	})

	return a.defaultClient
}

// NewRequest builds an *http.Request with the base URL, auth, and custom
// headers already applied.
func (a *ModelAdapter) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := a.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &Error{Kind: KindUnexpected, Provider: a.Provider, Message: "build request: " + err.Error(), Cause: err}
	}

	// Apply auth.
	if a.Auth.Key != "" {
		header := a.Auth.Header
		if header == "" {
			header = "Authorization"
		}

		value := a.Auth.Key
		if header == "Authorization" {
			scheme := a.Auth.Scheme
			if scheme == "" {
				scheme = "Bearer"
			}

			value = scheme + " " + value
		} else if a.Auth.Scheme != "" {
			value = a.Auth.Scheme + " " + value
		}

		req.Header.Set(header, value)
	}

	// Apply custom headers.
	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Do sends the request using the configured HTTP client.
func (a *ModelAdapter) Do(req *http.Request) (*http.Response, error) {
	return a.httpClient().Do(req) //nolint:gosec // URL is built from trusted BaseURL config, not user input.
}

// PostJSON marshals payload as JSON, sends a POST to the given path, checks
// for a 2xx status, and unmarshals the response body into dest. Every
// failure path (transport, non-2xx status, decode) is returned as a
// canonical *Error normalized for the adapter's Family.
func (a *ModelAdapter) PostJSON(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Kind: KindUnexpected, Provider: a.Provider, Message: "marshal payload: " + err.Error(), Cause: err}
	}

	req, err := a.NewRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	return a.doJSON(req, dest)
}

// GetJSON sends a GET to the given path and unmarshals the response body
// into dest, with the same normalization as PostJSON.
func (a *ModelAdapter) GetJSON(ctx context.Context, path string, dest any) error {
	req, err := a.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	return a.doJSON(req, dest)
}

func (a *ModelAdapter) doJSON(req *http.Request, dest any) error {
	resp, err := a.Do(req)
	if err != nil {
		return NormalizeTransport(a.Provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return NormalizeStatus(a.Family, a.Provider, resp.StatusCode, string(respBody))
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &Error{Kind: KindUnexpected, Provider: a.Provider, Message: "decode response: " + err.Error(), Cause: err}
	}

	return nil
}
