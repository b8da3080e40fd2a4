package modeladapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorKind is the canonical classification of an adapter failure.
type ErrorKind string

const (
	KindAuth            ErrorKind = "auth"
	KindPaymentRequired ErrorKind = "payment_required"
	KindRateLimited     ErrorKind = "rate_limited"
	KindBadRequest      ErrorKind = "bad_request"
	KindModelNotFound   ErrorKind = "model_not_found"
	KindTimeout         ErrorKind = "timeout"
	KindConnection      ErrorKind = "connection"
	KindEmptyResponse   ErrorKind = "empty_response"
	KindUnexpected      ErrorKind = "unexpected"
)

// Family selects which status-code mapping applies to a provider's API.
type Family string

const (
	FamilyOpenAI    Family = "openai"
	FamilyAnthropic Family = "anthropic"
	FamilyLocal     Family = "local"
)

// Error is the canonical error container returned by every adapter.
// The gateway's candidate loop branches on Kind and never inspects
// provider-specific error shapes.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// AsError unwraps err into the canonical container.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// statusKinds is the single mapping table from (family, HTTP status) to
// ErrorKind. Statuses absent from a family's row normalize to KindUnexpected.
var statusKinds = map[Family]map[int]ErrorKind{
	FamilyOpenAI: {
		http.StatusUnauthorized:    KindAuth,
		http.StatusPaymentRequired: KindPaymentRequired,
		http.StatusTooManyRequests: KindRateLimited,
		http.StatusBadRequest:      KindBadRequest,
		http.StatusNotFound:        KindModelNotFound,
	},
	FamilyAnthropic: {
		http.StatusUnauthorized:    KindAuth,
		http.StatusTooManyRequests: KindRateLimited,
	},
	FamilyLocal: {
		http.StatusNotFound: KindModelNotFound,
	},
}

// NormalizeStatus maps a non-2xx upstream response to a canonical Error.
func NormalizeStatus(family Family, provider string, status int, body string) *Error {
	kind := KindUnexpected
	if m, ok := statusKinds[family]; ok {
		if k, ok := m[status]; ok {
			kind = k
		}
	}

	msg := strings.TrimSpace(body)
	if msg == "" {
		msg = http.StatusText(status)
	}

	return &Error{
		Kind:     kind,
		Provider: provider,
		Message:  fmt.Sprintf("status %d: %s", status, msg),
	}
}

// NormalizeTransport maps a transport-level failure (the request never got a
// response) to a canonical Error: deadline or timeout failures become
// KindTimeout, everything else KindConnection.
func NormalizeTransport(provider string, err error) *Error {
	kind := KindConnection

	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &ne) && ne.Timeout():
		kind = KindTimeout
	}

	return &Error{
		Kind:     kind,
		Provider: provider,
		Message:  err.Error(),
		Cause:    err,
	}
}
