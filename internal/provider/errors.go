package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind classifies a provider failure so callers can branch on it.
type Kind int

const (
	KindConfig Kind = iota + 1
	KindAuth
	KindBilling
	KindRateLimit
	KindUpstreamUnavailable
	KindAPI
	KindEmptyResponse
	KindNetwork
)

// Code returns the stable identifier of the kind.
func (k Kind) Code() string {
	switch k {
	case KindConfig:
		return "CONFIG"
	case KindAuth:
		return "AUTH"
	case KindBilling:
		return "BILLING"
	case KindRateLimit:
		return "RATE_LIMIT"
	case KindUpstreamUnavailable:
		return "UPSTREAM_UNAVAILABLE"
	case KindAPI:
		return "API"
	case KindEmptyResponse:
		return "EMPTY_RESPONSE"
	case KindNetwork:
		return "NETWORK"
	default:
		return "UNKNOWN"
	}
}

func (k Kind) String() string { return k.Code() }

// Error is a classified provider failure.
type Error struct {
	Kind       Kind
	Provider   string
	StatusCode int    // HTTP status, 0 when no response was received
	Message    string // short human-readable detail
	Err        error  // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Code())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or 0 when err is not a provider error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// statusError maps a non-2xx HTTP status onto the taxonomy.
func statusError(provider string, status int, message string) *Error {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(status)
	}

	kind := KindAPI
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusPaymentRequired:
		kind = KindBilling
	case status == http.StatusTooManyRequests:
		kind = KindRateLimit
	case status >= http.StatusInternalServerError:
		kind = KindUpstreamUnavailable
	}
	return &Error{Kind: kind, Provider: provider, StatusCode: status, Message: message}
}

// requestError classifies a failure that produced no HTTP status.
// Transport failures and timeouts are KindNetwork; anything else (for
// example an undecodable body) is KindAPI.
func requestError(provider string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindNetwork, Provider: provider, Message: "request timed out", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		msg := "cannot reach provider"
		if netErr.Timeout() {
			msg = "request timed out"
		}
		return &Error{Kind: KindNetwork, Provider: provider, Message: msg, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindNetwork, Provider: provider, Message: "request cancelled", Err: err}
	}
	return &Error{Kind: KindAPI, Provider: provider, Message: err.Error(), Err: err}
}

func emptyResponseError(provider string) *Error {
	return &Error{Kind: KindEmptyResponse, Provider: provider, Message: "empty response from model"}
}

// keyPolicy describes what a syntactically valid API key looks like.
type keyPolicy struct {
	placeholder string
	prefix      string
	envHint     string
}

func (p keyPolicy) check(provider, key string) error {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return &Error{Kind: KindConfig, Provider: provider, Message: fmt.Sprintf("API key is not set (set %s)", p.envHint)}
	case key == p.placeholder:
		return &Error{Kind: KindConfig, Provider: provider, Message: fmt.Sprintf("API key is still the placeholder %q", p.placeholder)}
	case p.prefix != "" && !strings.HasPrefix(key, p.prefix):
		return &Error{Kind: KindConfig, Provider: provider, Message: fmt.Sprintf("API key must start with %q", p.prefix)}
	}
	return nil
}
