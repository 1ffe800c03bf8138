package provider

import (
	"net"
	"net/http"
	"time"
)

// Timeouts bounds a single outbound request.
type Timeouts struct {
	Connect time.Duration // dial and TLS handshake
	Read    time.Duration // wait for response headers
}

// DefaultTimeouts returns a 10s connect / 15s read budget.
func DefaultTimeouts() Timeouts {
	return Timeouts{Connect: 10 * time.Second, Read: 15 * time.Second}
}

// NewHTTPClient builds the process-wide HTTP client. It is safe for
// concurrent use and shared by the LLM provider and the link enricher.
func NewHTTPClient(t Timeouts) *http.Client {
	if t.Connect <= 0 {
		t.Connect = DefaultTimeouts().Connect
	}
	if t.Read <= 0 {
		t.Read = DefaultTimeouts().Read
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   t.Connect,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = t.Connect
	transport.ResponseHeaderTimeout = t.Read

	return &http.Client{Transport: transport}
}
