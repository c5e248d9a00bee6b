// Package transport defines the transport layer abstraction for the Neo4j HTTP API client
package transport

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Request is a transport-agnostic HTTP request descriptor.
type Request struct {
	// Method is the HTTP method (POST, DELETE, GET).
	Method string

	// URL is the absolute request URL.
	URL string

	// Header holds the request headers. Nil means no headers.
	Header map[string]string

	// Body is the request body. Nil means no body.
	Body []byte
}

// NewRequest builds a request descriptor from its parts.
func NewRequest(method, url string, header map[string]string, body []byte) *Request {
	return &Request{
		Method: method,
		URL:    url,
		Header: header,
		Body:   body,
	}
}

// Response is a raw server response with status, headers and body.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// Header holds the response headers as returned by the server.
	Header map[string]string

	// Body is the full response body.
	Body []byte
}

// HeaderValue returns the named response header, matching case-insensitively.
func (r *Response) HeaderValue(key string) string {
	if v, ok := r.Header[key]; ok {
		return v
	}
	for k, v := range r.Header {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// Transport defines the interface for executing HTTP requests against the server.
type Transport interface {
	// Send executes the request and returns the raw response.
	// A non-2xx status is reported as a *HTTPError carrying the response body,
	// so callers can inspect any structured error payload the server attached.
	Send(ctx context.Context, req *Request) (*Response, error)

	// Close releases any resources held by the transport.
	Close() error

	// GetMetrics returns transport performance metrics.
	GetMetrics() Metrics
}

// Metrics contains transport performance and health counters.
type Metrics struct {
	// TotalRequests is the total number of requests sent.
	TotalRequests int64

	// TotalErrors is the total number of errors encountered.
	TotalErrors int64

	// BytesSent is the total request body bytes sent.
	BytesSent int64

	// BytesReceived is the total response body bytes received.
	BytesReceived int64

	// LastError is the most recent error encountered.
	LastError error

	// LastErrorTime is when the last error occurred.
	LastErrorTime time.Time
}

// Factory creates new transport instances.
type Factory func(ctx context.Context) (Transport, error)

// HTTPError is returned by Send when the server replied with a non-2xx status.
// It preserves the response body so higher layers can extract the server's
// structured error payload instead of losing it to a generic failure.
type HTTPError struct {
	// Status is the HTTP status code of the failed response.
	Status int

	// Body is the response body, verbatim.
	Body []byte

	// URL is the request URL that produced the failure.
	URL string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d from %s", e.Status, e.URL)
}
