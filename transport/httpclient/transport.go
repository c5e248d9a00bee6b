// Package httpclient implements transport.Transport on top of net/http.
package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/graphtide/neohttp/transport"
)

// Options configures the HTTP transport.
type Options struct {
	// Timeout is the per-request timeout applied by the underlying client.
	// Zero means no timeout beyond what the caller's context imposes.
	// Default: 30s
	Timeout time.Duration

	// Client overrides the underlying *http.Client entirely.
	// When set, Timeout is ignored.
	Client *http.Client
}

// DefaultOptions returns the default HTTP transport options.
func DefaultOptions() Options {
	return Options{
		Timeout: 30 * time.Second,
	}
}

// HTTPTransport is a transport.Transport backed by net/http.
type HTTPTransport struct {
	client *http.Client

	totalRequests atomic.Int64
	totalErrors   atomic.Int64
	bytesSent     atomic.Int64
	bytesReceived atomic.Int64

	errMu         sync.Mutex
	lastError     error
	lastErrorTime time.Time
}

// New creates an HTTP transport. If opts is nil, default options are used.
func New(opts *Options) *HTTPTransport {
	if opts == nil {
		defaultOpts := DefaultOptions()
		opts = &defaultOpts
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &HTTPTransport{client: client}
}

// Factory returns a transport.Factory producing transports with the given options.
func Factory(opts *Options) transport.Factory {
	return func(ctx context.Context) (transport.Transport, error) {
		return New(opts), nil
	}
}

// Send implements transport.Transport.
func (t *HTTPTransport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	t.totalRequests.Add(1)

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
		t.bytesSent.Add(int64(len(req.Body)))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		t.recordError(err)
		return nil, err
	}

	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		t.recordError(err)
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		t.recordError(err)
		return nil, err
	}
	t.bytesReceived.Add(int64(len(body)))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		httpErr := &transport.HTTPError{
			Status: httpResp.StatusCode,
			Body:   body,
			URL:    req.URL,
		}
		t.recordError(httpErr)
		return nil, httpErr
	}

	header := make(map[string]string, len(httpResp.Header))
	for k := range httpResp.Header {
		header[k] = httpResp.Header.Get(k)
	}

	return &transport.Response{
		Status: httpResp.StatusCode,
		Header: header,
		Body:   body,
	}, nil
}

// Close implements transport.Transport.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// GetMetrics implements transport.Transport.
func (t *HTTPTransport) GetMetrics() transport.Metrics {
	t.errMu.Lock()
	lastError := t.lastError
	lastErrorTime := t.lastErrorTime
	t.errMu.Unlock()

	return transport.Metrics{
		TotalRequests: t.totalRequests.Load(),
		TotalErrors:   t.totalErrors.Load(),
		BytesSent:     t.bytesSent.Load(),
		BytesReceived: t.bytesReceived.Load(),
		LastError:     lastError,
		LastErrorTime: lastErrorTime,
	}
}

func (t *HTTPTransport) recordError(err error) {
	t.totalErrors.Add(1)
	t.errMu.Lock()
	t.lastError = err
	t.lastErrorTime = time.Now()
	t.errMu.Unlock()
}
