// Package mock provides a scripted transport.Transport for testing.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/graphtide/neohttp/transport"
)

// Handler produces a response for a request. Used for URL-dependent scripting.
type Handler func(req *transport.Request) (*transport.Response, error)

type reply struct {
	resp *transport.Response
	err  error
}

// MockTransport implements transport.Transport for testing.
// Replies come from a registered Handler when set, otherwise from the
// enqueued reply script in FIFO order.
type MockTransport struct {
	mu      sync.Mutex
	handler Handler
	queue   []reply
	history []*transport.Request
	closed  bool

	sendCalls  atomic.Int32
	closeCalls atomic.Int32

	totalRequests atomic.Int64
	totalErrors   atomic.Int64
	lastError     error
	lastErrorTime time.Time
}

// NewMockTransport creates a new mock transport with an empty script.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// WithHandler registers a handler consulted for every request.
func (m *MockTransport) WithHandler(h Handler) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
	return m
}

// Enqueue scripts a successful response with the given status and body.
func (m *MockTransport) Enqueue(status int, body string) *MockTransport {
	return m.EnqueueResponse(&transport.Response{
		Status: status,
		Body:   []byte(body),
	})
}

// EnqueueResponse scripts a full response, including headers.
func (m *MockTransport) EnqueueResponse(resp *transport.Response) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, reply{resp: resp})
	return m
}

// EnqueueError scripts a send failure.
func (m *MockTransport) EnqueueError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, reply{err: err})
	return m
}

// Send implements transport.Transport.
func (m *MockTransport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	m.sendCalls.Add(1)
	m.totalRequests.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("mock transport is closed")
	}
	m.history = append(m.history, req)

	if m.handler != nil {
		h := m.handler
		m.mu.Unlock()
		resp, err := h(req)
		if err != nil {
			m.recordError(err)
		}
		return resp, err
	}

	if len(m.queue) == 0 {
		m.mu.Unlock()
		err := fmt.Errorf("mock transport: no scripted reply for %s %s", req.Method, req.URL)
		m.recordError(err)
		return nil, err
	}

	next := m.queue[0]
	m.queue = m.queue[1:]
	m.mu.Unlock()

	if next.err != nil {
		m.recordError(next.err)
		return nil, next.err
	}
	return next.resp, nil
}

// Close implements transport.Transport.
func (m *MockTransport) Close() error {
	m.closeCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// GetMetrics implements transport.Transport.
func (m *MockTransport) GetMetrics() transport.Metrics {
	m.mu.Lock()
	lastError := m.lastError
	lastErrorTime := m.lastErrorTime
	m.mu.Unlock()

	return transport.Metrics{
		TotalRequests: m.totalRequests.Load(),
		TotalErrors:   m.totalErrors.Load(),
		LastError:     lastError,
		LastErrorTime: lastErrorTime,
	}
}

// SendCalls returns how many times Send was invoked.
func (m *MockTransport) SendCalls() int {
	return int(m.sendCalls.Load())
}

// CloseCalls returns how many times Close was invoked.
func (m *MockTransport) CloseCalls() int {
	return int(m.closeCalls.Load())
}

// Requests returns a copy of all requests seen, in order.
func (m *MockTransport) Requests() []*transport.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*transport.Request, len(m.history))
	copy(out, m.history)
	return out
}

// RequestsTo counts requests whose URL contains the given fragment.
func (m *MockTransport) RequestsTo(fragment string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, req := range m.history {
		if strings.Contains(req.URL, fragment) {
			count++
		}
	}
	return count
}

func (m *MockTransport) recordError(err error) {
	m.totalErrors.Add(1)
	m.mu.Lock()
	m.lastError = err
	m.lastErrorTime = time.Now()
	m.mu.Unlock()
}
