// Package client implements a session-oriented client for the Neo4j
// transactional HTTP API: one-shot runs, explicit transactions with a one-way
// lifecycle, endpoint discovery with a process-lifetime cache, and a typed
// error taxonomy separating server, transport, discovery and caller failures.
package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/graphtide/neohttp/protocol"
	"github.com/graphtide/neohttp/transport"
	"github.com/graphtide/neohttp/transport/httpclient"
)

// Client is a logical session against one server root and database.
// It holds at most one open transaction at a time; independent clients may
// run concurrently against the same discovered endpoint.
type Client struct {
	opts      Options
	transport transport.Transport
	resolver  *Resolver
	logger    Logger
	sessionID string
	debugMode atomic.Bool

	mu   sync.Mutex
	open *Transaction
}

// NewClient creates a new client with the given options.
// If opts is nil, default options are used.
func NewClient(opts *Options) *Client {
	if opts == nil {
		defaultOpts := DefaultOptions()
		opts = &defaultOpts
	}
	if opts.RootURI == "" {
		opts.RootURI = DefaultOptions().RootURI
	}
	if opts.Database == "" {
		opts.Database = DefaultOptions().Database
	}

	sessionID := uuid.NewString()

	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(opts.LogLevel, nil)
	}
	logger = logger.WithFields(String("session_id", sessionID))

	tr := opts.Transport
	if tr == nil {
		tr = httpclient.New(nil)
	}

	client := &Client{
		opts:      *opts,
		transport: tr,
		resolver:  NewResolver(tr, opts.Cache, logger),
		logger:    logger,
		sessionID: sessionID,
	}
	client.debugMode.Store(opts.DebugMode)

	return client
}

// Run executes a single statement in one open-and-commit round trip, outside
// any explicit transaction. tag is optional and only correlates the result to
// the call site.
func (c *Client) Run(ctx context.Context, text string, params map[string]interface{}, tag string) ([]protocol.Result, error) {
	batch := NewBatch()
	batch.Append(text, params, tag)
	return c.RunBatch(ctx, batch)
}

// RunBatch executes every statement of the batch in one open-and-commit round
// trip. Results come back in submission order, one per statement.
func (c *Client) RunBatch(ctx context.Context, batch *Batch) ([]protocol.Result, error) {
	endpoint, err := c.endpoint(ctx)
	if err != nil {
		return nil, err
	}

	statements := batch.Snapshot()
	req, err := protocol.BuildRequest(protocol.PhaseOpenAndCommit, endpoint, 0, statements)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return nil, protocol.TranslateFailure(err)
	}

	results, err := protocol.Translate(resp, statements)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("one-shot run completed",
		Int("statements", len(statements)),
		Duration("duration", time.Since(started)))
	return results, nil
}

// Begin opens an explicit transaction. A session holds at most one open
// transaction; beginning a second while one is held is a misuse error,
// rejected synchronously with no request sent.
func (c *Client) Begin(ctx context.Context) (*Transaction, error) {
	c.mu.Lock()
	if c.open != nil {
		c.mu.Unlock()
		return nil, errTransactionAlreadyOpen()
	}

	tx := &Transaction{
		client: c,
		logger: c.logger,
		phase:  NotStarted,
	}
	// Reserve the slot before any round trip so a concurrent Begin is
	// rejected instead of racing two opens.
	c.open = tx
	c.mu.Unlock()

	endpoint, err := c.endpoint(ctx)
	if err != nil {
		c.release(tx)
		return nil, err
	}
	tx.endpoint = endpoint

	if err := tx.begin(ctx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Close releases the transport. Any open transaction is left to the server's
// own expiry; Close does not roll it back.
func (c *Client) Close() error {
	return c.transport.Close()
}

// SessionID returns the identifier attached to this session's log lines.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Metrics returns the underlying transport's counters.
func (c *Client) Metrics() transport.Metrics {
	return c.transport.GetMetrics()
}

// SetDebugMode toggles verbose error formatting.
func (c *Client) SetDebugMode(enabled bool) {
	c.debugMode.Store(enabled)
}

// DebugMode reports whether verbose error formatting is enabled.
func (c *Client) DebugMode() bool {
	return c.debugMode.Load()
}

func (c *Client) endpoint(ctx context.Context) (string, error) {
	return c.resolver.Resolve(ctx, c.opts.RootURI, c.opts.Database)
}

// release frees the session's transaction slot once tx reaches a terminal
// phase. A transaction that failed during begin occupies the slot until then.
func (c *Client) release(tx *Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open == tx {
		c.open = nil
	}
}
