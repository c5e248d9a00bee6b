package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/cespare/xxhash"
	"golang.org/x/sync/singleflight"

	"github.com/graphtide/neohttp/protocol"
	"github.com/graphtide/neohttp/transport"
)

// databasePlaceholder is the slot the discovery document leaves for the
// logical database name in its transaction template.
const databasePlaceholder = "{databaseName}"

// EndpointCache caches discovered transaction templates keyed by server root.
// Entries never expire; a server's template is assumed stable for its lifetime.
// The cache is an explicit object with injected lifetime so callers needing
// isolation (tests against multiple fake servers) supply a fresh instance.
type EndpointCache struct {
	mu      sync.RWMutex
	entries map[uint64]string
	group   singleflight.Group
}

// NewEndpointCache creates an empty endpoint cache.
func NewEndpointCache() *EndpointCache {
	return &EndpointCache{
		entries: make(map[uint64]string),
	}
}

// Len returns the number of cached endpoints.
func (c *EndpointCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *EndpointCache) get(key uint64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tpl, ok := c.entries[key]
	return tpl, ok
}

func (c *EndpointCache) put(key uint64, template string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = template
}

func cacheKey(rootURI string) uint64 {
	return xxhash.Sum64String(rootURI)
}

// discoveryDocument is the server's root metadata document. It either carries
// the transaction template directly or points at the real metadata location.
type discoveryDocument struct {
	Neo4jVersion string `json:"neo4j_version"`
	Transaction  string `json:"transaction"`
	Data         string `json:"data"`
}

// Resolver discovers the transaction endpoint for a server root and database.
type Resolver struct {
	transport transport.Transport
	cache     *EndpointCache
	logger    Logger
}

// NewResolver creates a resolver using the given transport and cache.
func NewResolver(t transport.Transport, cache *EndpointCache, logger Logger) *Resolver {
	if cache == nil {
		cache = NewEndpointCache()
	}
	if logger == nil {
		logger = NewNoopLogger()
	}
	return &Resolver{
		transport: t,
		cache:     cache,
		logger:    logger,
	}
}

// Resolve returns the transaction endpoint for the database at the server
// root, issuing discovery requests only on the first call per root. Concurrent
// first use is collapsed to a single discovery round trip.
func (r *Resolver) Resolve(ctx context.Context, rootURI, database string) (string, error) {
	root := strings.TrimRight(rootURI, "/")
	key := cacheKey(root)

	if tpl, ok := r.cache.get(key); ok {
		return substituteDatabase(tpl, database), nil
	}

	v, err, _ := r.cache.group.Do(root, func() (interface{}, error) {
		if tpl, ok := r.cache.get(key); ok {
			return tpl, nil
		}
		tpl, err := r.discover(ctx, root)
		if err != nil {
			return "", err
		}
		r.cache.put(key, tpl)
		r.logger.Debug("discovered transaction endpoint",
			String("root", root),
			String("template", tpl))
		return tpl, nil
	})
	if err != nil {
		return "", err
	}
	return substituteDatabase(v.(string), database), nil
}

// discover fetches the root metadata document. A document without a template
// but with a data pointer is a redirect descriptor: re-fetch there and retry
// extraction exactly once. A second miss is fatal.
func (r *Resolver) discover(ctx context.Context, root string) (string, error) {
	doc, err := r.fetch(ctx, root)
	if err != nil {
		return "", err
	}
	if doc.Transaction != "" {
		return doc.Transaction, nil
	}
	if doc.Data == "" {
		return "", &DiscoveryError{
			Code:    "E_DISCOVERY_NO_TEMPLATE",
			Type:    "DiscoveryError",
			Message: "server metadata carries neither a transaction template nor a redirect location",
			Details: map[string]interface{}{"root": root},
		}
	}

	redirected, err := r.fetch(ctx, doc.Data)
	if err != nil {
		return "", err
	}
	if redirected.Transaction == "" {
		return "", &DiscoveryError{
			Code:    "E_DISCOVERY_NO_TEMPLATE",
			Type:    "DiscoveryError",
			Message: "redirected server metadata still lacks a transaction template",
			Details: map[string]interface{}{
				"root":     root,
				"location": doc.Data,
			},
		}
	}
	return redirected.Transaction, nil
}

func (r *Resolver) fetch(ctx context.Context, url string) (*discoveryDocument, error) {
	req := transport.NewRequest(http.MethodGet, url, map[string]string{
		"Accept": "application/json; charset=UTF-8",
	}, nil)

	resp, err := r.transport.Send(ctx, req)
	if err != nil {
		// Transport failure during discovery surfaces as a protocol error
		// with no server code.
		return nil, &protocol.ServerError{
			Message: "endpoint discovery request failed",
			Cause:   err,
		}
	}

	var doc discoveryDocument
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, &DiscoveryError{
			Code:    "E_DISCOVERY_MALFORMED",
			Type:    "DiscoveryError",
			Message: "server metadata document is not valid JSON",
			Details: map[string]interface{}{"url": url},
			Cause:   err,
		}
	}
	return &doc, nil
}

// substituteDatabase resolves the template's placeholder so callers never see
// an endpoint with an unresolved segment.
func substituteDatabase(template, database string) string {
	return strings.ReplaceAll(template, databasePlaceholder, database)
}
