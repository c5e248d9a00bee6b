package client

import (
	"github.com/graphtide/neohttp/transport"
)

// Options configures the client.
type Options struct {
	// RootURI is the server root the discovery request is issued against.
	// Default: "http://localhost:7474"
	RootURI string

	// Database is the logical database name substituted into the discovered
	// transaction template.
	// Default: "neo4j"
	Database string

	// Transport executes the wire requests. If nil, the net/http-backed
	// transport with default options is used.
	Transport transport.Transport

	// Cache is the endpoint cache shared across clients hitting the same
	// servers. If nil, the client owns a fresh cache.
	Cache *EndpointCache

	// Logger is the logger implementation to use.
	// If nil, a default logger is used.
	Logger Logger

	// LogLevel sets the minimum log level (DEBUG, INFO, WARN, ERROR).
	// Default: "INFO"
	LogLevel string

	// DebugMode enables verbose error formatting with full detail maps.
	// Default: false
	DebugMode bool
}

// DefaultOptions returns the default client options.
func DefaultOptions() Options {
	return Options{
		RootURI:  "http://localhost:7474",
		Database: "neo4j",
		LogLevel: "INFO",
	}
}
