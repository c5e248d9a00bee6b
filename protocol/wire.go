// Package protocol implements the wire format of the Neo4j transactional HTTP API:
// request payloads per protocol phase, response translation into typed results,
// and the server's structured error shape.
package protocol

// Statement is a single Cypher statement with its parameters.
// Immutable once handed to a batch; the Tag is never sent to the server,
// it only correlates results back to call sites.
type Statement struct {
	Text       string
	Parameters map[string]interface{}
	Tag        string
}

// statementPayload is the wire form of a single statement.
type statementPayload struct {
	Statement          string                 `json:"statement"`
	Parameters         map[string]interface{} `json:"parameters"`
	ResultDataContents []string               `json:"resultDataContents"`
	IncludeStats       bool                   `json:"includeStats"`
}

// requestPayload is the wire form of a statements request body.
type requestPayload struct {
	Statements []statementPayload `json:"statements"`
}

// transactionResponse is the wire form of every transactional endpoint reply.
type transactionResponse struct {
	Results     []Result         `json:"results"`
	Errors      []ErrorDetail    `json:"errors"`
	Commit      string           `json:"commit,omitempty"`
	Transaction *TransactionInfo `json:"transaction,omitempty"`
}

// TransactionInfo holds server-side transaction state attached to a response.
type TransactionInfo struct {
	// Expires is the server-side transaction expiry, RFC1123 format.
	Expires string `json:"expires"`
}

// ErrorDetail is a single entry of the response's errors array.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the result-set produced by one submitted statement.
type Result struct {
	Columns []string `json:"columns"`
	Data    []Row    `json:"data"`
	Stats   *Stats   `json:"stats,omitempty"`

	// Tag is copied from the submitted statement by the translator.
	Tag string `json:"-"`
}

// Record returns the i-th row keyed by column name.
func (r *Result) Record(i int) Record {
	return Record{columns: r.Columns, row: r.Data[i]}
}

// Len returns the number of rows in the result.
func (r *Result) Len() int {
	return len(r.Data)
}

// Record is a single result row with access by column name.
type Record struct {
	columns []string
	row     Row
}

// Get returns the value of the named column and whether the column exists.
// Values come from the row-shaped content when present, else the REST-shaped one.
func (rec Record) Get(column string) (interface{}, bool) {
	for i, c := range rec.columns {
		if c != column {
			continue
		}
		if rec.row.Row != nil {
			if i < len(rec.row.Row) {
				return rec.row.Row[i], true
			}
			return nil, false
		}
		if i < len(rec.row.REST) {
			return rec.row.REST[i], true
		}
		return nil, false
	}
	return nil, false
}

// Len returns the number of columns.
func (rec Record) Len() int {
	return len(rec.columns)
}

// Row is one row of a result-set. Which fields are populated depends on the
// resultDataContents the request asked for.
type Row struct {
	Row   []interface{} `json:"row,omitempty"`
	REST  []interface{} `json:"rest,omitempty"`
	Meta  []interface{} `json:"meta,omitempty"`
	Graph *Graph        `json:"graph,omitempty"`
}

// Graph holds graph-shaped result content.
type Graph struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// Node is a node in graph-shaped content.
type Node struct {
	ID         string                 `json:"id"`
	Labels     []string               `json:"labels"`
	Properties map[string]interface{} `json:"properties"`
}

// Relationship is a relationship in graph-shaped content.
type Relationship struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	StartNode  string                 `json:"startNode"`
	EndNode    string                 `json:"endNode"`
	Properties map[string]interface{} `json:"properties"`
}

// Stats holds execution statistics for one statement.
type Stats struct {
	NodesCreated         int  `json:"nodes_created,omitempty"`
	NodesDeleted         int  `json:"nodes_deleted,omitempty"`
	RelationshipsCreated int  `json:"relationships_created,omitempty"`
	RelationshipsDeleted int  `json:"relationships_deleted,omitempty"`
	PropertiesSet        int  `json:"properties_set,omitempty"`
	LabelsAdded          int  `json:"labels_added,omitempty"`
	LabelsRemoved        int  `json:"labels_removed,omitempty"`
	IndexesAdded         int  `json:"indexes_added,omitempty"`
	IndexesRemoved       int  `json:"indexes_removed,omitempty"`
	ConstraintsAdded     int  `json:"constraints_added,omitempty"`
	ConstraintsRemoved   int  `json:"constraints_removed,omitempty"`
	ContainsUpdates      bool `json:"contains_updates,omitempty"`
}
