package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/graphtide/neohttp/protocol"
	"github.com/graphtide/neohttp/transport"
	"github.com/graphtide/neohttp/transport/mock"
)

// fakeNeo scripts the transactional endpoint behavior behind a mock transport.
// Hooks override individual routes; unset routes answer with a well-formed
// success response.
type fakeNeo struct {
	discoveryHits atomic.Int32
	nextTxID      int64

	openHook     func(req *transport.Request) (*transport.Response, error)
	pushHook     func(req *transport.Request) (*transport.Response, error)
	commitHook   func(req *transport.Request) (*transport.Response, error)
	rollbackHook func(req *transport.Request) (*transport.Response, error)
	runHook      func(req *transport.Request) (*transport.Response, error)
}

func newFakeNeo() *fakeNeo {
	return &fakeNeo{nextTxID: 7}
}

func (f *fakeNeo) endpoint() string {
	return testRoot + "/db/neo4j/tx"
}

func (f *fakeNeo) transport() *mock.MockTransport {
	return mock.NewMockTransport().WithHandler(f.handle)
}

func (f *fakeNeo) client() (*Client, *mock.MockTransport) {
	tr := f.transport()
	opts := DefaultOptions()
	opts.RootURI = testRoot
	opts.Transport = tr
	opts.Logger = NewNoopLogger()
	return NewClient(&opts), tr
}

func (f *fakeNeo) handle(req *transport.Request) (*transport.Response, error) {
	endpoint := f.endpoint()
	switch {
	case req.Method == http.MethodGet && req.URL == testRoot:
		f.discoveryHits.Add(1)
		return &transport.Response{Status: 200, Body: []byte(discoveryDoc(testRoot))}, nil

	case req.Method == http.MethodPost && req.URL == endpoint+"/commit":
		if f.runHook != nil {
			return f.runHook(req)
		}
		return resultsPerStatement(req), nil

	case req.Method == http.MethodPost && req.URL == endpoint:
		if f.openHook != nil {
			return f.openHook(req)
		}
		id := f.nextTxID
		return &transport.Response{
			Status: 201,
			Header: map[string]string{"Location": fmt.Sprintf("%s/%d", endpoint, id)},
			Body: []byte(fmt.Sprintf(`{"results": [], "errors": [], "commit": "%s/%d/commit"}`,
				endpoint, id)),
		}, nil

	case req.Method == http.MethodPost && strings.HasSuffix(req.URL, "/commit"):
		if f.commitHook != nil {
			return f.commitHook(req)
		}
		return &transport.Response{Status: 200, Body: []byte(`{"results": [], "errors": []}`)}, nil

	case req.Method == http.MethodPost:
		if f.pushHook != nil {
			return f.pushHook(req)
		}
		return resultsPerStatement(req), nil

	case req.Method == http.MethodDelete:
		if f.rollbackHook != nil {
			return f.rollbackHook(req)
		}
		return &transport.Response{Status: 200, Body: []byte(`{"results": [], "errors": []}`)}, nil
	}
	return nil, fmt.Errorf("fakeNeo: unexpected request %s %s", req.Method, req.URL)
}

// resultsPerStatement fabricates one result-set per submitted statement.
func resultsPerStatement(req *transport.Request) *transport.Response {
	var payload struct {
		Statements []struct {
			Statement string `json:"statement"`
		} `json:"statements"`
	}
	_ = json.Unmarshal(req.Body, &payload)

	results := make([]string, len(payload.Statements))
	for i := range payload.Statements {
		results[i] = fmt.Sprintf(`{"columns": ["n"], "data": [{"row": [%d]}]}`, i)
	}
	body := fmt.Sprintf(`{"results": [%s], "errors": []}`, strings.Join(results, ","))
	return &transport.Response{Status: 200, Body: []byte(body)}
}

func softFailureResponse(code, message string) *transport.Response {
	return &transport.Response{
		Status: 200,
		Body: []byte(fmt.Sprintf(`{"results": [], "errors": [{"code": "%s", "message": "%s"}]}`,
			code, message)),
	}
}

func TestBeginAssignsServerID(t *testing.T) {
	c, _ := newFakeNeo().client()

	tx, err := c.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	id, assigned := tx.ID()
	if !assigned {
		t.Fatal("expected a server-assigned transaction id")
	}
	if id != 7 {
		t.Errorf("expected id 7, got %d", id)
	}
	if tx.Phase() != Open {
		t.Errorf("expected phase OPEN, got %s", tx.Phase())
	}
}

func TestBeginThenCommitWithoutPush(t *testing.T) {
	c, _ := newFakeNeo().client()

	tx, err := c.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if tx.Phase() != Committed {
		t.Errorf("expected phase COMMITTED, got %s", tx.Phase())
	}

	batch := NewBatch()
	batch.Append("RETURN 1", nil, "")
	_, err = tx.Push(context.Background(), batch)

	var misuse *MisuseError
	if !errors.As(err, &misuse) {
		t.Fatalf("push after commit should be a *MisuseError, got %T (%v)", err, err)
	}
}

func TestPushSoftFailureMarksFailed(t *testing.T) {
	fake := newFakeNeo()
	fake.pushHook = func(req *transport.Request) (*transport.Response, error) {
		return softFailureResponse("Neo.ClientError.Statement.SyntaxError", "Invalid input 'Cool'"), nil
	}
	c, _ := fake.client()

	tx, err := c.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	batch := NewBatch()
	batch.Append("CREATE (n:Cool", nil, "")
	_, err = tx.Push(context.Background(), batch)

	var serverErr *protocol.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected *protocol.ServerError, got %T (%v)", err, err)
	}
	if serverErr.Code != "Neo.ClientError.Statement.SyntaxError" {
		t.Errorf("expected errors[0].code surfaced, got %q", serverErr.Code)
	}
	if tx.Phase() != Failed {
		t.Errorf("soft failure must mark the transaction FAILED, got %s", tx.Phase())
	}

	// The transaction is no longer usable even though no rollback was sent.
	if err := tx.Commit(context.Background()); err == nil {
		t.Error("commit after soft failure should be rejected")
	}
}

func TestPushMapsResultsInOrder(t *testing.T) {
	c, _ := newFakeNeo().client()

	tx, err := c.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	batch := NewBatch()
	batch.Append("CREATE (a) RETURN a", nil, "A")
	batch.Append("CREATE (b) RETURN b", nil, "B")

	results, err := tx.Push(context.Background(), batch)
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Tag != "A" || results[1].Tag != "B" {
		t.Errorf("results out of submission order: tags %q, %q", results[0].Tag, results[1].Tag)
	}
	if tx.Phase() != Open {
		t.Errorf("successful push must not change phase, got %s", tx.Phase())
	}
}

func TestPushTransportFailureMarksFailed(t *testing.T) {
	fake := newFakeNeo()
	fake.pushHook = func(req *transport.Request) (*transport.Response, error) {
		return nil, errors.New("connection reset by peer")
	}
	c, _ := fake.client()

	tx, err := c.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	batch := NewBatch()
	batch.Append("RETURN 1", nil, "")
	if _, err := tx.Push(context.Background(), batch); err == nil {
		t.Fatal("expected push to fail")
	}
	if tx.Phase() != Failed {
		t.Errorf("expected phase FAILED, got %s", tx.Phase())
	}
}

func TestCommitFailureMarksFailed(t *testing.T) {
	fake := newFakeNeo()
	fake.commitHook = func(req *transport.Request) (*transport.Response, error) {
		return nil, &transport.HTTPError{
			Status: 500,
			Body:   []byte(`{"results": [], "errors": [{"code": "Neo.DatabaseError.General.UnknownError", "message": "boom"}]}`),
			URL:    req.URL,
		}
	}
	c, _ := fake.client()

	tx, err := c.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	err = tx.Commit(context.Background())

	var serverErr *protocol.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected structured body upgraded to *protocol.ServerError, got %T (%v)", err, err)
	}
	if serverErr.Cause == nil {
		t.Error("expected the transport failure preserved as cause")
	}
	if tx.Phase() != Failed {
		t.Errorf("expected phase FAILED, got %s", tx.Phase())
	}
}

func TestRollback(t *testing.T) {
	fake := newFakeNeo()
	c, tr := fake.client()

	tx, err := c.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if tx.Phase() != RolledBack {
		t.Errorf("expected phase ROLLED_BACK, got %s", tx.Phase())
	}

	requests := tr.Requests()
	last := requests[len(requests)-1]
	if last.Method != http.MethodDelete {
		t.Errorf("rollback should use DELETE, got %s", last.Method)
	}
	if !strings.HasSuffix(last.URL, "/7") {
		t.Errorf("rollback should target the transaction URL, got %s", last.URL)
	}
}

func TestRollbackBestEffortOnTransportFailure(t *testing.T) {
	fake := newFakeNeo()
	fake.rollbackHook = func(req *transport.Request) (*transport.Response, error) {
		return nil, errors.New("connection refused")
	}
	c, _ := fake.client()

	tx, err := c.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	err = tx.Rollback(context.Background())
	if err == nil {
		t.Fatal("the send failure must still be surfaced")
	}
	if tx.Phase() != RolledBack {
		t.Errorf("local state must be ROLLED_BACK regardless, got %s", tx.Phase())
	}
}

func TestOperationsFromTerminalPhaseAreMisuse(t *testing.T) {
	c, _ := newFakeNeo().client()

	tx, err := c.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	batch := NewBatch()
	batch.Append("RETURN 1", nil, "")

	tests := []struct {
		name string
		op   func() error
	}{
		{"commit", func() error { return tx.Commit(context.Background()) }},
		{"rollback", func() error { return tx.Rollback(context.Background()) }},
		{"push", func() error { _, err := tx.Push(context.Background(), batch); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			var misuse *MisuseError
			if !errors.As(err, &misuse) {
				t.Errorf("expected *MisuseError, got %T (%v)", err, err)
			}
		})
	}
}

func TestBeginSendFailureReleasesSlot(t *testing.T) {
	fake := newFakeNeo()
	failOpen := true
	fake.openHook = func(req *transport.Request) (*transport.Response, error) {
		if failOpen {
			return nil, errors.New("connection refused")
		}
		return &transport.Response{
			Status: 201,
			Header: map[string]string{"Location": fake.endpoint() + "/8"},
			Body:   []byte(`{"results": [], "errors": []}`),
		}, nil
	}
	c, _ := fake.client()

	_, err := c.Begin(context.Background())
	if err == nil {
		t.Fatal("expected Begin to fail")
	}

	// The failed transaction must not keep occupying the session slot.
	failOpen = false
	tx, err := c.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin after failed begin should succeed: %v", err)
	}
	if tx.Phase() != Open {
		t.Errorf("expected phase OPEN, got %s", tx.Phase())
	}
}
