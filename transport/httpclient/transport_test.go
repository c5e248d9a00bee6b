package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/graphtide/neohttp/transport"
)

func TestSendReturnsRawResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("expected Accept header forwarded, got %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Location", "http://example/tx/5")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	tr := New(nil)
	defer tr.Close()

	resp, err := tr.Send(context.Background(), transport.NewRequest(
		http.MethodPost, server.URL, map[string]string{"Accept": "application/json"}, nil))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if resp.Status != http.StatusCreated {
		t.Errorf("expected status 201, got %d", resp.Status)
	}
	if string(resp.Body) != `{"results": []}` {
		t.Errorf("unexpected body: %s", string(resp.Body))
	}
	if resp.HeaderValue("Location") != "http://example/tx/5" {
		t.Errorf("expected Location header, got %q", resp.HeaderValue("Location"))
	}
}

func TestSendForwardsRequestBody(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tr := New(nil)
	defer tr.Close()

	body := []byte(`{"statements": []}`)
	if _, err := tr.Send(context.Background(), transport.NewRequest(
		http.MethodPost, server.URL, nil, body)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if string(received) != string(body) {
		t.Errorf("expected body %s, got %s", string(body), string(received))
	}
}

func TestSendNon2xxBecomesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors": [{"code": "Neo.ClientError.Request.InvalidFormat", "message": "bad"}]}`))
	}))
	defer server.Close()

	tr := New(nil)
	defer tr.Close()

	_, err := tr.Send(context.Background(), transport.NewRequest(http.MethodPost, server.URL, nil, nil))

	var httpErr *transport.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *transport.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Status != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", httpErr.Status)
	}
	if len(httpErr.Body) == 0 {
		t.Error("the error body must be preserved for protocol translation")
	}
}

func TestSendMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tr := New(nil)
	defer tr.Close()

	tr.Send(context.Background(), transport.NewRequest(http.MethodGet, server.URL, nil, nil))

	metrics := tr.GetMetrics()
	if metrics.TotalRequests != 1 {
		t.Errorf("expected 1 request counted, got %d", metrics.TotalRequests)
	}
	if metrics.TotalErrors != 1 {
		t.Errorf("expected 1 error counted, got %d", metrics.TotalErrors)
	}
	if metrics.LastError == nil {
		t.Error("expected last error recorded")
	}
}

func TestSendContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	tr := New(nil)
	defer tr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tr.Send(ctx, transport.NewRequest(http.MethodGet, server.URL, nil, nil)); err == nil {
		t.Fatal("expected cancellation error")
	}
}
