package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"post not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestGenerateRequestBody(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /generate_post": `{"post":{"id":"p-1","title":"A title","content":"Body","hashtags":["#AI"],"status":"pending"},"notification":"reviewer notified"}`,
	})

	client := ts.client()

	req := map[string]any{
		"topic":      "AI in sales",
		"tone":       "casual",
		"length":     500,
		"session_id": "weekly",
	}
	resp, err := client.post(ctx, "/generate_post", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		Post         postPayload `json:"post"`
		Notification string      `json:"notification"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if result.Post.ID != "p-1" || result.Post.Status != "pending" {
		t.Errorf("unexpected post: %+v", result.Post)
	}
	if result.Notification != "reviewer notified" {
		t.Errorf("notification = %q", result.Notification)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Method != "POST" || r.Path != "/generate_post" {
		t.Errorf("unexpected request: %+v", r)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["topic"] != "AI in sales" || body["session_id"] != "weekly" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestShowPostNotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	client := ts.client()

	resp, err := client.get(ctx, "/get_post/missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var post postPayload
	err = decodeJSON(resp, &post)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %q, want it to mention 404", err.Error())
	}
}

func TestRejectEscapesReason(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /reject_post/p-1": `{"status":"rejected","post_id":"p-1","reason":"too long & dull"}`,
	})
	client := ts.client()

	resp, err := client.get(ctx, "/reject_post/p-1?reason=too+long+%26+dull")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result map[string]string
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result["reason"] != "too long & dull" {
		t.Errorf("reason = %q", result["reason"])
	}
	if got := ts.requests[0].Path; got != "/reject_post/p-1?reason=too+long+%26+dull" {
		t.Errorf("path = %q", got)
	}
}

func TestShowCommandArgs(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"show"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing post id")
	}
}
