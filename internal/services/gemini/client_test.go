package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foley/internal/config"
	"foley/internal/services"
	"foley/internal/session"
)

func testConfig(baseURL string) config.Gemini {
	cfg := config.Default().Gemini
	cfg.APIKey = "test-key"
	cfg.BaseURL = baseURL
	return cfg
}

func generateBody(t *testing.T, payload string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": payload}}}},
		},
	})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return body
}

func TestDetectEventsParsesAndCaps(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		payload := `{"events":[
			{"timestamp":"00:01","description":"door slams shut","confidence":0.9},
			{"timestamp":"00:04","description":"keys drop on tile","confidence":0.8},
			{"timestamp":"00:09","description":"chair scrapes","confidence":0.7}
		]}`
		w.Write(generateBody(t, payload))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxEvents = 2
	client := NewClient(cfg)

	events, err := client.DetectEvents(context.Background(), []byte("fake video"), "video/mp4")
	if err != nil {
		t.Fatalf("DetectEvents returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected events capped at 2, got %d", len(events))
	}
	if events[0].Description != "door slams shut" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if !strings.Contains(gotPath, "gemini-2.5-flash:generateContent") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
}

func TestDetectEventsRequiresAPIKey(t *testing.T) {
	cfg := config.Default().Gemini
	client := NewClient(cfg)

	_, err := client.DetectEvents(context.Background(), []byte("fake video"), "video/mp4")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestDirectEventsRejectsCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := `{"directions":[{"spot":"slam","texture":"oak","vibe":"tense"}]}`
		w.Write(generateBody(t, payload))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	events := []*session.SoundEvent{
		{Timestamp: "00:01", Description: "door slams"},
		{Timestamp: "00:04", Description: "keys drop"},
	}

	_, err := client.DirectEvents(context.Background(), events, "noir thriller")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error on mismatched count, got %v", err)
	}
}

func TestReviewEventsReturnsVerdictsInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := `{"verdicts":[
			{"passed":true,"coherenceScore":0.92},
			{"passed":false,"coherenceScore":0.35,"feedback":"too metallic","suggestedFix":"soft leather wallet drop on wood"}
		]}`
		w.Write(generateBody(t, payload))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	events := []*session.SoundEvent{
		{Timestamp: "00:01", Description: "door slams", Layers: session.Layers{Spot: "slam"}},
		{Timestamp: "00:04", Description: "wallet drops", Layers: session.Layers{Spot: "drop"}},
	}

	verdicts, err := client.ReviewEvents(context.Background(), events, "")
	if err != nil {
		t.Fatalf("ReviewEvents returned error: %v", err)
	}
	if len(verdicts) != 2 {
		t.Fatalf("expected 2 verdicts, got %d", len(verdicts))
	}
	if !verdicts[0].Passed || verdicts[1].Passed {
		t.Fatalf("unexpected pass flags: %+v", verdicts)
	}
	if verdicts[1].SuggestedFix == "" {
		t.Fatal("expected suggested fix on failing verdict")
	}
}

func TestEmbedReturnsVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":embedContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"embedding":{"values":[0.1,0.2,0.3]}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	vector, err := client.Embed(context.Background(), "door slams shut")
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	if len(vector) != 3 {
		t.Fatalf("expected 3 values, got %d", len(vector))
	}
}

func TestPostRetriesOnServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write(generateBody(t, `{"events":[]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), WithSleeper(func(time.Duration) {}))
	if _, err := client.DetectEvents(context.Background(), []byte("fake video"), "video/mp4"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestPostDoesNotRetryClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), WithSleeper(func(time.Duration) {}))
	if _, err := client.DetectEvents(context.Background(), []byte("fake video"), "video/mp4"); err == nil {
		t.Fatal("expected error on bad request")
	}
	if calls != 1 {
		t.Fatalf("expected single attempt, got %d", calls)
	}
}

func TestDecodeModelJSONStripsFences(t *testing.T) {
	cases := []string{
		`{"ok":true}`,
		"```json\n{\"ok\":true}\n```",
		"```\n{\"ok\":true}\n```",
		"The result is:\n{\"ok\":true}\nDone.",
	}
	for _, payload := range cases {
		var parsed struct {
			OK bool `json:"ok"`
		}
		if err := DecodeModelJSON(payload, &parsed); err != nil {
			t.Fatalf("DecodeModelJSON(%q) returned error: %v", payload, err)
		}
		if !parsed.OK {
			t.Fatalf("DecodeModelJSON(%q) lost payload", payload)
		}
	}
}
