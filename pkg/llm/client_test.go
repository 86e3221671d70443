package llm_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amitgarg31/tradesense-ai/pkg/config"
	"github.com/amitgarg31/tradesense-ai/pkg/llm"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *llm.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := llm.NewClient(config.LLMConfig{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		Model:          "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
	})
	return srv, client
}

func TestSummarize(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Missing bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"BTC is trending up."}}]}`))
	})

	got, err := client.Summarize(context.Background(), "BTC-USD @ 50000")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != "BTC is trending up." {
		t.Errorf("Unexpected summary: %q", got)
	}
}

func TestSummarize_NoChoices(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	if _, err := client.Summarize(context.Background(), "text"); err == nil {
		t.Error("Expected error for empty choices")
	}
}

func TestEmbed(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	})

	vec, err := client.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("Expected 3-dim vector, got %d", len(vec))
	}
}

func TestPost_ErrorStatus(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	if _, err := client.Summarize(context.Background(), "text"); err == nil {
		t.Error("Expected error for non-200 status")
	}
}
