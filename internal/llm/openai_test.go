package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3/option"
)

func TestCompleteReturnsFirstChoiceContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-test",
			"object": "chat.completion",
			"created": 0,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"match\": true, \"explanation\": \"relevant\"}"}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter("test-key", option.WithBaseURL(srv.URL))
	content, err := c.Complete(context.Background(), "system", "user", "gpt-4o-mini", 100)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	want := `{"match": true, "explanation": "relevant"}`
	if content != want {
		t.Errorf("Complete() = %q, want %q", content, want)
	}
}

func TestCompleteErrorsOnEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "chatcmpl-test", "object": "chat.completion", "created": 0, "model": "gpt-4o-mini", "choices": []}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter("test-key", option.WithBaseURL(srv.URL))
	if _, err := c.Complete(context.Background(), "system", "user", "gpt-4o-mini", 0); err == nil {
		t.Error("Complete() error = nil, want error for empty choices")
	}
}
