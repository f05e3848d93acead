package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// writeGeminiReply encodes a minimal generateContent response with the given
// candidate text and token counts.
func writeGeminiReply(w http.ResponseWriter, text string, promptTokens, candidateTokens int) {
	fmt.Fprintf(w, `{
		"candidates": [{"content": {"parts": [{"text": %q}]}}],
		"usageMetadata": {"promptTokenCount": %d, "candidatesTokenCount": %d}
	}`, text, promptTokens, candidateTokens)
}

func TestGoogleProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Gemini routes the model through the path and the key through the query.
		if !strings.Contains(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing or wrong API key in query")
		}

		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) == 0 {
			t.Error("no contents in request")
		}

		writeGeminiReply(w, "Una integral definida mide el área bajo la curva.", 8, 12)
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "¿qué es una integral definida?"}},
	})

	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !strings.Contains(resp.Content, "área bajo la curva") {
		t.Errorf("content = %q, want the candidate text", resp.Content)
	}
	if resp.InputTokens != 8 {
		t.Errorf("input_tokens = %d, want 8", resp.InputTokens)
	}
	if resp.OutputTokens != 12 {
		t.Errorf("output_tokens = %d, want 12", resp.OutputTokens)
	}
}

func TestGoogleProvider_Complete_RoleMappings(t *testing.T) {
	var receivedContents []geminiContent

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		receivedContents = req.Contents
		writeGeminiReply(w, "ok", 0, 0)
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "Eres un asistente académico para estudiantes universitarios."},
			{Role: "user", Content: "hola"},
			{Role: "assistant", Content: "Hola, ¿en qué te ayudo?"},
			{Role: "user", Content: "explícame las integrales definidas"},
		},
	})

	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	// System messages are dropped from contents, assistant becomes "model".
	if len(receivedContents) != 3 {
		t.Fatalf("got %d contents, want 3 (system should be skipped)", len(receivedContents))
	}
	if receivedContents[1].Role != "model" {
		t.Errorf("assistant role mapped to %q, want %q", receivedContents[1].Role, "model")
	}
	if receivedContents[2].Parts[0].Text != "explícame las integrales definidas" {
		t.Errorf("last content = %q, want the final user turn", receivedContents[2].Parts[0].Text)
	}
}

func TestGoogleProvider_Complete_VisionInlineData(t *testing.T) {
	var receivedContents []geminiContent

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		receivedContents = req.Contents
		writeGeminiReply(w, "La foto muestra un ejercicio de integración por partes.", 0, 0)
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{
			Role:      "user",
			Content:   "describe este ejercicio",
			ImageURLs: []string{"data:image/png;base64,aWJ5dGVz"},
		}},
	})

	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(receivedContents) != 1 {
		t.Fatalf("got %d contents, want 1", len(receivedContents))
	}

	parts := receivedContents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want text plus inline image", len(parts))
	}
	if parts[0].Text != "describe este ejercicio" {
		t.Errorf("text part = %q", parts[0].Text)
	}
	if parts[1].InlineData == nil {
		t.Fatal("image part has no inline_data")
	}
	if parts[1].InlineData.MimeType != "image/png" {
		t.Errorf("mime_type = %q, want %q", parts[1].InlineData.MimeType, "image/png")
	}
	if parts[1].InlineData.Data != "aWJ5dGVz" {
		t.Errorf("data = %q, want the base64 payload passed through unchanged", parts[1].InlineData.Data)
	}
}

func TestGoogleProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": "forbidden"}`))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hola"}},
	})

	if err == nil {
		t.Fatal("Complete() should return error on API error")
	}
}

func TestGoogleProvider_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy", http.StatusForbidden, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.Contains(r.URL.Path, "/models") {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))
			err := provider.HealthCheck(context.Background())

			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGoogleProvider_Models(t *testing.T) {
	provider := NewGoogleProvider("test-key")
	models := provider.Models()

	if len(models) == 0 {
		t.Fatal("Models() returned empty list")
	}
	for _, m := range models {
		if m.Name == "" {
			t.Errorf("model %q has empty name", m.ID)
		}
	}
}
