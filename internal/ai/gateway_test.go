package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/edubot-ec/edubot/internal/ai"
)

func TestMockProvider_Complete(t *testing.T) {
	mock := ai.NewMockProvider("Puedes reforzar integrales definidas esta semana.")

	resp, err := mock.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "user", Content: "¿qué tema debería repasar?"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Puedes reforzar integrales definidas esta semana." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Model != "mock" {
		t.Errorf("Model = %q, want %q", resp.Model, "mock")
	}
	if mock.LastRequest == nil || mock.LastRequest.Messages[0].Content != "¿qué tema debería repasar?" {
		t.Error("LastRequest did not capture the completion request")
	}
}

func TestMockProvider_Complete_Error(t *testing.T) {
	mock := &ai.MockProvider{Err: errors.New("provider down")}

	if _, err := mock.Complete(context.Background(), ai.CompletionRequest{}); err == nil {
		t.Fatal("Complete() should surface the configured error")
	}
}

func TestMockProvider_Transcribe(t *testing.T) {
	mock := &ai.MockProvider{Transcript: "cuál es mi promedio"}

	got, err := mock.Transcribe(context.Background(), ai.TranscriptionRequest{Language: "es"})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got != "cuál es mi promedio" {
		t.Errorf("Transcribe() = %q", got)
	}
}

func TestMockProvider_HealthCheck(t *testing.T) {
	mock := ai.NewMockProvider("ok")
	if err := mock.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	mock.Err = errors.New("unreachable")
	if err := mock.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should report the configured error")
	}
}

func TestMockProvider_Models(t *testing.T) {
	mock := ai.NewMockProvider("ok")
	if models := mock.Models(); len(models) == 0 {
		t.Error("Models() returned empty")
	}
}

func TestTaskType_String(t *testing.T) {
	tests := []struct {
		task     ai.TaskType
		expected string
	}{
		{ai.TaskAdvising, "advising"},
		{ai.TaskVision, "vision"},
		{ai.TaskAnalysis, "analysis"},
	}
	for _, tt := range tests {
		if tt.task.String() != tt.expected {
			t.Errorf("TaskType.String() = %q, want %q", tt.task.String(), tt.expected)
		}
	}
}

func TestCompletionResponse_TotalTokens(t *testing.T) {
	resp := ai.CompletionResponse{InputTokens: 100, OutputTokens: 50}
	if got := resp.TotalTokens(); got != 150 {
		t.Errorf("TotalTokens() = %d, want 150", got)
	}
}
