package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edubot-ec/edubot/internal/academic"
	"github.com/edubot-ec/edubot/internal/platform/config"
)

type stubSource struct {
	enrollments []academic.Enrollment
}

func (s *stubSource) Enrollments(context.Context, string) ([]academic.Enrollment, error) {
	return s.enrollments, nil
}

func (s *stubSource) SyllabusRecords(context.Context, string) ([]academic.SyllabusRecord, error) {
	return nil, nil
}

func testApp() *app {
	grade := 84.5
	return &app{
		cfg: &config.Config{},
		source: &stubSource{enrollments: []academic.Enrollment{
			{SubjectName: "Física", Classroom: "B-101", SectionNumber: "2", Grade: &grade},
		}},
	}
}

func TestHealthEndpoints(t *testing.T) {
	mux := newMux(testApp())

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200 without optional dependencies",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestReport_RequiresToken(t *testing.T) {
	mux := newMux(testApp())

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestReport_ReturnsWorkbook(t *testing.T) {
	mux := newMux(testApp())

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if got := rec.Header().Get("Content-Type"); got != want {
		t.Errorf("Content-Type = %q", got)
	}
	if rec.Body.Len() == 0 {
		t.Error("workbook body should not be empty")
	}
}

func TestSetupLogger_Levels(t *testing.T) {
	// Exercises every branch; the default logger swap must not panic.
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		setupLogger(config.LogConfig{Level: level, Format: "text"})
		setupLogger(config.LogConfig{Level: level, Format: "json"})
	}
}
