package academic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Source is the read interface the advisor consumes. Implementations fetch
// per request; records are never mutated once returned.
type Source interface {
	Enrollments(ctx context.Context, token string) ([]Enrollment, error)
	SyllabusRecords(ctx context.Context, token string) ([]SyllabusRecord, error)
}

// Client talks to the university records API with a bearer token.
type Client struct {
	baseURL string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a records API client. baseURL points at the API root,
// e.g. "http://127.0.0.1:8000/api".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enrollments returns the student's registered subjects for the active term.
func (c *Client) Enrollments(ctx context.Context, token string) ([]Enrollment, error) {
	body, err := c.get(ctx, "/mis-inscripciones/", token)
	if err != nil {
		return nil, err
	}
	if err := validatePayload(enrollmentsValidator, body, "enrollments"); err != nil {
		return nil, &UpstreamError{Endpoint: "/mis-inscripciones/", Err: err}
	}

	var dtos []enrollmentDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, &UpstreamError{Endpoint: "/mis-inscripciones/", Err: fmt.Errorf("decode: %w", err)}
	}

	enrollments := make([]Enrollment, 0, len(dtos))
	for _, dto := range dtos {
		if e, ok := dto.toEnrollment(); ok {
			enrollments = append(enrollments, e)
		}
	}
	slog.Debug("enrollments fetched", "count", len(enrollments))
	return enrollments, nil
}

// SyllabusRecords returns the raw, possibly duplicated syllabus entries.
func (c *Client) SyllabusRecords(ctx context.Context, token string) ([]SyllabusRecord, error) {
	body, err := c.get(ctx, "/silabo/", token)
	if err != nil {
		return nil, err
	}
	if err := validatePayload(syllabusValidator, body, "syllabus"); err != nil {
		return nil, &UpstreamError{Endpoint: "/silabo/", Err: err}
	}

	var dtos []syllabusDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, &UpstreamError{Endpoint: "/silabo/", Err: fmt.Errorf("decode: %w", err)}
	}

	records := make([]SyllabusRecord, 0, len(dtos))
	for _, dto := range dtos {
		if rec, ok := dto.toRecord(); ok {
			records = append(records, rec)
		}
	}
	slog.Debug("syllabus records fetched", "count", len(records))
	return records, nil
}

func (c *Client) get(ctx context.Context, path, token string) ([]byte, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Endpoint: path, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Endpoint: path, Err: fmt.Errorf("read response: %w", err)}
	}
	return body, nil
}
