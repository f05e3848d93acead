package academic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// refreshWindow is how close to expiry the access token may get before a
// refresh is attempted.
const refreshWindow = 5 * time.Minute

// TokenSource yields a bearer token for records API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrUnauthenticated
	}
	return string(t), nil
}

// RefreshingTokenSource holds a JWT access/refresh token pair and renews the
// access token through the API's refresh endpoint shortly before it expires.
// Concurrent callers share a single in-flight refresh.
type RefreshingTokenSource struct {
	refreshURL string
	client     *http.Client

	mu      sync.Mutex
	access  string
	refresh string
}

// NewRefreshingTokenSource creates a token source for the given token pair.
// baseURL is the records API root (the refresh endpoint is token/refresh/).
func NewRefreshingTokenSource(baseURL, access, refresh string) *RefreshingTokenSource {
	return &RefreshingTokenSource{
		refreshURL: strings.TrimSuffix(baseURL, "/") + "/token/refresh/",
		client:     &http.Client{Timeout: 10 * time.Second},
		access:     access,
		refresh:    refresh,
	}
}

// Token returns a valid access token, refreshing it first when it expires
// within the refresh window. A failed refresh invalidates the pair.
func (s *RefreshingTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.access == "" || s.refresh == "" {
		return "", ErrUnauthenticated
	}
	if !expiringSoon(s.access, time.Now()) {
		return s.access, nil
	}

	access, err := s.doRefresh(ctx)
	if err != nil {
		s.access, s.refresh = "", ""
		return "", fmt.Errorf("%w: refresh failed: %v", ErrUnauthenticated, err)
	}
	s.access = access
	return access, nil
}

func (s *RefreshingTokenSource) doRefresh(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh": s.refresh})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refresh endpoint returned status %d", resp.StatusCode)
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", fmt.Errorf("refresh response missing access token")
	}
	return out.Access, nil
}

// expiringSoon decodes the JWT exp claim without verifying the signature
// (verification belongs to the API). Undecodable tokens count as expired.
func expiringSoon(token string, now time.Time) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return true
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return true
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Exp == 0 {
		return true
	}
	return time.Unix(claims.Exp, 0).Sub(now) < refreshWindow
}
