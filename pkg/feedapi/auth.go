package feedapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"
)

// Session owns the bearer token for the authenticated feed API. It performs
// the client-credentials exchange lazily and caches the token until shortly
// before expiry. The run is sequential, but refresh is mutex-guarded anyway
// so concurrent callers can never trigger duplicate token exchanges.
type Session struct {
	authURL   string
	appID     string
	secret    string
	userAgent string
	deviceID  string
	client    *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now func() time.Time
}

// expiryMargin is subtracted from the reported TTL so a token is never used
// right at its expiry boundary
const expiryMargin = 60 * time.Second

// NewSession creates a session for the given auth endpoint and credentials.
// The device id sent with the exchange is generated once per process.
func NewSession(authURL, appID, secret, userAgent string, client *http.Client) *Session {
	return &Session{
		authURL:   authURL,
		appID:     appID,
		secret:    secret,
		userAgent: userAgent,
		deviceID:  uuid.NewString(),
		client:    client,
		now:       time.Now,
	}
}

// Available reports whether credentials are configured at all
func (s *Session) Available() bool {
	return s.appID != "" && s.secret != ""
}

// EnsureValid returns true if a usable token is cached or a fresh one was
// obtained. Any failure (network, non-2xx, malformed body) logs a warning
// and returns false without touching the cached state.
func (s *Session) EnsureValid(ctx context.Context) bool {
	if !s.Available() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt) {
		return true
	}

	form := url.Values{
		"grant_type": {"client_credentials"},
		"device_id":  {s.deviceID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		lgr.Printf("[WARN] feed auth: create request: %v", err)
		return false
	}
	req.SetBasicAuth(s.appID, s.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		lgr.Printf("[WARN] feed auth: token exchange failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		lgr.Printf("[WARN] feed auth: unexpected status %d", resp.StatusCode)
		return false
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		lgr.Printf("[WARN] feed auth: decode token response: %v", err)
		return false
	}
	if body.AccessToken == "" {
		lgr.Printf("[WARN] feed auth: empty access token in response")
		return false
	}
	if body.ExpiresIn == 0 {
		body.ExpiresIn = 3600
	}

	s.token = body.AccessToken
	s.expiresAt = s.now().Add(time.Duration(body.ExpiresIn)*time.Second - expiryMargin)
	lgr.Printf("[DEBUG] feed auth: token obtained, valid until %s", s.expiresAt.Format(time.RFC3339))
	return true
}

// Token returns the cached bearer token, empty if not authenticated
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// auth header value for API requests
func (s *Session) authHeader() string {
	return fmt.Sprintf("bearer %s", s.Token())
}
