// Package makerspace implements the HTTP client for the upstream
// maker-space provider: token login, resource availability, basket booking,
// the current user's bookings and cancellations.
package makerspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/partolaaa/maker-space-tools/internal/pkg/apperror"
)

var (
	// ErrUnauthorized signals that the provider rejected the request with 401.
	// It is a distinguished error kind: callers must not render it as a
	// generic failure.
	ErrUnauthorized = apperror.New(http.StatusUnauthorized, "Unauthorized")

	// ErrNoCredentials signals that no credentials are available to log in with.
	ErrNoCredentials = apperror.New(http.StatusUnauthorized, "Credentials are missing.")
)

const (
	defaultTokenTTL = 30 * time.Minute
	// refreshBuffer expires tokens slightly early so in-flight requests do
	// not race the provider-side expiry.
	refreshBuffer = time.Minute

	// unauthorizedDebounce limits how often the unauthorized handler fires.
	unauthorizedDebounce = 5 * time.Second
)

// FallbackCredentials supplies stored credentials for unattended re-login,
// e.g. by the automation scheduler. ok is false when none are stored.
type FallbackCredentials func(ctx context.Context) (Credentials, bool)

// Client talks to the maker-space provider API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clientID   string
	fallback   FallbackCredentials

	mu     sync.Mutex
	token  string
	expiry time.Time
	creds  *Credentials

	notifyMu       sync.Mutex
	lastNotified   time.Time
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithFallbackCredentials installs a stored-credentials provider used when no
// interactive login happened in this process.
func WithFallbackCredentials(fallback FallbackCredentials) Option {
	return func(c *Client) { c.fallback = fallback }
}

// NewClient creates a provider client for the given base URL.
func NewClient(baseURL, clientID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetUnauthorizedHandler installs the process-wide unauthorized callback.
// It fires at most once per five seconds and never for the token endpoint.
func (c *Client) SetUnauthorizedHandler(handler func()) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.onUnauthorized = handler
}

// Login requests a token with the given credentials and caches both for
// subsequent calls. A failed login leaves any previous session untouched.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return apperror.New(http.StatusBadRequest, "Username and password are required.")
	}
	token, expiry, err := c.requestToken(ctx, creds)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiry = expiry
	credsCopy := creds
	c.creds = &credsCopy
	return nil
}

// LoginWithStored logs in with the fallback credentials, if any.
func (c *Client) LoginWithStored(ctx context.Context) error {
	if c.fallback == nil {
		return ErrNoCredentials
	}
	creds, ok := c.fallback(ctx)
	if !ok {
		return ErrNoCredentials
	}
	return c.Login(ctx, creds)
}

// Logout drops the cached token and credentials.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiry = time.Time{}
	c.creds = nil
}

// Authenticated reports whether a usable session exists: a live token, or
// cached credentials a token can be refreshed from.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.expiry) {
		return true
	}
	return c.creds != nil
}

// InvalidateToken forces the next authenticated call to refresh the token.
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiry = time.Time{}
}

// ResourceAvailability queries slot availability for a resource starting at
// the given provider-local time.
func (c *Client) ResourceAvailability(ctx context.Context, days int, guid, startTime string, intervalMinutes int) (*AvailabilityResponse, error) {
	query := url.Values{}
	query.Set("days", fmt.Sprint(days))
	query.Set("guid", guid)
	query.Set("startTime", startTime)
	query.Set("interval", fmt.Sprint(intervalMinutes))

	var out AvailabilityResponse
	if err := c.doJSON(ctx, http.MethodPost, "/en/bookings/GetAvailabilityAtWithUser", query, map[string]any{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PreviewInvoice previews the invoice for the given bookings. Provider-side
// rejections that still carry a parsable preview body are returned as a
// preview, not an error; 401 and transport failures are errors.
func (c *Client) PreviewInvoice(ctx context.Context, items []PreviewItem) (*PreviewResponse, error) {
	query := url.Values{}
	query.Set("createZeroValueInvoice", "true")

	var out PreviewResponse
	err := c.doJSON(ctx, http.MethodPost, "/en/basket/PreviewInvoice", query, items, &out)
	if err == nil {
		return &out, nil
	}
	if apperror.IsUnauthorized(err) {
		return nil, err
	}
	var respErr *responseError
	if errors.As(err, &respErr) && len(respErr.body) > 0 {
		var rejected PreviewResponse
		if jsonErr := json.Unmarshal(respErr.body, &rejected); jsonErr == nil && (rejected.Message != "" || len(rejected.Errors) > 0) {
			return &rejected, nil
		}
	}
	return nil, err
}

// BookBasket submits the basket, creating the booking invoice.
func (c *Client) BookBasket(ctx context.Context, basket BasketRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/en/basket/CreateInvoice", nil, basket, nil)
}

// MyBookings loads the current user's bookings.
func (c *Client) MyBookings(ctx context.Context, depth int) (*MyBookingsResponse, error) {
	query := url.Values{}
	query.Set("_depth", fmt.Sprint(depth))

	var out MyBookingsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/en/bookings/my", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelBooking cancels a booking by provider id.
func (c *Client) CancelBooking(ctx context.Context, bookingID int64) error {
	body := CancelRequest{CancellationReason: "NoLongerNeeded"}
	path := fmt.Sprintf("/en/bookings/deletejson/%d", bookingID)
	return c.doJSON(ctx, http.MethodPost, path, nil, body, nil)
}

// doJSON performs an authenticated JSON round-trip and maps the provider's
// error contract: non-2xx becomes an error carrying the parsed body message
// when present, else the raw text; 401 invalidates the token, notifies the
// unauthorized handler and returns ErrUnauthorized.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.InvalidateToken()
		c.notifyUnauthorized()
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &responseError{app: apperror.New(resp.StatusCode, errorMessage(text)), body: text}
	}

	if out == nil || len(text) == 0 {
		return nil
	}
	if err := json.Unmarshal(text, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// ensureToken returns a live token, refreshing from cached or stored
// credentials when the current one is missing or about to expire.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Add(refreshBuffer).Before(c.expiry) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	creds := c.creds
	c.mu.Unlock()

	if creds == nil {
		if c.fallback != nil {
			if stored, ok := c.fallback(ctx); ok {
				creds = &stored
			}
		}
		if creds == nil {
			return "", ErrNoCredentials
		}
	}

	token, expiry, err := c.requestToken(ctx, *creds)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.token = token
	c.expiry = expiry
	if c.creds == nil {
		c.creds = creds
	}
	c.mu.Unlock()
	return token, nil
}

// requestToken performs the form-encoded token exchange. The token endpoint
// never triggers the unauthorized handler: a 400/401 there is a login
// failure, not a session expiry.
func (c *Client) requestToken(ctx context.Context, creds Credentials) (string, time.Time, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)
	if creds.TOTP != "" {
		form.Set("totp", creds.TOTP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if clientID := firstNonEmpty(creds.ClientID, c.clientID); clientID != "" {
		req.Header.Set("X-Client-Id", clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("call token endpoint: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The provider answers bad credentials with 400; surface both
		// as unauthorized so callers prompt for a fresh login.
		code := resp.StatusCode
		if code == http.StatusBadRequest || code == http.StatusUnauthorized {
			code = http.StatusUnauthorized
		}
		return "", time.Time{}, apperror.New(code, errorMessage(text))
	}

	var token TokenResponse
	if err := json.Unmarshal(text, &token); err != nil {
		return "", time.Time{}, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", time.Time{}, apperror.New(http.StatusUnauthorized, "Unable to retrieve access token.")
	}

	ttl := defaultTokenTTL
	if token.ExpiresIn > 0 {
		ttl = time.Duration(token.ExpiresIn) * time.Second
	}
	return token.AccessToken, time.Now().Add(ttl), nil
}

// responseError keeps the raw body of a non-2xx response so callers can
// recover structured payloads from provider rejections.
type responseError struct {
	app  *apperror.AppError
	body []byte
}

func (e *responseError) Error() string { return e.app.Error() }
func (e *responseError) Unwrap() error { return e.app }

func (c *Client) notifyUnauthorized() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if c.onUnauthorized == nil {
		return
	}
	now := time.Now()
	if now.Sub(c.lastNotified) < unauthorizedDebounce {
		return
	}
	c.lastNotified = now
	c.onUnauthorized()
}

// errorMessage extracts the "message" field from an error body, falling back
// to the raw text when the body is not JSON or has no message.
func errorMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "Request failed."
	}
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return text
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
