package makerspace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/partolaaa/maker-space-tools/internal/pkg/apperror"
)

// newTestServer serves a token endpoint plus the given handlers keyed by path.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var tokenCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") != "user" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Bad credentials."}`))
			return
		}
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok-1", ExpiresIn: 3600})
	})
	for path, handler := range handlers {
		mux.HandleFunc(path, handler)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &tokenCalls
}

func loggedInClient(t *testing.T, server *httptest.Server, opts ...Option) *Client {
	t.Helper()
	client := NewClient(server.URL, "client-1", opts...)
	require.NoError(t, client.Login(context.Background(), Credentials{Username: "user", Password: "secret"}))
	return client
}

func TestLoginFailureKeepsSessionAbsent(t *testing.T) {
	server, _ := newTestServer(t, nil)
	client := NewClient(server.URL, "client-1")

	err := client.Login(context.Background(), Credentials{Username: "user", Password: "wrong"})
	require.Error(t, err)
	require.True(t, apperror.IsUnauthorized(err), "bad credentials should map to unauthorized")
	require.Contains(t, err.Error(), "Bad credentials.")
	require.False(t, client.Authenticated())
}

func TestTokenIsReusedAcrossCalls(t *testing.T) {
	server, tokenCalls := newTestServer(t, map[string]http.HandlerFunc{
		"/en/bookings/my": func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(MyBookingsResponse{})
		},
	})
	client := loggedInClient(t, server)

	for i := 0; i < 3; i++ {
		_, err := client.MyBookings(context.Background(), 3)
		require.NoError(t, err)
	}
	require.Equal(t, int64(1), tokenCalls.Load(), "token should be requested once")
}

func TestInvalidateTokenTriggersRelogin(t *testing.T) {
	server, tokenCalls := newTestServer(t, map[string]http.HandlerFunc{
		"/en/bookings/my": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(MyBookingsResponse{})
		},
	})
	client := loggedInClient(t, server)

	_, err := client.MyBookings(context.Background(), 3)
	require.NoError(t, err)
	client.InvalidateToken()
	_, err = client.MyBookings(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, int64(2), tokenCalls.Load(), "invalidation should force one refresh")
}

func TestErrorContract(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantCode int
	}{
		{
			name:     "json message field",
			status:   http.StatusConflict,
			body:     `{"message":"Slot already booked."}`,
			wantMsg:  "Slot already booked.",
			wantCode: http.StatusConflict,
		},
		{
			name:     "raw text body",
			status:   http.StatusBadGateway,
			body:     "upstream exploded",
			wantMsg:  "upstream exploded",
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "malformed json falls back to raw text",
			status:   http.StatusBadRequest,
			body:     `{"message":`,
			wantMsg:  `{"message":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "empty body",
			status:   http.StatusInternalServerError,
			body:     "",
			wantMsg:  "Request failed.",
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, map[string]http.HandlerFunc{
				"/en/bookings/my": func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(tt.body))
				},
			})
			client := loggedInClient(t, server)

			_, err := client.MyBookings(context.Background(), 3)
			require.Error(t, err)
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, tt.wantCode, appErr.Code)
			require.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestUnauthorizedNotifiesHandlerOncePerWindow(t *testing.T) {
	server, _ := newTestServer(t, map[string]http.HandlerFunc{
		"/en/bookings/my": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	})
	client := loggedInClient(t, server)

	var notified atomic.Int64
	client.SetUnauthorizedHandler(func() { notified.Add(1) })

	for i := 0; i < 3; i++ {
		_, err := client.MyBookings(context.Background(), 3)
		require.ErrorIs(t, err, ErrUnauthorized)
	}
	require.Equal(t, int64(1), notified.Load(), "handler should be debounced")
}

func TestFallbackCredentialsUsedWhenNoInteractiveLogin(t *testing.T) {
	server, tokenCalls := newTestServer(t, map[string]http.HandlerFunc{
		"/en/bookings/my": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(MyBookingsResponse{MyBookings: []MyBooking{{ID: 7}}})
		},
	})
	fallback := func(ctx context.Context) (Credentials, bool) {
		return Credentials{Username: "user", Password: "secret"}, true
	}
	client := NewClient(server.URL, "client-1", WithFallbackCredentials(fallback))

	resp, err := client.MyBookings(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, resp.MyBookings, 1)
	require.Equal(t, int64(1), tokenCalls.Load())
}

func TestNoCredentialsAtAll(t *testing.T) {
	server, _ := newTestServer(t, nil)
	client := NewClient(server.URL, "client-1")

	_, err := client.MyBookings(context.Background(), 3)
	require.ErrorIs(t, err, ErrNoCredentials)
	require.True(t, apperror.IsUnauthorized(err))
}

func TestPreviewInvoiceParsesRejectionBody(t *testing.T) {
	server, _ := newTestServer(t, map[string]http.HandlerFunc{
		"/en/basket/PreviewInvoice": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"Message":"Booking is not available.","Errors":[{"Message":"Slot taken."}]}`))
		},
	})
	client := loggedInClient(t, server)

	preview, err := client.PreviewInvoice(context.Background(), []PreviewItem{NewPreviewItem(PreviewBooking{})})
	require.NoError(t, err)
	require.NotNil(t, preview)
	require.Equal(t, "Booking is not available.", preview.Message)
	require.Equal(t, []string{"Slot taken."}, preview.ErrorMessages())
}

func TestCancelBookingSendsReason(t *testing.T) {
	var gotPath string
	var gotBody CancelRequest
	server, _ := newTestServer(t, map[string]http.HandlerFunc{
		"/en/bookings/deletejson/42": func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		},
	})
	client := loggedInClient(t, server)

	require.NoError(t, client.CancelBooking(context.Background(), 42))
	require.Equal(t, "/en/bookings/deletejson/42", gotPath)
	require.Equal(t, "NoLongerNeeded", gotBody.CancellationReason)
}
