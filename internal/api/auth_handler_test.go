package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/partolaaa/maker-space-tools/internal/auth"
	"github.com/partolaaa/maker-space-tools/internal/makerspace"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") != "user@example.com" || r.PostForm.Get("password") != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(makerspace.TokenResponse{AccessToken: "tok-1", ExpiresIn: 3600})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type memoryStore struct {
	saved *makerspace.Credentials
}

func (s *memoryStore) Save(_ context.Context, creds makerspace.Credentials) error {
	s.saved = &creds
	return nil
}

func (s *memoryStore) Load(context.Context) (makerspace.Credentials, bool, error) {
	if s.saved == nil {
		return makerspace.Credentials{}, false, nil
	}
	return *s.saved, true, nil
}

func (s *memoryStore) Clear(context.Context) error {
	s.saved = nil
	return nil
}

func newAuthRouter(t *testing.T) (*gin.Engine, *makerspace.Client, *memoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := makerspace.NewClient(newUpstream(t).URL, "client-1")
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	store := &memoryStore{}
	handler := NewAuthHandler(client, jwtManager, store, false)

	r := gin.New()
	r.POST("/api/auth/login", handler.Login)
	r.GET("/api/auth/status", handler.Status)
	r.POST("/api/auth/logout", handler.Logout)
	return r, client, store
}

func postLogin(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == auth.SessionCookieName {
			return cookie
		}
	}
	return nil
}

func TestLoginSetsSessionCookie(t *testing.T) {
	router, client, store := newAuthRouter(t)

	rec := postLogin(t, router, `{"username":"user@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, client.Authenticated())

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)

	// Credentials are only persisted when asked for.
	require.Nil(t, store.saved)
}

func TestLoginRememberPersistsCredentials(t *testing.T) {
	router, _, store := newAuthRouter(t)

	rec := postLogin(t, router, `{"username":"user@example.com","password":"hunter2","remember":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, store.saved)
	require.Equal(t, "user@example.com", store.saved.Username)
	require.Equal(t, "hunter2", store.saved.Password)
}

func TestLoginFailurePassesThroughUpstreamStatus(t *testing.T) {
	router, client, _ := newAuthRouter(t)

	rec := postLogin(t, router, `{"username":"user@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, client.Authenticated())
	require.Nil(t, sessionCookie(t, rec))
}

func TestLoginRejectsMissingFields(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	rec := postLogin(t, router, `{"username":"user@example.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Username and password are required.")
}

func TestStatusReflectsSessionWithout401(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"authenticated":false}`, rec.Body.String())

	login := postLogin(t, router, `{"username":"user@example.com","password":"hunter2"}`)
	cookie := sessionCookie(t, login)
	require.NotNil(t, cookie)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"authenticated":true}`, rec.Body.String())
}

func TestLogoutClearsSession(t *testing.T) {
	router, client, _ := newAuthRouter(t)

	login := postLogin(t, router, `{"username":"user@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, login.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(sessionCookie(t, login))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.False(t, client.Authenticated())

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	require.Empty(t, cookie.Value)
	require.Negative(t, cookie.MaxAge)
}
