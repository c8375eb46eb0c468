package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/partolaaa/maker-space-tools/internal/auth"
	"github.com/partolaaa/maker-space-tools/internal/makerspace"
	"github.com/partolaaa/maker-space-tools/internal/pkg/apperror"
	"github.com/partolaaa/maker-space-tools/internal/pkg/response"
)

type AuthHandler struct {
	client       *makerspace.Client
	jwtManager   *auth.JWTManager
	store        auth.CredentialStore // nil when credential storage is disabled
	secureCookie bool
}

func NewAuthHandler(
	client *makerspace.Client,
	jwtManager *auth.JWTManager,
	store auth.CredentialStore,
	secureCookie bool,
) *AuthHandler {
	return &AuthHandler{
		client:       client,
		jwtManager:   jwtManager,
		store:        store,
		secureCookie: secureCookie,
	}
}

//
// POST /api/auth/login
//

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "Username and password are required."))
		return
	}

	ctx := c.Request.Context()

	creds := makerspace.Credentials{
		Username: req.Username,
		Password: req.Password,
		TOTP:     req.TOTP,
		ClientID: req.ClientID,
	}
	if err := h.client.Login(ctx, creds); err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwtManager.GenerateSessionToken(req.Username)
	if err != nil {
		response.Error(c, apperror.Wrap(err, http.StatusInternalServerError, "Failed to create session."))
		return
	}

	if req.Remember && h.store != nil {
		if err := h.store.Save(ctx, creds); err != nil {
			// The login itself succeeded; the scheduler just cannot re-login
			// until the next remembered sign-in.
			log.Printf("failed to persist credentials: %v", err)
		}
	}

	h.setSessionCookie(c, token, int(h.jwtManager.TTL().Seconds()))
	c.JSON(http.StatusOK, StatusResponse{Authenticated: true})
}

//
// GET /api/auth/status
//

// Status never returns 401: an absent or expired session is a regular
// unauthenticated answer, not an error.
func (h *AuthHandler) Status(c *gin.Context) {
	authenticated := auth.SessionValid(c, h.jwtManager) && h.client.Authenticated()
	c.JSON(http.StatusOK, StatusResponse{Authenticated: authenticated})
}

//
// POST /api/auth/logout
//

func (h *AuthHandler) Logout(c *gin.Context) {
	h.client.Logout()
	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, token, maxAge, "/", "", h.secureCookie, true)
}
