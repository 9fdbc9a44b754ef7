package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/dmitrijs2005/studentvault/internal/server/authgate"
	"github.com/gin-gonic/gin"
)

// CookieName is the cookie carrying the token after sign-in.
const CookieName = "jwt"

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *HTTPServer) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	token, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	case errors.Is(err, common.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect Credentials"})
		return
	case common.IsSecretFailure(err):
		s.logger.Error(c.Request.Context(), "sign in failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service Unavailable"})
		return
	default:
		s.logger.Error(c.Request.Context(), "sign in failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, token, int(s.validity/time.Second), "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"message": "Admin logged in successfully", "token": token})
}

func (s *HTTPServer) whoami(c *gin.Context) {
	id, ok := authgate.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorised"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"email":      id.Email,
		"expires_at": id.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *HTTPServer) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
