package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/foodgram/internal/application"
	"github.com/oksasatya/foodgram/pkg/helpers"
	"github.com/oksasatya/foodgram/pkg/response"
)

// AuthHandler issues and revokes tokens. Tokens go to both the body and HttpOnly cookies.
type AuthHandler struct {
	Svc     *application.UserService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.UserService, logger *logrus.Logger, cookies *helpers.Manager) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: cookies}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) issue(c *gin.Context, pair application.TokenPair, status int, message string) {
	if h.Cookies != nil {
		h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	}
	response.Success(c, status, tokenDTO{
		AuthToken:        pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessTokenExpiry,
		RefreshExpiresAt: pair.RefreshTokenExpiry,
	}, message, nil)
}

// Login POST /api/auth/token/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	if h.Logger != nil {
		h.Logger.WithField("user_id", u.ID).Info("user logged in")
	}
	h.issue(c, pair, http.StatusOK, "login successful")
}

// Refresh POST /api/auth/token/refresh. The refresh token comes from the body or the refresh cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(helpers.RefreshCookie)
	}
	if token == "" {
		fail(c, h.Logger, application.ErrUnauthenticated)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) && h.Cookies != nil {
			h.Cookies.Clear(c)
		}
		fail(c, h.Logger, err)
		return
	}
	h.issue(c, pair, http.StatusOK, "token refreshed")
}

// Logout POST /api/auth/token/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), viewer(c)); err != nil {
		fail(c, h.Logger, err)
		return
	}
	if h.Cookies != nil {
		h.Cookies.Clear(c)
	}
	response.NoContent(c)
}
