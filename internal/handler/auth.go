package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pengzhou/bz-studypal-api/internal/model"
	"github.com/pengzhou/bz-studypal-api/internal/service"
	"github.com/pengzhou/bz-studypal-api/internal/token"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Email, password, display name"
// @Success 201 {object} model.APIResponse
// @Failure 400 {object} model.APIResponse
// @Failure 409 {object} model.APIResponse
// @Failure 500 {object} model.APIResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Fail("invalid request body", "VALIDATION_ERROR"))
		return
	}

	user, pair, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.svc.Tokens().AttachCookies(c, pair)
	c.JSON(http.StatusCreated, model.OK(authResponse(user, pair)))
}

// Login godoc
// @Summary Password login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email and password"
// @Success 200 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse
// @Failure 403 {object} model.APIResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Fail("invalid request body", "VALIDATION_ERROR"))
		return
	}

	user, pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.svc.Tokens().AttachCookies(c, pair)
	c.JSON(http.StatusOK, model.OK(authResponse(user, pair)))
}

// Google godoc
// @Summary Google sign-in or account linking
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.GoogleAuthRequest true "ID token or authorization code"
// @Success 200 {object} model.APIResponse
// @Failure 400 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse
// @Failure 403 {object} model.APIResponse
// @Router /api/auth/google [post]
func (h *AuthHandler) Google(c *gin.Context) {
	var req model.GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.IDToken == "" && req.Code == "") {
		c.JSON(http.StatusBadRequest, model.Fail("idToken or code is required", "VALIDATION_ERROR"))
		return
	}

	user, pair, err := h.svc.GoogleAuth(c.Request.Context(), req)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.svc.Tokens().AttachCookies(c, pair)
	c.JSON(http.StatusOK, model.OK(authResponse(user, pair)))
}

// Refresh godoc
// @Summary Rotate the token pair
// @Description Reads the refresh token from its cookie, falling back to the body.
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse
// @Failure 403 {object} model.APIResponse
// @Router /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(token.RefreshCookieName)
	if refreshToken == "" {
		var req model.RefreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}

	user, pair, err := h.svc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.svc.Tokens().AttachCookies(c, pair)
	c.JSON(http.StatusOK, model.OK(authResponse(user, pair)))
}

// Logout godoc
// @Summary Logout
// @Description Clears both auth cookies. Tokens held elsewhere stay valid
// until they expire; there is no server-side revocation.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.svc.Tokens().ClearCookies(c)
	c.JSON(http.StatusOK, model.OK(model.StatusResponse{Status: "logged_out"}))
}

// Profile godoc
// @Summary Current user with derived counts
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse
// @Failure 404 {object} model.APIResponse
// @Router /api/auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, model.Fail("authentication required", "AUTH_REQUIRED"))
		return
	}

	profile, err := h.svc.Profile(c.Request.Context(), user.ID)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK(profile))
}

// Status godoc
// @Summary Report configured auth mechanisms
// @Tags auth
// @Produce json
// @Success 200 {object} model.APIResponse
// @Router /api/auth/status [get]
func (h *AuthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, model.OK(h.svc.Status()))
}

func authResponse(user *model.User, pair token.Pair) model.AuthResponse {
	return model.AuthResponse{
		User: user.Public(),
		Tokens: model.TokenResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		},
		ExpiresAt: token.ExpiresAt(pair.AccessToken),
	}
}

func writeAuthError(c *gin.Context, err error) {
	switch err {
	case service.ErrInvalidInput:
		c.JSON(http.StatusBadRequest, model.Fail("invalid input", "VALIDATION_ERROR"))
	case service.ErrInvalidCredentials:
		c.JSON(http.StatusUnauthorized, model.Fail("invalid credentials", "INVALID_CREDENTIALS"))
	case service.ErrUserExists:
		c.JSON(http.StatusConflict, model.Fail("user already exists", "USER_EXISTS"))
	case service.ErrAccountInactive:
		c.JSON(http.StatusForbidden, model.Fail("account is inactive", "ACCOUNT_INACTIVE"))
	case service.ErrEmailNotVerified:
		c.JSON(http.StatusBadRequest, model.Fail("google email is not verified", "EMAIL_NOT_VERIFIED"))
	case service.ErrRefreshTokenRequired:
		c.JSON(http.StatusUnauthorized, model.Fail("refresh token required", "REFRESH_TOKEN_REQUIRED"))
	case service.ErrInvalidRefreshToken:
		c.JSON(http.StatusUnauthorized, model.Fail("invalid refresh token", "INVALID_REFRESH_TOKEN"))
	case service.ErrUserNotFound:
		c.JSON(http.StatusNotFound, model.Fail("user not found", "USER_NOT_FOUND"))
	case service.ErrOAuthNotConfigured:
		c.JSON(http.StatusBadRequest, model.Fail("google oauth is not configured", "OAUTH_NOT_CONFIGURED"))
	default:
		log.Printf("[auth] unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, model.Fail("internal server error", "INTERNAL_ERROR"))
	}
}
