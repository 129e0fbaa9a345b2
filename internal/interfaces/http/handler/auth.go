package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/application/identity"
	"github.com/japabox/storefront/internal/interfaces/http/middleware"
)

// AuthHandler handles administrator authentication
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @Summary      Administrator login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginInput true "Credentials"
// @Success      200 {object} dto.Response{data=identity.LoginResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      423 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input identity.LoginInput
	if !h.BindJSON(c, &input) {
		return
	}
	input.IP = c.ClientIP()

	res, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// RefreshToken godoc
// @Summary      Exchange a refresh token for a new pair
// @Description  Each refresh token can be used once.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RefreshTokenInput true "Refresh token"
// @Success      200 {object} dto.Response{data=identity.TokenResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var input identity.RefreshTokenInput
	if !h.BindJSON(c, &input) {
		return
	}
	res, err := h.authService.RefreshToken(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Logout godoc
// @Summary      Revoke the current access token and, optionally, a refresh token
// @Tags         auth
// @Accept       json
// @Param        request body identity.LogoutInput false "Refresh token"
// @Success      204
// @Security     BearerAuth
// @Router       /admin/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var input identity.LogoutInput
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &input) {
		return
	}
	input.AccessTokenJTI = claims.ID
	input.AccessTokenTTL = claims.GetRemainingTTL()

	if err := h.authService.Logout(c.Request.Context(), input); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me godoc
// @Summary      The logged-in administrator
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.AdminInfo}
// @Security     BearerAuth
// @Router       /admin/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	id, err := uuid.Parse(middleware.GetJWTUserID(c))
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	admin, err := h.authService.GetCurrentAdmin(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, admin)
}
