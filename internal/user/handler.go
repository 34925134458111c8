package user

import (
	"net/http"

	"forstream/internal/security"
	utils "forstream/pkg/utils"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	service  *Service
	sessions *security.SessionManager
}

func NewHandler(service *Service, sessions *security.SessionManager) *Handler {
	return &Handler{service: service, sessions: sessions}
}

// SignInWithGoogle signs the user in and issues a session token.
func (h *Handler) SignInWithGoogle(c echo.Context) error {
	var request struct {
		AuthCode string `json:"auth_code"`
	}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	signedInUser, err := h.service.SignInWithGoogle(c.Request().Context(), request.AuthCode)
	if err != nil {
		utils.Logger.Errorf("Failed to sign in with Google: %v", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Sign in failed")
	}
	token, err := h.sessions.CreateSession(c.Request().Context(), signedInUser.ID)
	if err != nil {
		utils.Logger.Errorf("Failed to create session: %v", err)
		return utils.ErrInternalServer
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  signedInUser,
	})
}

// GetMe returns the authenticated user.
func (h *Handler) GetMe(c echo.Context) error {
	userID, err := security.UserIDFromContext(c)
	if err != nil {
		return err
	}
	me, err := h.service.GetUser(userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, me)
}

// SignOut destroys the current session, invalidating its token immediately.
func (h *Handler) SignOut(c echo.Context) error {
	sessionID, err := security.SessionIDFromContext(c)
	if err != nil {
		return err
	}
	if err := h.sessions.DestroySession(c.Request().Context(), sessionID); err != nil {
		utils.Logger.Errorf("Failed to destroy session: %v", err)
		return utils.ErrInternalServer
	}
	return c.NoContent(http.StatusNoContent)
}
