package channel

import (
	"net/http"

	"forstream/internal/platform"
	"forstream/internal/security"
	utils "forstream/pkg/utils"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListChannels returns the channel catalog in presentation order.
func (h *Handler) ListChannels(c echo.Context) error {
	channels, err := h.service.ListChannels()
	if err != nil {
		utils.Logger.Errorf("Failed to list channels: %v", err)
		return utils.ErrInternalServer
	}
	return c.JSON(http.StatusOK, channels)
}

// ListConnectedChannels returns the authenticated user's connected channels.
func (h *Handler) ListConnectedChannels(c echo.Context) error {
	userID, err := security.UserIDFromContext(c)
	if err != nil {
		return err
	}
	connectedChannels, err := h.service.ListConnectedChannels(userID)
	if err != nil {
		utils.Logger.Errorf("Failed to list connected channels: %v", err)
		return utils.ErrInternalServer
	}
	return c.JSON(http.StatusOK, connectedChannels)
}

func (h *Handler) ConnectYouTubeChannel(c echo.Context) error {
	userID, err := security.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var request struct {
		AuthCode string `json:"auth_code"`
	}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	connectedChannel, err := h.service.ConnectYouTubeChannel(c.Request().Context(), userID, request.AuthCode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, connectedChannel)
}

func (h *Handler) ConnectFacebookChannel(c echo.Context) error {
	userID, err := security.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var request struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	connectedChannel, err := h.service.ConnectFacebookChannel(c.Request().Context(), userID, request.AccessToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, connectedChannel)
}

func (h *Handler) ListFacebookPageChannelTargets(c echo.Context) error {
	userID, err := security.UserIDFromContext(c)
	if err != nil {
		return err
	}
	accessToken := c.QueryParam("access_token")
	if accessToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "access_token is required")
	}

	targets, err := h.service.ListFacebookPageChannelTargets(c.Request().Context(), userID, accessToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, targets)
}

func (h *Handler) ConnectFacebookPageChannel(c echo.Context) error {
	userID, err := security.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var request struct {
		AccessToken string `json:"access_token"`
		TargetID    string `json:"target_id"`
	}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	connectedChannel, err := h.service.ConnectFacebookPageChannel(c.Request().Context(), userID, request.AccessToken, request.TargetID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, connectedChannel)
}

func (h *Handler) ConnectTwitchChannel(c echo.Context) error {
	userID, err := security.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var request struct {
		AuthCode string `json:"auth_code"`
	}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	connectedChannel, err := h.service.ConnectTwitchChannel(c.Request().Context(), userID, request.AuthCode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, connectedChannel)
}

func (h *Handler) ConnectRtmpChannel(c echo.Context) error {
	userID, err := security.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var request struct {
		ChannelName string `json:"channel_name"`
		RtmpURL     string `json:"rtmp_url"`
		StreamKey   string `json:"stream_key"`
	}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	connectedChannel, err := h.service.ConnectRtmpChannel(userID, request.ChannelName, request.RtmpURL, request.StreamKey)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, connectedChannel)
}

func (h *Handler) DisconnectChannel(c echo.Context) error {
	userID, err := security.UserIDFromContext(c)
	if err != nil {
		return err
	}
	identifier := platform.Identifier(c.Param("identifier"))
	if !identifier.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid channel identifier")
	}

	if err := h.service.DisconnectChannel(c.Request().Context(), userID, identifier); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
