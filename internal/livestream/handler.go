package livestream

import (
	"net/http"

	"forstream/internal/platform"
	"forstream/internal/security"
	utils "forstream/pkg/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateLiveStream(c echo.Context) error {
	userID, err := security.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var request struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Channels    []string `json:"channels"`
	}
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	identifiers := make([]platform.Identifier, 0, len(request.Channels))
	for _, identifier := range request.Channels {
		identifiers = append(identifiers, platform.Identifier(identifier))
	}

	liveStream, err := h.service.CreateLiveStream(c.Request().Context(), userID, request.Title, request.Description, identifiers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, liveStream)
}

func (h *Handler) ListLiveStreams(c echo.Context) error {
	userID, err := security.UserIDFromContext(c)
	if err != nil {
		return err
	}
	liveStreams, err := h.service.ListLiveStreams(userID)
	if err != nil {
		utils.Logger.Errorf("Failed to list live streams: %v", err)
		return utils.ErrInternalServer
	}
	return c.JSON(http.StatusOK, liveStreams)
}

func (h *Handler) GetLiveStream(c echo.Context) error {
	liveStream, err := h.loadOwnedLiveStream(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, liveStream)
}

func (h *Handler) StartLiveStream(c echo.Context) error {
	liveStream, err := h.loadOwnedLiveStream(c)
	if err != nil {
		return err
	}
	started, err := h.service.StartLiveStream(c.Request().Context(), liveStream.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, started)
}

func (h *Handler) EndLiveStream(c echo.Context) error {
	liveStream, err := h.loadOwnedLiveStream(c)
	if err != nil {
		return err
	}
	ended, err := h.service.EndLiveStream(c.Request().Context(), liveStream.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ended)
}

func (h *Handler) EnableProvider(c echo.Context) error {
	return h.changeProviderState(c, true)
}

func (h *Handler) DisableProvider(c echo.Context) error {
	return h.changeProviderState(c, false)
}

func (h *Handler) changeProviderState(c echo.Context, enabled bool) error {
	liveStream, err := h.loadOwnedLiveStream(c)
	if err != nil {
		return err
	}
	identifier := platform.Identifier(c.Param("identifier"))
	if !identifier.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid provider identifier")
	}

	var updated *LiveStream
	if enabled {
		updated, err = h.service.EnableProvider(c.Request().Context(), liveStream.ID, identifier)
	} else {
		updated, err = h.service.DisableProvider(c.Request().Context(), liveStream.ID, identifier)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) RemoveLiveStream(c echo.Context) error {
	liveStream, err := h.loadOwnedLiveStream(c)
	if err != nil {
		return err
	}
	if err := h.service.RemoveLiveStream(c.Request().Context(), liveStream.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) loadOwnedLiveStream(c echo.Context) (*LiveStream, error) {
	userID, err := security.UserIDFromContext(c)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid live stream ID")
	}
	liveStream, err := h.service.GetLiveStream(id)
	if err != nil {
		return nil, err
	}
	if liveStream.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}
	return liveStream, nil
}
