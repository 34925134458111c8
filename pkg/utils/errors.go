package pkg

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type AppError struct {
	Code      int    `json:"-"`
	ErrorCode string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Predefined errors
var (
	ErrTitleRequired = &AppError{
		Code:      http.StatusBadRequest,
		ErrorCode: "title_required",
		Message:   "Title is required",
	}

	ErrChannelNameRequired = &AppError{
		Code:      http.StatusBadRequest,
		ErrorCode: "channel_name_required",
		Message:   "Channel name is required",
	}

	ErrRtmpURLRequired = &AppError{
		Code:      http.StatusBadRequest,
		ErrorCode: "rtmp_url_required",
		Message:   "RTMP url is required",
	}

	ErrStreamKeyRequired = &AppError{
		Code:      http.StatusBadRequest,
		ErrorCode: "stream_key_required",
		Message:   "Stream key is required",
	}

	ErrNoChannelsConnected = &AppError{
		Code:      http.StatusBadRequest,
		ErrorCode: "no_channels_connected",
		Message:   "No channels connected",
	}

	ErrNoConnectedChannelsEnabled = &AppError{
		Code:      http.StatusBadRequest,
		ErrorCode: "no_connected_channels_enabled",
		Message:   "No connected channels enabled",
	}

	ErrLiveStreamAlreadyEnded = &AppError{
		Code:      http.StatusConflict,
		ErrorCode: "live_stream_already_ended",
		Message:   "Live stream already ended",
	}

	ErrLiveStreamNotLive = &AppError{
		Code:      http.StatusConflict,
		ErrorCode: "live_stream_not_live",
		Message:   "Live stream is not live",
	}

	ErrProviderStreamNotFound = &AppError{
		Code:      http.StatusNotFound,
		ErrorCode: "provider_stream_not_found",
		Message:   "Provider stream not found",
	}

	ErrLiveStreamNotFound = &AppError{
		Code:      http.StatusNotFound,
		ErrorCode: "live_stream_not_found",
		Message:   "Live stream not found",
	}

	ErrChannelNotFound = &AppError{
		Code:      http.StatusNotFound,
		ErrorCode: "channel_not_found",
		Message:   "Channel not found",
	}

	ErrConnectedChannelNotFound = &AppError{
		Code:      http.StatusNotFound,
		ErrorCode: "connected_channel_not_found",
		Message:   "Connected channel not found",
	}

	ErrUserNotFound = &AppError{
		Code:      http.StatusNotFound,
		ErrorCode: "user_not_found",
		Message:   "User not found",
	}

	ErrInvalidToken = &AppError{
		Code:      http.StatusUnauthorized,
		ErrorCode: "token_invalid",
		Message:   "Invalid or expired token",
	}

	ErrTokenExpired = &AppError{
		Code:      http.StatusUnauthorized,
		ErrorCode: "token_expired",
		Message:   "Token expired",
	}

	ErrInternalServer = &AppError{
		Code:      http.StatusInternalServerError,
		ErrorCode: "internal_error",
		Message:   "Internal server error",
	}
)

func NewAppError(code int, errorCode, message string, details ...string) *AppError {
	err := &AppError{
		Code:      code,
		ErrorCode: errorCode,
		Message:   message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

func NewValidationError(errorCode, message string) *AppError {
	return &AppError{
		Code:      http.StatusBadRequest,
		ErrorCode: errorCode,
		Message:   message,
	}
}

func NewNotFoundError(errorCode, message string) *AppError {
	return &AppError{
		Code:      http.StatusNotFound,
		ErrorCode: errorCode,
		Message:   message,
	}
}

// CustomHTTPErrorHandler handles errors across the application
func CustomHTTPErrorHandler(err error, c echo.Context) {
	var appErr *AppError

	// Check if it's our custom AppError
	if ae, ok := err.(*AppError); ok {
		appErr = ae
	} else if he, ok := err.(*echo.HTTPError); ok {
		// Handle echo HTTP errors
		appErr = &AppError{
			Code:      he.Code,
			ErrorCode: "http_error",
			Message:   fmt.Sprintf("%s", he.Message),
		}
	} else {
		// Handle generic errors
		appErr = &AppError{
			Code:      http.StatusInternalServerError,
			ErrorCode: "internal_error",
			Message:   "Internal server error",
			Details:   err.Error(),
		}
	}

	// Log the error
	WithFields(map[string]interface{}{
		"error":  err.Error(),
		"code":   appErr.ErrorCode,
		"status": appErr.Code,
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
	}).Error("HTTP Error")

	// Don't expose internal error details in production
	if appErr.Code == http.StatusInternalServerError {
		appErr.Details = ""
	}

	// Send error response
	if !c.Response().Committed {
		c.JSON(appErr.Code, appErr)
	}
}
