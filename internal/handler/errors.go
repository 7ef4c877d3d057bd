package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/healthcare-backend/internal/apperr"
	"github.com/iliyamo/healthcare-backend/internal/middleware"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Detail string              `json:"detail"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// HTTPErrorHandler renders apperr errors and echo's own HTTP errors in one
// JSON shape. Internal causes are logged and never returned.
func HTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			body   ErrorResponse
		)
		var he *echo.HTTPError
		if errors.As(err, &he) && !isAppErr(err) {
			status = he.Code
			body = ErrorResponse{Error: httpErrorKind(he.Code), Detail: http.StatusText(he.Code)}
			if msg, ok := he.Message.(string); ok && status < 500 {
				body.Detail = msg
			}
		} else {
			ae := apperr.As(err)
			status = ae.Kind.Status()
			body = ErrorResponse{Error: string(ae.Kind), Detail: ae.Message, Fields: ae.Fields}
		}

		if status >= 500 {
			log.Error().Err(err).
				Str("request_id", middleware.RequestIDFrom(c)).
				Str("path", c.Request().URL.Path).
				Msg("internal error")
			body.Detail = "internal server error"
			body.Error = string(apperr.KindInternal)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}

func isAppErr(err error) bool {
	var ae *apperr.Error
	return errors.As(err, &ae)
}

func httpErrorKind(code int) string {
	switch code {
	case http.StatusNotFound:
		return string(apperr.KindNotFound)
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusUnauthorized:
		return string(apperr.KindUnauthorized)
	case http.StatusForbidden:
		return string(apperr.KindForbidden)
	case http.StatusTooManyRequests:
		return string(apperr.KindRateLimited)
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	case http.StatusRequestEntityTooLarge:
		return "request_too_large"
	}
	if code < 500 {
		return string(apperr.KindValidation)
	}
	return string(apperr.KindInternal)
}
