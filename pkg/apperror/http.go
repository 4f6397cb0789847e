package apperror

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPStatus maps an error code to its HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ToHTTP converts a service error into an echo HTTPError. Internal causes are
// not leaked to the client; only the coded message is returned.
func ToHTTP(err error) *echo.HTTPError {
	msg := "internal server error"
	var ae *Error
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	code := CodeOf(err)
	if code == CodeUnknown {
		code = CodeInternal
		msg = "internal server error"
	}
	return echo.NewHTTPError(HTTPStatus(code), map[string]string{
		"code":    string(code),
		"message": msg,
	})
}
