package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/healthcare-backend/internal/policy"
)

const (
	ctxIdentity  = "identity"
	ctxRequestID = "request_id"
)

// IdentityFrom returns the caller identity stored by Authenticate. Requests
// that never passed through it are anonymous.
func IdentityFrom(c echo.Context) policy.Identity {
	if id, ok := c.Get(ctxIdentity).(policy.Identity); ok {
		return id
	}
	return policy.Identity{}
}

// RequestIDFrom returns the id assigned by RequestID, if any.
func RequestIDFrom(c echo.Context) string {
	s, _ := c.Get(ctxRequestID).(string)
	return s
}

// subject identifies the caller in rate limit keys and logs.
func subject(c echo.Context) string {
	id := IdentityFrom(c)
	if !id.Authenticated() {
		return "anon"
	}
	return strconv.FormatUint(id.UserID, 10)
}
