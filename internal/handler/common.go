package handler

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/healthcare-backend/internal/apperr"
	"github.com/iliyamo/healthcare-backend/internal/middleware"
	"github.com/iliyamo/healthcare-backend/internal/queue"
	"github.com/iliyamo/healthcare-backend/internal/service"
)

// dbTimeout bounds the store work of one request.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// pathID parses the :id parameter. Anything that is not a positive integer
// cannot name a record, so it is reported as not found.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound("not found")
	}
	return id, nil
}

// bind decodes the JSON body into dst and validates it.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) && ute.Field != "" {
			return apperr.Field(ute.Field, "A valid "+expected(ute)+" is required.")
		}
		return apperr.Validation("malformed request body", nil)
	}
	return c.Validate(dst)
}

func expected(ute *json.UnmarshalTypeError) string {
	t := ute.Type
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.String:
		return "string"
	}
	return t.String()
}

// emit reports an audit event for the current request.
func emit(e service.Emitter, c echo.Context, typ, resource string, id uint64) {
	ev := queue.NewAuditEvent(typ, middleware.IdentityFrom(c).UserID, resource, id)
	ev.RequestID = middleware.RequestIDFrom(c)
	e.Emit(ev)
}
