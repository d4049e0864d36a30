package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// All handlers answer with the same envelope: the transport status is
// always 200, the application status lives in the body.
func envelope(c echo.Context, status int, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

// SuccessResponse writes a 200 envelope around data.
func SuccessResponse(c echo.Context, data interface{}) error {
	return envelope(c, http.StatusOK, data)
}

// ListResponse writes a 200 envelope around rows plus a total count.
func ListResponse(c echo.Context, rows interface{}, total int64) error {
	return envelope(c, http.StatusOK, &ListDataResponse{Rows: rows, Total: total})
}

// BadRequestResponse writes a 400 envelope, typically around the
// []ValidationError produced by ReadAndValidateRequest.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return envelope(c, http.StatusBadRequest, data)
}

// AppErrorResponse reports an *AppError with its own status; anything
// else becomes an opaque 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return envelope(c, appErr.Status, []*AppError{appErr})
	}
	return envelope(c, http.StatusInternalServerError, "Something went wrong")
}
