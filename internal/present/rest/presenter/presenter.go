package presenter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aakaru/securelance/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

func Conflict(c echo.Context, err error) error {
	return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
}

func ServiceUnavailable(c echo.Context, err error) error {
	fmt.Println("Store unavailable:", err)
	return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
}

func InternalError(c echo.Context, err error) error {
	fmt.Println("Internal error:", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// Error maps typed domain errors onto their HTTP status.
func Error(c echo.Context, err error) error {
	var validation domain.ValidationError
	if errors.As(err, &validation) {
		return BadRequest(c, validation)
	}
	var auth domain.AuthError
	if errors.As(err, &auth) {
		return Unauthorized(c, auth.Error())
	}
	var notFound domain.NotFoundError
	if errors.As(err, &notFound) {
		return NotFound(c, notFound.Error())
	}
	var conflict domain.ConflictError
	if errors.As(err, &conflict) {
		return Conflict(c, conflict)
	}
	var unavailable domain.StoreUnavailableError
	if errors.As(err, &unavailable) {
		return ServiceUnavailable(c, unavailable)
	}
	return InternalError(c, err)
}
