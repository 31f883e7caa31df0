package http

import (
	"errors"
	"net/http"

	"golang-stock-indicator/internal/scheduler/dto"
	"golang-stock-indicator/internal/scheduler/service"

	"github.com/labstack/echo/v4"
)

// errorResponse maps service errors onto HTTP status codes.
func errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidJob), errors.Is(err, service.ErrInvalidRequest):
		status = http.StatusBadRequest
	}
	return c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg})
}
