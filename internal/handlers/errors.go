package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError writes the status matching err. Internal failures are logged
// and answered with fallback so that no details leak.
func respondError(c *gin.Context, err error, fallback string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	status := http.StatusInternalServerError
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		status = http.StatusConflict
	case errors.As(err, &appErr) && appErr.Code >= 400 && appErr.Code < 500:
		status = appErr.Code
	}

	if status >= http.StatusInternalServerError {
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	logger.Warn(fallback, slog.String("error", err.Error()), slog.Int("status", status))
	c.JSON(status, gin.H{"error": err.Error()})
}
