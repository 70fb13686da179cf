package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/VitaminP8/blog/internal/apperr"
	"github.com/VitaminP8/blog/internal/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError переводит доменную ошибку в статус. form возвращается клиенту при ошибках ввода.
func (h *Handler) respondError(c *gin.Context, err error, form gin.H) {
	var vErr *apperr.ValidationError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": vErr.Message, "field": vErr.Field, "form": form})
	case errors.Is(err, apperr.ErrRejectedExtension):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": apperr.ErrRejectedExtension.Error(), "field": "file", "form": form})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, apperr.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, gin.H{"error": apperr.ErrDuplicateUsername.Error(), "form": form})
	case errors.Is(err, apperr.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperr.ErrInvalidCredentials.Error()})
	case errors.Is(err, apperr.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
	default:
		// подробности (в т.ч. нарушенные ограничения БД) только в лог
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// requester - id пользователя из контекста запроса, 0 для анонимного
func requester(c *gin.Context) uint {
	userID, err := auth.GetUserIDFromContext(c.Request.Context())
	if err != nil {
		return 0
	}
	return userID
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// pageParams читает page и limit; мусор и отсутствие трактуются как значения по умолчанию
func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page"))
	limit, _ = strconv.Atoi(c.Query("limit"))
	return page, limit
}
