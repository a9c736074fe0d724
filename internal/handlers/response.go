package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/services"
)

// единый конверт ответа API
func successResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// serviceError переводит типизированные ошибки сервисов в HTTP-статусы
func serviceError(c *gin.Context, err error) {
	switch {
	case services.IsNotFound(err):
		errorResponse(c, http.StatusNotFound, err.Error())
	case services.IsValidation(err):
		errorResponse(c, http.StatusUnprocessableEntity, err.Error())
	default:
		errorResponse(c, http.StatusInternalServerError, "internal error")
	}
}
