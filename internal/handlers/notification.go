package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/database"
	"taskhub/internal/middleware"
	"taskhub/internal/models"
)

func ListNotifications(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if userID == nil {
		errorResponse(c, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	var notifications []models.Notification
	if err := database.DB.
		Where("user_id = ?", *userID).
		Order("created_at desc").
		Limit(50).
		Find(&notifications).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load notifications")
		return
	}

	successResponse(c, http.StatusOK, notifications, "Notifications fetched successfully.")
}

func MarkNotificationSeen(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if userID == nil {
		errorResponse(c, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	notificationID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var notification models.Notification
	if err := database.DB.
		Where("id = ? AND user_id = ?", notificationID, *userID).
		First(&notification).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "notification not found")
		return
	}

	notification.IsSeen = true
	if err := database.DB.Save(&notification).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to update notification")
		return
	}

	successResponse(c, http.StatusOK, notification, "Notification marked as seen.")
}
