package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskhub/internal/database"
	"taskhub/internal/events"
	"taskhub/internal/middleware"
	"taskhub/internal/services"
)

func activityService() *services.ActivityService {
	return services.NewActivityService(database.DB)
}

func paymentService() *services.PaymentService {
	return services.NewPaymentService(database.DB, events.LogBroadcaster{})
}

//
// ЛЕНТА АКТИВНОСТИ
//

func ContainerActivities(c *gin.Context) {
	containerID, ok := parseID(c, "id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	feed, err := activityService().ContainerActivities(containerID, page, 15)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, feed, "Activities fetched successfully.")
}

//
// ПЛАТЕЖИ
//

func MemberPaymentDetails(c *gin.Context) {
	containerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	details, err := paymentService().MemberPaymentDetails(
		containerID,
		userID,
		c.Query("date_range"),
		c.DefaultQuery("payment_status", services.PaymentStatusAll),
	)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, details, "Payment details fetched successfully.")
}

func ProcessPayment(c *gin.Context) {
	containerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	payment, err := paymentService().ProcessPayment(containerID, userID, middleware.CurrentUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, payment, "Payment processed successfully.")
}
