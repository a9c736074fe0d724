package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskhub/internal/database"
	"taskhub/internal/middleware"
	"taskhub/internal/services"
)

func taskService() *services.TaskService {
	return services.NewTaskService(database.DB)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	raw, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || raw == 0 {
		errorResponse(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(raw), true
}

//
// ТАЙМЕРЫ
//

type toggleTimerForm struct {
	UserID          uint    `json:"user_id" binding:"required"`
	Billable        bool    `json:"billable"`
	BillableRate    float64 `json:"billable_rate"`
	StoppedBySystem bool    `json:"stopped_by_system"`
}

func ToggleTimer(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var form toggleTimerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		errorResponse(c, http.StatusUnprocessableEntity, "invalid timer payload")
		return
	}

	task, err := taskService().ToggleTimer(taskID, services.ToggleTimerInput{
		UserID:          form.UserID,
		Billable:        form.Billable,
		BillableRate:    form.BillableRate,
		StoppedBySystem: form.StoppedBySystem,
	}, middleware.CurrentUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, task, "Timer toggled successfully.")
}

type updateTimersForm struct {
	Timers []services.TimerInput `json:"timers" binding:"required"`
}

func UpdateTimers(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var form updateTimersForm
	if err := c.ShouldBindJSON(&form); err != nil {
		errorResponse(c, http.StatusUnprocessableEntity, "invalid timers payload")
		return
	}

	task, err := taskService().UpdateTimers(taskID, form.Timers, middleware.CurrentUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, task, "Timers updated successfully.")
}

//
// УЧАСТНИКИ ЗАДАЧИ
//

type unassignMemberForm struct {
	Member uint `json:"member" binding:"required"`
}

func UnassignMember(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var form unassignMemberForm
	if err := c.ShouldBindJSON(&form); err != nil {
		errorResponse(c, http.StatusUnprocessableEntity, "invalid member payload")
		return
	}

	task, err := taskService().UnassignMember(taskID, form.Member, middleware.CurrentUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, task, "Member unassigned successfully.")
}
