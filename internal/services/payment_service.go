package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"taskhub/internal/database"
	"taskhub/internal/events"
	"taskhub/internal/models"
)

type PaymentService struct {
	db          *gorm.DB
	broadcaster events.Broadcaster
}

func NewPaymentService(db *gorm.DB, broadcaster events.Broadcaster) *PaymentService {
	return &PaymentService{db: db, broadcaster: broadcaster}
}

// статусы для фильтра выборки
const (
	PaymentStatusAll     = "all"
	PaymentStatusPaid    = "paid"
	PaymentStatusPending = "pending"
)

type PaymentEntry struct {
	ID            uint       `json:"id"`
	Start         time.Time  `json:"start"`
	End           *time.Time `json:"end"`
	Duration      string     `json:"duration,omitempty"`
	Display       string     `json:"tracked_time_display,omitempty"`
	IsPaid        bool       `json:"is_paid"`
	AmountPaid    *float64   `json:"amount_paid"`
	PaidRate      *float64   `json:"paid_rate"`
	AddedManually bool       `json:"added_manually"`
	DeletedAt     *time.Time `json:"deleted_at"`
}

type EntryLog struct {
	ID        uint             `json:"id"`
	Action    models.LogAction `json:"action"`
	User      *models.User     `json:"user"`
	OldData   models.JSONMap   `json:"old_data"`
	NewData   models.JSONMap   `json:"new_data"`
	CreatedAt string           `json:"created_at"`
}

type TaskPaymentDetails struct {
	Task               *models.Task   `json:"task"`
	TrackedTime        int64          `json:"trackedTime"`
	TrackedTimeDisplay string         `json:"trackedTimeDisplay"`
	PaidAmount         float64        `json:"paidAmount"`
	PendingAmount      float64        `json:"pendingAmount"`
	TimeEntries        []PaymentEntry `json:"timeEntries"`
	EntryLogs          []EntryLog     `json:"entries_logs"`
}

// MemberPaymentDetails — закрытые записи участника в контейнере,
// сгруппированные по задачам: учтённое время, выплачено, к выплате.
// Мягко удалённые записи показываются в списке, но в суммы не входят.
// dateRange — "YYYY-MM-DD to YYYY-MM-DD" либо одна дата (до конца сегодня).
func (s *PaymentService) MemberPaymentDetails(containerID, userID uint, dateRange, paymentStatus string) ([]TaskPaymentDetails, error) {
	var container models.Container
	if err := s.db.First(&container, containerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "container", ID: containerID}
		}
		return nil, err
	}

	startDate, endDate, err := parseDateRange(dateRange)
	if err != nil {
		return nil, err
	}
	if paymentStatus == "" {
		paymentStatus = PaymentStatusAll
	}

	query := s.db.Unscoped().
		Where("container_id = ? AND user_id = ?", containerID, userID).
		Where(`"end" IS NOT NULL`).
		Preload("Task", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("start asc")

	if startDate != nil {
		query = query.Where("start >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where(`"end" <= ?`, *endDate)
	}
	if paymentStatus != PaymentStatusAll {
		query = query.Where("is_paid = ?", paymentStatus == PaymentStatusPaid)
	}

	var entries []models.TimeEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}

	grouped := map[uint]*TaskPaymentDetails{}
	order := []uint{}

	for i := range entries {
		entry := &entries[i]

		details, ok := grouped[entry.TaskID]
		if !ok {
			details = &TaskPaymentDetails{Task: entry.Task}
			grouped[entry.TaskID] = details
			order = append(order, entry.TaskID)
		}

		deleted := entry.DeletedAt.Valid
		duration := entry.TrackedTime()

		view := PaymentEntry{
			ID:            entry.ID,
			Start:         entry.Start,
			End:           entry.End,
			IsPaid:        entry.IsPaid,
			AmountPaid:    entry.AmountPaid,
			PaidRate:      entry.PaidRate,
			AddedManually: entry.AddedManually,
		}
		if deleted {
			view.DeletedAt = &entry.DeletedAt.Time
		} else {
			view.Duration = models.FormatDuration(duration)
			view.Display = entry.TrackedTimeDisplay()

			details.TrackedTime += duration
			if entry.IsPaid {
				if entry.AmountPaid != nil {
					details.PaidAmount += *entry.AmountPaid
				}
			} else {
				details.PendingAmount += float64(duration) / 3600 * entry.BillableRate
			}
		}
		details.TimeEntries = append(details.TimeEntries, view)
	}

	result := make([]TaskPaymentDetails, 0, len(order))
	for _, taskID := range order {
		details := grouped[taskID]
		details.TrackedTimeDisplay = models.FormatDuration(details.TrackedTime)
		details.PaidAmount = round2(details.PaidAmount)
		details.PendingAmount = round2(details.PendingAmount)

		logs, err := s.entryLogs(taskID, userID)
		if err != nil {
			return nil, err
		}
		details.EntryLogs = logs

		result = append(result, *details)
	}
	return result, nil
}

// журнал аудита записей времени этого пользователя по задаче, свежие сверху
func (s *PaymentService) entryLogs(taskID, userID uint) ([]EntryLog, error) {
	entryIDs := s.db.Unscoped().
		Model(&models.TimeEntry{}).
		Select("id").
		Where("user_id = ?", userID)

	var logs []models.Log
	if err := s.db.
		Preload("User").
		Where("loggable_type = ? AND task_id = ?", models.LoggableTimeEntry, taskID).
		Where("loggable_id IN (?)", entryIDs).
		Order("created_at desc").
		Find(&logs).Error; err != nil {
		return nil, err
	}

	views := make([]EntryLog, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		views = append(views, EntryLog{
			ID:        l.ID,
			Action:    l.Action,
			User:      l.User,
			OldData:   l.OldData,
			NewData:   l.NewData,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		})
	}
	return views, nil
}

// ProcessPayment закрывает все неоплаченные завершённые записи участника:
// фиксирует amount_paid и paid_rate на записи, создаёт Payment
// и уведомляет участника. Бродкаст — после коммита.
func (s *PaymentService) ProcessPayment(containerID, userID uint, actorID *uint) (*models.Payment, error) {
	var payment models.Payment
	var notification models.Notification

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var member models.Member
		if err := tx.
			Where("container_id = ? AND user_id = ?", containerID, userID).
			First(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "container member", ID: userID}
			}
			return err
		}

		var entries []models.TimeEntry
		if err := database.LockForUpdate(tx).
			Where("container_id = ? AND user_id = ? AND is_paid = ?", containerID, userID, false).
			Where(`"end" IS NOT NULL`).
			Find(&entries).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return &ValidationError{Message: "no pending time entries to pay"}
		}

		total := 0.0
		for i := range entries {
			entry := &entries[i]
			old := entry.Snapshot()

			amount := round2(float64(entry.TrackedTime()) / 3600 * entry.BillableRate)
			rate := entry.BillableRate

			entry.IsPaid = true
			entry.AmountPaid = &amount
			entry.PaidRate = &rate
			if err := tx.Save(entry).Error; err != nil {
				return err
			}

			if err := database.WriteLog(tx, database.LogInput{
				LoggableType: models.LoggableTimeEntry,
				LoggableID:   entry.ID,
				ActorID:      actorID,
				Action:       models.LogUpdate,
				OldData:      old,
				NewData:      models.EntryChanges(old, entry.Snapshot()),
				TaskID:       entry.TaskID,
				ContainerID:  entry.ContainerID,
			}); err != nil {
				return err
			}

			total += amount
		}

		payment = models.Payment{
			ContainerID: containerID,
			UserID:      userID,
			MemberID:    member.ID,
			Amount:      round2(total),
			Rate:        member.BillableRate,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		notification = models.Notification{
			UserID:  userID,
			Title:   "Payment processed",
			Content: fmt.Sprintf("You have been paid %.2f for tracked time", payment.Amount),
			Type:    "payment",
			Data: models.JSONMap{
				"payment_id": payment.ID,
				"amount":     payment.Amount,
			},
			ReferenceID:   payment.ID,
			ReferenceType: "payment",
		}
		return tx.Create(&notification).Error
	})
	if err != nil {
		return nil, err
	}

	events.DispatchNewNotification(s.broadcaster, &notification)
	return &payment, nil
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// "2024-01-01 to 2024-01-31" -> начало первого дня, конец последнего;
// без второй даты — до конца сегодняшнего дня
func parseDateRange(dateRange string) (*time.Time, *time.Time, error) {
	if dateRange == "" {
		return nil, nil, nil
	}

	parts := strings.SplitN(dateRange, " to ", 2)

	start, err := time.Parse("2006-01-02", strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, nil, &ValidationError{Message: "invalid date range: " + dateRange}
	}
	startDate := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.Local)

	endDay := time.Now()
	if len(parts) == 2 && strings.TrimSpace(parts[1]) != "" {
		end, err := time.Parse("2006-01-02", strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, nil, &ValidationError{Message: "invalid date range: " + dateRange}
		}
		endDay = end
	}
	endDate := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.Local)

	return &startDate, &endDate, nil
}
