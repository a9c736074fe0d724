package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskhub/internal/database"
	"taskhub/internal/models"
)

type TaskService struct {
	db         *gorm.DB
	activities *ActivityService
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{
		db:         db,
		activities: NewActivityService(db),
	}
}

type ToggleTimerInput struct {
	UserID          uint
	Billable        bool
	BillableRate    float64
	StoppedBySystem bool
}

// ToggleTimer переключает таймер пары (task, user): нет открытой записи —
// стартуем новую, есть — закрываем её. Системная остановка без открытого
// таймера — no-op, задача возвращается как есть. Всё в одной транзакции;
// строка задачи берётся под блокировкой, так что конкурентные
// переключения по одной задаче выполняются по очереди. Вторую открытую
// запись дополнительно отсекает частичный уникальный индекс.
func (s *TaskService) ToggleTimer(taskID uint, in ToggleTimerInput, actorID *uint) (*models.Task, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := database.LockForUpdate(tx).Preload("Board").First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "task", ID: taskID}
			}
			return err
		}

		var entry models.TimeEntry
		err := database.LockForUpdate(tx).
			Where("task_id = ? AND user_id = ?", taskID, in.UserID).
			Where(`"end" IS NULL`).
			First(&entry).Error

		switch {
		case err == nil:
			return s.stopTimer(tx, &task, &entry, in.StoppedBySystem, actorID)

		case errors.Is(err, gorm.ErrRecordNotFound):
			if in.StoppedBySystem {
				// системная остановка, останавливать нечего
				return nil
			}
			return s.startTimer(tx, &task, in, actorID)

		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return s.loadTask(taskID)
}

func (s *TaskService) startTimer(tx *gorm.DB, task *models.Task, in ToggleTimerInput, actorID *uint) error {
	if task.Board == nil {
		return &NotFoundError{Entity: "board", ID: task.BoardID}
	}

	entry := models.TimeEntry{
		TaskID:       task.ID,
		UserID:       in.UserID,
		ContainerID:  task.Board.ContainerID,
		Start:        time.Now(),
		Billable:     in.Billable,
		BillableRate: in.BillableRate,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	return database.WriteLog(tx, database.LogInput{
		LoggableType: models.LoggableTimeEntry,
		LoggableID:   entry.ID,
		ActorID:      actorID,
		Action:       models.LogCreate,
		NewData:      entry.Snapshot(),
		TaskID:       entry.TaskID,
		ContainerID:  entry.ContainerID,
	})
}

func (s *TaskService) stopTimer(tx *gorm.DB, task *models.Task, entry *models.TimeEntry, stoppedBySystem bool, actorID *uint) error {
	old := entry.Snapshot()

	now := time.Now()
	entry.End = &now
	entry.StoppedBySystem = stoppedBySystem
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

	return s.activities.Record(tx, RecordInput{
		ContainerID: entry.ContainerID,
		ActorID:     actorID,
		SubjectType: models.SubjectTask,
		SubjectID:   task.ID,
		Event:       models.EventTimeEntryCompleted,
		Properties: TimeEntryCompletedProps{
			Duration:   entry.TrackedTime(),
			SequenceID: task.SequenceID,
		},
	})
}

type TimerInput struct {
	ID       uint   `json:"id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	UserID   uint   `json:"user_id"`
	MemberID *uint  `json:"member_id"`
	Deleted  bool   `json:"deleted"`
}

// UpdateTimers — ручная правка таймеров задачи одним батчем:
// удаления, правки существующих записей, новые записи. Всё или ничего:
// любая ошибка откатывает весь батч. Дескриптор новой записи без start
// молча пропускается (поведение согласовано с фронтендом).
// События активности батча помечаются общим uuid.
func (s *TaskService) UpdateTimers(taskID uint, timers []TimerInput, actorID *uint) (*models.Task, error) {
	batchUUID := uuid.NewString()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.Preload("Board").First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "task", ID: taskID}
			}
			return err
		}

		for _, timer := range timers {
			switch {
			case timer.Deleted && timer.ID != 0:
				if err := s.deleteEntry(tx, &task, timer.ID, batchUUID, actorID); err != nil {
					return err
				}

			case timer.ID != 0:
				if err := s.updateEntry(tx, &task, timer, batchUUID, actorID); err != nil {
					return err
				}

			default:
				if err := s.createEntry(tx, &task, timer, batchUUID, actorID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadTask(taskID)
}

func (s *TaskService) deleteEntry(tx *gorm.DB, task *models.Task, entryID uint, batchUUID string, actorID *uint) error {
	var entry models.TimeEntry
	if err := tx.First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// уже удалена — пропускаем
			return nil
		}
		return err
	}

	if err := tx.Delete(&entry).Error; err != nil {
		return err
	}

	if err := database.WriteLog(tx, database.LogInput{
		LoggableType: models.LoggableTimeEntry,
		LoggableID:   entry.ID,
		ActorID:      actorID,
		Action:       models.LogDelete,
		OldData:      entry.Snapshot(),
		TaskID:       entry.TaskID,
		ContainerID:  entry.ContainerID,
	}); err != nil {
		return err
	}

	return s.activities.Record(tx, RecordInput{
		ContainerID: entry.ContainerID,
		ActorID:     actorID,
		SubjectType: models.SubjectTask,
		SubjectID:   task.ID,
		Event:       models.EventTimeEntryDeleted,
		Properties: TimeEntryDeletedProps{
			Duration:   entry.TrackedTime(),
			UserID:     entry.UserID,
			SequenceID: task.SequenceID,
		},
		BatchUUID: batchUUID,
	})
}

func (s *TaskService) updateEntry(tx *gorm.DB, task *models.Task, timer TimerInput, batchUUID string, actorID *uint) error {
	var entry models.TimeEntry
	if err := tx.First(&entry, timer.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "time entry", ID: timer.ID}
		}
		return err
	}

	start, err := parseTimestamp(timer.Start)
	if err != nil {
		return err
	}
	end, err := parseTimestamp(timer.End)
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return &ValidationError{Message: "time entry end must not be before start"}
	}

	old := entry.Snapshot()
	oldDuration := entry.TrackedTime()

	if start != nil {
		entry.Start = *start
	}
	entry.End = end
	if err := tx.Save(&entry).Error; err != nil {
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

	return s.activities.Record(tx, RecordInput{
		ContainerID: entry.ContainerID,
		ActorID:     actorID,
		SubjectType: models.SubjectTask,
		SubjectID:   task.ID,
		Event:       models.EventTimeEntryUpdated,
		Properties: TimeEntryUpdatedProps{
			OldDuration: oldDuration,
			NewDuration: entry.TrackedTime(),
			UserID:      entry.UserID,
			SequenceID:  task.SequenceID,
		},
		BatchUUID: batchUUID,
	})
}

func (s *TaskService) createEntry(tx *gorm.DB, task *models.Task, timer TimerInput, batchUUID string, actorID *uint) error {
	if timer.Start == "" {
		// дескриптор без start молча пропускаем
		return nil
	}
	if task.Board == nil {
		return &NotFoundError{Entity: "board", ID: task.BoardID}
	}

	start, err := parseTimestamp(timer.Start)
	if err != nil {
		return err
	}
	end, err := parseTimestamp(timer.End)
	if err != nil {
		return err
	}
	if end != nil && end.Before(*start) {
		return &ValidationError{Message: "time entry end must not be before start"}
	}

	// billable и ставка — из записи участника контейнера на момент создания
	var member models.Member
	if err := tx.
		Where("container_id = ? AND user_id = ?", task.Board.ContainerID, timer.UserID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "container member", ID: timer.UserID}
		}
		return err
	}

	entry := models.TimeEntry{
		TaskID:        task.ID,
		UserID:        timer.UserID,
		ContainerID:   task.Board.ContainerID,
		MemberID:      timer.MemberID,
		Start:         *start,
		End:           end,
		Billable:      member.Billable,
		BillableRate:  member.BillableRate,
		AddedManually: true,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	if err := database.WriteLog(tx, database.LogInput{
		LoggableType: models.LoggableTimeEntry,
		LoggableID:   entry.ID,
		ActorID:      actorID,
		Action:       models.LogCreate,
		NewData:      entry.Snapshot(),
		TaskID:       entry.TaskID,
		ContainerID:  entry.ContainerID,
	}); err != nil {
		return err
	}

	if end == nil {
		return nil
	}
	return s.activities.Record(tx, RecordInput{
		ContainerID: entry.ContainerID,
		ActorID:     actorID,
		SubjectType: models.SubjectTask,
		SubjectID:   task.ID,
		Event:       models.EventTimeEntryCompleted,
		Properties: TimeEntryCompletedProps{
			Duration:      entry.TrackedTime(),
			AddedManually: true,
			SequenceID:    task.SequenceID,
		},
		BatchUUID: batchUUID,
	})
}

// UnassignMember снимает участника с задачи.
func (s *TaskService) UnassignMember(taskID, userID uint, actorID *uint) (*models.Task, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.Preload("Board").First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "task", ID: taskID}
			}
			return err
		}

		if err := tx.
			Where("task_id = ? AND user_id = ?", taskID, userID).
			Delete(&models.TaskMember{}).Error; err != nil {
			return err
		}

		containerID := uint(0)
		if task.Board != nil {
			containerID = task.Board.ContainerID
		}
		return s.activities.Record(tx, RecordInput{
			ContainerID: containerID,
			ActorID:     actorID,
			SubjectType: models.SubjectTask,
			SubjectID:   task.ID,
			Event:       models.EventMemberRemoved,
			Properties: MemberProps{
				UserID:     userID,
				SequenceID: task.SequenceID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.loadTask(taskID)
}

func (s *TaskService) loadTask(taskID uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.
		Preload("Board").
		Preload("Members").
		Preload("Members.User").
		Preload("TimeEntries").
		First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// форматы, которые присылает фронтенд в start/end
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTimestamp(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, &ValidationError{Message: "invalid timestamp: " + value}
}
