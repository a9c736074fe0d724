package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskhub/internal/database"
	"taskhub/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	User      models.User
	Container models.Container
	Member    models.Member
	Board     models.Board
	Task      models.Task
}

// пользователь со ставкой 20/час, контейнер, доска и задача #7
func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()

	user := models.User{FirstName: "John", LastName: "Smith", Email: "john@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	container := models.Container{Name: "Acme", OwnerID: user.ID}
	require.NoError(t, db.Create(&container).Error)

	member := models.Member{
		ContainerID:  container.ID,
		UserID:       user.ID,
		CanTiming:    true,
		Billable:     true,
		BillableRate: 20,
	}
	require.NoError(t, db.Create(&member).Error)

	board := models.Board{ContainerID: container.ID, Name: "Backlog"}
	require.NoError(t, db.Create(&board).Error)

	task := models.Task{BoardID: board.ID, Name: "Implement search", SequenceID: 7}
	require.NoError(t, db.Create(&task).Error)

	return fixture{User: user, Container: container, Member: member, Board: board, Task: task}
}

// закрытая запись времени длиной duration, завершившаяся в end
func seedEntry(t *testing.T, db *gorm.DB, f fixture, end time.Time, duration time.Duration) models.TimeEntry {
	t.Helper()

	start := end.Add(-duration)
	entry := models.TimeEntry{
		TaskID:       f.Task.ID,
		UserID:       f.User.ID,
		ContainerID:  f.Container.ID,
		Start:        start,
		End:          &end,
		Billable:     true,
		BillableRate: f.Member.BillableRate,
	}
	require.NoError(t, db.Create(&entry).Error)
	return entry
}

func openEntries(t *testing.T, db *gorm.DB, taskID, userID uint) []models.TimeEntry {
	t.Helper()

	var entries []models.TimeEntry
	require.NoError(t, db.
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Where(`"end" IS NULL`).
		Find(&entries).Error)
	return entries
}

func entryLogCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Log{}).
		Where("loggable_type = ?", models.LoggableTimeEntry).
		Count(&count).Error)
	return count
}
