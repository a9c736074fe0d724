package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/models"
)

func TestTaskService_ToggleTimer_StartOpensEntry(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)
	actor := f.User.ID

	task, err := service.ToggleTimer(f.Task.ID, ToggleTimerInput{
		UserID:       f.User.ID,
		Billable:     true,
		BillableRate: 25,
	}, &actor)
	require.NoError(t, err)
	require.Len(t, task.TimeEntries, 1)

	entry := task.TimeEntries[0]
	assert.Nil(t, entry.End)
	assert.True(t, entry.Billable)
	assert.Equal(t, 25.0, entry.BillableRate)
	assert.Equal(t, f.Container.ID, entry.ContainerID)
	assert.False(t, entry.AddedManually)

	var log models.Log
	require.NoError(t, db.Where("loggable_type = ? AND loggable_id = ?", models.LoggableTimeEntry, entry.ID).First(&log).Error)
	assert.Equal(t, models.LogCreate, log.Action)
	assert.Nil(t, log.OldData)
	assert.NotEmpty(t, log.NewData)
	assert.Equal(t, f.Task.ID, log.TaskID)
	assert.Equal(t, f.Container.ID, log.ContainerID)
	require.NotNil(t, log.UserID)
	assert.Equal(t, actor, *log.UserID)
}

func TestTaskService_ToggleTimer_StartStopClosesEntry(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)

	_, err := service.ToggleTimer(f.Task.ID, ToggleTimerInput{UserID: f.User.ID, BillableRate: 20}, nil)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	task, err := service.ToggleTimer(f.Task.ID, ToggleTimerInput{UserID: f.User.ID}, nil)
	require.NoError(t, err)
	require.Len(t, task.TimeEntries, 1)

	entry := task.TimeEntries[0]
	require.NotNil(t, entry.End)
	assert.True(t, entry.End.After(entry.Start))
	assert.False(t, entry.StoppedBySystem)
	assert.Empty(t, openEntries(t, db, f.Task.ID, f.User.ID))

	// CREATE при старте + UPDATE при остановке
	assert.EqualValues(t, 2, entryLogCount(t, db))

	var updateLog models.Log
	require.NoError(t, db.
		Where("loggable_type = ? AND action = ?", models.LoggableTimeEntry, models.LogUpdate).
		First(&updateLog).Error)
	assert.NotEmpty(t, updateLog.OldData)
	assert.Contains(t, updateLog.NewData, "end")
	assert.Nil(t, updateLog.UserID)

	var activity models.Activity
	require.NoError(t, db.Where("event = ?", models.EventTimeEntryCompleted).First(&activity).Error)
	assert.Equal(t, models.SubjectTask, activity.SubjectType)
	assert.Equal(t, f.Task.ID, activity.SubjectID)
}

func TestTaskService_ToggleTimer_SystemStopWithoutOpenTimerIsNoop(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)

	task, err := service.ToggleTimer(f.Task.ID, ToggleTimerInput{
		UserID:          f.User.ID,
		StoppedBySystem: true,
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, task.TimeEntries)
	assert.EqualValues(t, 0, entryLogCount(t, db))
}

func TestTaskService_ToggleTimer_AtMostOneOpenEntry(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)

	for i := 0; i < 3; i++ {
		_, err := service.ToggleTimer(f.Task.ID, ToggleTimerInput{UserID: f.User.ID}, nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(openEntries(t, db, f.Task.ID, f.User.ID)), 1)
	}

	// старт, стоп, старт: одна закрытая и одна открытая
	var total int64
	require.NoError(t, db.Model(&models.TimeEntry{}).Count(&total).Error)
	assert.EqualValues(t, 2, total)
	assert.Len(t, openEntries(t, db, f.Task.ID, f.User.ID), 1)
}

func TestTimeEntry_SecondOpenTimerRejected(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)

	first := models.TimeEntry{TaskID: f.Task.ID, UserID: f.User.ID, ContainerID: f.Container.ID, Start: time.Now()}
	require.NoError(t, db.Create(&first).Error)

	// два конкурентных старта могут оба не увидеть открытой записи;
	// второй insert отсекается уникальным индексом
	second := models.TimeEntry{TaskID: f.Task.ID, UserID: f.User.ID, ContainerID: f.Container.ID, Start: time.Now()}
	require.Error(t, db.Create(&second).Error)
	assert.Len(t, openEntries(t, db, f.Task.ID, f.User.ID), 1)

	// закрытые записи под индекс не попадают
	seedEntry(t, db, f, time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), time.Hour)

	// мягко удалённая открытая запись новому таймеру не мешает
	require.NoError(t, db.Delete(&first).Error)
	third := models.TimeEntry{TaskID: f.Task.ID, UserID: f.User.ID, ContainerID: f.Container.ID, Start: time.Now()}
	require.NoError(t, db.Create(&third).Error)
}

func TestTaskService_ToggleTimer_TaskNotFound(t *testing.T) {
	db := openTestDB(t)
	seedFixture(t, db)
	service := NewTaskService(db)

	_, err := service.ToggleTimer(9999, ToggleTimerInput{UserID: 1}, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestTaskService_UpdateTimers_CreateResolvesMemberRate(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)

	task, err := service.UpdateTimers(f.Task.ID, []TimerInput{
		{Start: "2024-01-10 09:00:00", End: "2024-01-10 10:30:00", UserID: f.User.ID},
	}, nil)
	require.NoError(t, err)
	require.Len(t, task.TimeEntries, 1)

	entry := task.TimeEntries[0]
	// billable и ставка берутся из записи участника контейнера, не из входа
	assert.True(t, entry.Billable)
	assert.Equal(t, 20.0, entry.BillableRate)
	assert.True(t, entry.AddedManually)
	require.NotNil(t, entry.End)
	assert.EqualValues(t, 5400, entry.TrackedTime())

	var activity models.Activity
	require.NoError(t, db.Where("event = ?", models.EventTimeEntryCompleted).First(&activity).Error)
	assert.Equal(t, true, activity.Properties["added_manually"])
	assert.NotEmpty(t, activity.BatchUUID)
}

func TestTaskService_UpdateTimers_MissingEntryRollsBackBatch(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)

	_, err := service.UpdateTimers(f.Task.ID, []TimerInput{
		{Start: "2024-01-10 09:00:00", End: "2024-01-10 10:00:00", UserID: f.User.ID},
		{ID: 9999, Start: "2024-01-10 11:00:00"},
	}, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	// батч атомарен: валидная запись из него тоже не должна сохраниться
	var count int64
	require.NoError(t, db.Model(&models.TimeEntry{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
	assert.EqualValues(t, 0, entryLogCount(t, db))
}

func TestTaskService_UpdateTimers_SkipsCreateWithoutStart(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)

	task, err := service.UpdateTimers(f.Task.ID, []TimerInput{
		{End: "2024-01-10 10:00:00", UserID: f.User.ID},
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, task.TimeEntries)
}

func TestTaskService_UpdateTimers_UnknownMemberFailsBatch(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)

	_, err := service.UpdateTimers(f.Task.ID, []TimerInput{
		{Start: "2024-01-10 09:00:00", UserID: 424242},
	}, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestTaskService_UpdateTimers_UpdateRecordsOldAndNewDuration(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)

	entry := seedEntry(t, db, f, time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), time.Hour)

	_, err := service.UpdateTimers(f.Task.ID, []TimerInput{
		{ID: entry.ID, Start: "2024-01-10 09:00:00", End: "2024-01-10 11:00:00"},
	}, nil)
	require.NoError(t, err)

	var activity models.Activity
	require.NoError(t, db.Where("event = ?", models.EventTimeEntryUpdated).First(&activity).Error)
	assert.EqualValues(t, 3600, activity.Properties["old_duration"])
	assert.EqualValues(t, 7200, activity.Properties["new_duration"])

	var log models.Log
	require.NoError(t, db.
		Where("loggable_type = ? AND action = ?", models.LoggableTimeEntry, models.LogUpdate).
		First(&log).Error)
	assert.NotEmpty(t, log.OldData)
	assert.Contains(t, log.NewData, "end")
}

func TestTaskService_UpdateTimers_ReopenWithLiveTimerFails(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)

	closed := seedEntry(t, db, f, time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), time.Hour)

	_, err := service.ToggleTimer(f.Task.ID, ToggleTimerInput{UserID: f.User.ID}, nil)
	require.NoError(t, err)

	// дескриптор без end обнулил бы завершение записи,
	// но второй открытый таймер пары запрещён
	_, err = service.UpdateTimers(f.Task.ID, []TimerInput{
		{ID: closed.ID, Start: "2024-01-10 09:00:00"},
	}, nil)
	require.Error(t, err)

	var entry models.TimeEntry
	require.NoError(t, db.First(&entry, closed.ID).Error)
	assert.NotNil(t, entry.End)
	assert.Len(t, openEntries(t, db, f.Task.ID, f.User.ID), 1)
}

func TestTaskService_UpdateTimers_EndBeforeStartFails(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)

	_, err := service.UpdateTimers(f.Task.ID, []TimerInput{
		{Start: "2024-01-10 10:00:00", End: "2024-01-10 09:00:00", UserID: f.User.ID},
	}, nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestTaskService_UpdateTimers_DeleteIsSoftAndLogged(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)

	entry := seedEntry(t, db, f, time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), time.Hour)

	_, err := service.UpdateTimers(f.Task.ID, []TimerInput{
		{ID: entry.ID, Deleted: true},
	}, nil)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.TimeEntry{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// мягкое удаление: строка остаётся для аудита
	var deleted models.TimeEntry
	require.NoError(t, db.Unscoped().First(&deleted, entry.ID).Error)
	assert.True(t, deleted.DeletedAt.Valid)

	var log models.Log
	require.NoError(t, db.
		Where("loggable_type = ? AND action = ?", models.LoggableTimeEntry, models.LogDelete).
		First(&log).Error)
	assert.NotEmpty(t, log.OldData)
	assert.Nil(t, log.NewData)

	var activity models.Activity
	require.NoError(t, db.Where("event = ?", models.EventTimeEntryDeleted).First(&activity).Error)
	assert.EqualValues(t, 3600, activity.Properties["duration"])
}

func TestTaskService_UnassignMember(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewTaskService(db)

	taskMember := models.TaskMember{
		TaskID:       f.Task.ID,
		UserID:       f.User.ID,
		CanTiming:    true,
		Billable:     true,
		BillableRate: 20,
	}
	require.NoError(t, db.Create(&taskMember).Error)

	task, err := service.UnassignMember(f.Task.ID, f.User.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, task.Members)

	var activity models.Activity
	require.NoError(t, db.Where("event = ?", models.EventMemberRemoved).First(&activity).Error)
	assert.EqualValues(t, f.User.ID, activity.Properties["user_id"])
}
