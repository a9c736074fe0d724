package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/models"
)

func TestActivityService_RecordAndFetchFeed(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewActivityService(db)

	actor := f.User.ID
	require.NoError(t, service.Record(db, RecordInput{
		ContainerID: f.Container.ID,
		ActorID:     &actor,
		SubjectType: models.SubjectTask,
		SubjectID:   f.Task.ID,
		Event:       models.EventTimeEntryCompleted,
		Properties:  TimeEntryCompletedProps{Duration: 3600, SequenceID: f.Task.SequenceID},
	}))

	feed, err := service.ContainerActivities(f.Container.ID, 1, 15)
	require.NoError(t, err)
	require.Len(t, feed.Activities, 1)
	assert.EqualValues(t, 1, feed.Total)
	assert.False(t, feed.HasMore)

	item := feed.Activities[0]
	assert.Equal(t, "John Smith tracked 01:00:00 on Task #7", item.Description)
	assert.Equal(t, "John Smith", item.User.Name)
	assert.Equal(t, "JS", item.User.Initials)
	assert.Equal(t, models.SubjectTask, item.Subject.Type)
	require.NotNil(t, item.Subject.Name)
	assert.Equal(t, f.Task.Name, *item.Subject.Name)
	assert.NotEmpty(t, item.CreatedAt)
}

func TestActivityService_FeedPagination(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewActivityService(db)

	for i := 0; i < 20; i++ {
		require.NoError(t, service.Record(db, RecordInput{
			ContainerID: f.Container.ID,
			SubjectType: models.SubjectTask,
			SubjectID:   f.Task.ID,
			Event:       models.EventCreated,
		}))
	}

	feed, err := service.ContainerActivities(f.Container.ID, 1, 15)
	require.NoError(t, err)
	assert.Len(t, feed.Activities, 15)
	assert.True(t, feed.HasMore)
	assert.Equal(t, 2, feed.NextPage)
	assert.EqualValues(t, 20, feed.Total)

	feed, err = service.ContainerActivities(f.Container.ID, 2, 15)
	require.NoError(t, err)
	assert.Len(t, feed.Activities, 5)
	assert.False(t, feed.HasMore)
}

func TestActivityService_FeedSystemActorHasEmptyUser(t *testing.T) {
	db := openTestDB(t)
	f := seedFixture(t, db)
	service := NewActivityService(db)

	require.NoError(t, service.Record(db, RecordInput{
		ContainerID: f.Container.ID,
		SubjectType: models.SubjectTask,
		SubjectID:   f.Task.ID,
		Event:       models.EventTimeEntryCompleted,
		Properties:  TimeEntryCompletedProps{Duration: 60},
	}))

	feed, err := service.ContainerActivities(f.Container.ID, 1, 15)
	require.NoError(t, err)
	require.Len(t, feed.Activities, 1)
	assert.Zero(t, feed.Activities[0].User.ID)
	assert.Contains(t, feed.Activities[0].Description, "tracked 00:01:00")
}

func TestActivityService_FeedContainerNotFound(t *testing.T) {
	db := openTestDB(t)
	service := NewActivityService(db)

	_, err := service.ContainerActivities(9999, 1, 15)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
