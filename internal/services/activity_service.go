package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"gorm.io/gorm"

	"taskhub/internal/models"
)

// UserResolver отдаёт отображаемое имя пользователя по id.
// Рендерер через него находит второго участника события (добавленного
// в задачу, владельца записи времени).
type UserResolver func(userID uint) string

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

type RecordInput struct {
	ContainerID uint
	ActorID     *uint
	SubjectType string
	SubjectID   uint
	Event       string
	Properties  any
	BatchUUID   string
}

// Record добавляет запись в ленту активности в рамках переданной транзакции.
func (s *ActivityService) Record(tx *gorm.DB, in RecordInput) error {
	props, err := toJSONMap(in.Properties)
	if err != nil {
		return err
	}

	activity := models.Activity{
		ContainerID: in.ContainerID,
		UserID:      in.ActorID,
		SubjectType: in.SubjectType,
		SubjectID:   in.SubjectID,
		Event:       in.Event,
		Properties:  props,
		BatchUUID:   in.BatchUUID,
	}
	return tx.Create(&activity).Error
}

type FeedUser struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Initials string `json:"initials"`
}

type FeedSubject struct {
	Type string  `json:"type"`
	ID   uint    `json:"id"`
	Name *string `json:"name"`
}

type ActivityFeedItem struct {
	ID                 uint           `json:"id"`
	Description        string         `json:"description"`
	User               FeedUser       `json:"user"`
	Subject            FeedSubject    `json:"subject"`
	Event              string         `json:"event"`
	Properties         models.JSONMap `json:"properties"`
	CreatedAt          string         `json:"created_at"`
	CreatedAtFormatted string         `json:"created_at_formatted"`
}

type ActivityFeed struct {
	Activities []ActivityFeedItem `json:"activities"`
	HasMore    bool               `json:"has_more"`
	NextPage   int                `json:"next_page"`
	Total      int64              `json:"total"`
}

// ContainerActivities — постраничная лента контейнера, свежие сверху.
func (s *ActivityService) ContainerActivities(containerID uint, page, perPage int) (*ActivityFeed, error) {
	var container models.Container
	if err := s.db.First(&container, containerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "container", ID: containerID}
		}
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}

	var total int64
	if err := s.db.Model(&models.Activity{}).
		Where("container_id = ?", containerID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var activities []models.Activity
	if err := s.db.
		Preload("User").
		Where("container_id = ?", containerID).
		Order("created_at desc").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&activities).Error; err != nil {
		return nil, err
	}

	taskNames := map[uint]*string{}
	items := make([]ActivityFeedItem, 0, len(activities))
	for i := range activities {
		a := &activities[i]

		actorName := ""
		user := FeedUser{}
		if a.User != nil {
			actorName = a.User.FullName()
			user = FeedUser{
				ID:       a.User.ID,
				Name:     actorName,
				Avatar:   a.User.Avatar,
				Initials: a.User.AvatarOrInitials(),
			}
		}

		items = append(items, ActivityFeedItem{
			ID:          a.ID,
			Description: Describe(a, actorName, s.userNameResolver()),
			User:        user,
			Subject: FeedSubject{
				Type: a.SubjectType,
				ID:   a.SubjectID,
				Name: s.subjectName(a.SubjectType, a.SubjectID, taskNames),
			},
			Event:              a.Event,
			Properties:         a.Properties,
			CreatedAt:          humanize.Time(a.CreatedAt),
			CreatedAtFormatted: a.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return &ActivityFeed{
		Activities: items,
		HasMore:    int64(page*perPage) < total,
		NextPage:   page + 1,
		Total:      total,
	}, nil
}

func (s *ActivityService) userNameResolver() UserResolver {
	return func(userID uint) string {
		var user models.User
		if err := s.db.First(&user, userID).Error; err != nil {
			return ""
		}
		return user.FullName()
	}
}

// имя субъекта для ленты; удалённые задачи тоже находим
func (s *ActivityService) subjectName(subjectType string, subjectID uint, cache map[uint]*string) *string {
	if subjectType != models.SubjectTask {
		return nil
	}
	if name, ok := cache[subjectID]; ok {
		return name
	}
	var task models.Task
	if err := s.db.Unscoped().First(&task, subjectID).Error; err != nil {
		cache[subjectID] = nil
		return nil
	}
	cache[subjectID] = &task.Name
	return &task.Name
}

// Describe строит человекочитаемое описание события.
// Функция тотальна: на любой тег и любые (в том числе неполные)
// properties возвращается строка, отсутствующие данные заменяются
// пустыми значениями либо именем "unknown".
func Describe(a *models.Activity, actorName string, resolve UserResolver) string {
	badge := taskBadge(a)

	withBadge := func(text string) string {
		if badge == "" {
			return text
		}
		return text + " " + badge
	}

	switch a.Event {
	case models.EventCreated:
		return withBadge(actorName + " created " + strings.ToLower(a.SubjectType))

	case models.EventUpdated:
		var props UpdatedProps
		decodeProps(a.Properties, &props)
		return withBadge(actorName + " updated " + changedAttributes(props.Attributes) + " in")

	case models.EventDeleted:
		return withBadge(actorName + " deleted " + strings.ToLower(a.SubjectType))

	case models.EventMemberAdded:
		var props MemberProps
		decodeProps(a.Properties, &props)
		return withBadge(actorName + " added " + resolveName(resolve, props.UserID) + " to")

	case models.EventMemberRemoved:
		var props MemberProps
		decodeProps(a.Properties, &props)
		return withBadge(actorName + " removed " + resolveName(resolve, props.UserID) + " from")

	case models.EventTimeEntryCompleted:
		var props TimeEntryCompletedProps
		decodeProps(a.Properties, &props)
		manually := ""
		if props.AddedManually {
			manually = " manually"
		}
		return withBadge(fmt.Sprintf("%s tracked%s %s on",
			actorName, manually, models.FormatDuration(absSeconds(props.Duration))))

	case models.EventTimeEntryDeleted:
		var props TimeEntryDeletedProps
		decodeProps(a.Properties, &props)
		return withBadge(fmt.Sprintf("%s deleted %s's time entry of %s from",
			actorName,
			resolveName(resolve, props.UserID),
			models.FormatDuration(absSeconds(props.Duration))))

	case models.EventTimeEntryUpdated:
		var props TimeEntryUpdatedProps
		decodeProps(a.Properties, &props)
		return withBadge(fmt.Sprintf("%s updated %s's time entry from %s to %s on",
			actorName,
			resolveName(resolve, props.UserID),
			models.FormatDuration(absSeconds(props.OldDuration)),
			models.FormatDuration(absSeconds(props.NewDuration))))

	default:
		return withBadge(fmt.Sprintf("%s performed %s on", actorName, a.Event))
	}
}

// бейдж "Task #N" — только для задач и только если sequence_id известен
func taskBadge(a *models.Activity) string {
	if a.SubjectType != models.SubjectTask {
		return ""
	}
	if seq, ok := sequenceID(a.Properties); ok {
		return fmt.Sprintf("Task #%d", seq)
	}
	return ""
}

func sequenceID(props models.JSONMap) (int64, bool) {
	if props == nil {
		return 0, false
	}
	if attrs, ok := props["attributes"].(map[string]any); ok {
		if seq, ok := asInt64(attrs["sequence_id"]); ok {
			return seq, true
		}
	}
	return asInt64(props["sequence_id"])
}

// числа из json-колонки приходят как float64
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func absSeconds(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func resolveName(resolve UserResolver, userID uint) string {
	if resolve == nil || userID == 0 {
		return "unknown"
	}
	name := resolve(userID)
	if name == "" {
		return "unknown"
	}
	return name
}

// "name, priority" -> "Name, Priority"
func changedAttributes(attrs map[string]any) string {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		keys[i] = capitalize(key)
	}
	return strings.Join(keys, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

func toJSONMap(v any) (models.JSONMap, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(models.JSONMap); ok {
		return m, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m models.JSONMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeProps(props models.JSONMap, out any) {
	if props == nil {
		return
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, out)
}
