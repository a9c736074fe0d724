package events

import (
	"fmt"
	"log"

	"github.com/dustin/go-humanize"

	"taskhub/internal/models"
)

// Broadcaster — транспорт realtime-уведомлений (websocket-шлюз и т.п.).
type Broadcaster interface {
	Broadcast(channel, event string, payload map[string]any)
}

// LogBroadcaster пишет события в лог вместо реального транспорта.
type LogBroadcaster struct{}

func (LogBroadcaster) Broadcast(channel, event string, payload map[string]any) {
	log.Printf("broadcast %s on channel %s", event, channel)
}

// NewNotificationPayload — контракт полезной нагрузки события NewNotification.
func NewNotificationPayload(n *models.Notification) map[string]any {
	return map[string]any{
		"notification": map[string]any{
			"id":         n.ID,
			"title":      n.Title,
			"content":    n.Content,
			"type":       n.Type,
			"data":       n.Data,
			"is_seen":    n.IsSeen,
			"created_at": humanize.Time(n.CreatedAt),
			"reference": map[string]any{
				"id":   n.ReferenceID,
				"type": n.ReferenceType,
			},
		},
	}
}

// DispatchNewNotification отправляет событие после коммита.
// Транспорт может упасть — закоммиченные данные это не откатывает,
// ошибка только логируется.
func DispatchNewNotification(b Broadcaster, n *models.Notification) {
	if b == nil || n == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("broadcast of notification %d failed: %v", n.ID, r)
		}
	}()
	b.Broadcast(fmt.Sprintf("notifications.%d", n.UserID), "NewNotification", NewNotificationPayload(n))
}
