package structures

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeInfo              NotificationType = "info"
	NotificationTypeDownloadCompleted NotificationType = "download_completed"
	NotificationTypeRequestApproved   NotificationType = "request_approved"
	NotificationTypeRequestDenied     NotificationType = "request_denied"
	NotificationTypeSystemAlert       NotificationType = "system_alert"
)

// NotificationPriority represents the urgency of a notification
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

// NotificationData carries the structured payload attached to a
// notification row and its websocket broadcast.
type NotificationData struct {
	MediaTitle *string                `json:"media_title,omitempty"`
	MediaType  *string                `json:"media_type,omitempty"`
	TMDBID     *int64                 `json:"tmdb_id,omitempty"`
	RequestID  *string                `json:"request_id,omitempty"`
	DownloadID *string                `json:"download_id,omitempty"`
	Additional map[string]interface{} `json:"additional,omitempty"`
}

// Value implements driver.Valuer so the payload stores as a JSON column.
func (nd NotificationData) Value() (driver.Value, error) {
	return json.Marshal(nd)
}

// Scan implements sql.Scanner for reading the JSON column back.
func (nd *NotificationData) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into NotificationData", value)
	}
	return json.Unmarshal(bytes, nd)
}

// CreateNotificationRequest describes a notification to persist and
// broadcast.
type CreateNotificationRequest struct {
	UserID    string               `json:"user_id"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Type      NotificationType     `json:"type"`
	Priority  NotificationPriority `json:"priority,omitempty"`
	Data      *NotificationData    `json:"data,omitempty"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
}

// NotificationWebSocketPayload is the shape broadcast to connected clients.
type NotificationWebSocketPayload struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Message  string               `json:"message"`
	Type     NotificationType     `json:"type"`
	Priority NotificationPriority `json:"priority"`
	Data     *NotificationData    `json:"data,omitempty"`
}
