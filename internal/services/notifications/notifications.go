// Package notifications persists and broadcasts the request-lifecycle
// events the core emits: approved, rejected, available, plus operator
// alerts for failed jobs. The in-app row is the primary channel; websocket
// delivery and outbound mail ride along when configured.
package notifications

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/veyronhq/reqforge/internal/db/repository"
	"github.com/veyronhq/reqforge/internal/services/email"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// BroadcastFunc defines the function signature for broadcasting WebSocket messages
type BroadcastFunc func(userID string, op structures.Opcode, data interface{})

type Service struct {
	query     *repository.Queries
	broadcast BroadcastFunc
	mailer    *email.Service
}

func NewService(query *repository.Queries) *Service {
	return &Service{
		query: query,
	}
}

// SetBroadcastFunc sets the WebSocket broadcast function
func (s *Service) SetBroadcastFunc(broadcast BroadcastFunc) {
	s.broadcast = broadcast
}

// SetMailer enables outbound request-lifecycle email alongside the in-app
// notifications.
func (s *Service) SetMailer(mailer *email.Service) {
	s.mailer = mailer
}

// CreateNotification persists a notification row and pushes it to the
// user's websocket sessions.
func (s *Service) CreateNotification(ctx context.Context, userID string, notification structures.CreateNotificationRequest) error {
	notificationID := uuid.New().String()

	if notification.Priority == "" {
		notification.Priority = structures.NotificationPriorityNormal
	}

	var dataStr sql.NullString
	if notification.Data != nil {
		if dataJson, err := notification.Data.Value(); err == nil && dataJson != nil {
			dataStr = sql.NullString{
				String: string(dataJson.([]byte)),
				Valid:  true,
			}
		}
	}

	var expiresAt sql.NullTime
	if notification.ExpiresAt != nil {
		expiresAt = sql.NullTime{
			Time:  *notification.ExpiresAt,
			Valid: true,
		}
	}

	err := s.query.CreateNotification(ctx, repository.CreateNotificationParams{
		ID:        notificationID,
		UserID:    userID,
		Title:     notification.Title,
		Message:   notification.Message,
		Type:      string(notification.Type),
		Priority:  string(notification.Priority),
		Data:      dataStr,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		slog.Error("Failed to create notification", "error", err, "user_id", userID)
		return err
	}

	if s.broadcast != nil {
		s.broadcast(userID, structures.OpcodeNotification, structures.NotificationWebSocketPayload{
			ID:       notificationID,
			Title:    notification.Title,
			Message:  notification.Message,
			Type:     notification.Type,
			Priority: notification.Priority,
			Data:     notification.Data,
		})
	}

	slog.Info("Notification created", "id", notificationID, "user_id", userID, "type", notification.Type)
	return nil
}

// mailRequestUpdate sends the email counterpart of a request notification
// when the mailer is configured and the user has an address. Mail failures
// are logged, never propagated.
func (s *Service) mailRequestUpdate(ctx context.Context, userID, mediaTitle, mediaType, reason string, send func(structures.RequestEmailData) error) {
	if s.mailer == nil || !s.mailer.IsEnabled() {
		return
	}

	user, err := s.query.GetUserByID(ctx, userID)
	if err != nil || !user.Email.Valid || user.Email.String == "" {
		return
	}

	go func() {
		if err := send(structures.RequestEmailData{
			Recipient:  user.Email.String,
			Username:   user.Username,
			MediaTitle: mediaTitle,
			MediaType:  mediaType,
			Reason:     reason,
		}); err != nil {
			slog.Error("Failed to send request email", "user_id", userID, "error", err)
		}
	}()
}

// NotifyMediaAvailable notifies a user that their requested media is now available
func (s *Service) NotifyMediaAvailable(ctx context.Context, userID string, mediaTitle, mediaType string, tmdbID *int64) error {
	data := &structures.NotificationData{
		MediaTitle: &mediaTitle,
		MediaType:  &mediaType,
		TMDBID:     tmdbID,
	}

	notification := structures.CreateNotificationRequest{
		UserID:   userID,
		Title:    "Media Available",
		Message:  mediaTitle + " is now available for streaming!",
		Type:     structures.NotificationTypeDownloadCompleted,
		Priority: structures.NotificationPriorityHigh,
		Data:     data,
	}

	s.mailRequestUpdate(ctx, userID, mediaTitle, mediaType, "", s.mailerSendAvailable)

	return s.CreateNotification(ctx, userID, notification)
}

func (s *Service) mailerSendAvailable(data structures.RequestEmailData) error {
	return s.mailer.SendMediaAvailable(data)
}

// NotifyRequestApproved notifies a user that their media request was approved
func (s *Service) NotifyRequestApproved(ctx context.Context, userID string, mediaTitle, mediaType string, tmdbID *int64, requestID *string) error {
	data := &structures.NotificationData{
		MediaTitle: &mediaTitle,
		MediaType:  &mediaType,
		TMDBID:     tmdbID,
		RequestID:  requestID,
	}

	notification := structures.CreateNotificationRequest{
		UserID:   userID,
		Title:    "Request Approved",
		Message:  "Your request for " + mediaTitle + " has been approved and is being processed.",
		Type:     structures.NotificationTypeRequestApproved,
		Priority: structures.NotificationPriorityNormal,
		Data:     data,
	}

	s.mailRequestUpdate(ctx, userID, mediaTitle, mediaType, "", s.mailerSendApproved)

	return s.CreateNotification(ctx, userID, notification)
}

func (s *Service) mailerSendApproved(data structures.RequestEmailData) error {
	return s.mailer.SendRequestApproved(data)
}

// NotifyRequestDenied notifies a user that their media request was denied
func (s *Service) NotifyRequestDenied(ctx context.Context, userID string, mediaTitle, mediaType, reason string, tmdbID *int64, requestID *string) error {
	data := &structures.NotificationData{
		MediaTitle: &mediaTitle,
		MediaType:  &mediaType,
		TMDBID:     tmdbID,
		RequestID:  requestID,
	}

	message := "Your request for " + mediaTitle + " has been denied."
	if reason != "" {
		message += " Reason: " + reason
	}

	notification := structures.CreateNotificationRequest{
		UserID:   userID,
		Title:    "Request Denied",
		Message:  message,
		Type:     structures.NotificationTypeRequestDenied,
		Priority: structures.NotificationPriorityNormal,
		Data:     data,
	}

	s.mailRequestUpdate(ctx, userID, mediaTitle, mediaType, reason, s.mailerSendRejected)

	return s.CreateNotification(ctx, userID, notification)
}

func (s *Service) mailerSendRejected(data structures.RequestEmailData) error {
	return s.mailer.SendRequestRejected(data)
}

// NotifySystemAlert sends a system-wide alert to every user holding the
// system-admin or owner grant; the scheduler uses it for failed executions.
func (s *Service) NotifySystemAlert(ctx context.Context, title, message string, priority structures.NotificationPriority) error {
	adminUsers, err := s.query.GetAllUserPermissions(ctx)
	if err != nil {
		slog.Error("Failed to get admin users for system alert", "error", err)
		return err
	}

	var adminUserIDs []string
	for _, userPerm := range adminUsers {
		if userPerm.PermissionID == "admin.system" || userPerm.PermissionID == "owner" {
			adminUserIDs = append(adminUserIDs, userPerm.UserID)
		}
	}

	for _, userID := range adminUserIDs {
		notification := structures.CreateNotificationRequest{
			UserID:   userID,
			Title:    title,
			Message:  message,
			Type:     structures.NotificationTypeSystemAlert,
			Priority: priority,
		}

		if err := s.CreateNotification(ctx, userID, notification); err != nil {
			slog.Error("Failed to send system alert to user", "error", err, "user_id", userID)
		}
	}

	slog.Info("System alert sent", "title", title, "admin_count", len(adminUserIDs))
	return nil
}

// CleanupExpiredNotifications prunes expired rows; the scheduler runs it.
func (s *Service) CleanupExpiredNotifications(ctx context.Context) error {
	err := s.query.CleanupExpiredNotifications(ctx)
	if err != nil {
		slog.Error("Failed to cleanup expired notifications", "error", err)
		return err
	}
	return nil
}
