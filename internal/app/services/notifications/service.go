package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/notification"
	"github.com/R3E-Network/jobhunter/internal/app/metrics"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// Publisher pushes a payload to every live session of a user.
type Publisher interface {
	Publish(ctx context.Context, userID int64, payload []byte) error
}

// Service stores in-app notifications and pushes them to connected clients.
type Service struct {
	store     storage.NotificationStore
	publisher Publisher
	log       *logger.Logger
	now       func() time.Time
}

// New constructs a notification service. A nil publisher stores without
// pushing.
func New(store storage.NotificationStore, publisher Publisher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("notifications")
	}
	return &Service{store: store, publisher: publisher, log: log, now: time.Now}
}

// Send persists n as unread for userID and pushes it. Push failures are
// logged; the stored copy is still returned by Unread.
func (s *Service) Send(ctx context.Context, userID int64, n notification.Notification) (notification.Notification, error) {
	n.UserID = userID
	n.Read = false
	if n.Timestamp.IsZero() {
		n.Timestamp = s.now().UTC()
	}
	saved, err := s.store.CreateNotification(ctx, n)
	if err != nil {
		return notification.Notification{}, err
	}
	if s.publisher == nil {
		return saved, nil
	}
	payload, err := json.Marshal(saved)
	if err != nil {
		return saved, err
	}
	if err := s.publisher.Publish(ctx, userID, payload); err != nil {
		metrics.RecordNotification(false)
		s.log.WithContext(ctx).WithError(err).WithField("user_id", userID).Warn("push notification failed")
		return saved, nil
	}
	metrics.RecordNotification(true)
	return saved, nil
}

// Unread lists the unread notifications of userID, newest first.
func (s *Service) Unread(ctx context.Context, userID int64) ([]notification.Notification, error) {
	items, err := s.store.ListUnreadNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []notification.Notification{}
	}
	return items, nil
}

// MarkAllRead marks every notification of userID as read.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.MarkNotificationsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"user_id": userID,
		"count":   n,
	}).Debug("notifications marked read")
	return n, nil
}
