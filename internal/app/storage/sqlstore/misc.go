package sqlstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/R3E-Network/jobhunter/internal/app/domain/chat"
	"github.com/R3E-Network/jobhunter/internal/app/domain/notification"
	"github.com/R3E-Network/jobhunter/internal/app/domain/subscriber"
)

// Subscribers -----------------------------------------------------------------

func (s *Store) loadSubscribers(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Skills", func(db *gorm.DB) *gorm.DB { return db.Order("skills.id") })
}

func (s *Store) CreateSubscriber(ctx context.Context, sub subscriber.Subscriber) (subscriber.Subscriber, error) {
	rec := toSubscriberRecord(sub)
	skills := rec.Skills
	rec.Skills = nil
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Skills").Create(&rec).Error; err != nil {
			return mapErr(err, "subscriber", sub.Email)
		}
		if len(skills) == 0 {
			return nil
		}
		return tx.Model(&rec).Association("Skills").Replace(skills)
	})
	if err != nil {
		return subscriber.Subscriber{}, err
	}
	return s.GetSubscriber(ctx, rec.ID)
}

func (s *Store) UpdateSubscriber(ctx context.Context, sub subscriber.Subscriber) (subscriber.Subscriber, error) {
	rec := toSubscriberRecord(sub)
	skills := rec.Skills
	rec.Skills = nil
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.exists(tx, &subscriberRecord{}, "subscriber", sub.ID); err != nil {
			return err
		}
		if err := tx.Model(&rec).Select("*").Omit("Skills", "CreatedAt", "CreatedBy").Updates(&rec).Error; err != nil {
			return mapErr(err, "subscriber", sub.ID)
		}
		return tx.Model(&rec).Association("Skills").Replace(skills)
	})
	if err != nil {
		return subscriber.Subscriber{}, err
	}
	return s.GetSubscriber(ctx, sub.ID)
}

func (s *Store) GetSubscriber(ctx context.Context, id int64) (subscriber.Subscriber, error) {
	var rec subscriberRecord
	if err := s.loadSubscribers(s.conn(ctx)).First(&rec, id).Error; err != nil {
		return subscriber.Subscriber{}, mapErr(err, "subscriber", id)
	}
	return rec.domain(), nil
}

func (s *Store) GetSubscriberByEmail(ctx context.Context, email string) (subscriber.Subscriber, error) {
	var rec subscriberRecord
	if err := s.loadSubscribers(s.conn(ctx)).Where("email = ?", email).First(&rec).Error; err != nil {
		return subscriber.Subscriber{}, mapErr(err, "subscriber", email)
	}
	return rec.domain(), nil
}

func (s *Store) ListSubscribers(ctx context.Context) ([]subscriber.Subscriber, error) {
	var recs []subscriberRecord
	if err := s.loadSubscribers(s.conn(ctx)).Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	return mapRecords(recs, subscriberRecord.domain), nil
}

func (s *Store) DeleteSubscriber(ctx context.Context, id int64) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.exists(tx, &subscriberRecord{}, "subscriber", id); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM subscriber_skill WHERE subscriber_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&subscriberRecord{}, id).Error
	})
}

// Notifications ---------------------------------------------------------------

func (s *Store) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	rec := notificationRecord{
		Type: string(n.Type), Message: n.Message, JobName: n.JobName, CompanyName: n.CompanyName,
		ResumeID: n.ResumeID, UserID: n.UserID, SentAt: n.Timestamp, IsRead: n.Read,
	}
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return notification.Notification{}, mapErr(err, "notification", n.UserID)
	}
	return rec.domain(), nil
}

func (s *Store) ListUnreadNotifications(ctx context.Context, userID int64) ([]notification.Notification, error) {
	var recs []notificationRecord
	err := s.conn(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("sent_at DESC, id DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return mapRecords(recs, notificationRecord.domain), nil
}

func (s *Store) MarkNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	res := s.conn(ctx).Model(&notificationRecord{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// Chat history ----------------------------------------------------------------

func (s *Store) CreateChatHistory(ctx context.Context, h chat.History) (chat.History, error) {
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now().UTC()
	}
	rec := chatRecord{UserID: h.UserID, Question: h.Question, Answer: h.Answer, AskedAt: h.Timestamp}
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return chat.History{}, mapErr(err, "chat", h.UserID)
	}
	return rec.domain(), nil
}

func (s *Store) ListChatHistory(ctx context.Context, userID string) ([]chat.History, error) {
	var recs []chatRecord
	err := s.conn(ctx).Where("user_id = ?", userID).Order("asked_at DESC, id DESC").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return mapRecords(recs, chatRecord.domain), nil
}
