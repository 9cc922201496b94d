package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/cache"
	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/metrics"
	"github.com/Mel4sa/WORKNEST-sub000/models"
	"github.com/Mel4sa/WORKNEST-sub000/repositories"
	"github.com/Mel4sa/WORKNEST-sub000/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService struct {
	Repo  repositories.NotificationRepository
	Cache *cache.UnreadCache
	now   func() time.Time
}

func NewNotificationService(repo repositories.NotificationRepository, unread *cache.UnreadCache) *NotificationService {
	return &NotificationService{Repo: repo, Cache: unread, now: time.Now}
}

type CreateNotificationInput struct {
	UserID         primitive.ObjectID      `json:"userId"`
	Type           models.NotificationType `json:"type" validate:"required"`
	Title          string                  `json:"title" validate:"required,max=100"`
	Message        string                  `json:"message" validate:"required,max=500"`
	RelatedProject *primitive.ObjectID     `json:"relatedProject,omitempty"`
	RelatedUser    *primitive.ObjectID     `json:"relatedUser,omitempty"`
	RelatedInvite  *primitive.ObjectID     `json:"relatedInvite,omitempty"`
}

type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unreadCount"`
	Pagination    models.Pagination     `json:"pagination"`
}

func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	if in.UserID.IsZero() {
		return nil, newError(ErrValidation, "userId is required")
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, newError(ErrValidation, "%s", err.Error())
	}
	if !in.Type.IsValid() {
		return nil, newError(ErrValidation, "unknown notification type %q", in.Type)
	}

	notification := &models.Notification{
		User:           in.UserID,
		Type:           in.Type,
		Title:          in.Title,
		Message:        in.Message,
		RelatedProject: in.RelatedProject,
		RelatedUser:    in.RelatedUser,
		RelatedInvite:  in.RelatedInvite,
		CreatedAt:      s.now(),
	}
	if err := s.Repo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	s.Cache.Invalidate(in.UserID)
	metrics.NotificationsCreated.WithLabelValues(string(in.Type)).Inc()
	return notification, nil
}

// Notify creates a notification on behalf of a workflow. Failures are
// logged and swallowed so they never fail the calling operation.
func (s *NotificationService) Notify(ctx context.Context, in CreateNotificationInput) {
	if _, err := s.Create(ctx, in); err != nil {
		metrics.NotificationFailures.Inc()
		logging.Logger.Warnf("Event ID: NOTIFICATION_FAILED, Description: Could not notify user %s (%s): %v", in.UserID.Hex(), in.Type, err)
	}
}

func (s *NotificationService) List(ctx context.Context, userID primitive.ObjectID, page, limit int) (*NotificationPage, error) {
	page, limit = models.NormalizePage(page, limit)
	notifications, total, err := s.Repo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationPage{
		Notifications: notifications,
		UnreadCount:   unread,
		Pagination:    models.NewPagination(page, limit, total),
	}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	if count, ok := s.Cache.Get(userID); ok {
		return count, nil
	}
	count, err := s.Repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.Cache.Set(userID, count)
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id primitive.ObjectID) error {
	if err := s.Repo.MarkRead(ctx, userID, id); err != nil {
		return notificationErr(err)
	}
	s.Cache.Invalidate(userID)
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	modified, err := s.Repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.Cache.Invalidate(userID)
	return modified, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		return notificationErr(err)
	}
	s.Cache.Invalidate(userID)
	return nil
}

// DeleteAllForUser removes a user's notifications on account deletion.
func (s *NotificationService) DeleteAllForUser(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.Repo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	s.Cache.Invalidate(userID)
	return nil
}

func notificationErr(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return newError(ErrNotFound, "notification not found")
	}
	return err
}
