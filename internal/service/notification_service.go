package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/bursary-match-api/internal/models"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
	reqlog "github.com/noah-isme/bursary-match-api/pkg/logger"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	List(ctx context.Context, userID string, userType models.UserType, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string, userType models.UserType) (int64, error)
	CountUnread(ctx context.Context, userID string, userType models.UserType) (int64, error)
}

type notificationLearnerReader interface {
	FindByID(ctx context.Context, id string) (*models.Learner, error)
}

type notificationFollowerReader interface {
	ListFollowerProviderIDs(ctx context.Context, learnerID string) ([]string, error)
}

// NotificationService persists notifications and serves each recipient's inbox.
type NotificationService struct {
	repo      notificationStore
	learners  notificationLearnerReader
	followers notificationFollowerReader
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationStore, learners notificationLearnerReader, followers notificationFollowerReader, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, learners: learners, followers: followers, metrics: metrics, logger: logger}
}

// OnAcademicRecordMutated sends one result_update notification to every provider following the learner.
// A failure for one follower does not stop the others. Errors are returned only when the
// learner or follower list cannot be read, so the caller may retry the whole fan-out.
func (s *NotificationService) OnAcademicRecordMutated(ctx context.Context, learnerID, academicYearID string) error {
	learner, err := s.learners.FindByID(ctx, learnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			reqlog.FromContext(ctx, s.logger).Warn("skipping result fan-out for unknown learner", zap.String("learner_id", learnerID))
			return nil
		}
		return fmt.Errorf("load learner %s: %w", learnerID, err)
	}

	providerIDs, err := s.followers.ListFollowerProviderIDs(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("list followers of %s: %w", learnerID, err)
	}

	name := learner.FullName()
	delivered := 0
	for _, providerID := range providerIDs {
		n := &models.Notification{
			UserID:            providerID,
			UserType:          models.UserTypeProvider,
			NotificationType:  models.NotificationResultUpdate,
			Title:             "Learner Updated Results",
			Message:           fmt.Sprintf("%s has updated their academic results", name),
			RelatedEntityType: strPtr(models.EntityAcademicYear),
			RelatedEntityID:   strPtr(academicYearID),
		}
		if err := s.create(ctx, n); err != nil {
			reqlog.FromContext(ctx, s.logger).Warn("result update notification failed",
				zap.String("provider_id", providerID),
				zap.String("learner_id", learnerID),
				zap.Error(err))
			continue
		}
		delivered++
	}

	reqlog.FromContext(ctx, s.logger).Info("notified followers of result update",
		zap.String("learner_id", learnerID),
		zap.Int("followers", len(providerIDs)),
		zap.Int("delivered", delivered))
	return nil
}

// OnFollowCreated tells the learner that a provider started following them.
func (s *NotificationService) OnFollowCreated(ctx context.Context, learnerID, providerName, followID string) error {
	return s.create(ctx, &models.Notification{
		UserID:            learnerID,
		UserType:          models.UserTypeLearner,
		NotificationType:  models.NotificationNewFollower,
		Title:             "New Follower!",
		Message:           fmt.Sprintf("%s is now following you", providerName),
		RelatedEntityType: strPtr(models.EntityFollow),
		RelatedEntityID:   strPtr(followID),
	})
}

// Send persists a single-recipient notification.
func (s *NotificationService) Send(ctx context.Context, n models.Notification) error {
	return s.create(ctx, &n)
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, role models.UserRole, unreadOnly bool) ([]models.Notification, error) {
	list, err := s.repo.List(ctx, userID, models.UserTypeForRole(role), unreadOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

// UnreadCount returns how many of the caller's notifications are unread.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string, role models.UserRole) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID, models.UserTypeForRole(role))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flags one notification as read. Only its recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, role models.UserRole, notificationID string) error {
	n, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if n.UserID != userID || n.UserType != models.UserTypeForRole(role) {
		return appErrors.Clone(appErrors.ErrForbidden, "this notification does not belong to you")
	}
	if n.IsRead {
		return nil
	}
	if err := s.repo.MarkRead(ctx, notificationID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification as read")
	}
	return nil
}

// MarkAllRead flags every unread notification of the caller as read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string, role models.UserRole) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID, models.UserTypeForRole(role))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications as read")
	}
	return updated, nil
}

func (s *NotificationService) create(ctx context.Context, n *models.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		s.metrics.RecordNotification(n.NotificationType, false)
		return err
	}
	s.metrics.RecordNotification(n.NotificationType, true)
	return nil
}

func strPtr(v string) *string {
	return &v
}
