package models

import "time"

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationNewFollower       NotificationType = "new_follower"
	NotificationResultUpdate      NotificationType = "result_update"
	NotificationApplicationUpdate NotificationType = "application_update"
	NotificationNewApplication    NotificationType = "new_application"
	NotificationNewOffer          NotificationType = "new_offer"
)

// Related entity types referenced by notifications.
const (
	EntityFollow       = "follow"
	EntityAcademicYear = "academic_year"
	EntityApplication  = "application"
	EntityBursary      = "bursary"
)

// Notification is addressed to a (user, user type) pair. Only IsRead changes after creation.
type Notification struct {
	ID                string           `db:"id" json:"id"`
	UserID            string           `db:"user_id" json:"-"`
	UserType          UserType         `db:"user_type" json:"-"`
	NotificationType  NotificationType `db:"notification_type" json:"notificationType"`
	Title             string           `db:"title" json:"title"`
	Message           string           `db:"message" json:"message"`
	RelatedEntityType *string          `db:"related_entity_type" json:"relatedEntityType"`
	RelatedEntityID   *string          `db:"related_entity_id" json:"relatedEntityId"`
	IsRead            bool             `db:"is_read" json:"isRead"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
}
