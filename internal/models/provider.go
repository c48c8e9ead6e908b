package models

import "time"

// Provider is a bursary-granting organisation.
type Provider struct {
	ID               string    `db:"id" json:"id"`
	OrganizationName string    `db:"organization_name" json:"organizationName"`
	OrganizationType *string   `db:"organization_type" json:"organizationType"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	Location         *string   `db:"location" json:"location"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}
