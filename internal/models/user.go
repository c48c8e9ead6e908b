package models

// UserRole represents the two authenticated principals of the platform.
type UserRole string

const (
	RoleLearner  UserRole = "LEARNER"
	RoleProvider UserRole = "PROVIDER"
)

// UserType addresses a notification recipient. It is the lower-case form of UserRole.
type UserType string

const (
	UserTypeLearner  UserType = "learner"
	UserTypeProvider UserType = "provider"
)

// UserTypeForRole maps an authenticated role to its notification recipient type.
func UserTypeForRole(role UserRole) UserType {
	if role == RoleProvider {
		return UserTypeProvider
	}
	return UserTypeLearner
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}
