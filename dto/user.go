package dto

import (
	"time"

	"github.com/appcontrol-api/models"
)

// UserFilter represents filter criteria for the admin user list
type UserFilter struct {
	Search   string
	Role     models.Role
	IsActive *bool
	PageRequest
}

// UserListResponse represents paginated user list response
type UserListResponse struct {
	Users      []models.User `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

// CreateUserRequest is an admin-created account
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,strongpassword"`
	Role     string `json:"role" validate:"omitempty,role"`
}

// UpdateUserRequest is an admin edit of another account
type UpdateUserRequest struct {
	Name     *string       `json:"name" validate:"omitempty,min=1,max=100"`
	Email    *string       `json:"email" validate:"omitempty,email"`
	IsActive *bool         `json:"isActive"`
	Profile  *ProfileInput `json:"profile"`
}

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

// NotificationRequest is a broadcast to every active user
type NotificationRequest struct {
	Title   string `json:"title" validate:"required,max=100"`
	Message string `json:"message" validate:"required,max=500"`
}

// NotificationResponse reports how many users a broadcast reached
type NotificationResponse struct {
	SentTo  int64  `json:"sentTo"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// UserStatsResponse counts active accounts per role
type UserStatsResponse struct {
	Total             int64 `json:"total"`
	Admins            int64 `json:"admins"`
	Editors           int64 `json:"editors"`
	RegularUsers      int64 `json:"regularUsers"`
	Inactive          int64 `json:"inactive"`
	NewUsersLast30Day int64 `json:"newUsersLast30Days"`
}

// RoleCount is one line of the role distribution
type RoleCount struct {
	Role  models.Role
	Count int64
}

// MonthlyReport is the data behind the plain-text monthly report
type MonthlyReport struct {
	Month       time.Month
	Year        int
	ActiveUsers int64
	NewUsers    int64
	ByRole      []RoleCount
	GeneratedAt time.Time
}
