package model

import "time"

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

type UserStatus string

const (
	StatusActive    UserStatus = "ACTIVE"
	StatusSuspended UserStatus = "SUSPENDED"
	StatusInactive  UserStatus = "INACTIVE"
)

// User is the full persisted identity record. PasswordHash is empty for
// accounts created through Google federation only.
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	Name              string
	Role              Role
	Status            UserStatus
	GoogleID          string
	Avatar            string
	PreferredLanguage string
	EmailVerified     bool
	CreatedAt         time.Time
	LastLoginAt       *time.Time
}

// AuthUser is the request-scoped identity attached by the auth middleware.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}

// CachedUser is the minimal projection held by the user cache and consulted
// on every authenticated request.
type CachedUser struct {
	ID     string
	Email  string
	Name   string
	Role   Role
	Status UserStatus
}

// PublicUser is the sanitized projection returned to clients.
type PublicUser struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Role              Role       `json:"role"`
	Status            UserStatus `json:"status"`
	Avatar            string     `json:"avatar,omitempty"`
	PreferredLanguage string     `json:"preferredLanguage"`
	EmailVerified     bool       `json:"emailVerified"`
	CreatedAt         time.Time  `json:"createdAt"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`
}

// Profile extends the public projection with derived ownership counts.
type Profile struct {
	PublicUser
	QuestionCount int `json:"questionCount"`
	SubjectCount  int `json:"subjectCount"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		Role:              u.Role,
		Status:            u.Status,
		Avatar:            u.Avatar,
		PreferredLanguage: u.PreferredLanguage,
		EmailVerified:     u.EmailVerified,
		CreatedAt:         u.CreatedAt,
		LastLoginAt:       u.LastLoginAt,
	}
}

func (u *User) Cached() *CachedUser {
	return &CachedUser{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		Status: u.Status,
	}
}

// UserUpdate carries a partial update; nil fields are left untouched.
type UserUpdate struct {
	GoogleID      *string
	Avatar        *string
	EmailVerified *bool
	Status        *UserStatus
	LastLoginAt   *time.Time
}
