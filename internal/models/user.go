package models

import "time"

type UserRole string

const (
	UserRoleAdmin UserRole = "ADMIN"
)

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	UserName    string    `json:"userName"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Role        UserRole  `json:"role"`
	IsSuperUser bool      `json:"isSuperUser"`
	IsVerified  bool      `json:"isVerified"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Credential is one stored password hash. Only the newest is current.
type Credential struct {
	ID        string
	UserID    string
	Hash      string
	IsCurrent bool
	CreatedAt time.Time
}

type LoginSource string

const (
	LoginFromWeb LoginSource = "WEB"
)

// Session backs exactly one refresh token.
type Session struct {
	ID        string
	UserID    string
	LoginFrom LoginSource
	Revoked   bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
