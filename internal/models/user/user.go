package user

import (
	"strings"
	"time"
)

type Role string

const RoleAdmin Role = "admin"
const RoleUser Role = "user"

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"`
	Role         Role      `json:"role" db:"role"`
	Active       bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Identity - то, что middleware кладёт в контекст запроса
type Identity struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Active bool   `json:"is_active"`
}

// Summary - ответ на регистрацию и логин
type Summary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u *User) Identity() *Identity {
	return &Identity{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		Active: u.Active,
	}
}

func (u *User) Summary() Summary {
	return Summary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
