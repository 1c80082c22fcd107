package model

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid проверяет что роль известна системе
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        *string   `json:"email"` // у пациентов, записанных администратором, может отсутствовать
	DNI          string    `json:"dni"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsDeleted    bool      `json:"is_deleted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Дополнительные поля для удобства (не из таблицы users)
	Specialties []Specialty `json:"specialties,omitempty"`
}

// IsDoctor checks if user is an active doctor
func (u *User) IsDoctor() bool {
	return u.Role == RoleDoctor && !u.IsDeleted
}

type Specialty struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserQuery фильтры списка пользователей.
// Name ищется и по имени, и по DNI.
type UserQuery struct {
	Name  string
	DNI   string
	Roles []Role
}
