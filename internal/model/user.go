package model

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a dashboard operator.
type User struct {
	BaseModel
	Email    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password string `gorm:"type:varchar(255);not null" json:"-"`
	FullName string `gorm:"type:varchar(255)" json:"full_name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	RoleID *uint `gorm:"index" json:"role_id"`
	Role   *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	// Privileges are granted on top of the role's.
	Privileges []Privilege `gorm:"many2many:user_privileges;" json:"privileges,omitempty"`

	// TokenVersion is embedded in issued tokens; changing it revokes them.
	TokenVersion string `gorm:"type:varchar(255);default:''" json:"-"`
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// EffectivePrivileges is the sorted union of the role's and the user's own
// privilege codes. Role privileges count only when the role was loaded.
func (u *User) EffectivePrivileges() []string {
	var fromRole []Privilege
	if u.Role != nil {
		fromRole = u.Role.Privileges
	}
	return privilegeCodes(fromRole, u.Privileges)
}

// RoleCode is "" for a user without a role.
func (u *User) RoleCode() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Code
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	Privileges []string  `json:"privileges"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Role:       u.RoleCode(),
		IsActive:   u.IsActive,
		Privileges: u.EffectivePrivileges(),
	}
}
