package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles. MASTER users operate across tenants and are the only role
// allowed to change lead status; PARTNER users are bound to one partner.
const (
	RoleMaster  = "MASTER"
	RolePartner = "PARTNER"
)

// User represents an authenticated account. PartnerID is nil if and only if
// the role is MASTER; the invariant is enforced at creation time.
type User struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	Role         string    `json:"role" gorm:"type:varchar(20);not null"`
	PartnerID    *string   `json:"partner_id" gorm:"type:uuid;index"`
	Name         string    `json:"name" gorm:"type:varchar(120);not null"`
	Email        string    `json:"email" gorm:"type:varchar(160);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
