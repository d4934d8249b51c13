package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChannelWhatsApp is the only outreach channel in use today.
const ChannelWhatsApp = "WHATSAPP"

// ContactEvent is an append-only record of one outreach attempt, successful
// or not.
type ContactEvent struct {
	ID                     string    `json:"id" gorm:"type:uuid;primaryKey"`
	LeadID                 string    `json:"lead_id" gorm:"type:uuid;index;not null"`
	UserID                 string    `json:"user_id" gorm:"type:uuid;not null"`
	Channel                string    `json:"channel" gorm:"type:varchar(20);not null"`
	MessageTemplateVersion string    `json:"message_template_version" gorm:"type:varchar(10);not null"`
	MessageRendered        string    `json:"message_rendered" gorm:"type:text;not null"`
	ToAddress              string    `json:"to_address" gorm:"type:varchar(40);not null"`
	Success                bool      `json:"success"`
	ErrorReason            *string   `json:"error_reason" gorm:"type:varchar(160)"`
	CreatedAt              time.Time `json:"created_at" gorm:"index"`
}

func (e *ContactEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
