package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadStatusHistory is an append-only audit row written exactly once per
// observed status transition. Rows are never updated or deleted.
type LeadStatusHistory struct {
	ID              string    `json:"id" gorm:"type:uuid;primaryKey"`
	LeadID          string    `json:"lead_id" gorm:"type:uuid;index;not null"`
	OldStatus       string    `json:"old_status" gorm:"type:varchar(20);not null"`
	NewStatus       string    `json:"new_status" gorm:"type:varchar(20);not null"`
	ChangedByUserID string    `json:"changed_by_user_id" gorm:"type:uuid;not null"`
	Note            *string   `json:"note" gorm:"type:varchar(1000)"`
	CreatedAt       time.Time `json:"created_at" gorm:"index"`
}

func (h *LeadStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}
