package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Import batch statuses. DRAFT batches are created at preview time; DONE,
// FAILED and CANCELED are terminal and immutable.
const (
	ImportStatusDraft      = "DRAFT"
	ImportStatusProcessing = "PROCESSING"
	ImportStatusDone       = "DONE"
	ImportStatusFailed     = "FAILED"
	ImportStatusCanceled   = "CANCELED"
)

// ImportTerminal reports whether the batch status admits no further
// transitions.
func ImportTerminal(status string) bool {
	return status == ImportStatusDone || status == ImportStatusFailed || status == ImportStatusCanceled
}

// ImportBatch tracks one spreadsheet upload from draft preview through
// confirmation or cancellation.
type ImportBatch struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey"`
	PartnerID        string    `json:"partner_id" gorm:"type:uuid;index;not null"`
	UploadedByUserID string    `json:"uploaded_by_user_id" gorm:"type:uuid;not null"`
	Filename         string    `json:"filename" gorm:"type:varchar(255);not null"`
	TotalRows        int       `json:"total_rows"`
	SuccessRows      int       `json:"success_rows"`
	ErrorRows        int       `json:"error_rows"`
	Status           string    `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT'"`
	CreatedAt        time.Time `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (b *ImportBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Status == "" {
		b.Status = ImportStatusDraft
	}
	return nil
}
