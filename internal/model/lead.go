package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead status lifecycle. A lead always starts as NEW.
const (
	LeadStatusNew          = "NEW"
	LeadStatusFirstContact = "FIRST_CONTACT"
	LeadStatusResponded    = "RESPONDED"
	LeadStatusNoResponse   = "NO_RESPONSE"
	LeadStatusWon          = "WON"
	LeadStatusLost         = "LOST"
)

// ValidLeadStatus reports whether s is one of the known lead statuses.
func ValidLeadStatus(s string) bool {
	switch s {
	case LeadStatusNew, LeadStatusFirstContact, LeadStatusResponded,
		LeadStatusNoResponse, LeadStatusWon, LeadStatusLost:
		return true
	}
	return false
}

// Lead is a spreadsheet- or API-sourced contact owned by a partner.
// PhoneE164 is the canonical phone form used for deduplication.
type Lead struct {
	ID               string     `json:"id" gorm:"type:uuid;primaryKey"`
	PartnerID        string     `json:"partner_id" gorm:"type:uuid;index;not null"`
	CreatedByUserID  string     `json:"created_by_user_id" gorm:"type:uuid;not null"`
	StudentName      string     `json:"student_name" gorm:"type:varchar(160);not null"`
	Email            string     `json:"email" gorm:"type:varchar(160);not null"`
	PhoneRaw         string     `json:"phone_raw" gorm:"type:varchar(40);not null"`
	PhoneE164        string     `json:"phone_e164" gorm:"type:varchar(20);index;not null"`
	PhoneCountry     string     `json:"phone_country" gorm:"type:varchar(2);not null"`
	PhoneValid       bool       `json:"phone_valid" gorm:"default:false"`
	School           string     `json:"school" gorm:"type:varchar(160);not null"`
	City             string     `json:"city" gorm:"type:varchar(120);not null"`
	Status           string     `json:"status" gorm:"type:varchar(20);not null;default:'NEW'"`
	FirstContactedAt *time.Time `json:"first_contacted_at"`
	LastContactedAt  *time.Time `json:"last_contacted_at"`
	CreatedAt        time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	return nil
}

// FirstName returns the first word of the student name, used by the outreach
// message template.
func (l *Lead) FirstName() string {
	fields := strings.Fields(l.StudentName)
	if len(fields) == 0 {
		return l.StudentName
	}
	return fields[0]
}
