package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RowData is the raw string-keyed field mapping of one spreadsheet row,
// persisted as JSONB.
type RowData map[string]string

func (d RowData) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

func (d *RowData) Scan(value interface{}) error {
	if value == nil {
		*d = RowData{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return fmt.Errorf("row data: unsupported scan type %T", value)
}

// ImportRow is the persisted per-row outcome of a preview, consumed (not
// re-validated from scratch) at confirm time. RowNumber is 1-based and counts
// the header, so the first data row is number 2.
type ImportRow struct {
	ID                  string    `json:"id" gorm:"type:uuid;primaryKey"`
	ImportID            string    `json:"import_id" gorm:"type:uuid;index;not null"`
	RowNumber           int       `json:"row_number" gorm:"not null"`
	RawData             RowData   `json:"raw_data" gorm:"type:jsonb;not null"`
	NormalizedPhoneE164 *string   `json:"normalized_phone_e164" gorm:"type:varchar(20)"`
	Success             bool      `json:"success"`
	ErrorMessage        *string   `json:"error_message" gorm:"type:varchar(500)"`
	LeadID              *string   `json:"lead_id" gorm:"type:uuid"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (r *ImportRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
