package service

import (
	"context"

	"github.com/goguixter/leads-backend/internal/model"
)

// LeadFilter narrows lead listings. PartnerID nil means no tenant filter,
// which only ever happens for MASTER actors.
type LeadFilter struct {
	PartnerID *string
	Status    string
	School    string
	City      string
	Search    string
	Page      int
	PageSize  int
}

// LeadRepository is the persistence contract for leads and their audit trail.
// Update and RecordContact group their writes into a single transaction; a
// failure at any step rolls back the whole group.
type LeadRepository interface {
	Create(ctx context.Context, lead *model.Lead) error
	FindByID(ctx context.Context, id string) (*model.Lead, error)
	// FindFirstMatch returns the first lead in the tenant matching any of
	// case-insensitive email equality, exact E164 equality or case-insensitive
	// student-name equality, first by storage order. Nil when none matches.
	FindFirstMatch(ctx context.Context, partnerID, email, studentName, phoneE164 string) (*model.Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]model.Lead, int64, error)
	Update(ctx context.Context, leadID string, changes map[string]interface{}, history *model.LeadStatusHistory) error
	RecordContact(ctx context.Context, event *model.ContactEvent, changes map[string]interface{}, history *model.LeadStatusHistory) error
	History(ctx context.Context, leadID string) ([]model.LeadStatusHistory, []model.ContactEvent, error)
}

// ImportRepository is the persistence contract for import batches and rows.
type ImportRepository interface {
	CreateBatch(ctx context.Context, batch *model.ImportBatch, rows []model.ImportRow) error
	FindBatch(ctx context.Context, id string) (*model.ImportBatch, error)
	FindBatchRows(ctx context.Context, batchID string) ([]model.ImportRow, error)
	// TransitionStatus performs a conditional status update and reports
	// whether the row was actually in `from` state. This is the confirm
	// mutual-exclusion gate.
	TransitionStatus(ctx context.Context, batchID, from, to string) (bool, error)
	UpdateRow(ctx context.Context, rowID string, changes map[string]interface{}) error
	// CreateLeadForRow creates the lead and links it to the import row in one
	// transaction, so a failed link never leaves an orphan lead behind.
	CreateLeadForRow(ctx context.Context, lead *model.Lead, rowID string) error
	Finalize(ctx context.Context, batchID, status string, total, success, errors int) error
	SetStatus(ctx context.Context, batchID, status string) error
}

// UserRepository is the persistence contract for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, partnerID *string) ([]model.User, error)
}

// PartnerRepository is the persistence contract for tenants.
type PartnerRepository interface {
	Create(ctx context.Context, partner *model.Partner) error
	FindByID(ctx context.Context, id string) (*model.Partner, error)
	List(ctx context.Context) ([]model.Partner, error)
	Update(ctx context.Context, partnerID string, changes map[string]interface{}) error
}
