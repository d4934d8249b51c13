package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goguixter/leads-backend/internal/model"
)

// In-memory repository doubles. They implement the storage contracts closely
// enough to exercise the services without a database.

type fakeLeadRepo struct {
	leads     []*model.Lead
	histories []model.LeadStatusHistory
	events    []model.ContactEvent

	createErr error
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{}
}

func (r *fakeLeadRepo) Create(ctx context.Context, lead *model.Lead) error {
	if r.createErr != nil {
		return r.createErr
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	lead.CreatedAt = time.Now()
	r.leads = append(r.leads, lead)
	return nil
}

func (r *fakeLeadRepo) FindByID(ctx context.Context, id string) (*model.Lead, error) {
	for _, l := range r.leads {
		if l.ID == id {
			copied := *l
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeLeadRepo) FindFirstMatch(ctx context.Context, partnerID, email, studentName, phoneE164 string) (*model.Lead, error) {
	for _, l := range r.leads {
		if l.PartnerID != partnerID {
			continue
		}
		if l.PhoneE164 == phoneE164 ||
			strings.EqualFold(l.Email, email) ||
			strings.EqualFold(l.StudentName, studentName) {
			copied := *l
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeLeadRepo) List(ctx context.Context, filter LeadFilter) ([]model.Lead, int64, error) {
	var matched []model.Lead
	for _, l := range r.leads {
		if filter.PartnerID != nil && l.PartnerID != *filter.PartnerID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.School != "" && !strings.EqualFold(l.School, filter.School) {
			continue
		}
		if filter.City != "" && !strings.EqualFold(l.City, filter.City) {
			continue
		}
		matched = append(matched, *l)
	}
	total := int64(len(matched))
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeLeadRepo) Update(ctx context.Context, leadID string, changes map[string]interface{}, history *model.LeadStatusHistory) error {
	for _, l := range r.leads {
		if l.ID == leadID {
			applyLeadChanges(l, changes)
			if history != nil {
				history.ID = uuid.New().String()
				r.histories = append(r.histories, *history)
			}
			return nil
		}
	}
	return fmt.Errorf("lead %s not found", leadID)
}

func (r *fakeLeadRepo) RecordContact(ctx context.Context, event *model.ContactEvent, changes map[string]interface{}, history *model.LeadStatusHistory) error {
	event.ID = uuid.New().String()
	event.CreatedAt = time.Now()
	r.events = append(r.events, *event)
	if changes == nil && history == nil {
		return nil
	}
	return r.Update(ctx, event.LeadID, changes, history)
}

func (r *fakeLeadRepo) History(ctx context.Context, leadID string) ([]model.LeadStatusHistory, []model.ContactEvent, error) {
	var hist []model.LeadStatusHistory
	for _, h := range r.histories {
		if h.LeadID == leadID {
			hist = append(hist, h)
		}
	}
	var events []model.ContactEvent
	for _, e := range r.events {
		if e.LeadID == leadID {
			events = append(events, e)
		}
	}
	return hist, events, nil
}

func applyLeadChanges(l *model.Lead, changes map[string]interface{}) {
	for key, value := range changes {
		switch key {
		case "status":
			l.Status = value.(string)
		case "student_name":
			l.StudentName = value.(string)
		case "email":
			l.Email = value.(string)
		case "school":
			l.School = value.(string)
		case "city":
			l.City = value.(string)
		case "phone_raw":
			l.PhoneRaw = value.(string)
		case "phone_e164":
			l.PhoneE164 = value.(string)
		case "phone_country":
			l.PhoneCountry = value.(string)
		case "phone_valid":
			l.PhoneValid = value.(bool)
		case "first_contacted_at":
			t := value.(time.Time)
			l.FirstContactedAt = &t
		case "last_contacted_at":
			t := value.(time.Time)
			l.LastContactedAt = &t
		}
	}
}

type fakeImportRepo struct {
	batches map[string]*model.ImportBatch
	rows    map[string]*model.ImportRow

	// leads receives rows materialized by CreateLeadForRow, so duplicate
	// detection and assertions share one lead store.
	leads *fakeLeadRepo

	// failLeadForRows forces CreateLeadForRow to fail for given row numbers.
	failLeadForRows map[int]bool
}

func newFakeImportRepo(leads *fakeLeadRepo) *fakeImportRepo {
	return &fakeImportRepo{
		batches:         map[string]*model.ImportBatch{},
		rows:            map[string]*model.ImportRow{},
		leads:           leads,
		failLeadForRows: map[int]bool{},
	}
}

func (r *fakeImportRepo) CreateBatch(ctx context.Context, batch *model.ImportBatch, rows []model.ImportRow) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	batch.CreatedAt = time.Now()
	r.batches[batch.ID] = batch
	for i := range rows {
		row := rows[i]
		row.ID = uuid.New().String()
		row.ImportID = batch.ID
		r.rows[row.ID] = &row
	}
	return nil
}

func (r *fakeImportRepo) FindBatch(ctx context.Context, id string) (*model.ImportBatch, error) {
	batch, ok := r.batches[id]
	if !ok {
		return nil, nil
	}
	copied := *batch
	return &copied, nil
}

func (r *fakeImportRepo) FindBatchRows(ctx context.Context, batchID string) ([]model.ImportRow, error) {
	var rows []model.ImportRow
	for _, row := range r.rows {
		if row.ImportID == batchID {
			rows = append(rows, *row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].RowNumber < rows[j].RowNumber })
	return rows, nil
}

func (r *fakeImportRepo) TransitionStatus(ctx context.Context, batchID, from, to string) (bool, error) {
	batch, ok := r.batches[batchID]
	if !ok || batch.Status != from {
		return false, nil
	}
	batch.Status = to
	return true, nil
}

func (r *fakeImportRepo) UpdateRow(ctx context.Context, rowID string, changes map[string]interface{}) error {
	row, ok := r.rows[rowID]
	if !ok {
		return fmt.Errorf("row %s not found", rowID)
	}
	for key, value := range changes {
		switch key {
		case "success":
			row.Success = value.(bool)
		case "error_message":
			msg := value.(string)
			row.ErrorMessage = &msg
		}
	}
	return nil
}

func (r *fakeImportRepo) CreateLeadForRow(ctx context.Context, lead *model.Lead, rowID string) error {
	row, ok := r.rows[rowID]
	if !ok {
		return fmt.Errorf("row %s not found", rowID)
	}
	if r.failLeadForRows[row.RowNumber] {
		return fmt.Errorf("forced failure for row %d", row.RowNumber)
	}
	if err := r.leads.Create(ctx, lead); err != nil {
		return err
	}
	row.LeadID = &lead.ID
	row.Success = true
	return nil
}

func (r *fakeImportRepo) Finalize(ctx context.Context, batchID, status string, total, success, errors int) error {
	batch, ok := r.batches[batchID]
	if !ok {
		return fmt.Errorf("batch %s not found", batchID)
	}
	batch.Status = status
	batch.TotalRows = total
	batch.SuccessRows = success
	batch.ErrorRows = errors
	return nil
}

func (r *fakeImportRepo) SetStatus(ctx context.Context, batchID, status string) error {
	batch, ok := r.batches[batchID]
	if !ok {
		return fmt.Errorf("batch %s not found", batchID)
	}
	batch.Status = status
	return nil
}
