package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/goguixter/leads-backend/internal/apperror"
	"github.com/goguixter/leads-backend/internal/model"
	"github.com/goguixter/leads-backend/internal/service"
	"github.com/goguixter/leads-backend/prometheus"
)

const uniqueViolation = "23505"

// translateError maps database failures onto domain errors. Unique
// violations become 409s; everything else passes through untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperror.Conflict("Registro ja existe")
	}
	return err
}

// LeadRepository is the gorm-backed implementation of service.LeadRepository.
type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *model.Lead) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translateError(r.db.WithContext(ctx).Create(lead).Error)
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*model.Lead, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var lead model.Lead
	err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) FindFirstMatch(ctx context.Context, partnerID, email, studentName, phoneE164 string) (*model.Lead, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var lead model.Lead
	err := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Where("LOWER(email) = LOWER(?) OR phone_e164 = ? OR LOWER(student_name) = LOWER(?)",
			email, phoneE164, studentName).
		Order("created_at ASC").
		First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) List(ctx context.Context, filter service.LeadFilter) ([]model.Lead, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	q := r.db.WithContext(ctx).Model(&model.Lead{})
	if filter.PartnerID != nil {
		q = q.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.School != "" {
		q = q.Where("school ILIKE ?", "%"+filter.School+"%")
	}
	if filter.City != "" {
		q = q.Where("city ILIKE ?", "%"+filter.City+"%")
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("student_name ILIKE ? OR email ILIKE ? OR phone_e164 ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leads []model.Lead
	err := q.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&leads).Error
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

func (r *LeadRepository) Update(ctx context.Context, leadID string, changes map[string]interface{}, history *model.LeadStatusHistory) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(changes) > 0 {
			if err := tx.Model(&model.Lead{}).Where("id = ?", leadID).Updates(changes).Error; err != nil {
				return err
			}
		}
		if history != nil {
			if err := tx.Create(history).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

func (r *LeadRepository) RecordContact(ctx context.Context, event *model.ContactEvent, changes map[string]interface{}, history *model.LeadStatusHistory) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		if len(changes) > 0 {
			if err := tx.Model(&model.Lead{}).Where("id = ?", event.LeadID).Updates(changes).Error; err != nil {
				return err
			}
		}
		if history != nil {
			if err := tx.Create(history).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

func (r *LeadRepository) History(ctx context.Context, leadID string) ([]model.LeadStatusHistory, []model.ContactEvent, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var statuses []model.LeadStatusHistory
	if err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Find(&statuses).Error; err != nil {
		return nil, nil, err
	}

	var events []model.ContactEvent
	if err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Find(&events).Error; err != nil {
		return nil, nil, err
	}
	return statuses, events, nil
}
