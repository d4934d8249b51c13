package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/goguixter/leads-backend/internal/model"
	"github.com/goguixter/leads-backend/prometheus"
)

// PartnerRepository is the gorm-backed implementation of
// service.PartnerRepository.
type PartnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

func (r *PartnerRepository) Create(ctx context.Context, partner *model.Partner) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translateError(r.db.WithContext(ctx).Create(partner).Error)
}

func (r *PartnerRepository) FindByID(ctx context.Context, id string) (*model.Partner, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var partner model.Partner
	err := r.db.WithContext(ctx).First(&partner, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *PartnerRepository) List(ctx context.Context) ([]model.Partner, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var partners []model.Partner
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}

func (r *PartnerRepository) Update(ctx context.Context, partnerID string, changes map[string]interface{}) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return r.db.WithContext(ctx).
		Model(&model.Partner{}).
		Where("id = ?", partnerID).
		Updates(changes).Error
}
