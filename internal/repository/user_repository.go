package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/goguixter/leads-backend/internal/model"
	"github.com/goguixter/leads-backend/prometheus"
)

// UserRepository is the gorm-backed implementation of service.UserRepository.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "LOWER(email) = LOWER(?)", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context, partnerID *string) ([]model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	q := r.db.WithContext(ctx).Model(&model.User{})
	if partnerID != nil {
		q = q.Where("partner_id = ?", *partnerID)
	}
	var users []model.User
	if err := q.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
