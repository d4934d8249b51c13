package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/goguixter/leads-backend/internal/model"
	"github.com/goguixter/leads-backend/prometheus"
)

// ImportRepository is the gorm-backed implementation of
// service.ImportRepository.
type ImportRepository struct {
	db *gorm.DB
}

func NewImportRepository(db *gorm.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

func (r *ImportRepository) CreateBatch(ctx context.Context, batch *model.ImportBatch, rows []model.ImportRow) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].ImportID = batch.ID
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	}))
}

func (r *ImportRepository) FindBatch(ctx context.Context, id string) (*model.ImportBatch, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var batch model.ImportBatch
	err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *ImportRepository) FindBatchRows(ctx context.Context, batchID string) ([]model.ImportRow, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var rows []model.ImportRow
	err := r.db.WithContext(ctx).
		Where("import_id = ?", batchID).
		Order("row_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TransitionStatus flips the batch status only when it is still in `from`,
// in a single conditional UPDATE. Two concurrent confirms race on this
// statement and exactly one of them wins.
func (r *ImportRepository) TransitionStatus(ctx context.Context, batchID, from, to string) (bool, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())
	res := r.db.WithContext(ctx).
		Model(&model.ImportBatch{}).
		Where("id = ? AND status = ?", batchID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ImportRepository) UpdateRow(ctx context.Context, rowID string, changes map[string]interface{}) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return r.db.WithContext(ctx).
		Model(&model.ImportRow{}).
		Where("id = ?", rowID).
		Updates(changes).Error
}

func (r *ImportRepository) CreateLeadForRow(ctx context.Context, lead *model.Lead, rowID string) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(lead).Error; err != nil {
			return err
		}
		return tx.Model(&model.ImportRow{}).
			Where("id = ?", rowID).
			Updates(map[string]interface{}{
				"lead_id":       lead.ID,
				"success":       true,
				"error_message": nil,
			}).Error
	}))
}

func (r *ImportRepository) Finalize(ctx context.Context, batchID, status string, total, success, errorRows int) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return r.db.WithContext(ctx).
		Model(&model.ImportBatch{}).
		Where("id = ?", batchID).
		Updates(map[string]interface{}{
			"status":       status,
			"total_rows":   total,
			"success_rows": success,
			"error_rows":   errorRows,
		}).Error
}

func (r *ImportRepository) SetStatus(ctx context.Context, batchID, status string) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return r.db.WithContext(ctx).
		Model(&model.ImportBatch{}).
		Where("id = ?", batchID).
		Update("status", status).Error
}
