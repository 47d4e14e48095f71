package repository

import (
	"context"
	"iter"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/palmmill/backoffice/app/models"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new transport plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create inserts a single plan row
func (r *planRepository) Create(ctx context.Context, plan *models.TransportPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// GetByID retrieves an active plan by its ID
func (r *planRepository) GetByID(ctx context.Context, id string) (*models.TransportPlan, error) {
	var plan models.TransportPlan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByIDForUpdate retrieves a plan by ID including tombstones
func (r *planRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.TransportPlan, error) {
	var plan models.TransportPlan
	err := r.db.WithContext(ctx).Unscoped().
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Save writes every column of an existing plan
func (r *planRepository) Save(ctx context.Context, plan *models.TransportPlan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

// SoftDelete sets deleted_at on an active plan
func (r *planRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.TransportPlan{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Restore clears deleted_at on a tombstone
func (r *planRepository) Restore(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Unscoped().Model(&models.TransportPlan{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		UpdateColumn("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Purge permanently removes a tombstone
func (r *planRepository) Purge(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Unscoped().
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Delete(&models.TransportPlan{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AllIDs plucks every plan id ever issued, tombstones included
func (r *planRepository) AllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Unscoped().Model(&models.TransportPlan{}).Pluck("id", &ids).Error
	return ids, err
}

// StreamByYear reads plans of one calendar year row by row through a cursor
func (r *planRepository) StreamByYear(ctx context.Context, year int, vis Visibility) iter.Seq2[models.TransportPlan, error] {
	return func(yield func(models.TransportPlan, error) bool) {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(1, 0, 0)

		q := r.db.WithContext(ctx).Model(&models.TransportPlan{})
		if vis == Deleted {
			q = q.Unscoped().Where("deleted_at IS NOT NULL")
		}
		rows, err := q.Where("occurred_at >= ? AND occurred_at < ?", from, to).
			Order("id_ordinal DESC").Order("occurred_at DESC").
			Rows()
		if err != nil {
			yield(models.TransportPlan{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var plan models.TransportPlan
			if err := r.db.ScanRows(rows, &plan); err != nil {
				yield(models.TransportPlan{}, err)
				return
			}
			if !yield(plan, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.TransportPlan{}, err)
		}
	}
}
