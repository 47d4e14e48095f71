package repository

import (
	"context"
	"slices"

	"gorm.io/gorm"

	"github.com/palmmill/backoffice/app/models"
)

// inspectionRepository implements the InspectionRepository interface
type inspectionRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewInspectionRepository creates a new inspection repository instance
func NewInspectionRepository(db *gorm.DB, batchSize int) InspectionRepository {
	if batchSize <= 0 {
		batchSize = DefaultLookupBatchSize
	}
	return &inspectionRepository{db: db, batchSize: batchSize}
}

// Create records an inspection
func (r *inspectionRepository) Create(ctx context.Context, inspection *models.Inspection) error {
	return r.db.WithContext(ctx).Create(inspection).Error
}

// InspectedPlanIDs returns the subset of planIDs with at least one inspection
func (r *inspectionRepository) InspectedPlanIDs(ctx context.Context, planIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for chunk := range slices.Chunk(planIDs, r.batchSize) {
		var found []string
		err := r.db.WithContext(ctx).Model(&models.Inspection{}).
			Distinct().
			Where("plan_id IN ?", chunk).
			Pluck("plan_id", &found).Error
		if err != nil {
			return nil, err
		}
		for _, id := range found {
			out[id] = true
		}
	}
	return out, nil
}
