package repository

import (
	"context"
	"slices"

	"gorm.io/gorm"

	"github.com/palmmill/backoffice/app/models"
)

// certificateRepository implements the CertificateRepository interface
type certificateRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewCertificateRepository creates a new certificate repository instance
func NewCertificateRepository(db *gorm.DB, batchSize int) CertificateRepository {
	if batchSize <= 0 {
		batchSize = DefaultLookupBatchSize
	}
	return &certificateRepository{db: db, batchSize: batchSize}
}

// Create inserts a certificate
func (r *certificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	return r.db.WithContext(ctx).Create(cert).Error
}

// AllIDs plucks every certificate id
func (r *certificateRepository) AllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Certificate{}).Pluck("id", &ids).Error
	return ids, err
}

// NumbersWithSuffix plucks certificate numbers ending in suffix, e.g. "/2568"
func (r *certificateRepository) NumbersWithSuffix(ctx context.Context, suffix string) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&models.Certificate{}).
		Where("number LIKE ?", "%"+suffix).
		Pluck("number", &numbers).Error
	return numbers, err
}

// ListByPlanID retrieves the certificates of a plan, oldest first
func (r *certificateRepository) ListByPlanID(ctx context.Context, planID string) ([]models.Certificate, error) {
	var certs []models.Certificate
	err := r.db.WithContext(ctx).Where("plan_id = ?", planID).
		Order("created_at ASC").Find(&certs).Error
	return certs, err
}

// DetachByPlanID unlinks the certificates of a plan that is about to be purged.
// The rows stay, so their ids and numbers remain reserved.
func (r *certificateRepository) DetachByPlanID(ctx context.Context, planID string) error {
	return r.db.WithContext(ctx).Model(&models.Certificate{}).
		Where("plan_id = ?", planID).
		UpdateColumns(map[string]any{"plan_id": nil, "purged_plan_id": planID}).Error
}

// NumbersByPlanIDs maps plan id to its latest certificate number. Keys are
// sent in chunks of batchSize.
func (r *certificateRepository) NumbersByPlanIDs(ctx context.Context, planIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(planIDs))
	for chunk := range slices.Chunk(planIDs, r.batchSize) {
		var rows []struct {
			PlanID string
			Number string
		}
		err := r.db.WithContext(ctx).Model(&models.Certificate{}).
			Select("plan_id", "number").
			Where("plan_id IN ?", chunk).
			Order("created_at ASC").Order("id ASC").
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.PlanID] = row.Number
		}
	}
	return out, nil
}
