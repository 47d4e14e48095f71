package repository

import (
	"context"
	"iter"

	"github.com/palmmill/backoffice/app/models"
)

// DefaultLookupBatchSize caps the number of keys sent in one IN (...) lookup.
const DefaultLookupBatchSize = 1000

// Visibility selects which plans a read returns.
type Visibility int

const (
	// Active excludes tombstones (the default read path).
	Active Visibility = iota
	// Deleted returns tombstones only.
	Deleted
)

// PlanRepository defines the transport plan store operations
type PlanRepository interface {
	Create(ctx context.Context, plan *models.TransportPlan) error
	GetByID(ctx context.Context, id string) (*models.TransportPlan, error)
	// GetByIDForUpdate looks at tombstones too and locks the row when the
	// dialect supports it. Use inside Transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*models.TransportPlan, error)
	Save(ctx context.Context, plan *models.TransportPlan) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
	// AllIDs returns every issued id, tombstones included.
	AllIDs(ctx context.Context) ([]string, error)
	// StreamByYear yields plans whose occurred_at falls in year, ordered by
	// numeric id descending (non-numeric as 0) then occurred_at descending.
	StreamByYear(ctx context.Context, year int, vis Visibility) iter.Seq2[models.TransportPlan, error]
}

// CertificateRepository defines the certificate store operations
type CertificateRepository interface {
	Create(ctx context.Context, cert *models.Certificate) error
	AllIDs(ctx context.Context) ([]string, error)
	NumbersWithSuffix(ctx context.Context, suffix string) ([]string, error)
	ListByPlanID(ctx context.Context, planID string) ([]models.Certificate, error)
	// DetachByPlanID keeps the rows but clears plan_id, recording it in purged_plan_id.
	DetachByPlanID(ctx context.Context, planID string) error
	CertificateLookup
}

// CertificateLookup resolves the latest certificate number per plan id.
type CertificateLookup interface {
	NumbersByPlanIDs(ctx context.Context, planIDs []string) (map[string]string, error)
}

// InspectionRepository defines the inspection store operations
type InspectionRepository interface {
	Create(ctx context.Context, inspection *models.Inspection) error
	InspectionLookup
}

// InspectionLookup reports which plan ids have at least one inspection.
type InspectionLookup interface {
	InspectedPlanIDs(ctx context.Context, planIDs []string) (map[string]bool, error)
}
