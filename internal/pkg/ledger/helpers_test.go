package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/palmmill/backoffice/app/models"
	"github.com/palmmill/backoffice/app/repository"
	"github.com/palmmill/backoffice/internal/pkg/database"
)

var fixedNow = time.Date(2025, time.March, 10, 8, 30, 0, 0, time.UTC)

// openTestDB uses a file so the list cursor and the batched lookups can hold
// separate connections.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db") + "?_pragma=busy_timeout(5000)"
	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestService(t *testing.T, opts ...Option) (*Service, *repository.Repositories, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	repos := repository.NewRepositories(db, repository.Options{LookupBatchSize: 2})
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(repos, opts...), repos, db
}

func seedPlan(t *testing.T, db *gorm.DB, id string, day time.Time, deleted bool) models.TransportPlan {
	t.Helper()
	plan := models.TransportPlan{
		ID:         id,
		OccurredAt: day,
		GoodsCode:  "CPO-01",
		GoodsName:  "น้ำมันปาล์มดิบ",
		LoadAmount: decimal.RequireFromString("30.5"),
		CustomerID: "C001",
		Recipient:  "Refinery A",
		Status:     models.PlanStatusWaiting,
	}
	require.NoError(t, db.Create(&plan).Error)
	if deleted {
		require.NoError(t, db.Delete(&plan).Error)
	}
	return plan
}

func seedCertificate(t *testing.T, db *gorm.DB, id, planID, number string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Certificate{
		ID:          id,
		PlanID:      &planID,
		Number:      number,
		ProductType: "CPO",
		Status:      models.CertificateStatusPending,
		IssuedAt:    fixedNow,
	}).Error)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func validRequest(vehicles ...VehicleEntry) PlanRequest {
	if len(vehicles) == 0 {
		vehicles = []VehicleEntry{{CarNumber: "70-1234", DriverName: "Somchai"}}
	}
	return PlanRequest{
		OccurredAt: "2025-03-10",
		GoodsCode:  "CPO-01",
		GoodsName:  "น้ำมันปาล์มดิบ",
		LoadAmount: decimal.RequireFromString("31.250"),
		CustomerID: "C001",
		Recipient:  "Refinery A",
		Notes:      "deliver before noon",
		Vehicles:   vehicles,
	}
}

var errStoreDown = errors.New("store unavailable")

// failingPlans rejects Create for the listed ids.
type failingPlans struct {
	repository.PlanRepository
	fail map[string]bool
}

func (f *failingPlans) Create(ctx context.Context, plan *models.TransportPlan) error {
	if f.fail[plan.ID] {
		return errStoreDown
	}
	return f.PlanRepository.Create(ctx, plan)
}

// panickingPlans panics inside Create, as a misbehaving store hook would.
type panickingPlans struct {
	repository.PlanRepository
}

func (panickingPlans) Create(context.Context, *models.TransportPlan) error {
	panic("plan hook exploded")
}

// failingCertificates rejects every Create.
type failingCertificates struct {
	repository.CertificateRepository
}

func (failingCertificates) Create(context.Context, *models.Certificate) error {
	return errStoreDown
}

func planIDs(plans []models.TransportPlan) []string {
	ids := make([]string, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
	}
	return ids
}
