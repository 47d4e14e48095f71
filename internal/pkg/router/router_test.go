package router

import (
	"context"
	"io"
	"iter"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palmmill/backoffice/app/controllers"
	"github.com/palmmill/backoffice/app/models"
	"github.com/palmmill/backoffice/internal/pkg/ledger"
	"github.com/palmmill/backoffice/internal/pkg/metrics"
)

// stubService records which operation a route reached.
type stubService struct{ called string }

func (s *stubService) Create(context.Context, ledger.PlanRequest) (*ledger.CreateResult, error) {
	s.called = "create"
	return &ledger.CreateResult{}, nil
}

func (s *stubService) Update(_ context.Context, id string, _ ledger.PlanRequest) (*models.TransportPlan, error) {
	s.called = "update"
	return &models.TransportPlan{ID: id}, nil
}

func (s *stubService) SoftDelete(context.Context, string) error {
	s.called = "delete"
	return nil
}

func (s *stubService) Restore(context.Context, string) error {
	s.called = "restore"
	return nil
}

func (s *stubService) Purge(context.Context, string) error {
	s.called = "purge"
	return nil
}

func (s *stubService) Get(_ context.Context, id string) (*ledger.EnrichedPlan, error) {
	s.called = "get:" + id
	return &ledger.EnrichedPlan{}, nil
}

func (s *stubService) empty(name string) iter.Seq2[ledger.EnrichedPlan, error] {
	s.called = name
	return func(func(ledger.EnrichedPlan, error) bool) {}
}

func (s *stubService) List(context.Context, int) iter.Seq2[ledger.EnrichedPlan, error] {
	return s.empty("list")
}

func (s *stubService) ListDeleted(context.Context, int) iter.Seq2[ledger.EnrichedPlan, error] {
	return s.empty("list_deleted")
}

func newTestApp(svc controllers.PlanService) (*fiber.App, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.AddPlansCreated(3)
	app := fiber.New()
	InstallRouter(app,
		NewOpsRouter(reg, nil),
		NewApiRouter(controllers.NewPlanController(svc), "admin-key", 1000, nil),
	)
	return app, reg
}

func TestPlanRoutes(t *testing.T) {
	tests := []struct {
		method string
		target string
		want   string
	}{
		{fiber.MethodGet, "/api/v1/plans?year=2025", "list"},
		{fiber.MethodGet, "/api/v1/plans/deleted?year=2025", "list_deleted"},
		{fiber.MethodGet, "/api/v1/plans/export?year=2025", "list"},
		{fiber.MethodGet, "/api/v1/plans/77", "get:77"},
		{fiber.MethodDelete, "/api/v1/plans/77", "delete"},
		{fiber.MethodPost, "/api/v1/plans/77/restore", "restore"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			svc := &stubService{}
			app, _ := newTestApp(svc)
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.target, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, svc.called)
		})
	}
}

func TestPurgeRequiresAdminKey(t *testing.T) {
	svc := &stubService{}
	app, _ := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodDelete, "/api/v1/plans/77/purge", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, svc.called)

	req := httptest.NewRequest(fiber.MethodDelete, "/api/v1/plans/77/purge", nil)
	req.Header.Set("X-API-Key", "admin-key")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "purge", svc.called)
}

func TestOpsRoutes(t *testing.T) {
	app, _ := newTestApp(&stubService{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "backoffice_transport_plans_created_total 3")

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
