package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/palmmill/backoffice/app/models"
	"github.com/palmmill/backoffice/internal/pkg/category"
	"github.com/palmmill/backoffice/internal/pkg/export"
	"github.com/palmmill/backoffice/internal/pkg/ledger"
)

type fakePlanService struct {
	createResult *ledger.CreateResult
	err          error
	listed       []ledger.EnrichedPlan
	listErr      error
	gotYear      int
	gotID        string
	gotReq       ledger.PlanRequest
}

func (f *fakePlanService) Create(_ context.Context, req ledger.PlanRequest) (*ledger.CreateResult, error) {
	f.gotReq = req
	return f.createResult, f.err
}

func (f *fakePlanService) Update(_ context.Context, id string, req ledger.PlanRequest) (*models.TransportPlan, error) {
	f.gotID, f.gotReq = id, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.TransportPlan{ID: id}, nil
}

func (f *fakePlanService) SoftDelete(_ context.Context, id string) error {
	f.gotID = id
	return f.err
}

func (f *fakePlanService) Restore(_ context.Context, id string) error {
	f.gotID = id
	return f.err
}

func (f *fakePlanService) Purge(_ context.Context, id string) error {
	f.gotID = id
	return f.err
}

func (f *fakePlanService) Get(_ context.Context, id string) (*ledger.EnrichedPlan, error) {
	f.gotID = id
	if f.err != nil {
		return nil, f.err
	}
	return &ledger.EnrichedPlan{TransportPlan: models.TransportPlan{ID: id}, Category: category.Kernel}, nil
}

func (f *fakePlanService) seq(year int) iter.Seq2[ledger.EnrichedPlan, error] {
	f.gotYear = year
	return func(yield func(ledger.EnrichedPlan, error) bool) {
		if f.listErr != nil {
			yield(ledger.EnrichedPlan{}, f.listErr)
			return
		}
		for _, p := range f.listed {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (f *fakePlanService) List(_ context.Context, year int) iter.Seq2[ledger.EnrichedPlan, error] {
	return f.seq(year)
}

func (f *fakePlanService) ListDeleted(_ context.Context, year int) iter.Seq2[ledger.EnrichedPlan, error] {
	return f.seq(year)
}

func newPlanApp(svc PlanService) *fiber.App {
	pc := NewPlanController(svc)
	pc.now = func() time.Time { return time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC) }
	app := fiber.New()
	app.Post("/plans", pc.HandleCreate)
	app.Get("/plans", pc.HandleList)
	app.Get("/plans/deleted", pc.HandleListDeleted)
	app.Get("/plans/export", pc.HandleExport)
	app.Get("/plans/:id", pc.HandleGet)
	app.Put("/plans/:id", pc.HandleUpdate)
	app.Delete("/plans/:id", pc.HandleDelete)
	app.Post("/plans/:id/restore", pc.HandleRestore)
	app.Delete("/plans/:id/purge", pc.HandlePurge)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

const createBody = `{"occurred_at":"2025-03-10","goods_code":"CPO-01","goods_name":"CPO","load_amount":"30.5","customer_id":"C1","recipient":"R","vehicles":[{"car_number":"70-1","driver_name":"A"}]}`

func TestHandleCreateStatuses(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &fakePlanService{createResult: &ledger.CreateResult{Plans: []models.TransportPlan{{ID: "1"}}}}
		status, body := doJSON(t, newPlanApp(svc), fiber.MethodPost, "/plans", createBody)
		assert.Equal(t, fiber.StatusCreated, status)
		assert.Len(t, body["plans"], 1)
		assert.Equal(t, "30.5", svc.gotReq.LoadAmount.String())
		require.Len(t, svc.gotReq.Vehicles, 1)
		assert.Equal(t, "70-1", svc.gotReq.Vehicles[0].CarNumber)
	})

	t.Run("partial", func(t *testing.T) {
		svc := &fakePlanService{createResult: &ledger.CreateResult{
			Plans:    []models.TransportPlan{{ID: "1"}},
			Failures: []ledger.RowFailure{{Index: 1, PlanID: "2", Message: "duplicate"}},
		}}
		status, body := doJSON(t, newPlanApp(svc), fiber.MethodPost, "/plans", createBody)
		assert.Equal(t, fiber.StatusMultiStatus, status)
		assert.Len(t, body["failures"], 1)
	})

	t.Run("validation", func(t *testing.T) {
		svc := &fakePlanService{err: &ledger.ValidationError{Fields: map[string]string{"vehicles": "is required"}}}
		status, body := doJSON(t, newPlanApp(svc), fiber.MethodPost, "/plans", createBody)
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Equal(t, map[string]any{"vehicles": "is required"}, body["fields"])
	})

	t.Run("all rows failed", func(t *testing.T) {
		svc := &fakePlanService{err: &ledger.CreateError{Failures: []ledger.RowFailure{{Index: 0, PlanID: "1"}}}}
		status, body := doJSON(t, newPlanApp(svc), fiber.MethodPost, "/plans", createBody)
		assert.Equal(t, fiber.StatusInternalServerError, status)
		assert.Equal(t, "persistence_failure", body["error"])
		assert.Len(t, body["failures"], 1)
	})

	t.Run("malformed body", func(t *testing.T) {
		status, _ := doJSON(t, newPlanApp(&fakePlanService{}), fiber.MethodPost, "/plans", "{")
		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}

func TestHandleLifecycleErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		err    error
		want   int
	}{
		{"delete ok", fiber.MethodDelete, "/plans/7", nil, fiber.StatusOK},
		{"delete twice", fiber.MethodDelete, "/plans/7", fmt.Errorf("%w: already deleted", ledger.ErrInvalidState), fiber.StatusBadRequest},
		{"restore unknown", fiber.MethodPost, "/plans/7/restore", fmt.Errorf("%w: 7", ledger.ErrNotFound), fiber.StatusNotFound},
		{"restore active", fiber.MethodPost, "/plans/7/restore", fmt.Errorf("%w: not deleted", ledger.ErrInvalidState), fiber.StatusBadRequest},
		{"purge ok", fiber.MethodDelete, "/plans/7/purge", nil, fiber.StatusOK},
		{"purge store down", fiber.MethodDelete, "/plans/7/purge", fmt.Errorf("%w: disk full", ledger.ErrPersistence), fiber.StatusInternalServerError},
		{"get missing", fiber.MethodGet, "/plans/7", fmt.Errorf("%w: 7", ledger.ErrNotFound), fiber.StatusNotFound},
		{"update missing", fiber.MethodPut, "/plans/7", fmt.Errorf("%w: 7", ledger.ErrNotFound), fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePlanService{err: tt.err}
			status, body := doJSON(t, newPlanApp(svc), tt.method, tt.target, createBody)
			assert.Equal(t, tt.want, status)
			assert.Equal(t, "7", svc.gotID)
			assert.NotEmpty(t, body["message"])
			if tt.want == fiber.StatusInternalServerError {
				assert.NotContains(t, body["message"], "disk full")
			}
		})
	}
}

func TestHandleGet(t *testing.T) {
	status, body := doJSON(t, newPlanApp(&fakePlanService{}), fiber.MethodGet, "/plans/42", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "42", body["id"])
	assert.Equal(t, "kernel", body["category"])
	assert.Nil(t, body["certificate_number"])
}

func TestHandleListStreamsArray(t *testing.T) {
	number := "CPO0001/2568"
	svc := &fakePlanService{listed: []ledger.EnrichedPlan{
		{TransportPlan: models.TransportPlan{ID: "2"}, Category: category.CrudeOil, CertificateNumber: &number},
		{TransportPlan: models.TransportPlan{ID: "1"}, Category: category.Other, IsInspected: true},
	}}
	app := newPlanApp(svc)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/plans?year=2024", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 2024, svc.gotYear)

	var plans []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&plans))
	require.Len(t, plans, 2)
	assert.Equal(t, "2", plans[0]["id"])
	assert.Equal(t, number, plans[0]["certificate_number"])
	assert.Equal(t, true, plans[1]["is_inspected"])
}

func TestHandleListDefaultsAndErrors(t *testing.T) {
	t.Run("empty defaults to current year", func(t *testing.T) {
		svc := &fakePlanService{}
		resp, err := newPlanApp(svc).Test(httptest.NewRequest(fiber.MethodGet, "/plans/deleted", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, 2025, svc.gotYear)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(raw))
	})

	t.Run("bad year", func(t *testing.T) {
		status, _ := doJSON(t, newPlanApp(&fakePlanService{}), fiber.MethodGet, "/plans?year=abc", "")
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("query failure", func(t *testing.T) {
		svc := &fakePlanService{listErr: errors.New("connection reset")}
		status, body := doJSON(t, newPlanApp(svc), fiber.MethodGet, "/plans", "")
		assert.Equal(t, fiber.StatusInternalServerError, status)
		assert.Equal(t, "internal_server_error", body["error"])
	})
}

func TestHandleExport(t *testing.T) {
	svc := &fakePlanService{listed: []ledger.EnrichedPlan{
		{TransportPlan: models.TransportPlan{ID: "3"}, Category: category.Fiber},
	}}
	resp, err := newPlanApp(svc).Test(httptest.NewRequest(fiber.MethodGet, "/plans/export?year=2025", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, mimeXLSX, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "transport-plans-2025.xlsx")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "3", rows[1][0])
	assert.Equal(t, "fiber", rows[1][4])
}
