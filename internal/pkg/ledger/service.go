// Package ledger implements the transport plan lifecycle: id allocation,
// automatic certificates, soft delete, restore, purge and enriched listing.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/palmmill/backoffice/app/models"
	"github.com/palmmill/backoffice/app/repository"
	"github.com/palmmill/backoffice/internal/pkg/metrics"
	"github.com/palmmill/backoffice/internal/pkg/ordinal"
	"github.com/palmmill/backoffice/internal/pkg/vehicle"
)

// Service is the plan lifecycle controller.
type Service struct {
	repos   *repository.Repositories
	locker  Locker
	metrics *metrics.Ledger
	reader  *Reader
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLocker sets the allocation lock. The default is a LocalLocker.
func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Ledger) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now for certificate issue dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the lifecycle controller over repos.
func NewService(repos *repository.Repositories, opts ...Option) *Service {
	s := &Service{
		repos:  repos,
		locker: NewLocalLocker(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reader = NewReader(repos.Plan, repos.Certificate, repos.Inspection, repos.LookupBatchSize(), s.metrics)
	return s
}

// CreateResult is the outcome of a create submission. Failures lists rows the
// store rejected; the other rows stay written.
type CreateResult struct {
	Plans        []models.TransportPlan `json:"plans"`
	Certificates []models.Certificate   `json:"certificates"`
	Failures     []RowFailure           `json:"failures,omitempty"`
}

// Create writes one plan per usable vehicle entry under a contiguous id block,
// then issues one certificate per written plan on a best-effort basis.
func (s *Service) Create(ctx context.Context, req PlanRequest) (*CreateResult, error) {
	if err := req.Validate(); err != nil {
		fiberlog.Warnw("transport plan create rejected", "error", err)
		return nil, err
	}

	submission := uuid.NewString()
	result := &CreateResult{}
	if err := s.writePlans(ctx, submission, req, result); err != nil {
		return nil, err
	}
	s.metrics.AddPlansCreated(len(result.Plans))

	if len(result.Plans) == 0 {
		return result, &CreateError{Failures: result.Failures}
	}

	result.Certificates = s.issueCertificates(ctx, submission, req.Date(), result.Plans)

	fiberlog.Infow("transport plans created",
		"submission", submission,
		"plans", len(result.Plans),
		"failures", len(result.Failures),
		"certificates", len(result.Certificates))
	return result, nil
}

// writePlans allocates the id block and writes the rows while holding the plan
// allocation lock. The lock is released even if a store hook panics.
func (s *Service) writePlans(ctx context.Context, submission string, req PlanRequest, result *CreateResult) error {
	unlock, err := s.locker.Lock(ctx, planAllocationKey)
	if err != nil {
		fiberlog.Errorw("transport plan allocation lock failed", "submission", submission, "error", err)
		return fmt.Errorf("%w: allocation lock: %v", ErrPersistence, err)
	}
	defer unlock()

	vehicles := req.usableVehicles()
	issued, err := s.repos.Plan.AllIDs(ctx)
	if err != nil {
		fiberlog.Errorw("transport plan id read failed", "submission", submission, "error", err)
		return fmt.Errorf("%w: read issued plan ids: %v", ErrPersistence, err)
	}
	first, err := ordinal.Next(issued, ordinal.Any, ordinal.Numeric)
	if err != nil {
		fiberlog.Errorw("transport plan id allocation failed", "submission", submission, "error", err)
		return fmt.Errorf("%w: allocate plan ids: %v", ErrPersistence, err)
	}
	ids, err := ordinal.Block(first, len(vehicles))
	if err != nil {
		fiberlog.Errorw("transport plan id allocation failed", "submission", submission, "error", err)
		return fmt.Errorf("%w: allocate plan ids: %v", ErrPersistence, err)
	}

	for i, v := range vehicles {
		plan := models.TransportPlan{
			ID:     ids[i],
			Status: models.PlanStatusWaiting,
		}
		applyRequest(&plan, req, v.VehicleEntry)
		if err := s.repos.Plan.Create(ctx, &plan); err != nil {
			fiberlog.Errorw("transport plan row failed",
				"submission", submission, "index", v.index, "plan_id", plan.ID, "error", err)
			s.metrics.IncPlanRowFailure()
			result.Failures = append(result.Failures, RowFailure{Index: v.index, PlanID: plan.ID, Message: err.Error()})
			continue
		}
		result.Plans = append(result.Plans, plan)
	}
	return nil
}

// Update overwrites the mutable fields of an active plan from req. The first
// usable vehicle entry supplies the vehicle and driver.
func (s *Service) Update(ctx context.Context, id string, req PlanRequest) (*models.TransportPlan, error) {
	if err := req.Validate(); err != nil {
		fiberlog.Warnw("transport plan update rejected", "plan_id", id, "error", err)
		return nil, err
	}
	entry := req.usableVehicles()[0]

	var updated *models.TransportPlan
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		plan, err := tx.Plan.GetByIDForUpdate(ctx, id)
		if err != nil {
			return lookupErr(id, err)
		}
		if plan.IsDeleted() {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		applyRequest(plan, req, entry.VehicleEntry)
		if err := tx.Plan.Save(ctx, plan); err != nil {
			return err
		}
		updated = plan
		return nil
	})
	if err := s.finish("update", id, err); err != nil {
		return nil, err
	}
	return updated, nil
}

// SoftDelete tombstones an active plan. Its id stays reserved.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		plan, err := tx.Plan.GetByIDForUpdate(ctx, id)
		if err != nil {
			return lookupErr(id, err)
		}
		if plan.IsDeleted() {
			return fmt.Errorf("%w: plan %s is already deleted", ErrInvalidState, id)
		}
		return tx.Plan.SoftDelete(ctx, id)
	})
	return s.finish("soft_delete", id, err)
}

// Restore reactivates a tombstone. Restoring an active plan is ErrInvalidState.
func (s *Service) Restore(ctx context.Context, id string) error {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		plan, err := tx.Plan.GetByIDForUpdate(ctx, id)
		if err != nil {
			return lookupErr(id, err)
		}
		if !plan.IsDeleted() {
			return fmt.Errorf("%w: plan %s is not deleted", ErrInvalidState, id)
		}
		return tx.Plan.Restore(ctx, id)
	})
	return s.finish("restore", id, err)
}

// Purge permanently removes a tombstone. Its certificates are detached, not
// deleted, so their ids and numbers stay reserved. The plan id itself is
// released: the next create may issue it again. Callers must enforce that only
// privileged users reach this.
func (s *Service) Purge(ctx context.Context, id string) error {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		plan, err := tx.Plan.GetByIDForUpdate(ctx, id)
		if err != nil {
			return lookupErr(id, err)
		}
		if !plan.IsDeleted() {
			return fmt.Errorf("%w: plan %s must be deleted before purge", ErrInvalidState, id)
		}
		if err := tx.Certificate.DetachByPlanID(ctx, id); err != nil {
			return err
		}
		return tx.Plan.Purge(ctx, id)
	})
	return s.finish("purge", id, err)
}

// Get returns one active plan with its enrichment.
func (s *Service) Get(ctx context.Context, id string) (*EnrichedPlan, error) {
	plan, err := s.repos.Plan.GetByID(ctx, id)
	if err != nil {
		return nil, s.finish("get", id, lookupErr(id, err))
	}
	enriched, err := s.reader.enrich(ctx, []models.TransportPlan{*plan})
	if err != nil {
		return nil, s.finish("get", id, err)
	}
	return &enriched[0], nil
}

// List streams the active plans of year with enrichment.
func (s *Service) List(ctx context.Context, year int) iter.Seq2[EnrichedPlan, error] {
	return s.reader.List(ctx, year, repository.Active)
}

// ListDeleted streams the tombstones of year, for restore and purge screens.
func (s *Service) ListDeleted(ctx context.Context, year int) iter.Seq2[EnrichedPlan, error] {
	return s.reader.List(ctx, year, repository.Deleted)
}

func applyRequest(plan *models.TransportPlan, req PlanRequest, v VehicleEntry) {
	head, trailer := vehicle.SplitHeadTrailer(v.CarNumber)
	plan.OccurredAt = req.Date()
	plan.GoodsCode = strings.TrimSpace(req.GoodsCode)
	plan.GoodsName = strings.TrimSpace(req.GoodsName)
	plan.LoadAmount = req.LoadAmount
	plan.CustomerID = strings.TrimSpace(req.CustomerID)
	plan.Recipient = strings.TrimSpace(req.Recipient)
	plan.VehicleNo = head
	plan.DriverName = strings.TrimSpace(v.DriverName)
	plan.Remarks = vehicle.Remarks(req.Notes, trailer)
}

func lookupErr(id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

// finish logs and counts a single-row operation and maps store errors to ErrPersistence.
func (s *Service) finish(op, id string, err error) error {
	outcome := "ok"
	switch {
	case err == nil:
		fiberlog.Infow("transport plan "+op, "plan_id", id)
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrInvalidState):
		outcome = "invalid_state"
	default:
		outcome = "error"
		err = fmt.Errorf("%w: %s %s: %v", ErrPersistence, op, id, err)
	}
	s.metrics.IncLifecycle(op, outcome)
	if err != nil {
		if outcome == "error" {
			fiberlog.Errorw("transport plan "+op+" failed", "plan_id", id, "error", err)
		} else {
			fiberlog.Warnw("transport plan "+op+" refused", "plan_id", id, "error", err)
		}
	}
	return err
}
