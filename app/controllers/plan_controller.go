package controllers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/palmmill/backoffice/app/models"
	"github.com/palmmill/backoffice/internal/pkg/export"
	"github.com/palmmill/backoffice/internal/pkg/ledger"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PlanService is the lifecycle surface the HTTP layer needs.
type PlanService interface {
	Create(ctx context.Context, req ledger.PlanRequest) (*ledger.CreateResult, error)
	Update(ctx context.Context, id string, req ledger.PlanRequest) (*models.TransportPlan, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*ledger.EnrichedPlan, error)
	List(ctx context.Context, year int) iter.Seq2[ledger.EnrichedPlan, error]
	ListDeleted(ctx context.Context, year int) iter.Seq2[ledger.EnrichedPlan, error]
}

// PlanController exposes the transport plan ledger over JSON.
type PlanController struct {
	svc PlanService
	now func() time.Time
}

func NewPlanController(svc PlanService) *PlanController {
	return &PlanController{svc: svc, now: time.Now}
}

// HandleCreate answers 201 when every row was written and 207 when some rows failed.
func (pc *PlanController) HandleCreate(c *fiber.Ctx) error {
	var req ledger.PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid JSON body"})
	}
	result, err := pc.svc.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusCreated
	if len(result.Failures) > 0 {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(result)
}

func (pc *PlanController) HandleUpdate(c *fiber.Ctx) error {
	var req ledger.PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid JSON body"})
	}
	plan, err := pc.svc.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}

func (pc *PlanController) HandleGet(c *fiber.Ctx) error {
	plan, err := pc.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}

func (pc *PlanController) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := pc.svc.SoftDelete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "transport plan " + id + " deleted"})
}

func (pc *PlanController) HandleRestore(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := pc.svc.Restore(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "transport plan " + id + " restored"})
}

// HandlePurge is irreversible. The router guards it with the admin key middleware.
func (pc *PlanController) HandlePurge(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := pc.svc.Purge(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "transport plan " + id + " purged"})
}

func (pc *PlanController) HandleList(c *fiber.Ctx) error {
	year, err := pc.yearParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	return streamPlans(c, pc.svc.List(c.UserContext(), year))
}

func (pc *PlanController) HandleListDeleted(c *fiber.Ctx) error {
	year, err := pc.yearParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	return streamPlans(c, pc.svc.ListDeleted(c.UserContext(), year))
}

// HandleExport renders the active plans of a year as an xlsx download.
func (pc *PlanController) HandleExport(c *fiber.Ctx) error {
	year, err := pc.yearParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	var buf bytes.Buffer
	rows, err := export.WritePlans(&buf, pc.svc.List(c.UserContext(), year))
	if err != nil {
		fiberlog.Errorw("transport plan export failed", "year", year, "rows", rows, "error", err)
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, mimeXLSX)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="transport-plans-%d.xlsx"`, year))
	return c.Send(buf.Bytes())
}

// yearParam reads ?year=, defaulting to the current calendar year.
func (pc *PlanController) yearParam(c *fiber.Ctx) (int, error) {
	raw := c.Query("year")
	if raw == "" {
		return pc.now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		return 0, errors.New("year must be a calendar year")
	}
	return year, nil
}

// streamPlans writes seq as a JSON array without materializing it. The first
// element is pulled before the status is committed so a failing query still
// gets a proper error response; later errors truncate the body.
func streamPlans(c *fiber.Ctx, seq iter.Seq2[ledger.EnrichedPlan, error]) error {
	next, stop := iter.Pull2(seq)
	first, err, ok := next()
	if err != nil {
		stop()
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer stop()
		enc := json.NewEncoder(w)
		w.WriteByte('[')
		for i := 0; ok; i++ {
			if i > 0 {
				w.WriteByte(',')
			}
			if err := enc.Encode(first); err != nil {
				fiberlog.Errorw("transport plan list encode failed", "error", err)
				return
			}
			first, err, ok = next()
			if err != nil {
				fiberlog.Errorw("transport plan list aborted mid-stream", "rows", i+1, "error", err)
				return
			}
		}
		w.WriteByte(']')
		w.Flush()
	})
	return nil
}

func respondError(c *fiber.Ctx, err error) error {
	var verr *ledger.ValidationError
	var cerr *ledger.CreateError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "request is invalid", "fields": verr.Fields})
	case errors.As(err, &cerr):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "persistence_failure", "message": err.Error(), "failures": cerr.Failures})
	case errors.Is(err, ledger.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": err.Error()})
	case errors.Is(err, ledger.ErrInvalidState):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_state", "message": err.Error()})
	default:
		// Store details stay in the server log.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "transport plan operation failed"})
	}
}
