package ledger

import (
	"context"
	"iter"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/palmmill/backoffice/app/models"
	"github.com/palmmill/backoffice/app/repository"
	"github.com/palmmill/backoffice/internal/pkg/category"
	"github.com/palmmill/backoffice/internal/pkg/metrics"
)

// EnrichedPlan is a plan row joined with its certificate and inspection state.
type EnrichedPlan struct {
	models.TransportPlan
	Category          category.Category `json:"category"`
	CertificateNumber *string           `json:"certificate_number"`
	IsInspected       bool              `json:"is_inspected"`
}

// PlanStreamer is the part of the plan store the reader needs.
type PlanStreamer interface {
	StreamByYear(ctx context.Context, year int, vis repository.Visibility) iter.Seq2[models.TransportPlan, error]
}

// Reader streams plans and enriches them chunk by chunk, so memory is bounded
// by the chunk size rather than the result size. The side lookups are not
// transactionally consistent with the stream.
type Reader struct {
	plans       PlanStreamer
	certs       repository.CertificateLookup
	inspections repository.InspectionLookup
	chunk       int
	metrics     *metrics.Ledger
}

func NewReader(plans PlanStreamer, certs repository.CertificateLookup, inspections repository.InspectionLookup, chunk int, m *metrics.Ledger) *Reader {
	if chunk <= 0 {
		chunk = repository.DefaultLookupBatchSize
	}
	return &Reader{plans: plans, certs: certs, inspections: inspections, chunk: chunk, metrics: m}
}

// List returns a lazy sequence; each iteration runs a fresh query. The first
// error ends the sequence.
func (r *Reader) List(ctx context.Context, year int, vis repository.Visibility) iter.Seq2[EnrichedPlan, error] {
	return func(yield func(EnrichedPlan, error) bool) {
		rows := 0
		defer func() {
			fiberlog.Infow("transport plan list", "year", year, "deleted", vis == repository.Deleted, "rows", rows)
			r.metrics.ObserveListRows(rows)
		}()

		buf := make([]models.TransportPlan, 0, r.chunk)
		flush := func() bool {
			if len(buf) == 0 {
				return true
			}
			enriched, err := r.enrich(ctx, buf)
			buf = buf[:0]
			if err != nil {
				fiberlog.Errorw("transport plan enrichment failed", "year", year, "error", err)
				yield(EnrichedPlan{}, err)
				return false
			}
			for _, e := range enriched {
				rows++
				if !yield(e, nil) {
					return false
				}
			}
			return true
		}

		for plan, err := range r.plans.StreamByYear(ctx, year, vis) {
			if err != nil {
				fiberlog.Errorw("transport plan stream failed", "year", year, "error", err)
				yield(EnrichedPlan{}, err)
				return
			}
			buf = append(buf, plan)
			if len(buf) == r.chunk && !flush() {
				return
			}
		}
		flush()
	}
}

func (r *Reader) enrich(ctx context.Context, plans []models.TransportPlan) ([]EnrichedPlan, error) {
	ids := make([]string, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
	}
	numbers, err := r.certs.NumbersByPlanIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	inspected, err := r.inspections.InspectedPlanIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]EnrichedPlan, len(plans))
	for i, p := range plans {
		e := EnrichedPlan{
			TransportPlan: p,
			Category:      category.Of(p.GoodsName, p.GoodsCode),
			IsInspected:   inspected[p.ID],
		}
		if n, ok := numbers[p.ID]; ok {
			e.CertificateNumber = &n
		}
		out[i] = e
	}
	return out, nil
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[EnrichedPlan, error]) ([]EnrichedPlan, error) {
	out := []EnrichedPlan{}
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
