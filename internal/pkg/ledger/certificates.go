package ledger

import (
	"context"
	"strconv"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/palmmill/backoffice/app/models"
	"github.com/palmmill/backoffice/internal/pkg/category"
	"github.com/palmmill/backoffice/internal/pkg/ordinal"
)

// issueCertificates creates one pending certificate per plan. It runs after the
// plans are committed and never fails the submission: errors are logged,
// counted and the affected plan is skipped. There is no retry.
func (s *Service) issueCertificates(ctx context.Context, submission string, occurredAt time.Time, plans []models.TransportPlan) []models.Certificate {
	unlock, err := s.locker.Lock(ctx, certificateAllocationKey)
	if err != nil {
		s.certificateFailure("lock", submission, "", err)
		return nil
	}
	defer unlock()

	beYear := ordinal.BuddhistYear(occurredAt)
	suffix := ordinal.YearSuffix(beYear)

	numbers, err := s.repos.Certificate.NumbersWithSuffix(ctx, suffix)
	if err != nil {
		s.certificateFailure("allocate", submission, "", err)
		return nil
	}
	ids, err := s.repos.Certificate.AllIDs(ctx)
	if err != nil {
		s.certificateFailure("allocate", submission, "", err)
		return nil
	}
	seqBase := ordinal.Max(numbers, ordinal.HasSuffix(suffix), ordinal.Template(ordinal.CertificateNumberPattern))
	idBase := ordinal.Max(ids, ordinal.Any, ordinal.Numeric)
	if !ordinal.Fits(seqBase, len(plans)) || !ordinal.Fits(idBase, len(plans)) {
		s.certificateFailure("allocate", submission, "", ordinal.ErrExhausted)
		return nil
	}

	issued := make([]models.Certificate, 0, len(plans))
	for offset, plan := range plans {
		seq := seqBase + int64(offset) + 1
		prefix := category.CertificatePrefix(plan.GoodsName)
		cert := models.Certificate{
			ID:          strconv.FormatInt(idBase+int64(offset)+1, 10),
			PlanID:      &plan.ID,
			Number:      ordinal.CertificateNumber(prefix, seq, beYear),
			LotCode:     ordinal.LotCode(prefix, seq, occurredAt),
			ProductType: prefix,
			Status:      models.CertificateStatusPending,
			IssuedAt:    s.now(),
		}
		if err := s.repos.Certificate.Create(ctx, &cert); err != nil {
			s.certificateFailure("write", submission, plan.ID, err)
			continue
		}
		s.metrics.IncCertificateIssued()
		issued = append(issued, cert)
	}
	return issued
}

func (s *Service) certificateFailure(stage, submission, planID string, err error) {
	s.metrics.IncCertificateFailure(stage)
	fiberlog.Errorw("certificate auto-creation failed",
		"stage", stage, "submission", submission, "plan_id", planID, "error", err)
}
