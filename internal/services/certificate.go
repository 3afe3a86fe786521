package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/aggregates"
	"github.com/fpda/academy-backend/internal/data/repos"
	types "github.com/fpda/academy-backend/internal/domain"
	domainagg "github.com/fpda/academy-backend/internal/domain/aggregates"
	"github.com/fpda/academy-backend/internal/platform/mailer"
	"github.com/fpda/academy-backend/internal/pkg/ctxutil"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

// maxNumberAttempts bounds retries after a certificate number collision.
const maxNumberAttempts = 3

const notifyTimeout = 30 * time.Second

type IssueStatus string

const (
	IssueIssued         IssueStatus = "issued"
	IssueAlreadyExists  IssueStatus = "already_exists"
	IssueNotCompleted   IssueStatus = "not_completed"
	IssueCourseNotFound IssueStatus = "course_not_found"
)

// IssueResult carries the business outcome of an issuance request. Progress
// is set for IssueNotCompleted.
type IssueResult struct {
	Status      IssueStatus
	Certificate *types.Certification
	Progress    *CourseProgress
}

// CertificateVerification is the public view of a certificate.
type CertificateVerification struct {
	CertificateID     uuid.UUID  `json:"certificateId"`
	CertificateNumber string     `json:"certificateNumber"`
	CourseTitle       string     `json:"courseTitle"`
	RecipientName     string     `json:"recipientName,omitempty"`
	IssuedAt          time.Time  `json:"issuedAt"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	Valid             bool       `json:"valid"`
}

type CertificateService interface {
	Issue(ctx context.Context, courseID uuid.UUID) (IssueResult, error)
	ListForLearner(ctx context.Context) ([]*types.Certification, error)
	// Verify and RenderPNG accept a certificate id or number. found=false
	// means no such certificate.
	Verify(ctx context.Context, ref string) (CertificateVerification, bool, error)
	RenderPNG(ctx context.Context, ref string) ([]byte, bool, error)
}

type CertificateConfig struct {
	Prefix string
}

type certificateService struct {
	db                *gorm.DB
	log               *logger.Logger
	courseRepo        repos.CourseRepo
	certificationRepo repos.CertificationRepo
	progress          ProgressService
	renderer          *CertificateRenderer
	notifier          CertificateNotifier
	timeout           storeBudget
	now               func() time.Time
	numbers           NumberGenerator
}

// NewCertificateService wires the issuer. renderer and notifier may be nil.
func NewCertificateService(
	db *gorm.DB,
	log *logger.Logger,
	storeTimeout time.Duration,
	cfg CertificateConfig,
	courseRepo repos.CourseRepo,
	certificationRepo repos.CertificationRepo,
	progress ProgressService,
	renderer *CertificateRenderer,
	notifier CertificateNotifier,
) CertificateService {
	return &certificateService{
		db:                db,
		log:               log.With("service", "CertificateService"),
		courseRepo:        courseRepo,
		certificationRepo: certificationRepo,
		progress:          progress,
		renderer:          renderer,
		notifier:          notifier,
		timeout:           newStoreBudget(storeTimeout),
		now:               func() time.Time { return time.Now().UTC() },
		numbers:           NewNumberGenerator(cfg.Prefix),
	}
}

func (cs *certificateService) Issue(ctx context.Context, courseID uuid.UUID) (out IssueResult, err error) {
	const op = "certificate.issue"
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return IssueResult{}, domainagg.Unauthorized(op)
	}
	learnerID := rd.UserID

	ctx, span := startSpan(ctx, op,
		attribute.String("learner_id", learnerID.String()),
		attribute.String("course_id", courseID.String()),
	)
	defer func() {
		span.SetAttributes(attribute.String("status", string(out.Status)))
		endSpan(span, err)
	}()

	dbc, cancel := cs.timeout.dbc(ctx)
	defer cancel()

	course, err := cs.courseRepo.GetByID(dbc, courseID)
	if err != nil {
		return IssueResult{}, aggregates.MapError(op, err)
	}
	if course == nil {
		return IssueResult{Status: IssueCourseNotFound}, nil
	}

	progress, err := cs.progress.Compute(ctx, learnerID, courseID)
	if err != nil {
		return IssueResult{}, err
	}
	if !progress.IsCompleted {
		return IssueResult{Status: IssueNotCompleted, Progress: &progress}, nil
	}

	existing, err := cs.certificationRepo.GetByUserAndCourse(dbc, learnerID, courseID)
	if err != nil {
		return IssueResult{}, aggregates.MapError(op, err)
	}
	if existing != nil {
		return IssueResult{Status: IssueAlreadyExists, Certificate: existing}, nil
	}

	issuedAt := cs.now()
	expiresAt := AddYearsClamped(issuedAt, types.CertificateValidityYears)
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		number, err := cs.numbers(issuedAt)
		if err != nil {
			return IssueResult{}, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
		row := &types.Certification{
			UserID:            learnerID,
			CourseID:          courseID,
			CertificateNumber: number,
			RecipientName:     strings.TrimSpace(rd.Name),
			IssuedAt:          issuedAt,
			ExpiresAt:         &expiresAt,
			IsValid:           true,
		}
		created, err := cs.certificationRepo.CreateIfAbsent(dbc, row)
		if err != nil {
			if aggregates.IsDuplicate(err) {
				cs.log.Warn("Certificate number collision; regenerating", "attempt", attempt, "number", number)
				continue
			}
			cs.log.Error("Certificate insert failed", "learner_id", learnerID, "course_id", courseID, "error", err)
			return IssueResult{}, aggregates.MapError(op, err)
		}
		if !created {
			// A concurrent request issued first.
			winner, err := cs.certificationRepo.GetByUserAndCourse(dbc, learnerID, courseID)
			if err != nil {
				return IssueResult{}, aggregates.MapError(op, err)
			}
			if winner == nil {
				return IssueResult{}, domainagg.NewError(domainagg.CodeRetryable, op, "certificate conflicted but could not be re-read", nil)
			}
			return IssueResult{Status: IssueAlreadyExists, Certificate: winner}, nil
		}

		row.Course = course
		cs.log.Info("Certificate issued", "certificate_id", row.ID, "learner_id", learnerID, "course_id", courseID)
		cs.notify(ctx, rd, row, course.Title)
		return IssueResult{Status: IssueIssued, Certificate: row}, nil
	}
	return IssueResult{}, domainagg.NewError(domainagg.CodeConflict, op, "could not allocate a unique certificate number", nil)
}

func (cs *certificateService) notify(ctx context.Context, rd *ctxutil.RequestData, cert *types.Certification, courseTitle string) {
	if cs.notifier == nil || strings.TrimSpace(rd.Email) == "" {
		return
	}
	to := mailer.Address{Email: rd.Email, Name: rd.Name}
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := cs.notifier.CertificateIssued(nctx, to, cert, courseTitle); err != nil {
			cs.log.Warn("Certificate email failed", "certificate_id", cert.ID, "error", err)
		}
	}()
}

func (cs *certificateService) ListForLearner(ctx context.Context) ([]*types.Certification, error) {
	learnerID := ctxutil.LearnerID(ctx)
	if learnerID == uuid.Nil {
		return nil, domainagg.Unauthorized("certificate.list")
	}
	dbc, cancel := cs.timeout.dbc(ctx)
	defer cancel()
	rows, err := cs.certificationRepo.GetByUserID(dbc, learnerID)
	if err != nil {
		return nil, aggregates.MapError("certificate.list", err)
	}
	return rows, nil
}

func (cs *certificateService) lookup(ctx context.Context, ref string) (*types.Certification, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	dbc, cancel := cs.timeout.dbc(ctx)
	defer cancel()
	var (
		row *types.Certification
		err error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		row, err = cs.certificationRepo.GetByID(dbc, id)
	} else {
		row, err = cs.certificationRepo.GetByNumber(dbc, strings.ToUpper(ref))
	}
	if err != nil {
		return nil, aggregates.MapError("certificate.lookup", err)
	}
	return row, nil
}

func (cs *certificateService) Verify(ctx context.Context, ref string) (CertificateVerification, bool, error) {
	row, err := cs.lookup(ctx, ref)
	if err != nil || row == nil {
		return CertificateVerification{}, false, err
	}
	out := CertificateVerification{
		CertificateID:     row.ID,
		CertificateNumber: row.CertificateNumber,
		RecipientName:     row.RecipientName,
		IssuedAt:          row.IssuedAt,
		ExpiresAt:         row.ExpiresAt,
		Valid:             row.ActiveAt(cs.now()),
	}
	if row.Course != nil {
		out.CourseTitle = row.Course.Title
	}
	return out, true, nil
}

func (cs *certificateService) RenderPNG(ctx context.Context, ref string) ([]byte, bool, error) {
	row, err := cs.lookup(ctx, ref)
	if err != nil || row == nil {
		return nil, false, err
	}
	if cs.renderer == nil {
		return nil, true, domainagg.NewError(domainagg.CodePreconditionFailed, "certificate.render", "certificate rendering is not configured", nil)
	}
	title := ""
	if row.Course != nil {
		title = row.Course.Title
	}
	png, err := cs.renderer.Render(CertificateCard{
		Number:        row.CertificateNumber,
		RecipientName: row.RecipientName,
		CourseTitle:   title,
		IssuedAt:      row.IssuedAt,
		ExpiresAt:     row.ExpiresAt,
	})
	if err != nil {
		return nil, true, domainagg.Wrap(domainagg.CodeInternal, "certificate.render", err)
	}
	return png, true, nil
}
