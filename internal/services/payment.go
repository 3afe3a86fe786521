package services

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/aggregates"
	"github.com/fpda/academy-backend/internal/data/repos"
	types "github.com/fpda/academy-backend/internal/domain"
	domainagg "github.com/fpda/academy-backend/internal/domain/aggregates"
	"github.com/fpda/academy-backend/internal/pkg/ctxutil"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

const EventCheckoutCompleted = "checkout.session.completed"

const retryBatchSize = 50

// CheckoutEvent is the subset of the provider's event envelope we read.
type CheckoutEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

type CheckoutSession struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	CustomerEmail     string            `json:"customer_email"`
	Metadata          map[string]string `json:"metadata"`
}

type WebhookStatus string

const (
	WebhookIgnored         WebhookStatus = "ignored"
	WebhookRejected        WebhookStatus = "rejected"
	WebhookCourseNotFound  WebhookStatus = "course_not_found"
	WebhookEnrolled        WebhookStatus = "enrolled"
	WebhookAlreadyEnrolled WebhookStatus = "already_enrolled"
	WebhookFailed          WebhookStatus = "failed"
)

type WebhookOutcome struct {
	Status       WebhookStatus
	EnrollmentID *uuid.UUID
	Reason       string
}

type PaymentConfig struct {
	// DefaultLinkURL is used for courses without their own payment link.
	DefaultLinkURL string
}

type PaymentService interface {
	HandleWebhook(ctx context.Context, payload []byte) (WebhookOutcome, error)
	RetryFailed(ctx context.Context) (int, error)
	PaymentLink(ctx context.Context, slug string) (string, error)
}

type paymentService struct {
	db          *gorm.DB
	log         *logger.Logger
	cfg         PaymentConfig
	courseRepo  repos.CourseRepo
	eventRepo   repos.PaymentEventRepo
	enrollments EnrollmentService
	timeout     storeBudget
	now         func() time.Time
}

func NewPaymentService(
	db *gorm.DB,
	log *logger.Logger,
	storeTimeout time.Duration,
	cfg PaymentConfig,
	courseRepo repos.CourseRepo,
	eventRepo repos.PaymentEventRepo,
	enrollments EnrollmentService,
) PaymentService {
	return &paymentService{
		db:          db,
		log:         log.With("service", "PaymentService"),
		cfg:         cfg,
		courseRepo:  courseRepo,
		eventRepo:   eventRepo,
		enrollments: enrollments,
		timeout:     newStoreBudget(storeTimeout),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (ps *paymentService) HandleWebhook(ctx context.Context, payload []byte) (out WebhookOutcome, err error) {
	const op = "payment.handle_webhook"
	var ev CheckoutEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return WebhookOutcome{Status: WebhookRejected, Reason: "malformed event"}, nil
	}
	ev.ID = strings.TrimSpace(ev.ID)
	if ev.ID == "" {
		return WebhookOutcome{Status: WebhookRejected, Reason: "missing event id"}, nil
	}

	ctx, span := startSpan(ctx, op,
		attribute.String("event_id", ev.ID),
		attribute.String("event_type", ev.Type),
	)
	defer func() {
		span.SetAttributes(attribute.String("outcome", string(out.Status)))
		endSpan(span, err)
	}()

	session := ev.Data.Object
	row := &types.PaymentEvent{
		Provider:        types.ProviderStripe,
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		LearnerRef:      strings.TrimSpace(session.ClientReferenceID),
		CourseRef:       courseRef(session.Metadata),
		Status:          types.EventStatusReceived,
		Payload:         datatypes.JSON(payload),
	}

	dbc, cancel := ps.timeout.dbc(ctx)
	created, err := ps.eventRepo.CreateIfAbsent(dbc, row)
	if err == nil && !created {
		row, err = ps.eventRepo.GetByProviderEventID(dbc, types.ProviderStripe, ev.ID)
		if err == nil && row == nil {
			err = domainagg.NewError(domainagg.CodeRetryable, op, "payment event conflicted but could not be re-read", nil)
		}
	}
	cancel()
	if err != nil {
		return WebhookOutcome{}, aggregates.MapError(op, err)
	}

	if !created {
		if replay, ok := replayOutcome(row); ok {
			return replay, nil
		}
	}
	return ps.process(ctx, row, ev)
}

// replayOutcome answers a redelivery of an event that already reached a
// final state. Received and failed events are processed again.
func replayOutcome(row *types.PaymentEvent) (WebhookOutcome, bool) {
	switch row.Status {
	case types.EventStatusProcessed:
		return WebhookOutcome{Status: WebhookEnrolled, EnrollmentID: row.EnrollmentID}, true
	case types.EventStatusIgnored:
		return WebhookOutcome{Status: WebhookIgnored}, true
	case types.EventStatusRejected:
		status := WebhookRejected
		if row.FailureReason == reasonCourseNotFound {
			status = WebhookCourseNotFound
		}
		return WebhookOutcome{Status: status, Reason: row.FailureReason}, true
	default:
		return WebhookOutcome{}, false
	}
}

const reasonCourseNotFound = "course not found"

func courseRef(md map[string]string) string {
	if md == nil {
		return ""
	}
	if id := strings.TrimSpace(md["course_id"]); id != "" {
		return id
	}
	return strings.TrimSpace(md["course_slug"])
}

func (ps *paymentService) process(ctx context.Context, row *types.PaymentEvent, ev CheckoutEvent) (WebhookOutcome, error) {
	row.Attempts++

	if ev.Type != EventCheckoutCompleted {
		return ps.finish(ctx, row, types.EventStatusIgnored, "", WebhookOutcome{Status: WebhookIgnored})
	}

	learnerID, err := uuid.Parse(row.LearnerRef)
	if row.LearnerRef == "" || err != nil || learnerID == uuid.Nil {
		reason := "missing learner reference"
		if row.LearnerRef != "" {
			reason = "learner reference is not a valid id"
		}
		return ps.finish(ctx, row, types.EventStatusRejected, reason, WebhookOutcome{Status: WebhookRejected, Reason: reason})
	}
	if row.CourseRef == "" {
		reason := "missing course reference"
		return ps.finish(ctx, row, types.EventStatusRejected, reason, WebhookOutcome{Status: WebhookRejected, Reason: reason})
	}

	course, err := ps.resolveCourse(ctx, row.CourseRef)
	if err != nil {
		return ps.fail(ctx, row, learnerID, err)
	}
	if course == nil {
		return ps.finish(ctx, row, types.EventStatusRejected, reasonCourseNotFound,
			WebhookOutcome{Status: WebhookCourseNotFound, Reason: reasonCourseNotFound})
	}

	res, err := ps.enrollments.CreateOrGet(ctx, learnerID, course.ID, &row.ID)
	if err != nil {
		return ps.fail(ctx, row, learnerID, err)
	}

	id := res.Enrollment.ID
	row.EnrollmentID = &id
	status := WebhookAlreadyEnrolled
	if res.Created {
		status = WebhookEnrolled
		ps.log.Info("Enrollment created from payment",
			"payment_event_id", row.ID,
			"learner_id", learnerID,
			"course_id", course.ID,
		)
	}
	out, err := ps.finish(ctx, row, types.EventStatusProcessed, "", WebhookOutcome{Status: status, EnrollmentID: &id})
	if err != nil {
		// Enrollment exists; answer success so the provider stops retrying.
		ps.log.Warn("Payment event bookkeeping failed", "payment_event_id", row.ID, "error", err)
		return WebhookOutcome{Status: status, EnrollmentID: &id}, nil
	}
	return out, nil
}

func (ps *paymentService) resolveCourse(ctx context.Context, ref string) (*types.Course, error) {
	dbc, cancel := ps.timeout.dbc(ctx)
	defer cancel()
	if id, err := uuid.Parse(ref); err == nil {
		return ps.courseRepo.GetByID(dbc, id)
	}
	return ps.courseRepo.GetBySlug(dbc, ref)
}

// fail stores the event as failed so RetryFailed can pick it up later.
func (ps *paymentService) fail(ctx context.Context, row *types.PaymentEvent, learnerID uuid.UUID, cause error) (WebhookOutcome, error) {
	reason := cause.Error()
	ps.log.Error("Enrollment after payment failed",
		"payment_event_id", row.ID,
		"provider_event_id", row.ProviderEventID,
		"learner_id", learnerID,
		"course_ref", row.CourseRef,
		"attempts", row.Attempts,
		"error", cause,
	)
	out, err := ps.finish(ctx, row, types.EventStatusFailed, reason, WebhookOutcome{Status: WebhookFailed, Reason: reason})
	if err != nil {
		ps.log.Error("Payment event could not be marked failed", "payment_event_id", row.ID, "error", err)
		return WebhookOutcome{Status: WebhookFailed, Reason: reason}, nil
	}
	return out, nil
}

func (ps *paymentService) finish(ctx context.Context, row *types.PaymentEvent, status, reason string, out WebhookOutcome) (WebhookOutcome, error) {
	row.Status = status
	row.FailureReason = reason
	if status == types.EventStatusProcessed || status == types.EventStatusIgnored {
		now := ps.now()
		row.ProcessedAt = &now
	}
	dbc, cancel := ps.timeout.dbc(context.WithoutCancel(ctx))
	defer cancel()
	if err := ps.eventRepo.Save(dbc, row); err != nil {
		return WebhookOutcome{}, aggregates.MapError("payment.save_event", err)
	}
	return out, nil
}

func (ps *paymentService) RetryFailed(ctx context.Context) (int, error) {
	const op = "payment.retry_failed"
	dbc, cancel := ps.timeout.dbc(ctx)
	rows, err := ps.eventRepo.ListByStatus(dbc, types.EventStatusFailed, retryBatchSize)
	cancel()
	if err != nil {
		return 0, aggregates.MapError(op, err)
	}

	recovered := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			return recovered, ctx.Err()
		}
		var ev CheckoutEvent
		if err := json.Unmarshal(row.Payload, &ev); err != nil {
			ps.log.Warn("Stored payment event is unreadable", "payment_event_id", row.ID, "error", err)
			continue
		}
		out, err := ps.process(ctx, row, ev)
		if err != nil {
			ps.log.Warn("Payment retry failed", "payment_event_id", row.ID, "error", err)
			continue
		}
		if out.Status == WebhookEnrolled || out.Status == WebhookAlreadyEnrolled {
			recovered++
		}
	}
	if len(rows) > 0 {
		ps.log.Info("Payment retry sweep finished", "failed", len(rows), "recovered", recovered)
	}
	return recovered, nil
}

// PaymentLink builds the hosted checkout link for the caller, carrying the
// learner id back to the webhook as client_reference_id.
func (ps *paymentService) PaymentLink(ctx context.Context, slug string) (string, error) {
	const op = "payment.link"
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return "", domainagg.Unauthorized(op)
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", domainagg.NewError(domainagg.CodeValidation, op, "slug is required", nil)
	}

	dbc, cancel := ps.timeout.dbc(ctx)
	defer cancel()
	course, err := ps.courseRepo.GetBySlug(dbc, slug)
	if err != nil {
		return "", aggregates.MapError(op, err)
	}
	if course == nil {
		return "", domainagg.NewError(domainagg.CodeNotFound, op, "course not found", nil)
	}

	base := strings.TrimSpace(course.PaymentLinkURL)
	if base == "" {
		base = strings.TrimSpace(ps.cfg.DefaultLinkURL)
	}
	if base == "" {
		return "", domainagg.NewError(domainagg.CodePreconditionFailed, op, "payment link is not configured", nil)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	q := u.Query()
	q.Set("client_reference_id", rd.UserID.String())
	if email := strings.TrimSpace(rd.Email); email != "" {
		q.Set("prefilled_email", email)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
