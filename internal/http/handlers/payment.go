package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fpda/academy-backend/internal/http/response"
	"github.com/fpda/academy-backend/internal/pkg/logger"
	"github.com/fpda/academy-backend/internal/services"
)

const maxWebhookBytes = 1 << 20

type PaymentHandler struct {
	log      *logger.Logger
	payments services.PaymentService
}

func NewPaymentHandler(log *logger.Logger, payments services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		log:      log.With("handler", "PaymentHandler"),
		payments: payments,
	}
}

// POST /api/webhooks/payments
//
// A failed enrollment answers 500 so the provider redelivers; the event is
// also kept as failed for the retry sweep.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_payload", errors.New("could not read event body"))
		return
	}
	out, err := h.payments.HandleWebhook(c.Request.Context(), payload)
	if err != nil {
		logFailure(h.log, "PaymentWebhook", response.RespondFromError(c, err), err)
		return
	}
	switch out.Status {
	case services.WebhookIgnored:
		response.RespondOK(c, gin.H{"received": true})
	case services.WebhookRejected:
		response.RespondError(c, http.StatusBadRequest, "invalid_event", errors.New(out.Reason))
	case services.WebhookCourseNotFound:
		response.RespondError(c, http.StatusNotFound, "course_not_found", errCourseNotFound)
	case services.WebhookEnrolled:
		response.RespondOK(c, gin.H{"success": true, "enrollmentId": out.EnrollmentID})
	case services.WebhookAlreadyEnrolled:
		response.RespondOK(c, gin.H{"message": "Already enrolled", "enrollmentId": out.EnrollmentID})
	default:
		response.RespondError(c, http.StatusInternalServerError, "enrollment_failed", errors.New("enrollment could not be created; the event will be retried"))
	}
}
