package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fpda/academy-backend/internal/pkg/logger"
	"github.com/fpda/academy-backend/internal/services"
)

type stubPayments struct {
	out services.WebhookOutcome
	got []byte
}

func (s *stubPayments) HandleWebhook(_ context.Context, payload []byte) (services.WebhookOutcome, error) {
	s.got = payload
	return s.out, nil
}

func (s *stubPayments) RetryFailed(context.Context) (int, error) { return 0, nil }

func (s *stubPayments) PaymentLink(context.Context, string) (string, error) { return "", nil }

func TestPaymentWebhookStatusMapping(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	enrollmentID := uuid.New()

	cases := []struct {
		out    services.WebhookOutcome
		status int
		key    string
	}{
		{services.WebhookOutcome{Status: services.WebhookIgnored}, http.StatusOK, "received"},
		{services.WebhookOutcome{Status: services.WebhookRejected, Reason: "missing learner reference"}, http.StatusBadRequest, "error"},
		{services.WebhookOutcome{Status: services.WebhookCourseNotFound}, http.StatusNotFound, "error"},
		{services.WebhookOutcome{Status: services.WebhookEnrolled, EnrollmentID: &enrollmentID}, http.StatusOK, "success"},
		{services.WebhookOutcome{Status: services.WebhookAlreadyEnrolled, EnrollmentID: &enrollmentID}, http.StatusOK, "message"},
		{services.WebhookOutcome{Status: services.WebhookFailed, Reason: "store down"}, http.StatusInternalServerError, "error"},
	}
	for _, tc := range cases {
		stub := &stubPayments{out: tc.out}
		h := NewPaymentHandler(logger.NewNop(), stub)
		r := gin.New()
		r.POST("/api/webhooks/payments", h.Webhook)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/webhooks/payments", strings.NewReader(`{"id":"evt_1"}`)))
		if rec.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.out.Status, rec.Code, tc.status)
		}
		var body map[string]json.RawMessage
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: Unmarshal: %v", tc.out.Status, err)
		}
		if _, ok := body[tc.key]; !ok {
			t.Fatalf("%s: body %s has no %q", tc.out.Status, rec.Body.String(), tc.key)
		}
		if string(stub.got) != `{"id":"evt_1"}` {
			t.Fatalf("%s: payload not passed through: %q", tc.out.Status, stub.got)
		}
	}
}
