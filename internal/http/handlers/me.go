package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fpda/academy-backend/internal/http/response"
	"github.com/fpda/academy-backend/internal/pkg/ctxutil"
	"github.com/fpda/academy-backend/internal/pkg/logger"
	"github.com/fpda/academy-backend/internal/services"
)

// MeHandler serves the learner dashboard.
type MeHandler struct {
	log          *logger.Logger
	enrollments  services.EnrollmentService
	certificates services.CertificateService
}

func NewMeHandler(log *logger.Logger, enrollments services.EnrollmentService, certificates services.CertificateService) *MeHandler {
	return &MeHandler{
		log:          log.With("handler", "MeHandler"),
		enrollments:  enrollments,
		certificates: certificates,
	}
}

// GET /api/me/enrollments
func (h *MeHandler) ListEnrollments(c *gin.Context) {
	ctx := c.Request.Context()
	rows, err := h.enrollments.ListForLearner(ctx, ctxutil.LearnerID(ctx))
	if err != nil {
		logFailure(h.log, "ListEnrollments", response.RespondFromError(c, err), err)
		return
	}
	if rows == nil {
		rows = []services.EnrolledCourse{}
	}
	response.RespondOK(c, gin.H{"enrollments": rows})
}

// GET /api/me/certificates
func (h *MeHandler) ListCertificates(c *gin.Context) {
	certs, err := h.certificates.ListForLearner(c.Request.Context())
	if err != nil {
		logFailure(h.log, "ListCertificates", response.RespondFromError(c, err), err)
		return
	}
	response.RespondOK(c, gin.H{"certificates": certs})
}
