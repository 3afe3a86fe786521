package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fpda/academy-backend/internal/http/response"
	"github.com/fpda/academy-backend/internal/pkg/logger"
	"github.com/fpda/academy-backend/internal/services"
)

var errCertificateNotFound = errors.New("certificate not found")

type CertificateHandler struct {
	log          *logger.Logger
	certificates services.CertificateService
}

func NewCertificateHandler(log *logger.Logger, certificates services.CertificateService) *CertificateHandler {
	return &CertificateHandler{
		log:          log.With("handler", "CertificateHandler"),
		certificates: certificates,
	}
}

type generateCertificateRequest struct {
	CourseID string `json:"courseId" binding:"required,uuid"`
}

// POST /api/certificates/generate
//
// 201 freshly issued, 200 already issued, 400 course not completed (with
// the learner's progress), 404 unknown course.
func (h *CertificateHandler) Generate(c *gin.Context) {
	var req generateCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("courseId must be a course id"))
		return
	}
	courseID := uuid.MustParse(req.CourseID)

	out, err := h.certificates.Issue(c.Request.Context(), courseID)
	if err != nil {
		logFailure(h.log, "GenerateCertificate", response.RespondFromError(c, err), err)
		return
	}
	switch out.Status {
	case services.IssueCourseNotFound:
		response.RespondError(c, http.StatusNotFound, "course_not_found", errCourseNotFound)
	case services.IssueNotCompleted:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": response.APIError{
				Message: "Course not completed",
				Code:    "not_completed",
			},
			"progress": out.Progress,
		})
	case services.IssueAlreadyExists:
		response.RespondOK(c, gin.H{
			"message":           "Certificate already exists",
			"certificateId":     out.Certificate.ID,
			"certificateNumber": out.Certificate.CertificateNumber,
		})
	default:
		response.RespondCreated(c, gin.H{
			"certificateId":     out.Certificate.ID,
			"certificateNumber": out.Certificate.CertificateNumber,
			"issuedAt":          out.Certificate.IssuedAt,
			"expiresAt":         out.Certificate.ExpiresAt,
		})
	}
}

// GET /api/certificates/:id/verify accepts a certificate id or number.
func (h *CertificateHandler) Verify(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("id"))
	v, found, err := h.certificates.Verify(c.Request.Context(), ref)
	if err != nil {
		logFailure(h.log, "VerifyCertificate", response.RespondFromError(c, err), err)
		return
	}
	if !found {
		response.RespondError(c, http.StatusNotFound, "certificate_not_found", errCertificateNotFound)
		return
	}
	response.RespondOK(c, v)
}

// GET /api/certificates/:id/image.png
func (h *CertificateHandler) Image(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("id"))
	png, found, err := h.certificates.RenderPNG(c.Request.Context(), ref)
	if err != nil {
		logFailure(h.log, "RenderCertificate", response.RespondFromError(c, err), err)
		return
	}
	if !found {
		response.RespondError(c, http.StatusNotFound, "certificate_not_found", errCertificateNotFound)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
