package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fpda/academy-backend/internal/http/response"
	"github.com/fpda/academy-backend/internal/pkg/ctxutil"
	"github.com/fpda/academy-backend/internal/pkg/logger"
	"github.com/fpda/academy-backend/internal/services"
)

var errCourseNotFound = errors.New("course not found")

type CourseHandler struct {
	log         *logger.Logger
	catalog     services.CatalogService
	enrollments services.EnrollmentService
	progress    services.ProgressService
	payments    services.PaymentService
}

func NewCourseHandler(
	log *logger.Logger,
	catalog services.CatalogService,
	enrollments services.EnrollmentService,
	progress services.ProgressService,
	payments services.PaymentService,
) *CourseHandler {
	return &CourseHandler{
		log:         log.With("handler", "CourseHandler"),
		catalog:     catalog,
		enrollments: enrollments,
		progress:    progress,
		payments:    payments,
	}
}

// GET /api/courses?level=
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalog.ListPublished(c.Request.Context(), c.Query("level"))
	if err != nil {
		h.fail(c, "ListCourses", err)
		return
	}
	for i := range courses {
		courses[i] = services.PublicView(courses[i])
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// GET /api/courses/:slug
func (h *CourseHandler) GetCourse(c *gin.Context) {
	slug, ok := bindSlug(c)
	if !ok {
		return
	}
	lookup, err := h.catalog.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		h.fail(c, "GetCourse", err)
		return
	}
	if !lookup.Found || !lookup.Course.IsPublished {
		response.RespondError(c, http.StatusNotFound, "course_not_found", errCourseNotFound)
		return
	}
	response.RespondOK(c, gin.H{"course": services.PublicView(lookup.Course)})
}

// GET /api/courses/:slug/stats
func (h *CourseHandler) GetCourseStats(c *gin.Context) {
	slug, ok := bindSlug(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	lookup, err := h.catalog.GetBySlug(ctx, slug)
	if err != nil {
		h.fail(c, "GetCourseStats", err)
		return
	}
	if !lookup.Found {
		response.RespondError(c, http.StatusNotFound, "course_not_found", errCourseNotFound)
		return
	}
	stats, err := h.catalog.Stats(ctx, lookup.Course.ID)
	if err != nil {
		h.fail(c, "GetCourseStats", err)
		return
	}
	response.RespondOK(c, stats)
}

// GET /api/courses/:slug/enrollment
func (h *CourseHandler) GetEnrollment(c *gin.Context) {
	slug, ok := bindSlug(c)
	if !ok {
		return
	}
	enrolled, err := h.enrollments.IsEnrolledBySlug(c.Request.Context(), ctxutil.LearnerID(c.Request.Context()), slug)
	if err != nil {
		h.fail(c, "GetEnrollment", err)
		return
	}
	response.RespondOK(c, gin.H{"enrolled": enrolled})
}

// GET /api/courses/:slug/learn returns the unredacted tree for enrolled
// learners together with their progress.
func (h *CourseHandler) GetLearnerCourse(c *gin.Context) {
	slug, ok := bindSlug(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	learnerID := ctxutil.LearnerID(ctx)

	lookup, err := h.catalog.GetBySlug(ctx, slug)
	if err != nil {
		h.fail(c, "GetLearnerCourse", err)
		return
	}
	if !lookup.Found {
		response.RespondError(c, http.StatusNotFound, "course_not_found", errCourseNotFound)
		return
	}
	course := lookup.Course
	enrollment, err := h.enrollments.Get(ctx, learnerID, course.ID)
	if err != nil {
		h.fail(c, "GetLearnerCourse", err)
		return
	}
	if enrollment == nil {
		response.RespondError(c, http.StatusForbidden, "not_enrolled", errors.New("you are not enrolled in this course"))
		return
	}
	progress, err := h.progress.Compute(ctx, learnerID, course.ID)
	if err != nil {
		h.fail(c, "GetLearnerCourse", err)
		return
	}
	completed, err := h.progress.CompletedLessonIDs(ctx, learnerID, course.ID)
	if err != nil {
		h.fail(c, "GetLearnerCourse", err)
		return
	}
	if completed == nil {
		completed = []uuid.UUID{}
	}
	response.RespondOK(c, gin.H{
		"course":             course,
		"enrollment":         enrollment,
		"progress":           progress,
		"completedLessonIds": completed,
	})
}

// GET /api/courses/:slug/payment-link
func (h *CourseHandler) GetPaymentLink(c *gin.Context) {
	slug, ok := bindSlug(c)
	if !ok {
		return
	}
	link, err := h.payments.PaymentLink(c.Request.Context(), slug)
	if err != nil {
		h.fail(c, "GetPaymentLink", err)
		return
	}
	response.RespondOK(c, gin.H{"url": link})
}

func (h *CourseHandler) fail(c *gin.Context, op string, err error) {
	logFailure(h.log, op, response.RespondFromError(c, err), err)
}
