package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fpda/academy-backend/internal/http/response"
	"github.com/fpda/academy-backend/internal/pkg/ctxutil"
	"github.com/fpda/academy-backend/internal/pkg/logger"
	"github.com/fpda/academy-backend/internal/services"
)

type LessonHandler struct {
	log      *logger.Logger
	progress services.ProgressService
}

func NewLessonHandler(log *logger.Logger, progress services.ProgressService) *LessonHandler {
	return &LessonHandler{
		log:      log.With("handler", "LessonHandler"),
		progress: progress,
	}
}

// POST /api/lessons/:id/complete
func (h *LessonHandler) CompleteLesson(c *gin.Context) {
	lessonID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	out, err := h.progress.MarkLessonComplete(c.Request.Context(), lessonID)
	if err != nil {
		logFailure(h.log, "CompleteLesson", response.RespondFromError(c, err), err)
		return
	}
	switch out.Status {
	case services.LessonNotFound:
		response.RespondError(c, http.StatusNotFound, "lesson_not_found", errors.New("lesson not found"))
	case services.LessonNotEnrolled:
		response.RespondError(c, http.StatusForbidden, "not_enrolled", errors.New("you are not enrolled in this course"))
	default:
		response.RespondOK(c, out)
	}
}

type ProgressHandler struct {
	log      *logger.Logger
	progress services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log:      log.With("handler", "ProgressHandler"),
		progress: progress,
	}
}

// GET /api/progress/:courseId
func (h *ProgressHandler) GetCourseProgress(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	progress, err := h.progress.Compute(ctx, ctxutil.LearnerID(ctx), courseID)
	if err != nil {
		logFailure(h.log, "GetCourseProgress", response.RespondFromError(c, err), err)
		return
	}
	response.RespondOK(c, gin.H{"courseId": courseID, "progress": progress})
}
