package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fpda/academy-backend/internal/http/response"
	"github.com/fpda/academy-backend/internal/pkg/logger"
	"github.com/fpda/academy-backend/internal/services"
)

var errQuizNotFound = errors.New("quiz not found")

type QuizHandler struct {
	log     *logger.Logger
	quizzes services.QuizService
}

func NewQuizHandler(log *logger.Logger, quizzes services.QuizService) *QuizHandler {
	return &QuizHandler{
		log:     log.With("handler", "QuizHandler"),
		quizzes: quizzes,
	}
}

// submitAttemptRequest maps question ids to the chosen option id.
type submitAttemptRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

// GET /api/modules/:id/quiz
func (h *QuizHandler) GetModuleQuiz(c *gin.Context) {
	moduleID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	quiz, err := h.quizzes.GetForModule(c.Request.Context(), moduleID)
	if err != nil {
		logFailure(h.log, "GetModuleQuiz", response.RespondFromError(c, err), err)
		return
	}
	if quiz == nil {
		response.RespondError(c, http.StatusNotFound, "quiz_not_found", errQuizNotFound)
		return
	}
	response.RespondOK(c, gin.H{"quiz": quiz})
}

// POST /api/quizzes/:id/attempts
func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	quizID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req submitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	answers := make(map[uuid.UUID]uuid.UUID, len(req.Answers))
	for q, o := range req.Answers {
		qid, qerr := uuid.Parse(q)
		oid, oerr := uuid.Parse(o)
		if qerr != nil || oerr != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("answers must map question ids to option ids"))
			return
		}
		answers[qid] = oid
	}

	out, err := h.quizzes.SubmitAttempt(c.Request.Context(), quizID, answers)
	if err != nil {
		logFailure(h.log, "SubmitAttempt", response.RespondFromError(c, err), err)
		return
	}
	switch out.Status {
	case services.AttemptQuizNotFound:
		response.RespondError(c, http.StatusNotFound, "quiz_not_found", errQuizNotFound)
	case services.AttemptNotEnrolled:
		response.RespondError(c, http.StatusForbidden, "not_enrolled", errors.New("you are not enrolled in this course"))
	case services.AttemptAttemptsExhausted:
		response.RespondError(c, http.StatusConflict, "attempts_exhausted", errors.New("no attempts remaining for this quiz"))
	default:
		response.RespondCreated(c, out)
	}
}

// GET /api/quizzes/:id/attempts
func (h *QuizHandler) ListAttempts(c *gin.Context) {
	quizID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	attempts, err := h.quizzes.ListAttempts(c.Request.Context(), quizID)
	if err != nil {
		logFailure(h.log, "ListAttempts", response.RespondFromError(c, err), err)
		return
	}
	response.RespondOK(c, gin.H{"attempts": attempts})
}
