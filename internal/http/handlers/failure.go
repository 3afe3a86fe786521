package handlers

import (
	"net/http"

	"github.com/fpda/academy-backend/internal/pkg/logger"
)

func logFailure(log *logger.Logger, op string, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Error(op+" failed", "status", status, "error", err)
		return
	}
	log.Debug(op+" rejected", "status", status, "error", err)
}
