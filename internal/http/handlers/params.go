package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fpda/academy-backend/internal/http/response"
)

type slugURI struct {
	Slug string `uri:"slug" binding:"required,slug"`
}

// bindSlug writes a 400 and returns false when the :slug param is malformed.
func bindSlug(c *gin.Context) (string, bool) {
	var uri slugURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_slug", errors.New("invalid course slug"))
		return "", false
	}
	return uri.Slug, true
}

// uuidParam writes a 400 and returns false when the named param is not a uuid.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, errors.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}
