package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memory-graph/backend/internal/constants"
	"memory-graph/backend/internal/memory"
	"memory-graph/backend/internal/services"
	apperrors "memory-graph/backend/pkg/errors"
)

// UserIDHeader carries the caller identity when an upstream proxy sets it
const UserIDHeader = "X-User-ID"

// Handler serves the /memory routes
type Handler struct {
	service *services.MemoryService
	logger  *zap.Logger
}

type linkRequest struct {
	TargetID string `json:"targetId"`
}

// Create handles POST /memory
func (h *Handler) Create(c *gin.Context) {
	var in memory.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, apperrors.NewValidationFailed("invalid request body"))
		return
	}
	// the identity from the proxy wins over the body when both are present
	if header := strings.TrimSpace(c.GetHeader(UserIDHeader)); header != "" {
		in.UserID = header
	}

	m, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// FindAll handles GET /memory
func (h *Handler) FindAll(c *gin.Context) {
	list, err := h.service.FindAll(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// FindOne handles GET /memory/:id
func (h *Handler) FindOne(c *gin.Context) {
	m, err := h.service.FindOne(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Update handles PATCH /memory/:id
func (h *Handler) Update(c *gin.Context) {
	var in memory.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, apperrors.NewValidationFailed("invalid request body"))
		return
	}

	m, err := h.service.Update(c.Request.Context(), c.Param("id"), userID(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Remove handles DELETE /memory/:id
func (h *Handler) Remove(c *gin.Context) {
	res, err := h.service.Remove(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Link handles POST /memory/:id/links
func (h *Handler) Link(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.NewValidationFailed("invalid request body"))
		return
	}

	m, err := h.service.Link(c.Request.Context(), c.Param("id"), req.TargetID, userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Timeline handles GET /memory/timeline
func (h *Handler) Timeline(c *gin.Context) {
	list, err := h.service.Timeline(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Overview handles GET /memory/stats
func (h *Handler) Overview(c *gin.Context) {
	o, err := h.service.Overview(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// Graph handles GET /memory/graph
func (h *Handler) Graph(c *gin.Context) {
	zoom := constants.ZoomDefault
	if raw := c.Query("zoom"); raw != "" {
		z, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.respondError(c, apperrors.NewValidationFailed("zoom must be a number"))
			return
		}
		zoom = z
	}

	g, err := h.service.Graph(c.Request.Context(), userID(c), zoom)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// userID resolves the caller. The proxy header is authoritative when set; the
// query string is only consulted without it.
func userID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(UserIDHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("userId"))
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": apperrors.PublicMessage(err)})
}
