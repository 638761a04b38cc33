package notifications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"blueprint-backend/internal/shared/server/middleware"
	"blueprint-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the notifications service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches notification routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.list)
	rg.POST("/notifications/:id/read", h.markRead)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	items, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list notifications", nil)
		return
	}

	respond.OK(c, gin.H{"notifications": items})
}

func (h *Handler) markRead(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	notificationID := c.Param("id")
	if notificationID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "notification id is required", nil)
		return
	}

	if err := h.Svc.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "notification not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to mark notification read", nil)
		}
		return
	}

	respond.OK(c, gin.H{"id": notificationID, "read": true})
}
