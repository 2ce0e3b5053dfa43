package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealbridge/dealroom/internal/services"
	"github.com/dealbridge/dealroom/pkg/errors"
	"github.com/dealbridge/dealroom/pkg/response"
)

// ReadinessHandler exposes a room's due-diligence readiness score.
type ReadinessHandler struct {
	service *services.ReadinessService
	rooms   *services.RoomService
}

// NewReadinessHandler constructs a readiness handler.
func NewReadinessHandler(service *services.ReadinessService, rooms *services.RoomService) *ReadinessHandler {
	return &ReadinessHandler{service: service, rooms: rooms}
}

// GET /api/rooms/:id/readiness
//
// Any room member may see the score; membership is checked through the room
// service so the rule lives in one place.
func (h *ReadinessHandler) Get(c *gin.Context) {
	roomID := c.Param("id")

	if _, err := h.rooms.ListMembers(requestContext(c), currentActor(c), roomID); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.Compute(requestContext(c), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// POST /api/rooms/:id/readiness/refresh
//
// Drops the cached score. Restricted to room managers via a membership check.
func (h *ReadinessHandler) Refresh(c *gin.Context) {
	roomID := c.Param("id")
	actor := currentActor(c)

	members, err := h.rooms.ListMembers(requestContext(c), actor, roomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	manages := actor.Privileged()
	for _, member := range members {
		if member.UserID == actor.ID && member.Role.Manages() {
			manages = true
		}
	}
	if !manages {
		response.Error(c, errors.ErrForbidden)
		return
	}

	h.service.Invalidate(requestContext(c), roomID)
	result, err := h.service.Compute(requestContext(c), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
