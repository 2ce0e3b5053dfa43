package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealbridge/dealroom/internal/services"
	"github.com/dealbridge/dealroom/pkg/response"
)

// RoomHandler manages data rooms and memberships over HTTP.
type RoomHandler struct {
	service *services.RoomService
}

// NewRoomHandler constructs a room handler.
func NewRoomHandler(service *services.RoomService) *RoomHandler {
	return &RoomHandler{service: service}
}

type createRoomRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
	Name      string `json:"name"`
}

// POST /api/rooms
func (h *RoomHandler) Create(c *gin.Context) {
	var req createRoomRequest
	if !bindAndValidate(c, &req) {
		return
	}

	room, err := h.service.CreateForListing(requestContext(c), currentActor(c), req.ListingID, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, room)
}

// POST /api/rooms/:id/members
func (h *RoomHandler) AddMember(c *gin.Context) {
	var req services.AddMemberInput
	if !bindAndValidate(c, &req) {
		return
	}

	membership, err := h.service.AddMember(requestContext(c), currentActor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, membership)
}

// DELETE /api/rooms/:id/members/:userID
func (h *RoomHandler) RemoveMember(c *gin.Context) {
	err := h.service.RemoveMember(requestContext(c), currentActor(c), c.Param("id"), c.Param("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

// GET /api/rooms/:id/members
func (h *RoomHandler) ListMembers(c *gin.Context) {
	members, err := h.service.ListMembers(requestContext(c), currentActor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}
