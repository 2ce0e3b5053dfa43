package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dealbridge/dealroom/internal/models"
	"github.com/dealbridge/dealroom/internal/services"
	"github.com/dealbridge/dealroom/pkg/response"
)

// NDAHandler exposes the NDA request lifecycle over HTTP.
type NDAHandler struct {
	service *services.NDAService
}

// NewNDAHandler constructs an NDA handler.
func NewNDAHandler(service *services.NDAService) *NDAHandler {
	return &NDAHandler{service: service}
}

// POST /api/ndas
func (h *NDAHandler) Create(c *gin.Context) {
	var req services.CreateNDAInput
	if !bindAndValidate(c, &req) {
		return
	}

	request, err := h.service.Create(requestContext(c), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, request)
}

type transitionRequest struct {
	Status models.NDAStatus `json:"status" validate:"required"`
}

// POST /api/ndas/:id/transition
func (h *NDAHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	request, err := h.service.Transition(requestContext(c), currentActor(c), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, request)
}

// GET /api/ndas/:id
func (h *NDAHandler) Get(c *gin.Context) {
	request, err := h.service.Get(requestContext(c), currentActor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, request)
}

// GET /api/ndas
func (h *NDAHandler) List(c *gin.Context) {
	filters := services.NDAListFilters{
		ListingID: strings.TrimSpace(c.Query("listing_id")),
		Status:    models.NDAStatus(strings.TrimSpace(c.Query("status"))),
	}

	rows, err := h.service.List(requestContext(c), currentActor(c), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// DELETE /api/ndas/:id
func (h *NDAHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(requestContext(c), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
