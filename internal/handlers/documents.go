package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dealbridge/dealroom/internal/services"
	"github.com/dealbridge/dealroom/pkg/response"
)

// DocumentHandler exposes document management and access resolution over HTTP.
type DocumentHandler struct {
	service *services.DocumentService
}

// NewDocumentHandler constructs a document handler.
func NewDocumentHandler(service *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// POST /api/documents
func (h *DocumentHandler) RegisterUpload(c *gin.Context) {
	var req services.RegisterUploadInput
	if !bindAndValidate(c, &req) {
		return
	}

	registered, err := h.service.RegisterUpload(requestContext(c), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, registered)
}

// PUT /api/documents/:id/policy
func (h *DocumentHandler) SetPolicy(c *gin.Context) {
	var req services.SetPolicyInput
	if !bindAndValidate(c, &req) {
		return
	}

	doc, err := h.service.SetPolicy(requestContext(c), currentActor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, doc)
}

// GET /api/documents/:id/access?action=view|download
func (h *DocumentHandler) Access(c *gin.Context) {
	action := services.AccessAction(strings.TrimSpace(c.DefaultQuery("action", string(services.ActionView))))

	result, err := h.service.Access(requestContext(c), currentActor(c), c.Param("id"), action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GET /api/rooms/:id/documents
func (h *DocumentHandler) ListForRoom(c *gin.Context) {
	docs, err := h.service.ListForRoom(requestContext(c), currentActor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, docs)
}

// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(requestContext(c), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
