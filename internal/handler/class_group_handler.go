package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivedrcc-eng/central-senai-api/internal/service"
	appErrors "github.com/drivedrcc-eng/central-senai-api/pkg/errors"
	"github.com/drivedrcc-eng/central-senai-api/pkg/response"
)

// ClassGroupHandler exposes class group CRUD endpoints.
type ClassGroupHandler struct {
	service *service.ClassGroupService
}

// NewClassGroupHandler constructs a class group handler.
func NewClassGroupHandler(svc *service.ClassGroupService) *ClassGroupHandler {
	return &ClassGroupHandler{service: svc}
}

// List godoc
// @Summary List class groups
// @Tags ClassGroups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /class-groups [get]
func (h *ClassGroupHandler) List(c *gin.Context) {
	groups, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Get godoc
// @Summary Get class group detail
// @Tags ClassGroups
// @Produce json
// @Param id path string true "Class group ID"
// @Success 200 {object} response.Envelope
// @Router /class-groups/{id} [get]
func (h *ClassGroupHandler) Get(c *gin.Context) {
	group, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Create godoc
// @Summary Create class group
// @Tags ClassGroups
// @Accept json
// @Produce json
// @Param payload body service.SaveClassGroupRequest true "Class group payload"
// @Success 201 {object} response.Envelope
// @Router /class-groups [post]
func (h *ClassGroupHandler) Create(c *gin.Context) {
	var req service.SaveClassGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Update godoc
// @Summary Update class group
// @Tags ClassGroups
// @Accept json
// @Produce json
// @Param id path string true "Class group ID"
// @Param payload body service.SaveClassGroupRequest true "Class group payload"
// @Success 200 {object} response.Envelope
// @Router /class-groups/{id} [put]
func (h *ClassGroupHandler) Update(c *gin.Context) {
	var req service.SaveClassGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Delete godoc
// @Summary Delete class group
// @Tags ClassGroups
// @Produce json
// @Param id path string true "Class group ID"
// @Success 204
// @Router /class-groups/{id} [delete]
func (h *ClassGroupHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
