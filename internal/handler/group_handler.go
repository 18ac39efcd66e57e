package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studiora/backend/internal/service"
)

type GroupHandler struct {
	groupService *service.GroupService
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (h *GroupHandler) List(c *gin.Context) {
	groups, apiErr := h.groupService.List(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req createGroupRequest
	if !bindJSON(c, &req, false) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	group, apiErr := h.groupService.Create(c.Request.Context(), userID, service.GroupInput{
		Name:        req.Name,
		Description: req.Description,
		Subject:     req.Subject,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group": group})
}

func (h *GroupHandler) Join(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	group, apiErr := h.groupService.Join(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}
