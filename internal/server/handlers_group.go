package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tabkeeper/tabkeeper/internal/models"
	"github.com/tabkeeper/tabkeeper/internal/service"
)

// GroupHandler translates HTTP requests into group service calls.
type GroupHandler struct {
	groups *service.GroupService
}

func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

type createGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

type renameGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

type addMemberRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

type groupResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	CreatedBy int64   `json:"created_by"`
	Members   []int64 `json:"members"`
	CreatedAt int64   `json:"created_at"`
}

func toGroupResponse(group *models.Group) groupResponse {
	members := group.Members
	if members == nil {
		members = []int64{}
	}
	return groupResponse{
		ID:        group.ID,
		Name:      group.Name,
		CreatedBy: group.CreatedBy,
		Members:   members,
		CreatedAt: group.CreatedAt,
	}
}

// CreateGroup handles POST /v1/groups. The authenticated caller becomes the
// group's owner and first member.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), req.Name, currentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toGroupResponse(group))
}

// GetGroup handles GET /v1/groups/:id.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}

	group, err := h.groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupResponse(group))
}

// RenameGroup handles PATCH /v1/groups/:id.
func (h *GroupHandler) RenameGroup(c *gin.Context) {
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req renameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.RenameGroup(c.Request.Context(), groupID, req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupResponse(group))
}

// AddMember handles POST /v1/groups/:id/members.
func (h *GroupHandler) AddMember(c *gin.Context) {
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.groups.AddMember(c.Request.Context(), groupID, req.UserID); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
