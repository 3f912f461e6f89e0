package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Mamypopo/FlowTrak/internal/dto"
	"github.com/Mamypopo/FlowTrak/internal/service"
	"github.com/Mamypopo/FlowTrak/pkg/response"
)

// ActivityHandler 操作日志模块 HTTP 处理器
type ActivityHandler struct {
	activitySvc service.ActivityService
}

// NewActivityHandler 创建 ActivityHandler
func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

// ListActivities 查询操作日志（时间倒序）
// GET /api/v1/activities?limit=50&work_order_id=xxx
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	var req dto.ActivityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	entries, err := h.activitySvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": entries})
}
