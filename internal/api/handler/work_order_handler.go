package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Mamypopo/FlowTrak/internal/dto"
	"github.com/Mamypopo/FlowTrak/internal/service"
	"github.com/Mamypopo/FlowTrak/pkg/response"
)

// WorkOrderHandler 工单模块 HTTP 处理器
type WorkOrderHandler struct {
	woSvc service.WorkOrderService
}

// NewWorkOrderHandler 创建 WorkOrderHandler
func NewWorkOrderHandler(woSvc service.WorkOrderService) *WorkOrderHandler {
	return &WorkOrderHandler{woSvc: woSvc}
}

// ListWorkOrders 获取工单列表（含进度汇总）
// GET /api/v1/work-orders
func (h *WorkOrderHandler) ListWorkOrders(c *gin.Context) {
	var req dto.WorkOrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	orders, total, err := h.woSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, orders, total, req.GetPage(), req.GetPageSize())
}

// GetWorkOrder 获取工单详情（含有序检查点与附件）
// GET /api/v1/work-orders/:id
func (h *WorkOrderHandler) GetWorkOrder(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "工单ID不能为空")
		return
	}

	wo, err := h.woSvc.GetDetail(c.Request.Context(), id)
	if err != nil {
		h.handleWorkOrderError(c, err)
		return
	}

	response.OK(c, wo)
}

// CreateWorkOrder 由模板创建工单
// POST /api/v1/work-orders
func (h *WorkOrderHandler) CreateWorkOrder(c *gin.Context) {
	var req dto.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	wo, err := h.woSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleWorkOrderError(c, err)
		return
	}

	response.Created(c, wo)
}

// AddAttachment 登记工单附件元数据
// POST /api/v1/work-orders/:id/attachments
func (h *WorkOrderHandler) AddAttachment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "工单ID不能为空")
		return
	}

	var req dto.AddAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	att, err := h.woSvc.AddAttachment(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.handleWorkOrderError(c, err)
		return
	}

	response.Created(c, att)
}

// DeleteWorkOrder 删除工单（软删除）
// DELETE /api/v1/work-orders/:id
func (h *WorkOrderHandler) DeleteWorkOrder(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "工单ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.woSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleWorkOrderError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *WorkOrderHandler) handleWorkOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkOrderNotFound):
		response.NotFound(c, 15001, "工单不存在")
	case errors.Is(err, service.ErrTemplateNotFound):
		response.BadRequest(c, 15002, "模板不存在")
	case errors.Is(err, service.ErrTemplateNoCheckpoint):
		response.BadRequest(c, 15003, "模板未定义任何检查点")
	case errors.Is(err, service.ErrInvalidDeadline):
		response.BadRequest(c, 15004, "截止时间格式无效")
	default:
		response.InternalError(c)
	}
}
