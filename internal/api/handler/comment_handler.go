package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Mamypopo/FlowTrak/internal/dto"
	"github.com/Mamypopo/FlowTrak/internal/service"
	"github.com/Mamypopo/FlowTrak/pkg/response"
)

// CommentHandler 评论模块 HTTP 处理器
type CommentHandler struct {
	commentSvc service.CommentService
}

// NewCommentHandler 创建 CommentHandler
func NewCommentHandler(commentSvc service.CommentService) *CommentHandler {
	return &CommentHandler{commentSvc: commentSvc}
}

// CreateComment 创建评论（检查点或工单二选一）
// POST /api/v1/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	comment, err := h.commentSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.Created(c, comment)
}

// ListComments 按目标查询评论
// GET /api/v1/comments?checkpoint_id=xxx | ?work_order_id=xxx
func (h *CommentHandler) ListComments(c *gin.Context) {
	var req dto.CommentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	comments, err := h.commentSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleCommentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": comments})
}

func (h *CommentHandler) handleCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCommentTargetRequired):
		response.BadRequest(c, 17001, "必须指定检查点或工单之一")
	case errors.Is(err, service.ErrCommentTargetConflict):
		response.BadRequest(c, 17002, "检查点与工单只能指定其一")
	case errors.Is(err, service.ErrCommentContentEmpty):
		response.BadRequest(c, 17003, "评论内容与附件至少填写一项")
	case errors.Is(err, service.ErrCheckpointNotFound):
		response.NotFound(c, 16001, "检查点不存在")
	case errors.Is(err, service.ErrWorkOrderNotFound):
		response.NotFound(c, 15001, "工单不存在")
	default:
		response.InternalError(c)
	}
}
