package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Mamypopo/FlowTrak/internal/dto"
	"github.com/Mamypopo/FlowTrak/internal/model"
	"github.com/Mamypopo/FlowTrak/internal/realtime"
	"github.com/Mamypopo/FlowTrak/internal/repository"
)

// ── 评论模块业务错误 ──

var (
	ErrCommentTargetRequired = errors.New("必须指定检查点或工单之一")
	ErrCommentTargetConflict = errors.New("检查点与工单只能指定其一")
	ErrCommentContentEmpty   = errors.New("评论内容与附件至少填写一项")
)

// CommentService 评论业务接口。
// 评论创建后不可修改、不可删除。
type CommentService interface {
	Create(ctx context.Context, actor *Actor, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	List(ctx context.Context, req *dto.CommentListRequest) ([]dto.CommentResponse, error)
}

type commentService struct {
	repo     *repository.Repository
	activity ActivityService
	hub      *realtime.Hub
	logger   *zap.Logger
}

// NewCommentService 创建 CommentService 实例
func NewCommentService(repo *repository.Repository, activity ActivityService, hub *realtime.Hub, logger *zap.Logger) CommentService {
	return &commentService{repo: repo, activity: activity, hub: hub, logger: logger}
}

func (s *commentService) Create(ctx context.Context, actor *Actor, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	// 目标恰为其一
	if req.CheckpointID == "" && req.WorkOrderID == "" {
		return nil, ErrCommentTargetRequired
	}
	if req.CheckpointID != "" && req.WorkOrderID != "" {
		return nil, ErrCommentTargetConflict
	}
	if strings.TrimSpace(req.Message) == "" && req.FileURL == "" {
		return nil, ErrCommentContentEmpty
	}

	comment := &model.Comment{
		UserID:  actor.UserID,
		Message: strings.TrimSpace(req.Message),
		FileURL: req.FileURL,
	}

	// 校验目标存在，并解析所属工单（广播与日志都以工单为粒度）
	var (
		rootWorkOrderID string
		workTitle       string
		checkpointName  string
	)
	if req.CheckpointID != "" {
		cp, err := s.repo.Checkpoint.GetByID(ctx, req.CheckpointID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCheckpointNotFound
			}
			s.logger.Error("查询检查点失败", zap.String("id", req.CheckpointID), zap.Error(err))
			return nil, err
		}
		comment.CheckpointID = &cp.CheckpointID
		rootWorkOrderID = cp.WorkOrderID
		checkpointName = cp.Name
		if cp.WorkOrder != nil {
			workTitle = cp.WorkOrder.Title
		}
	} else {
		wo, err := s.repo.WorkOrder.GetByID(ctx, req.WorkOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrWorkOrderNotFound
			}
			s.logger.Error("查询工单失败", zap.String("id", req.WorkOrderID), zap.Error(err))
			return nil, err
		}
		comment.WorkOrderID = &wo.WorkOrderID
		rootWorkOrderID = wo.WorkOrderID
		workTitle = wo.Title
	}

	if err := s.repo.Comment.Create(ctx, comment); err != nil {
		s.logger.Error("创建评论失败", zap.Error(err))
		return nil, err
	}

	// 操作日志（评论与流转共用同一份日志流）
	var details string
	if checkpointName != "" {
		details = fmt.Sprintf("评论于: %s - %s", workTitle, checkpointName)
	} else {
		details = fmt.Sprintf("评论于工单: %s", workTitle)
	}
	activityResp, actErr := s.activity.Record(ctx, actor.UserID, model.ActionAddComment, details, &rootWorkOrderID)
	if actErr != nil {
		s.logger.Error("评论成功但日志追加失败", zap.Error(actErr))
	}

	resp := s.toCommentResponse(ctx, comment)

	// 广播到工单频道
	s.hub.Publish(rootWorkOrderID, realtime.EventCommentNew, resp)
	if activityResp != nil {
		s.hub.Publish(rootWorkOrderID, realtime.EventActivityNew, activityResp)
	}

	return resp, nil
}

func (s *commentService) List(ctx context.Context, req *dto.CommentListRequest) ([]dto.CommentResponse, error) {
	if req.CheckpointID == "" && req.WorkOrderID == "" {
		return nil, ErrCommentTargetRequired
	}

	var (
		comments []model.Comment
		err      error
	)
	if req.CheckpointID != "" {
		comments, err = s.repo.Comment.ListByCheckpoint(ctx, req.CheckpointID)
	} else {
		comments, err = s.repo.Comment.ListByWorkOrder(ctx, req.WorkOrderID)
	}
	if err != nil {
		s.logger.Error("查询评论失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		result = append(result, *commentToResponse(&comments[i]))
	}
	return result, nil
}

// toCommentResponse 补全作者信息后转响应
func (s *commentService) toCommentResponse(ctx context.Context, comment *model.Comment) *dto.CommentResponse {
	resp := commentToResponse(comment)
	if resp.User == nil {
		if user, err := s.repo.User.GetByID(ctx, comment.UserID); err == nil {
			resp.User = &dto.UserBrief{ID: user.UserID, Name: user.Name, Username: user.Username}
		}
	}
	return resp
}

// commentToResponse 模型转响应
func commentToResponse(comment *model.Comment) *dto.CommentResponse {
	resp := &dto.CommentResponse{
		ID:           comment.CommentID,
		CheckpointID: comment.CheckpointID,
		WorkOrderID:  comment.WorkOrderID,
		Message:      comment.Message,
		FileURL:      comment.FileURL,
		CreatedAt:    comment.CreatedAt.Format(time.RFC3339),
	}
	if comment.User != nil {
		resp.User = &dto.UserBrief{
			ID:       comment.User.UserID,
			Name:     comment.User.Name,
			Username: comment.User.Username,
		}
	}
	return resp
}
