package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Mamypopo/FlowTrak/internal/dto"
	"github.com/Mamypopo/FlowTrak/internal/model"
	"github.com/Mamypopo/FlowTrak/internal/repository"
)

// ActivityService 操作日志业务接口。
// 仅追加：本接口不提供任何修改或删除入口。
type ActivityService interface {
	// Record 追加一条日志；workOrderID 为显式工单关联（全局事件传 nil）
	Record(ctx context.Context, actorID, action, details string, workOrderID *string) (*dto.ActivityResponse, error)
	// List 按时间倒序读取，limit 限定条数；
	// 指定 work_order_id 时按显式关联列过滤
	List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityResponse, error)
}

type activityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityService 创建 ActivityService 实例
func NewActivityService(repo *repository.Repository, logger *zap.Logger) ActivityService {
	return &activityService{repo: repo, logger: logger}
}

func (s *activityService) Record(ctx context.Context, actorID, action, details string, workOrderID *string) (*dto.ActivityResponse, error) {
	entry := &model.ActivityLog{
		UserID:      actorID,
		WorkOrderID: workOrderID,
		Action:      action,
		Details:     details,
	}
	if err := s.repo.ActivityLog.Create(ctx, entry); err != nil {
		s.logger.Error("追加操作日志失败",
			zap.String("action", action),
			zap.Error(err),
		)
		return nil, err
	}

	resp := toActivityResponse(entry)

	// 实时事件载荷需要带上操作者姓名；查询失败不影响日志本身
	if user, err := s.repo.User.GetByID(ctx, actorID); err == nil {
		resp.User = &dto.UserBrief{ID: user.UserID, Name: user.Name, Username: user.Username}
	}

	return resp, nil
}

func (s *activityService) List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityResponse, error) {
	var (
		entries []model.ActivityLog
		err     error
	)
	if req.WorkOrderID != "" {
		entries, err = s.repo.ActivityLog.ListByWorkOrder(ctx, req.WorkOrderID, req.GetLimit())
	} else {
		entries, err = s.repo.ActivityLog.ListRecent(ctx, req.GetLimit())
	}
	if err != nil {
		s.logger.Error("查询操作日志失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ActivityResponse, 0, len(entries))
	for i := range entries {
		resp := toActivityResponse(&entries[i])
		if entries[i].User != nil {
			resp.User = &dto.UserBrief{
				ID:       entries[i].User.UserID,
				Name:     entries[i].User.Name,
				Username: entries[i].User.Username,
			}
		}
		result = append(result, *resp)
	}
	return result, nil
}

// toActivityResponse 模型转响应
func toActivityResponse(entry *model.ActivityLog) *dto.ActivityResponse {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &dto.ActivityResponse{
		ID:          entry.ActivityLogID,
		UserID:      entry.UserID,
		WorkOrderID: entry.WorkOrderID,
		Action:      entry.Action,
		Details:     entry.Details,
		CreatedAt:   createdAt.Format(time.RFC3339),
	}
}
