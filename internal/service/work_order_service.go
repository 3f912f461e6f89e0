package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Mamypopo/FlowTrak/internal/dto"
	"github.com/Mamypopo/FlowTrak/internal/model"
	"github.com/Mamypopo/FlowTrak/internal/repository"
)

// ── 工单模块业务错误 ──

var (
	ErrWorkOrderNotFound    = errors.New("工单不存在")
	ErrTemplateNotFound     = errors.New("模板不存在")
	ErrTemplateNoCheckpoint = errors.New("模板未定义任何检查点")
	ErrInvalidDeadline      = errors.New("截止时间格式无效")
)

// WorkOrderService 工单业务接口
type WorkOrderService interface {
	// Create 由模板快照创建工单：检查点按模板顺序复制，
	// 全部初始为 PENDING，之后工单与模板再无关联
	Create(ctx context.Context, actor *Actor, req *dto.CreateWorkOrderRequest) (*dto.WorkOrderDetailResponse, error)
	GetDetail(ctx context.Context, id string) (*dto.WorkOrderDetailResponse, error)
	List(ctx context.Context, req *dto.WorkOrderListRequest) ([]dto.WorkOrderSummaryResponse, int64, error)
	AddAttachment(ctx context.Context, actor *Actor, workOrderID string, req *dto.AddAttachmentRequest) (*dto.AttachmentResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type workOrderService struct {
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
}

// NewWorkOrderService 创建 WorkOrderService 实例
func NewWorkOrderService(repo *repository.Repository, activity ActivityService, logger *zap.Logger) WorkOrderService {
	return &workOrderService{repo: repo, activity: activity, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *workOrderService) Create(ctx context.Context, actor *Actor, req *dto.CreateWorkOrderRequest) (*dto.WorkOrderDetailResponse, error) {
	// 1. 加载模板（含有序检查点）
	tpl, err := s.repo.Template.GetByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("查询模板失败", zap.String("id", req.TemplateID), zap.Error(err))
		return nil, err
	}
	if len(tpl.Checkpoints) == 0 {
		return nil, ErrTemplateNoCheckpoint
	}

	// 2. 解析截止时间
	var deadline *time.Time
	if req.Deadline != nil && *req.Deadline != "" {
		t, err := time.Parse(time.RFC3339, *req.Deadline)
		if err != nil {
			return nil, ErrInvalidDeadline
		}
		deadline = &t
	}

	// 3. 构造工单与检查点快照
	wo := &model.WorkOrder{
		Title:       req.Title,
		Company:     req.Company,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    deadline,
	}
	wo.CreatedBy = &actor.UserID
	wo.UpdatedBy = &actor.UserID

	checkpoints := make([]model.Checkpoint, 0, len(tpl.Checkpoints))
	for _, tc := range tpl.Checkpoints {
		checkpoints = append(checkpoints, model.Checkpoint{
			Name:        tc.Name,
			OwnerDeptID: tc.OwnerDeptID,
			Order:       tc.Order,
			Status:      model.StatusPending,
		})
	}

	// 4. 事务内落库
	if err := s.repo.WorkOrder.CreateWithCheckpoints(ctx, wo, checkpoints); err != nil {
		s.logger.Error("创建工单失败", zap.Error(err))
		return nil, err
	}

	if _, err := s.activity.Record(ctx, actor.UserID, model.ActionCreateWork,
		fmt.Sprintf("创建工单: %s", wo.Title), &wo.WorkOrderID); err != nil {
		s.logger.Error("工单创建成功但日志追加失败", zap.Error(err))
	}

	return s.GetDetail(ctx, wo.WorkOrderID)
}

// ────────────────────── GetDetail ──────────────────────

func (s *workOrderService) GetDetail(ctx context.Context, id string) (*dto.WorkOrderDetailResponse, error) {
	wo, err := s.repo.WorkOrder.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkOrderNotFound
		}
		s.logger.Error("查询工单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := &dto.WorkOrderDetailResponse{
		ID:          wo.WorkOrderID,
		Title:       wo.Title,
		Company:     wo.Company,
		Description: wo.Description,
		Priority:    wo.Priority,
		CreatedAt:   wo.CreatedAt.Format(time.RFC3339),
	}
	if wo.Deadline != nil {
		v := wo.Deadline.Format(time.RFC3339)
		resp.Deadline = &v
	}
	if wo.Creator != nil {
		resp.Creator = &dto.UserBrief{ID: wo.Creator.UserID, Name: wo.Creator.Name, Username: wo.Creator.Username}
	}

	resp.Checkpoints = make([]dto.CheckpointResponse, 0, len(wo.Checkpoints))
	for i := range wo.Checkpoints {
		cpResp := toCheckpointResponse(&wo.Checkpoints[i])
		for j := range wo.Checkpoints[i].Comments {
			cpResp.Comments = append(cpResp.Comments, *commentToResponse(&wo.Checkpoints[i].Comments[j]))
		}
		resp.Checkpoints = append(resp.Checkpoints, *cpResp)
	}

	resp.Attachments = make([]dto.AttachmentResponse, 0, len(wo.Attachments))
	for i := range wo.Attachments {
		att := &wo.Attachments[i]
		attResp := dto.AttachmentResponse{
			ID:        att.AttachmentID,
			FileName:  att.FileName,
			FileURL:   att.FileURL,
			CreatedAt: att.CreatedAt.Format(time.RFC3339),
		}
		if att.Uploader != nil {
			attResp.Uploader = &dto.UserBrief{ID: att.Uploader.UserID, Name: att.Uploader.Name}
		}
		resp.Attachments = append(resp.Attachments, attResp)
	}

	return resp, nil
}

// ────────────────────── List ──────────────────────

func (s *workOrderService) List(ctx context.Context, req *dto.WorkOrderListRequest) ([]dto.WorkOrderSummaryResponse, int64, error) {
	filters := &repository.WorkOrderListFilters{
		Priority: req.Priority,
		Keyword:  req.Keyword,
	}
	orders, total, err := s.repo.WorkOrder.ListWithFilters(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询工单列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.WorkOrderSummaryResponse, 0, len(orders))
	for i := range orders {
		wo := &orders[i]
		summary := dto.WorkOrderSummaryResponse{
			ID:         wo.WorkOrderID,
			Title:      wo.Title,
			Company:    wo.Company,
			Priority:   wo.Priority,
			TotalCount: len(wo.Checkpoints),
			CreatedAt:  wo.CreatedAt.Format(time.RFC3339),
		}
		if wo.Deadline != nil {
			v := wo.Deadline.Format(time.RFC3339)
			summary.Deadline = &v
		}
		if wo.Creator != nil {
			summary.Creator = &dto.UserBrief{ID: wo.Creator.UserID, Name: wo.Creator.Name}
		}
		for j := range wo.Checkpoints {
			if wo.Checkpoints[j].Status == model.StatusCompleted {
				summary.CompletedCount++
			} else if summary.CurrentCheckpoint == "" {
				// 检查点已按 order 排序，第一个未完成的即当前环节
				summary.CurrentCheckpoint = wo.Checkpoints[j].Name
			}
		}
		result = append(result, summary)
	}

	return result, total, nil
}

// ────────────────────── AddAttachment ──────────────────────

func (s *workOrderService) AddAttachment(ctx context.Context, actor *Actor, workOrderID string, req *dto.AddAttachmentRequest) (*dto.AttachmentResponse, error) {
	if _, err := s.repo.WorkOrder.GetByID(ctx, workOrderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkOrderNotFound
		}
		s.logger.Error("查询工单失败", zap.String("id", workOrderID), zap.Error(err))
		return nil, err
	}

	att := &model.Attachment{
		WorkOrderID: workOrderID,
		FileName:    req.FileName,
		FileURL:     req.FileURL,
		UploadedBy:  &actor.UserID,
	}
	if err := s.repo.WorkOrder.CreateAttachment(ctx, att); err != nil {
		s.logger.Error("登记附件失败", zap.String("work_order_id", workOrderID), zap.Error(err))
		return nil, err
	}

	return &dto.AttachmentResponse{
		ID:        att.AttachmentID,
		FileName:  att.FileName,
		FileURL:   att.FileURL,
		CreatedAt: att.CreatedAt.Format(time.RFC3339),
	}, nil
}

// ────────────────────── Delete ──────────────────────

func (s *workOrderService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.WorkOrder.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWorkOrderNotFound
		}
		s.logger.Error("查询工单失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.WorkOrder.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除工单失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
