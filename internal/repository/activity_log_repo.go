package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Mamypopo/FlowTrak/internal/model"
)

// ActivityLogRepository 操作日志数据访问接口
// 仅追加：接口不暴露任何更新或删除操作
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	// ListRecent 按创建时间倒序返回最近 limit 条
	ListRecent(ctx context.Context, limit int) ([]model.ActivityLog, error)
	// ListByWorkOrder 按显式工单关联过滤，创建时间倒序
	ListByWorkOrder(ctx context.Context, workOrderID string, limit int) ([]model.ActivityLog, error)
}

// activityLogRepo ActivityLogRepository 的 GORM 实现
type activityLogRepo struct {
	db *gorm.DB
}

// NewActivityLogRepo 创建 ActivityLogRepository 实例
func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepo) ListRecent(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	var entries []model.ActivityLog
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *activityLogRepo) ListByWorkOrder(ctx context.Context, workOrderID string, limit int) ([]model.ActivityLog, error) {
	var entries []model.ActivityLog
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("work_order_id = ?", workOrderID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
