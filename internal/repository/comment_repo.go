package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Mamypopo/FlowTrak/internal/model"
)

// CommentRepository 评论数据访问接口（只增不改）
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListByCheckpoint(ctx context.Context, checkpointID string) ([]model.Comment, error)
	ListByWorkOrder(ctx context.Context, workOrderID string) ([]model.Comment, error)
}

// commentRepo CommentRepository 的 GORM 实现
type commentRepo struct {
	db *gorm.DB
}

// NewCommentRepo 创建 CommentRepository 实例
func NewCommentRepo(db *gorm.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Checkpoint").
		Where("comment_id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepo) ListByCheckpoint(ctx context.Context, checkpointID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("checkpoint_id = ?", checkpointID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepo) ListByWorkOrder(ctx context.Context, workOrderID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}
