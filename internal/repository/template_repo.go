package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Mamypopo/FlowTrak/internal/model"
)

// TemplateRepository 流程模板数据访问接口
type TemplateRepository interface {
	Create(ctx context.Context, tpl *model.Template) error
	GetByID(ctx context.Context, id string) (*model.Template, error)
	List(ctx context.Context) ([]model.Template, error)
	Update(ctx context.Context, tpl *model.Template) error
	Delete(ctx context.Context, id string, deletedBy string) error
	// ReplaceCheckpoints 全量替换模板检查点（事务内先删后插）
	ReplaceCheckpoints(ctx context.Context, templateID string, checkpoints []model.TemplateCheckpoint) error
}

// templateRepo TemplateRepository 的 GORM 实现
type templateRepo struct {
	db *gorm.DB
}

// NewTemplateRepo 创建 TemplateRepository 实例
func NewTemplateRepo(db *gorm.DB) TemplateRepository {
	return &templateRepo{db: db}
}

func (r *templateRepo) Create(ctx context.Context, tpl *model.Template) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

func (r *templateRepo) GetByID(ctx context.Context, id string) (*model.Template, error) {
	var tpl model.Template
	err := r.db.WithContext(ctx).
		Preload("Checkpoints", func(db *gorm.DB) *gorm.DB {
			return db.Order(`"order" ASC`)
		}).
		Preload("Checkpoints.OwnerDept").
		Where("template_id = ?", id).
		First(&tpl).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepo) List(ctx context.Context) ([]model.Template, error) {
	var tpls []model.Template
	err := r.db.WithContext(ctx).
		Preload("Checkpoints", func(db *gorm.DB) *gorm.DB {
			return db.Order(`"order" ASC`)
		}).
		Preload("Checkpoints.OwnerDept").
		Order("created_at DESC").
		Find(&tpls).Error
	return tpls, err
}

func (r *templateRepo) Update(ctx context.Context, tpl *model.Template) error {
	return r.db.WithContext(ctx).Save(tpl).Error
}

func (r *templateRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Template{}).
		Where("template_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *templateRepo) ReplaceCheckpoints(ctx context.Context, templateID string, checkpoints []model.TemplateCheckpoint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", templateID).
			Delete(&model.TemplateCheckpoint{}).Error; err != nil {
			return err
		}
		if len(checkpoints) == 0 {
			return nil
		}
		for i := range checkpoints {
			checkpoints[i].TemplateID = templateID
		}
		return tx.Create(&checkpoints).Error
	})
}
