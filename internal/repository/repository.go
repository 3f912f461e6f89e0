package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User        UserRepository
	Department  DepartmentRepository
	Template    TemplateRepository
	WorkOrder   WorkOrderRepository
	Checkpoint  CheckpointRepository
	Comment     CommentRepository
	ActivityLog ActivityLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:        NewUserRepo(db),
		Department:  NewDepartmentRepo(db),
		Template:    NewTemplateRepo(db),
		WorkOrder:   NewWorkOrderRepo(db),
		Checkpoint:  NewCheckpointRepo(db),
		Comment:     NewCommentRepo(db),
		ActivityLog: NewActivityLogRepo(db),
	}
}
