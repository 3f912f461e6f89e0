package model

import "time"

// Template 流程模板表 — 对应 templates
// 创建工单时将其检查点快照复制到工单下，工单之后不再引用模板
type Template struct {
	TemplateID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"template_id"`
	Name       string `gorm:"type:varchar(100);not null"                     json:"name"`
	VersionedModel

	// 关联
	Checkpoints []TemplateCheckpoint `gorm:"foreignKey:TemplateID;references:TemplateID" json:"checkpoints,omitempty"`
}

// TableName 指定表名
func (Template) TableName() string { return "templates" }

// TemplateCheckpoint 模板检查点表 — 对应 template_checkpoints
// Order 在同一模板内唯一，定义检查点的执行顺序
type TemplateCheckpoint struct {
	TemplateCheckpointID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"template_checkpoint_id"`
	TemplateID           string    `gorm:"type:uuid;not null"                             json:"template_id"`
	Name                 string    `gorm:"type:varchar(200);not null"                     json:"name"`
	OwnerDeptID          string    `gorm:"type:uuid;not null"                             json:"owner_dept_id"`
	Order                int       `gorm:"column:order;not null"                          json:"order"`
	CreatedAt            time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt            time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	// 关联
	OwnerDept *Department `gorm:"foreignKey:OwnerDeptID;references:DepartmentID" json:"owner_dept,omitempty"`
}

// TableName 指定表名
func (TemplateCheckpoint) TableName() string { return "template_checkpoints" }
