package model

import "time"

// ── 工单优先级 ──

const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// WorkOrder 工单表 — 对应 work_orders
// 工单拥有其检查点与附件（级联删除）
type WorkOrder struct {
	WorkOrderID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"work_order_id"`
	Title       string     `gorm:"type:varchar(255);not null"                     json:"title"`
	Company     string     `gorm:"type:varchar(255);not null"                     json:"company"`
	Description string     `gorm:"type:text"                                      json:"description,omitempty"`
	Priority    string     `gorm:"type:varchar(10);not null;default:'MEDIUM'"     json:"priority"`
	Deadline    *time.Time `gorm:""                                               json:"deadline,omitempty"`
	VersionedModel

	// 关联
	Creator     *User        `gorm:"foreignKey:CreatedBy;references:UserID"             json:"creator,omitempty"`
	Checkpoints []Checkpoint `gorm:"foreignKey:WorkOrderID;references:WorkOrderID"      json:"checkpoints,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:WorkOrderID;references:WorkOrderID"      json:"attachments,omitempty"`
}

// TableName 指定表名
func (WorkOrder) TableName() string { return "work_orders" }

// Attachment 附件表 — 对应 attachments
// 仅保存元数据引用，文件本体存储在外部（超出本服务范围）
type Attachment struct {
	AttachmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attachment_id"`
	WorkOrderID  string    `gorm:"type:uuid;not null"                             json:"work_order_id"`
	FileName     string    `gorm:"type:varchar(255);not null"                     json:"file_name"`
	FileURL      string    `gorm:"type:varchar(500);not null"                     json:"file_url"`
	UploadedBy   *string   `gorm:"type:uuid"                                      json:"uploaded_by,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Uploader *User `gorm:"foreignKey:UploadedBy;references:UserID" json:"uploader,omitempty"`
}

// TableName 指定表名
func (Attachment) TableName() string { return "attachments" }
