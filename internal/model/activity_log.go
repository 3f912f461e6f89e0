package model

import "time"

// ── 操作码 ──

const (
	ActionCheckpointStart    = "CHECKPOINT_START"
	ActionCheckpointComplete = "CHECKPOINT_COMPLETE"
	ActionCheckpointReturn   = "CHECKPOINT_RETURN"
	ActionCheckpointProblem  = "CHECKPOINT_PROBLEM"
	ActionAddComment         = "ADD_COMMENT"
	ActionCreateWork         = "CREATE_WORK"
	ActionLogin              = "LOGIN"
)

// ActivityLog 操作日志表 — 对应 activity_logs
// 仅追加，创建后不可修改、不可删除；
// WorkOrderID 为显式工单关联（登录等全局事件为 nil），
// 按工单过滤时以该列为准而非 details 文本匹配
type ActivityLog struct {
	ActivityLogID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_log_id"`
	UserID        string    `gorm:"type:uuid;not null"                             json:"user_id"`
	WorkOrderID   *string   `gorm:"type:uuid"                                      json:"work_order_id,omitempty"`
	Action        string    `gorm:"type:varchar(50);not null"                      json:"action"`
	Details       string    `gorm:"type:text;not null"                             json:"details"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_logs" }
