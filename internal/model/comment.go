package model

import "time"

// Comment 评论表 — 对应 comments
// CheckpointID 与 WorkOrderID 恰有其一非空（数据库 CHECK 约束保证）；
// 评论创建后不可修改、不可删除
type Comment struct {
	CommentID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"comment_id"`
	CheckpointID *string   `gorm:"type:uuid"                                      json:"checkpoint_id,omitempty"`
	WorkOrderID  *string   `gorm:"type:uuid"                                      json:"work_order_id,omitempty"`
	UserID       string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Message      string    `gorm:"type:text"                                      json:"message,omitempty"`
	FileURL      string    `gorm:"type:varchar(500)"                              json:"file_url,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	User       *User       `gorm:"foreignKey:UserID;references:UserID"             json:"user,omitempty"`
	Checkpoint *Checkpoint `gorm:"foreignKey:CheckpointID;references:CheckpointID" json:"checkpoint,omitempty"`
}

// TableName 指定表名
func (Comment) TableName() string { return "comments" }
