package dto

// ── 评论模块 DTO ──

// CreateCommentRequest 创建评论请求
// CheckpointID 与 WorkOrderID 恰填其一；Message 与 FileURL 至少填其一
type CreateCommentRequest struct {
	CheckpointID string `json:"checkpoint_id" binding:"omitempty,uuid"`
	WorkOrderID  string `json:"work_order_id" binding:"omitempty,uuid"`
	Message      string `json:"message"       binding:"omitempty,max=2000"`
	FileURL      string `json:"file_url"      binding:"omitempty,max=500"`
}

// CommentListRequest 评论列表请求
type CommentListRequest struct {
	CheckpointID string `form:"checkpoint_id" binding:"omitempty,uuid"`
	WorkOrderID  string `form:"work_order_id" binding:"omitempty,uuid"`
}

// CommentResponse 评论响应（comment:new 事件载荷同此）
type CommentResponse struct {
	ID           string     `json:"id"`
	CheckpointID *string    `json:"checkpoint_id,omitempty"`
	WorkOrderID  *string    `json:"work_order_id,omitempty"`
	User         *UserBrief `json:"user,omitempty"`
	Message      string     `json:"message,omitempty"`
	FileURL      string     `json:"file_url,omitempty"`
	CreatedAt    string     `json:"created_at"`
}
