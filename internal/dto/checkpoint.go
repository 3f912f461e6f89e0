package dto

// ── 检查点模块 DTO ──

// CheckpointActionRequest 检查点流转请求
type CheckpointActionRequest struct {
	Action string `json:"action" binding:"required,oneof=start complete return problem"`
}

// CheckpointResponse 检查点响应（checkpoint:updated 事件载荷同此）
type CheckpointResponse struct {
	ID          string           `json:"id"`
	WorkOrderID string           `json:"work_order_id"`
	Name        string           `json:"name"`
	Order       int              `json:"order"`
	Status      string           `json:"status"`
	OwnerDept   *DepartmentBrief `json:"owner_dept,omitempty"`
	StartedAt   *string          `json:"started_at,omitempty"`
	EndedAt     *string          `json:"ended_at,omitempty"`
	Comments    []CommentResponse `json:"comments,omitempty"`
}
