package dto

// ── 操作日志模块 DTO ──

// ActivityListRequest 操作日志列表请求
type ActivityListRequest struct {
	Limit       int    `form:"limit"         binding:"omitempty,min=1,max=200"`
	WorkOrderID string `form:"work_order_id" binding:"omitempty,uuid"`
}

// GetLimit 获取条数上限（含默认值）
func (r *ActivityListRequest) GetLimit() int {
	if r.Limit <= 0 {
		return 50
	}
	return r.Limit
}

// ActivityResponse 操作日志响应（activity:new 事件载荷同此）
type ActivityResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	User        *UserBrief `json:"user,omitempty"`
	WorkOrderID *string    `json:"work_order_id,omitempty"`
	Action      string     `json:"action"`
	Details     string     `json:"details"`
	CreatedAt   string     `json:"created_at"`
}
