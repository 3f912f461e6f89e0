package dto

// ── 模板模块 DTO ──

// CreateTemplateRequest 创建模板请求
type CreateTemplateRequest struct {
	Name        string                            `json:"name"        binding:"required,min=1,max=100"`
	Checkpoints []CreateTemplateCheckpointRequest `json:"checkpoints" binding:"omitempty,dive"`
}

// CreateTemplateCheckpointRequest 模板检查点定义
type CreateTemplateCheckpointRequest struct {
	Name        string `json:"name"          binding:"required,min=1,max=200"`
	OwnerDeptID string `json:"owner_dept_id" binding:"required,uuid"`
	Order       int    `json:"order"         binding:"required,min=1"`
}

// UpdateTemplateRequest 更新模板请求（检查点全量替换）
type UpdateTemplateRequest struct {
	Name        *string                           `json:"name"        binding:"omitempty,min=1,max=100"`
	Checkpoints []CreateTemplateCheckpointRequest `json:"checkpoints" binding:"omitempty,dive"`
}

// TemplateResponse 模板响应
type TemplateResponse struct {
	ID          string                       `json:"id"`
	Name        string                       `json:"name"`
	Checkpoints []TemplateCheckpointResponse `json:"checkpoints"`
	CreatedAt   string                       `json:"created_at"`
}

// TemplateCheckpointResponse 模板检查点响应
type TemplateCheckpointResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Order     int              `json:"order"`
	OwnerDept *DepartmentBrief `json:"owner_dept,omitempty"`
}
