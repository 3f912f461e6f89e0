package dto

// ── 用户模块 DTO ──

// CreateUserRequest 创建用户请求（管理员）
type CreateUserRequest struct {
	Username     string  `json:"username"      binding:"required,min=3,max=50"`
	Name         string  `json:"name"          binding:"required,min=2,max=100"`
	Password     string  `json:"password"      binding:"required,min=8,max=64"`
	Role         string  `json:"role"          binding:"required,oneof=ADMIN MANAGER STAFF"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=2,max=100"`
	Role         *string `json:"role"          binding:"omitempty,oneof=ADMIN MANAGER STAFF"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
	Password     *string `json:"password"      binding:"omitempty,min=8,max=64"`
}

// UserListRequest 用户列表请求
type UserListRequest struct {
	PaginationRequest
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Role         string `form:"role"          binding:"omitempty,oneof=ADMIN MANAGER STAFF"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID         string           `json:"id"`
	Username   string           `json:"username"`
	Name       string           `json:"name"`
	Role       string           `json:"role"`
	Department *DepartmentBrief `json:"department,omitempty"`
	CreatedAt  string           `json:"created_at,omitempty"`
}
