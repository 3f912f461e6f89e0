package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Mamypopo/FlowTrak/internal/api/middleware"
	"github.com/Mamypopo/FlowTrak/internal/service"
	"github.com/Mamypopo/FlowTrak/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.ContextUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetActor 从 Gin 上下文构造操作者身份。
// department_id 允许为空（未归属部门的 ADMIN 账号）。
func MustGetActor(c *gin.Context) (*service.Actor, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return nil, false
	}

	role, exists := c.Get(middleware.ContextRole)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	roleStr, ok := role.(string)
	if !ok || roleStr == "" {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}

	deptID := ""
	if v, exists := c.Get(middleware.ContextDepartmentID); exists {
		if s, ok := v.(string); ok {
			deptID = s
		}
	}

	return &service.Actor{
		UserID:       userID,
		Role:         roleStr,
		DepartmentID: deptID,
	}, true
}
