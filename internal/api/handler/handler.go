package handler

import (
	"go.uber.org/zap"

	"github.com/Mamypopo/FlowTrak/config"
	"github.com/Mamypopo/FlowTrak/internal/realtime"
	"github.com/Mamypopo/FlowTrak/internal/service"
	"github.com/Mamypopo/FlowTrak/pkg/jwt"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Department *DepartmentHandler
	Template   *TemplateHandler
	WorkOrder  *WorkOrderHandler
	Checkpoint *CheckpointHandler
	Comment    *CommentHandler
	Activity   *ActivityHandler
	Export     *ExportHandler
	WS         *WSHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service, hub *realtime.Hub,
	jwtMgr *jwt.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Department: NewDepartmentHandler(svc.Department),
		Template:   NewTemplateHandler(svc.Template),
		WorkOrder:  NewWorkOrderHandler(svc.WorkOrder),
		Checkpoint: NewCheckpointHandler(svc.Workflow),
		Comment:    NewCommentHandler(svc.Comment),
		Activity:   NewActivityHandler(svc.Activity),
		Export:     NewExportHandler(svc.Export),
		WS:         NewWSHandler(hub, jwtMgr, &cfg.Realtime, cfg.Server.CORS.AllowOrigins, logger),
	}
}
