package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Mamypopo/FlowTrak/internal/dto"
	"github.com/Mamypopo/FlowTrak/internal/service"
	"github.com/Mamypopo/FlowTrak/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportWorkOrder 导出单个工单进度明细
// GET /api/v1/export/work-orders/:id
func (h *ExportHandler) ExportWorkOrder(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "工单ID不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportWorkOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrWorkOrderNotFound) {
			response.NotFound(c, 15001, "工单不存在")
			return
		}
		response.InternalError(c)
		return
	}

	writeXLSX(c, buf.Bytes(), filename)
}

// ExportWorkOrders 导出工单进度汇总
// GET /api/v1/export/work-orders
func (h *ExportHandler) ExportWorkOrders(c *gin.Context) {
	var req dto.WorkOrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportWorkOrders(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	writeXLSX(c, buf.Bytes(), filename)
}

// writeXLSX 设置下载响应头并写出文件内容
func writeXLSX(c *gin.Context, data []byte, filename string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", xlsxContentType)
	c.Data(http.StatusOK, xlsxContentType, data)
}
