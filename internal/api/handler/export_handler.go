package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"umap/backend/internal/dto"
	"umap/backend/internal/service"
	"umap/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// Export 导出我的课表
// GET /api/v1/schedules/export/:format (excel|xlsx|pdf|ical|ics)
func (h *ExportHandler) Export(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ExportRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, 16101, service.ErrExportFormat.Error())
		return
	}

	file, err := h.exportSvc.Export(c.Request.Context(), userID, req.Format)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportFormat):
		response.BadRequest(c, 16101, err.Error())
	case errors.Is(err, service.ErrExportEmpty):
		response.NotFound(c, 16102, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
