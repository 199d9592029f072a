package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"umap/backend/internal/dto"
	"umap/backend/internal/service"
	"umap/backend/pkg/response"
)

// FloorPlanHandler 平面图导入 HTTP 处理器
type FloorPlanHandler struct {
	floorPlanSvc service.FloorPlanService
}

// NewFloorPlanHandler 创建 FloorPlanHandler
func NewFloorPlanHandler(floorPlanSvc service.FloorPlanService) *FloorPlanHandler {
	return &FloorPlanHandler{floorPlanSvc: floorPlanSvc}
}

// Import 上传楼层 SVG 平面图（管理员）
// POST /api/v1/floorplans (multipart: file, floor_id, floor_level?, building_id?)
func (h *FloorPlanHandler) Import(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fh, data, err := readUpload(c, "file")
	if err != nil {
		if errors.Is(err, errUploadTooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.BadRequest(c, 15000, "请通过 file 字段上传 SVG 文件")
		return
	}

	var req dto.FloorPlanImportRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 15000, "参数校验失败")
		return
	}

	result, err := h.floorPlanSvc.Import(c.Request.Context(), &req, fh.Filename, bytes.NewReader(data), userID)
	if err != nil {
		h.handleFloorPlanError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *FloorPlanHandler) handleFloorPlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFloorNotFound):
		response.NotFound(c, 14001, err.Error())
	case errors.Is(err, service.ErrFloorPlanInvalid):
		response.BadRequest(c, 15001, err.Error())
	case errors.Is(err, service.ErrFloorLevel):
		response.BadRequest(c, 15002, err.Error())
	default:
		response.InternalError(c)
	}
}
