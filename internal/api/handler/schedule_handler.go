package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"umap/backend/internal/dto"
	"umap/backend/internal/service"
	"umap/backend/pkg/response"
)

// ScheduleHandler 课表模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// Upload 上传课表文件并替换当前课表
// POST /api/v1/schedules/upload (multipart, 字段 file)
func (h *ScheduleHandler) Upload(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fh, data, err := readUpload(c, "file")
	if err != nil {
		if errors.Is(err, errUploadTooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, 13007, service.ErrFileTooLarge.Error())
			return
		}
		response.BadRequest(c, 13001, "请通过 file 字段上传课表文件")
		return
	}

	result, err := h.scheduleSvc.Import(c.Request.Context(), userID, fh.Filename, data)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OKWithMessage(c, result.Message, result)
}

// List 获取我的课表（周一至周日、按开始时间排序）
// GET /api/v1/schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.scheduleSvc.List(c.Request.Context(), userID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Create 手动添加课表条目
// POST /api/v1/schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	entry, err := h.scheduleSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, entry)
}

// Update 修改课表条目
// PUT /api/v1/schedules/:id
func (h *ScheduleHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "课表条目ID不能为空")
		return
	}

	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	entry, err := h.scheduleSvc.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, entry)
}

// Delete 删除单条课表
// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// DeleteAll 清空我的课表
// DELETE /api/v1/schedules
func (h *ScheduleHandler) DeleteAll(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.DeleteAll(c.Request.Context(), userID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.ErrorWithDetails(c, http.StatusBadRequest, 13001, "参数校验失败", err.Error())
	case errors.Is(err, service.ErrScheduleInvalidRange):
		response.BadRequest(c, 13002, err.Error())
	case errors.Is(err, service.ErrScheduleOverlap):
		response.Conflict(c, 13003, err.Error())
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 13004, err.Error())
	case errors.Is(err, service.ErrUnsupportedFileType):
		response.BadRequest(c, 13005, err.Error())
	case errors.Is(err, service.ErrEmptyFile):
		response.BadRequest(c, 13006, err.Error())
	case errors.Is(err, service.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 13007, err.Error())
	case errors.Is(err, service.ErrScheduleParseTimeout):
		response.Error(c, http.StatusRequestTimeout, 13008, err.Error())
	default:
		response.InternalError(c)
	}
}
