package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"umap/backend/config"
	"umap/backend/internal/document"
	"umap/backend/internal/dto"
	"umap/backend/internal/model"
	"umap/backend/internal/parser"
	"umap/backend/internal/repository"
	pkgerrors "umap/backend/pkg/errors"
)

// ── 课表模块业务错误 ──

var (
	ErrScheduleNotFound     = errors.New("课表条目不存在")
	ErrScheduleOverlap      = errors.New("该时间段已有课程")
	ErrScheduleInvalidRange = errors.New("结束时间必须晚于开始时间")
	ErrUnsupportedFileType  = errors.New("不支持的文件格式，仅支持 PDF、XLSX、XLS")
	ErrFileTooLarge         = errors.New("文件超过大小限制")
	ErrEmptyFile            = errors.New("文件为空")
	ErrScheduleParseTimeout = errors.New("课表文件解析超时")
)

// 导入结果摘要
const (
	importSummaryFormat = "Imported %d schedules"
	importSummaryNone   = "No valid schedules imported"
)

// DocumentSource 课表文档表格提取
type DocumentSource interface {
	Supports(ext string) bool
	Extract(ctx context.Context, ext string, data []byte) ([]document.Page, error)
}

// ScheduleService 课表业务接口
type ScheduleService interface {
	// Import 用上传文件替换用户的全部课表
	Import(ctx context.Context, userID, filename string, data []byte) (*dto.ImportResponse, error)
	List(ctx context.Context, userID string) ([]dto.ScheduleResponse, error)
	Create(ctx context.Context, userID string, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error)
	Update(ctx context.Context, userID, id string, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) (*dto.DeleteAllResponse, error)
}

type scheduleService struct {
	cfg      *config.IngestConfig
	repo     *repository.Repository
	rooms    RoomService
	docs     DocumentSource
	validate *inputValidator
	logger   *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(
	cfg *config.IngestConfig,
	repo *repository.Repository,
	rooms RoomService,
	docs DocumentSource,
	logger *zap.Logger,
) ScheduleService {
	return &scheduleService{
		cfg:      cfg,
		repo:     repo,
		rooms:    rooms,
		docs:     docs,
		validate: newInputValidator(),
		logger:   logger,
	}
}

// ═══════════════════════════════════════════════════════════
// Import 上传课表文件
// ═══════════════════════════════════════════════════════════
//
// 流程：
//  1. 校验扩展名与大小
//  2. 清空该用户已有课表（替换而非合并）
//  3. 在超时限制内提取表格
//  4. 逐表对齐列 → 逐行展开 → 逐条检查重叠、解析房间、分配颜色、落库
//
// 提取失败或没有表格不算请求失败，返回 0 条与摘要信息；超时返回 ErrScheduleParseTimeout。

func (s *scheduleService) Import(ctx context.Context, userID, filename string, data []byte) (*dto.ImportResponse, error) {
	ext, err := s.checkUpload(filename, data)
	if err != nil {
		return nil, err
	}

	replaced, err := s.repo.Schedule.DeleteByUser(ctx, userID)
	if err != nil {
		s.logger.Error("清空旧课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := &dto.ImportResponse{
		Message:  importSummaryNone,
		Replaced: replaced,
		Rows:     []dto.RowResult{},
		Skipped:  map[string]int{},
	}

	parseCtx := ctx
	if s.cfg.ParseTimeout > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, s.cfg.ParseTimeout)
		defer cancel()
	}

	pages, err := s.docs.Extract(parseCtx, ext, data)
	if err != nil {
		if errors.Is(err, document.ErrExtractTimeout) {
			s.logger.Warn("课表解析超时", zap.String("user_id", userID), zap.String("file", filename))
			return nil, ErrScheduleParseTimeout
		}
		s.logger.Warn("课表文件提取失败", zap.String("user_id", userID), zap.String("file", filename), zap.Error(err))
		return result, nil
	}

	result.Pages = len(pages)
	result.Tables = document.TableCount(pages)
	if result.Tables == 0 {
		s.logger.Info("课表文件中未找到表格", zap.String("user_id", userID), zap.String("file", filename))
		return result, nil
	}

	run := &importRun{
		svc:    s,
		userID: userID,
		result: result,
		days:   make(map[string][]parser.TimeRange),
		rooms:  make(map[string]*model.Room),
	}
	for _, page := range pages {
		for _, table := range page.Tables {
			run.table(ctx, page.Number, table)
		}
	}

	if result.Imported > 0 {
		result.Message = fmt.Sprintf(importSummaryFormat, result.Imported)
	}
	s.logger.Info("课表导入完成",
		zap.String("user_id", userID),
		zap.String("file", filename),
		zap.Int("imported", result.Imported),
		zap.Int64("replaced", replaced),
		zap.Any("skipped", result.Skipped),
	)
	return result, nil
}

func (s *scheduleService) checkUpload(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.allowedExt(ext) || !s.docs.Supports(ext) {
		return "", ErrUnsupportedFileType
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if limit := s.cfg.MaxUploadBytes(); limit > 0 && int64(len(data)) > limit {
		return "", ErrFileTooLarge
	}
	return ext, nil
}

func (s *scheduleService) allowedExt(ext string) bool {
	if len(s.cfg.AllowedExts) == 0 {
		return true
	}
	for _, e := range s.cfg.AllowedExts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// importRun 一次导入的状态：按天缓存已占用时间段，按房间文本缓存解析结果
type importRun struct {
	svc    *scheduleService
	userID string
	result *dto.ImportResponse
	days   map[string][]parser.TimeRange
	rooms  map[string]*model.Room
}

func (r *importRun) table(ctx context.Context, page int, table document.Table) {
	aligned := parser.AlignTable(page, table)
	if len(aligned.Rows) > 0 {
		r.svc.logger.Debug("表格列对齐",
			zap.Int("page", page),
			zap.Int("header_line", aligned.HeaderLine),
			zap.Any("columns", aligned.Columns),
		)
	}
	for _, skip := range aligned.Skipped {
		r.skip(skip, "")
	}

	for _, row := range aligned.Rows {
		expansion := parser.ExpandRow(row)
		for _, skip := range expansion.Skipped {
			r.skip(skip, row.CourseCode)
		}
		for _, c := range expansion.Candidates {
			r.candidate(ctx, c)
		}
	}
}

func (r *importRun) candidate(ctx context.Context, c parser.Candidate) {
	row := c.Row
	fail := func(reason parser.SkipReason, detail string) {
		r.skip(parser.RowSkip{Page: row.Page, Line: row.Line, Reason: reason, Detail: detail}, row.CourseCode)
	}

	busy, err := r.dayRanges(ctx, c.Day)
	if err != nil {
		fail(parser.SkipPersistFailed, err.Error())
		return
	}
	for _, existing := range busy {
		if existing.Overlaps(c.Range) {
			fail(parser.SkipOverlap, fmt.Sprintf("%s %s 与 %s 重叠", c.Day, c.Range, existing))
			return
		}
	}

	room, err := r.room(ctx, c.RoomText)
	if err != nil {
		fail(parser.SkipPersistFailed, err.Error())
		return
	}

	entry := &model.ScheduleEntry{
		UserID:     r.userID,
		RoomID:     room.RoomID,
		CourseCode: row.CourseCode,
		Subject:    row.Subject,
		Day:        c.Day,
		StartTime:  c.Range.Start.String(),
		EndTime:    c.Range.End.String(),
		Color:      Palette[r.result.Imported%len(Palette)],
		RoomText:   c.RoomText,
		Source:     model.ScheduleSourceUpload,
	}
	entry.CreatedBy = &r.userID
	entry.UpdatedBy = &r.userID

	if err := r.svc.repo.Schedule.Create(ctx, entry); err != nil {
		r.svc.logger.Warn("课表条目写入失败",
			zap.String("course_code", row.CourseCode),
			zap.String("day", c.Day),
			zap.Error(err),
		)
		fail(parser.SkipPersistFailed, err.Error())
		return
	}
	entry.Room = room

	r.days[c.Day] = append(r.days[c.Day], c.Range)
	r.result.Imported++
	resp := toScheduleResponse(entry)
	r.result.Rows = append(r.result.Rows, dto.RowResult{
		Page:       row.Page,
		Line:       row.Line,
		CourseCode: row.CourseCode,
		Entry:      &resp,
	})
}

func (r *importRun) skip(skip parser.RowSkip, courseCode string) {
	r.svc.logger.Debug("跳过课表行",
		zap.Int("page", skip.Page),
		zap.Int("line", skip.Line),
		zap.String("reason", string(skip.Reason)),
		zap.String("detail", skip.Detail),
	)
	r.result.Skipped[string(skip.Reason)]++
	r.result.Rows = append(r.result.Rows, dto.RowResult{
		Page:       skip.Page,
		Line:       skip.Line,
		CourseCode: courseCode,
		Reason:     string(skip.Reason),
		Detail:     skip.Detail,
	})
}

func (r *importRun) dayRanges(ctx context.Context, day string) ([]parser.TimeRange, error) {
	if ranges, ok := r.days[day]; ok {
		return ranges, nil
	}
	entries, err := r.svc.repo.Schedule.ListByUserDay(ctx, r.userID, day)
	if err != nil {
		return nil, err
	}
	ranges := make([]parser.TimeRange, 0, len(entries))
	for i := range entries {
		if tr, ok := entryRange(&entries[i]); ok {
			ranges = append(ranges, tr)
		}
	}
	r.days[day] = ranges
	return ranges, nil
}

func (r *importRun) room(ctx context.Context, text string) (*model.Room, error) {
	if room, ok := r.rooms[text]; ok {
		return room, nil
	}
	room, err := r.svc.rooms.ResolveRoom(ctx, text)
	if err != nil {
		return nil, err
	}
	r.rooms[text] = room
	return room, nil
}

// ═══════════════════════════════════════════════════════════
// List / Create / Update / Delete
// ═══════════════════════════════════════════════════════════

// List 按周一至周日、开始时间排序；缺失或非法颜色按轮换顺序补齐并回写
func (s *scheduleService) List(ctx context.Context, userID string) ([]dto.ScheduleResponse, error) {
	entries, err := s.repo.Schedule.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	SortEntries(entries)

	next := 0
	for i := range entries {
		if IsPaletteColor(entries[i].Color) {
			continue
		}
		color := Palette[next%len(Palette)]
		next++
		if err := s.repo.Schedule.UpdateColor(ctx, entries[i].ScheduleEntryID, color); err != nil {
			s.logger.Warn("回写课表颜色失败", zap.String("id", entries[i].ScheduleEntryID), zap.Error(err))
		}
		entries[i].Color = color
	}

	result := make([]dto.ScheduleResponse, 0, len(entries))
	for i := range entries {
		result = append(result, toScheduleResponse(&entries[i]))
	}
	return result, nil
}

func (s *scheduleService) Create(ctx context.Context, userID string, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	tr := parser.TimeRange{Start: parser.MustClock(req.Start), End: parser.MustClock(req.End)}
	if !tr.Valid() {
		return nil, ErrScheduleInvalidRange
	}
	if err := s.checkOverlap(ctx, userID, req.Day, tr, ""); err != nil {
		return nil, err
	}

	roomText := strings.TrimSpace(req.Room)
	room, err := s.rooms.ResolveRoom(ctx, roomText)
	if err != nil {
		s.logger.Error("解析房间失败", zap.String("room", roomText), zap.Error(err))
		return nil, err
	}

	color := req.Color
	if color == "" {
		color = Palette[0]
	}
	entry := &model.ScheduleEntry{
		UserID:     userID,
		RoomID:     room.RoomID,
		CourseCode: strings.TrimSpace(req.CourseCode),
		Subject:    strings.TrimSpace(req.Subject),
		Day:        req.Day,
		StartTime:  tr.Start.String(),
		EndTime:    tr.End.String(),
		Color:      color,
		RoomText:   roomText,
		Source:     model.ScheduleSourceManual,
	}
	entry.CreatedBy = &userID
	entry.UpdatedBy = &userID

	if err := s.repo.Schedule.Create(ctx, entry); err != nil {
		s.logger.Error("创建课表条目失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	entry.Room = room

	resp := toScheduleResponse(entry)
	return &resp, nil
}

func (s *scheduleService) Update(ctx context.Context, userID, id string, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	entry, err := s.repo.Schedule.GetByID(ctx, userID, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询课表条目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	current, _ := entryRange(entry)
	tr, err := applyTimeChange(current, req)
	if err != nil {
		return nil, err
	}

	day := entry.Day
	if req.Day != nil {
		day = *req.Day
	}
	if err := s.checkOverlap(ctx, userID, day, tr, entry.ScheduleEntryID); err != nil {
		return nil, err
	}

	if req.CourseCode != nil {
		entry.CourseCode = strings.TrimSpace(*req.CourseCode)
	}
	if req.Subject != nil {
		entry.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Color != nil {
		entry.Color = *req.Color
	}
	if req.Room != nil {
		roomText := strings.TrimSpace(*req.Room)
		room, err := s.rooms.ResolveRoom(ctx, roomText)
		if err != nil {
			s.logger.Error("解析房间失败", zap.String("room", roomText), zap.Error(err))
			return nil, err
		}
		entry.RoomID = room.RoomID
		entry.Room = room
		entry.RoomText = roomText
	}
	entry.Day = day
	entry.StartTime = tr.Start.String()
	entry.EndTime = tr.End.String()
	entry.UpdatedBy = &userID

	if err := s.repo.Schedule.Update(ctx, entry); err != nil {
		s.logger.Error("更新课表条目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toScheduleResponse(entry)
	return &resp, nil
}

func (s *scheduleService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Schedule.Delete(ctx, userID, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrScheduleNotFound
		}
		s.logger.Error("删除课表条目失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *scheduleService) DeleteAll(ctx context.Context, userID string) (*dto.DeleteAllResponse, error) {
	n, err := s.repo.Schedule.DeleteByUser(ctx, userID)
	if err != nil {
		s.logger.Error("清空课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("已清空课表", zap.String("user_id", userID), zap.Int64("deleted", n))
	return &dto.DeleteAllResponse{Deleted: n}, nil
}

// ── 内部辅助方法 ──

// checkOverlap 同一用户同一天的半开区间不可重叠；excludeID 为正在修改的条目
func (s *scheduleService) checkOverlap(ctx context.Context, userID, day string, tr parser.TimeRange, excludeID string) error {
	entries, err := s.repo.Schedule.ListByUserDay(ctx, userID, day)
	if err != nil {
		s.logger.Error("查询当天课表失败", zap.String("user_id", userID), zap.String("day", day), zap.Error(err))
		return err
	}
	for i := range entries {
		if entries[i].ScheduleEntryID == excludeID {
			continue
		}
		if existing, ok := entryRange(&entries[i]); ok && existing.Overlaps(tr) {
			return ErrScheduleOverlap
		}
	}
	return nil
}

// applyTimeChange 计算修改后的时间段：
// 只改开始时间时保持原时长，DurationHours 以（新的）开始时间重算结束时间，End 显式给出时直接采用
func applyTimeChange(current parser.TimeRange, req *dto.UpdateScheduleRequest) (parser.TimeRange, error) {
	tr := current
	if req.Start != nil {
		start := parser.MustClock(*req.Start)
		tr = parser.TimeRange{Start: start, End: start + (current.End - current.Start)}
	}
	if req.DurationHours != nil {
		tr.End = tr.Start + parser.Clock(*req.DurationHours*60)
	}
	if req.End != nil {
		tr.End = parser.MustClock(*req.End)
	}
	if !tr.Valid() || tr.End >= parser.Clock(24*60) {
		return tr, ErrScheduleInvalidRange
	}
	return tr, nil
}

func entryRange(e *model.ScheduleEntry) (parser.TimeRange, bool) {
	start, err := parser.ParseClock(e.StartTime)
	if err != nil {
		return parser.TimeRange{}, false
	}
	end, err := parser.ParseClock(e.EndTime)
	if err != nil {
		return parser.TimeRange{}, false
	}
	return parser.TimeRange{Start: start, End: end}, true
}

// roomLabel 展示用房间文本：优先原始文本，其次房间号
func roomLabel(e *model.ScheduleEntry) string {
	if e.RoomText != "" {
		return e.RoomText
	}
	if e.Room != nil && e.Room.Profile != nil {
		return e.Room.Profile.Number
	}
	return model.PlaceholderRoomNumber
}

func toScheduleResponse(e *model.ScheduleEntry) dto.ScheduleResponse {
	resp := dto.ScheduleResponse{
		ID:          e.ScheduleEntryID,
		CourseCode:  e.CourseCode,
		SubjectName: e.Subject,
		Day:         e.Day,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Room:        roomLabel(e),
		RoomID:      e.RoomID,
		Color:       e.Color,
		Source:      e.Source,
	}
	if e.Room != nil && e.Room.Floor != nil {
		resp.Floor = e.Room.Floor.Name
	}
	return resp
}
