package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	ics "github.com/arran4/golang-ical"
	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"umap/backend/config"
	"umap/backend/internal/dto"
	"umap/backend/internal/model"
	"umap/backend/internal/parser"
	"umap/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportEmpty        = errors.New("暂无可导出的课表")
	ErrExportFormat       = errors.New("不支持的导出格式")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 导出格式
const (
	ExportExcel = "excel"
	ExportPDF   = "pdf"
	ExportICal  = "ical"
)

const icsProductID = "-//Campus Navigator//Class Schedule//"

// ExportService 课表导出业务接口
//
// 三种格式共用 SortEntries 的顺序；文件内容以 dto.ExportFile 返回，
// 由 Handler 层设置附件响应头后写出。
type ExportService interface {
	Export(ctx context.Context, userID, format string) (*dto.ExportFile, error)
}

type exportService struct {
	cfg    *config.ExportConfig
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.ExportConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

// NormalizeExportFormat 接受 excel/xlsx、pdf、ical/ics，返回规范格式名
func NormalizeExportFormat(format string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "excel", "xlsx":
		return ExportExcel, true
	case "pdf":
		return ExportPDF, true
	case "ical", "ics":
		return ExportICal, true
	}
	return "", false
}

// SortEntries 周一在前、周日在后，同一天按开始时间
func SortEntries(entries []model.ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := parser.DayIndex(entries[i].Day), parser.DayIndex(entries[j].Day)
		if di != dj {
			return di < dj
		}
		return entries[i].StartTime < entries[j].StartTime
	})
}

func (s *exportService) Export(ctx context.Context, userID, format string) (*dto.ExportFile, error) {
	kind, ok := NormalizeExportFormat(format)
	if !ok {
		return nil, ErrExportFormat
	}

	entries, err := s.repo.Schedule.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrExportEmpty
	}
	SortEntries(entries)

	var file *dto.ExportFile
	switch kind {
	case ExportExcel:
		file, err = s.excel(entries)
	case ExportPDF:
		file, err = s.pdf(entries, userID)
	default:
		file, err = s.ical(entries)
	}
	if err != nil {
		s.logger.Error("生成导出文件失败", zap.String("format", kind), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
	}

	file.Filename = fmt.Sprintf("schedule_%s%s", userID, file.Filename)
	s.logger.Info("课表已导出", zap.String("user_id", userID), zap.String("format", kind), zap.Int("entries", len(entries)))
	return file, nil
}

// ────────────────────── Excel ──────────────────────

var excelHeaders = []interface{}{"Day", "Course Code", "Subject Title", "Start Time", "End Time", "Room", "Color"}

func (s *exportService) excel(entries []model.ScheduleEntry) (*dto.ExportFile, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Class Schedule"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &excelHeaders); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(sheet, "A1", "G1", headerStyle)

	for i := range entries {
		e := &entries[i]
		tr, _ := entryRange(e)
		row := []interface{}{
			e.Day,
			e.CourseCode,
			e.Subject,
			tr.Start.Format12(),
			tr.End.Format12(),
			roomLabel(e),
			e.Color,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(sheet, "A", "G", 15)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return &dto.ExportFile{
		Filename:    ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}

// ────────────────────── PDF ──────────────────────

var pdfColumns = []struct {
	title string
	width float64
}{
	{"Day", 35},
	{"Course Code", 40},
	{"Subject", 95},
	{"Time", 55},
	{"Room", 45},
}

func (s *exportService) pdf(entries []model.ScheduleEntry, userID string) (*dto.ExportFile, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Class Schedule", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, tr("Class Schedule - "+userID), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 10, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	for i := range entries {
		e := &entries[i]
		r, _ := entryRange(e)
		cells := []string{
			e.Day,
			e.CourseCode,
			e.Subject,
			r.Start.Format12() + " - " + r.End.Format12(),
			roomLabel(e),
		}
		for j, col := range pdfColumns {
			pdf.CellFormat(col.width, 9, tr(fitCell(pdf, cells[j], col.width-2)), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &dto.ExportFile{
		Filename:    ".pdf",
		ContentType: "application/pdf",
		Data:        buf.Bytes(),
	}, nil
}

// fitCell 超出列宽时截断并加省略号
func fitCell(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// ────────────────────── iCal ──────────────────────

func (s *exportService) ical(entries []model.ScheduleEntry) (*dto.ExportFile, error) {
	loc := s.location()
	now := s.now().In(loc)
	monday := weekStart(now)

	weeks := s.cfg.Weeks
	if weeks <= 0 {
		weeks = 16
	}

	cal := ics.NewCalendar()
	cal.SetProductId(icsProductID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName("Class Schedule")
	cal.SetXWRTimezone(loc.String())

	for i := range entries {
		e := &entries[i]
		idx := parser.DayIndex(e.Day)
		r, ok := entryRange(e)
		if idx >= len(parser.Weekdays) || !ok {
			s.logger.Warn("跳过无法导出的课表条目", zap.String("id", e.ScheduleEntryID), zap.String("day", e.Day))
			continue
		}

		day := monday.AddDate(0, 0, idx)
		start := day.Add(time.Duration(r.Start) * time.Minute)
		end := day.Add(time.Duration(r.End) * time.Minute)
		room := roomLabel(e)

		ev := cal.AddEvent(e.ScheduleEntryID + "@umap")
		ev.SetDtStampTime(now)
		ev.SetSummary(e.CourseCode + " - " + e.Subject)
		ev.SetLocation(room)
		ev.SetDescription(fmt.Sprintf("Course: %s\nRoom: %s", e.Subject, room))
		ev.SetProperty(ics.ComponentPropertyDtStart, start.Format(icsLocalLayout), ics.WithTZID(loc.String()))
		ev.SetProperty(ics.ComponentPropertyDtEnd, end.Format(icsLocalLayout), ics.WithTZID(loc.String()))
		ev.AddRrule(fmt.Sprintf("FREQ=WEEKLY;COUNT=%d;BYDAY=%s", weeks, strings.ToUpper(e.Day[:2])))
	}

	return &dto.ExportFile{
		Filename:    ".ics",
		ContentType: "text/calendar; charset=utf-8",
		Data:        []byte(cal.Serialize()),
	}, nil
}

const icsLocalLayout = "20060102T150405"

func (s *exportService) location() *time.Location {
	name := s.cfg.Timezone
	if name == "" {
		name = "Asia/Manila"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		s.logger.Warn("加载时区失败，使用 UTC", zap.String("timezone", name), zap.Error(err))
		return time.UTC
	}
	return loc
}

// weekStart 本周一 00:00
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}
