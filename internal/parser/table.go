package parser

import (
	"strings"
)

// ── 表头识别与行对齐 ────────────────────────────────────────

// Field 课表的语义列
type Field string

const (
	FieldCourseCode Field = "course_code"
	FieldSubject    Field = "subject"
	FieldTime       Field = "time"
	FieldDays       Field = "days"
	FieldRoom       Field = "room"
)

// MatchedBy 列定位命中的策略
type MatchedBy string

const (
	MatchedExact       MatchedBy = "exact"
	MatchedSubstring   MatchedBy = "substring"
	MatchedWordOverlap MatchedBy = "word_overlap"
	MatchedDefault     MatchedBy = "default"
)

// HeaderMatcher 单个语义列的分级匹配器：精确 → 包含 → 词重叠 → 默认列
type HeaderMatcher struct {
	Field        Field
	Keys         []string
	DefaultIndex int
}

// ColumnMatch 一次列定位的结果
type ColumnMatch struct {
	Index     int       `json:"index"`
	MatchedBy MatchedBy `json:"matched_by"`
	Header    string    `json:"header,omitempty"`
}

// ColumnMap 五个语义列的定位结果
type ColumnMap map[Field]ColumnMatch

// DefaultMatchers 课表五列的匹配器
var DefaultMatchers = []HeaderMatcher{
	{FieldCourseCode, []string{"COURSE CODE", "COURSE NO", "SUBJ CODE", "SUBJECT CODE"}, 0},
	{FieldSubject, []string{"DESCRIPTION", "TITLE", "SUBJECT", "COURSE TITLE"}, 1},
	{FieldTime, []string{"TIME", "SCHEDULE"}, 2},
	{FieldDays, []string{"DAYS", "DAY"}, 3},
	{FieldRoom, []string{"ROOM", "RM", "ROOM NO", "VENUE"}, 4},
}

// headerKeywords 判定表头行的关键词
var headerKeywords = []string{"COURSE", "SUBJECT", "TIME", "ROOM"}

// Match 在整行表头上逐级匹配，先跑完一个策略再降级到下一个
func (m HeaderMatcher) Match(headers []string) ColumnMatch {
	return m.MatchExcluding(headers, nil)
}

// MatchExcluding 同 Match，但跳过已被其他语义列占用的列，默认列同样不取已占用的列
func (m HeaderMatcher) MatchExcluding(headers []string, taken map[int]bool) ColumnMatch {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		if taken[i] {
			continue
		}
		normalized[i] = strings.ToUpper(strings.TrimSpace(h))
	}

	for i, h := range normalized {
		if h == "" {
			continue
		}
		for _, key := range m.Keys {
			if h == key {
				return ColumnMatch{Index: i, MatchedBy: MatchedExact, Header: h}
			}
		}
	}
	for i, h := range normalized {
		if h == "" {
			continue
		}
		for _, key := range m.Keys {
			if strings.Contains(h, key) {
				return ColumnMatch{Index: i, MatchedBy: MatchedSubstring, Header: h}
			}
		}
	}
	for i, h := range normalized {
		if h == "" {
			continue
		}
		words := make(map[string]bool)
		for _, w := range strings.Fields(h) {
			words[w] = true
		}
		for _, key := range m.Keys {
			for _, kw := range strings.Fields(key) {
				if words[kw] {
					return ColumnMatch{Index: i, MatchedBy: MatchedWordOverlap, Header: h}
				}
			}
		}
	}
	// 默认列已被占用时顺延到下一个空闲列
	idx := m.DefaultIndex
	for taken[idx] {
		idx++
	}
	return ColumnMatch{Index: idx, MatchedBy: MatchedDefault}
}

// ParsedRow 一行课表在语义列上的原始文本
type ParsedRow struct {
	Page       int    `json:"page"`
	Line       int    `json:"line"`
	CourseCode string `json:"course_code"`
	Subject    string `json:"subject"`
	TimeCell   string `json:"time_cell"`
	DayCell    string `json:"day_cell"`
	RoomCell   string `json:"room_cell"`
}

// RowSkip 被跳过的行或时间段
type RowSkip struct {
	Page   int        `json:"page"`
	Line   int        `json:"line"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// Alignment 一张表的对齐结果
type Alignment struct {
	HeaderLine int
	Columns    ColumnMap
	Rows       []ParsedRow
	Skipped    []RowSkip
}

const rowPadding = 8

// FindHeaderRow 返回首个包含表头关键词的行号，找不到时为 0
func FindHeaderRow(table [][]string) int {
	for i, row := range table {
		text := strings.ToUpper(strings.Join(row, " "))
		for _, kw := range headerKeywords {
			if strings.Contains(text, kw) {
				return i
			}
		}
	}
	return 0
}

// AlignTable 定位表头并把数据行映射到五个语义列；缺课程代码或科目的行跳过
func AlignTable(page int, table [][]string) Alignment {
	out := Alignment{Columns: ColumnMap{}}
	if len(table) < 2 {
		return out
	}

	headerIdx := FindHeaderRow(table)
	out.HeaderLine = headerIdx
	header := table[headerIdx]
	taken := make(map[int]bool)
	for _, m := range DefaultMatchers {
		match := m.MatchExcluding(header, taken)
		if match.MatchedBy != MatchedDefault {
			taken[match.Index] = true
		}
		out.Columns[m.Field] = match
	}

	for i := headerIdx + 1; i < len(table); i++ {
		row := padRow(table[i], out.Columns)
		pr := ParsedRow{
			Page:       page,
			Line:       i,
			CourseCode: row[out.Columns[FieldCourseCode].Index],
			Subject:    row[out.Columns[FieldSubject].Index],
			TimeCell:   row[out.Columns[FieldTime].Index],
			DayCell:    row[out.Columns[FieldDays].Index],
			RoomCell:   row[out.Columns[FieldRoom].Index],
		}
		if pr.CourseCode == "" || pr.Subject == "" {
			out.Skipped = append(out.Skipped, RowSkip{Page: page, Line: i, Reason: SkipMissingFields})
			continue
		}
		out.Rows = append(out.Rows, pr)
	}
	return out
}

func padRow(row []string, cols ColumnMap) []string {
	width := len(row) + rowPadding
	for _, c := range cols {
		if c.Index+1 > width {
			width = c.Index + 1
		}
	}
	out := make([]string, width)
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}
