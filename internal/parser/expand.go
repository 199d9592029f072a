package parser

import "fmt"

// SkipReason 行或候选条目被跳过的原因
type SkipReason string

const (
	SkipMissingFields SkipReason = "missing_fields" // 缺课程代码或科目
	SkipNoTime        SkipReason = "no_time"        // 时间单元格无法解析
	SkipNoDays        SkipReason = "no_days"        // 星期单元格为空
	SkipDayOverflow   SkipReason = "day_overflow"   // 时间段多于星期记号，多出部分丢弃
	SkipInvalidRange  SkipReason = "invalid_range"  // 结束时间不晚于开始时间
	SkipOverlap       SkipReason = "overlap"        // 与已有课表时间重叠
	SkipPersistFailed SkipReason = "persist_failed" // 写库失败
)

// Candidate 待落库的一条课表
type Candidate struct {
	Row      ParsedRow
	Day      string
	Range    TimeRange
	RoomText string
}

// Expansion 一行展开后的候选条目与被丢弃的部分
type Expansion struct {
	Candidates []Candidate
	Skipped    []RowSkip
}

// ExpandRow 按对齐规则把一行展开为 (星期, 时间段) 候选：
//   - 时间段多于星期记号且只有一个记号时，完整解析该记号；
//     解析出的星期数与时间段数相等则按下标一一配对
//   - 否则逐个时间段取同下标的记号，记号用尽即停止，不循环复用
//   - 记号解析为空时回退为 Monday
func ExpandRow(row ParsedRow) Expansion {
	var out Expansion
	skip := func(reason SkipReason, detail string) {
		out.Skipped = append(out.Skipped, RowSkip{Page: row.Page, Line: row.Line, Reason: reason, Detail: detail})
	}

	ranges := ExtractTimeRangesLoose(row.TimeCell)
	if len(ranges) == 0 {
		skip(SkipNoTime, row.TimeCell)
		return out
	}

	tokens := SplitDayTokens(row.DayCell)
	if len(tokens) == 0 {
		skip(SkipNoDays, row.DayCell)
		return out
	}

	expanded := false
	if len(ranges) > 1 && len(tokens) == 1 {
		if days := ParseDays(tokens[0]); len(days) == len(ranges) {
			tokens = days
			expanded = true
		}
	}

	room := NormalizeRoom(row.RoomCell)
	for i, r := range ranges {
		if i >= len(tokens) {
			skip(SkipDayOverflow, fmt.Sprintf("丢弃 %d 个时间段", len(ranges)-i))
			break
		}

		days := []string{tokens[i]}
		if !expanded {
			days = ParseDays(tokens[i])
			if len(days) == 0 {
				days = []string{Monday}
			}
		}

		for _, day := range days {
			if !r.Valid() {
				skip(SkipInvalidRange, day+" "+r.String())
				continue
			}
			out.Candidates = append(out.Candidates, Candidate{Row: row, Day: day, Range: r, RoomText: room})
		}
	}
	return out
}
