package parser

import "testing"

func row(timeCell, dayCell, roomCell string) ParsedRow {
	return ParsedRow{
		Page:       1,
		Line:       3,
		CourseCode: "CS101",
		Subject:    "Intro to Computing",
		TimeCell:   timeCell,
		DayCell:    dayCell,
		RoomCell:   roomCell,
	}
}

type pair struct {
	day   string
	start string
	end   string
}

func assertCandidates(t *testing.T, got []Candidate, want []pair) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("期望 %d 条候选，实际 %d 条: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		c := got[i]
		if c.Day != w.day || c.Range.Start.String() != w.start || c.Range.End.String() != w.end {
			t.Errorf("第 %d 条期望 %s %s-%s，实际 %s %s", i, w.day, w.start, w.end, c.Day, c.Range)
		}
	}
}

// 两个时间段 + "MTH" 按位置配对，不做 2×2 笛卡尔积
func TestExpandRow_PositionalPairing(t *testing.T) {
	exp := ExpandRow(row("9:00 AM - 10:30 AM.1:00 PM - 2:30 PM", "MTH", "HPSB 1009"))
	assertCandidates(t, exp.Candidates, []pair{
		{Monday, "09:00", "10:30"},
		{Thursday, "13:00", "14:30"},
	})
	if len(exp.Skipped) != 0 {
		t.Errorf("不应有跳过记录: %+v", exp.Skipped)
	}
}

// "MF" 解析为 [Friday Monday]，配对沿用该顺序
func TestExpandRow_PairingFollowsResolverOrder(t *testing.T) {
	exp := ExpandRow(row("8:00-9:00.13:00-14:00", "MF", ""))
	assertCandidates(t, exp.Candidates, []pair{
		{Friday, "08:00", "09:00"},
		{Monday, "13:00", "14:00"},
	})
}

func TestExpandRow_ThreeRangesThreeDays(t *testing.T) {
	exp := ExpandRow(row("7:30-9:00.10:30-12:00.13:00-14:00", "MWF", ""))
	assertCandidates(t, exp.Candidates, []pair{
		{Monday, "07:30", "09:00"},
		{Wednesday, "10:30", "12:00"},
		{Friday, "13:00", "14:00"},
	})
}

// 单个记号只解析出一天时，只处理第一个时间段，其余丢弃
func TestExpandRow_ThreeRangesOneDay(t *testing.T) {
	exp := ExpandRow(row("7:30-9:00.10:30-12:00.13:00-14:00", "T", ""))
	assertCandidates(t, exp.Candidates, []pair{
		{Tuesday, "07:30", "09:00"},
	})
	if len(exp.Skipped) != 1 || exp.Skipped[0].Reason != SkipDayOverflow {
		t.Errorf("期望一条 %s 记录，实际 %+v", SkipDayOverflow, exp.Skipped)
	}
}

func TestExpandRow_OneRangeFansOut(t *testing.T) {
	exp := ExpandRow(row("0800-0930", "MWF", ""))
	assertCandidates(t, exp.Candidates, []pair{
		{Monday, "08:00", "09:30"},
		{Wednesday, "08:00", "09:30"},
		{Friday, "08:00", "09:30"},
	})
}

func TestExpandRow_TokensPerRange(t *testing.T) {
	exp := ExpandRow(row("8:00-9:00.10:00-11:00", "M/W", ""))
	assertCandidates(t, exp.Candidates, []pair{
		{Monday, "08:00", "09:00"},
		{Wednesday, "10:00", "11:00"},
	})
}

func TestExpandRow_UnknownTokenDefaultsToMonday(t *testing.T) {
	exp := ExpandRow(row("8:00-9:00", "XYZ", ""))
	assertCandidates(t, exp.Candidates, []pair{{Monday, "08:00", "09:00"}})
}

func TestExpandRow_Skips(t *testing.T) {
	tests := []struct {
		name   string
		r      ParsedRow
		reason SkipReason
	}{
		{"无时间", row("TBA", "MW", ""), SkipNoTime},
		{"无星期", row("8:00-9:00", "  ", ""), SkipNoDays},
		{"结束不晚于开始", row("11:30-1:30", "M", ""), SkipInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := ExpandRow(tt.r)
			if len(exp.Candidates) != 0 {
				t.Errorf("不应产出候选: %+v", exp.Candidates)
			}
			if len(exp.Skipped) != 1 || exp.Skipped[0].Reason != tt.reason {
				t.Errorf("期望 %s，实际 %+v", tt.reason, exp.Skipped)
			}
		})
	}
}

func TestExpandRow_RoomNormalized(t *testing.T) {
	exp := ExpandRow(row("8:00-9:00", "M", "HPSB - 1009/ VR-MON"))
	if len(exp.Candidates) != 1 || exp.Candidates[0].RoomText != "HPSB 1009" {
		t.Errorf("房间文本期望 HPSB 1009，实际 %+v", exp.Candidates)
	}

	exp = ExpandRow(row("8:00-9:00", "M", ""))
	if exp.Candidates[0].RoomText != UnassignedRoom {
		t.Errorf("空房间期望 %s，实际 %s", UnassignedRoom, exp.Candidates[0].RoomText)
	}
}
