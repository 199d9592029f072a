package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock 一天中的时刻，单位为自 00:00 起的分钟数
type Clock int

// NewClock 由时、分构造 Clock，越界返回 false
func NewClock(hour, minute int) (Clock, bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, false
	}
	return Clock(hour*60 + minute), true
}

// ParseClock 解析 "HH:MM"（24 小时制）
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(m) != 2 || len(h) == 0 || len(h) > 2 {
		return 0, fmt.Errorf("时间格式无效: %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("时间格式无效: %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("时间格式无效: %q", s)
	}
	c, ok := NewClock(hour, minute)
	if !ok {
		return 0, fmt.Errorf("时间超出范围: %q", s)
	}
	return c, nil
}

// MustClock 测试与常量构造用，解析失败直接 panic
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hour 小时（0-23）
func (c Clock) Hour() int { return int(c) / 60 }

// Minute 分钟（0-59）
func (c Clock) Minute() int { return int(c) % 60 }

// String 24 小时制 "15:04"
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Format12 12 小时制 "03:04 PM"
func (c Clock) Format12() string {
	h := c.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h12, c.Minute(), suffix)
}

// TimeRange 一个上课时间段 [Start, End)
type TimeRange struct {
	Start Clock
	End   Clock
}

// Valid 结束时间晚于开始时间
func (r TimeRange) Valid() bool { return r.End > r.Start }

// Overlaps 半开区间重叠判断，首尾相接不算重叠
func (r TimeRange) Overlaps(o TimeRange) bool {
	return o.Start < r.End && o.End > r.Start
}

// String "09:00-10:30"
func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}
