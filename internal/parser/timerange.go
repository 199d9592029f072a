package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// ── 时间段提取 ──────────────────────────────────────────────
//
// 单元格内多个时间段以 "." + 数字 分隔（"11:30-1:30.10:30-1:30"）。
// 每个分段按 timeRules 顺序尝试，首个产出结果的规则生效；
// 全部分段都没有结果时，退化为取前两个时间记号按多种格式配对。
// ─────────────────────────────────────────────────────────────

const dash = `\s*[-–]\s*`

// timeRule 单条时间段匹配规则
type timeRule struct {
	Name  string
	re    *regexp.Regexp
	build func(text string, loc []int) (TimeRange, bool)
}

var (
	meridiemAfter = regexp.MustCompile(`^\s*[AP]\.?M`)
	hasDigit      = regexp.MustCompile(`\d`)
	timeToken     = regexp.MustCompile(`\d{4}|\d{1,2}(?::\d{2})?(?:\s*[AP]M)?`)
	multiSpace    = regexp.MustCompile(`\s+`)
	slashOrBreak  = regexp.MustCompile(`[/\n]+`)
)

// timeRules 时间段规则，按优先级排列
var timeRules = []timeRule{
	{
		Name: "twelve_hour",
		re:   regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*([AP]M)` + dash + `(\d{1,2})(?::(\d{2}))?\s*([AP]M)`),
		build: func(text string, loc []int) (TimeRange, bool) {
			g := groups(text, loc)
			start, ok1 := clock12(g[1], g[2], g[3])
			end, ok2 := clock12(g[4], g[5], g[6])
			return TimeRange{Start: start, End: end}, ok1 && ok2
		},
	},
	{
		Name: "compact_24h",
		re:   regexp.MustCompile(`(\d{2})(\d{2})` + dash + `(\d{2})(\d{2})`),
		build: func(text string, loc []int) (TimeRange, bool) {
			g := groups(text, loc)
			start, ok1 := clock24(g[1], g[2])
			end, ok2 := clock24(g[3], g[4])
			return TimeRange{Start: start, End: end}, ok1 && ok2
		},
	},
	{
		// 24 小时制读取；后随 AM/PM 时让给 mixed 规则
		Name: "colon",
		re:   regexp.MustCompile(`(\d{1,2}):(\d{2})` + dash + `(\d{1,2}):(\d{2})`),
		build: func(text string, loc []int) (TimeRange, bool) {
			if meridiemAfter.MatchString(text[loc[1]:]) {
				return TimeRange{}, false
			}
			g := groups(text, loc)
			start, ok1 := clock24(g[1], g[2])
			end, ok2 := clock24(g[3], g[4])
			return TimeRange{Start: start, End: end}, ok1 && ok2
		},
	},
	{
		Name: "mixed",
		re:   regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?` + dash + `(\d{1,2})(?::(\d{2}))?\s*([AP]M)`),
		build: func(text string, loc []int) (TimeRange, bool) {
			g := groups(text, loc)
			start, ok1 := clock12(g[1], g[2], g[5])
			end, ok2 := clock12(g[3], g[4], g[5])
			return TimeRange{Start: start, End: end}, ok1 && ok2
		},
	},
	{
		Name: "bare_hour",
		re:   regexp.MustCompile(`(\d{1,2})` + dash + `(\d{1,2})\s*([AP]M)`),
		build: func(text string, loc []int) (TimeRange, bool) {
			g := groups(text, loc)
			start, ok1 := clock12(g[1], "", g[3])
			end, ok2 := clock12(g[2], "", g[3])
			return TimeRange{Start: start, End: end}, ok1 && ok2
		},
	},
}

// ExtractTimeRanges 从单元格文本中提取全部时间段，无法解析时返回空切片
func ExtractTimeRanges(text string) []TimeRange {
	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return nil
	}

	var ranges []TimeRange
	for _, segment := range SplitTimeSegments(text) {
		ranges = append(ranges, matchSegment(segment)...)
	}

	if len(ranges) == 0 && hasDigit.MatchString(text) {
		if r, ok := fallbackRange(text); ok {
			ranges = append(ranges, r)
		}
	}
	return ranges
}

// ExtractTimeRangesLoose 首次提取为空时，把 "/" 与换行替换为空格再试一次
func ExtractTimeRangesLoose(text string) []TimeRange {
	if ranges := ExtractTimeRanges(text); len(ranges) > 0 {
		return ranges
	}
	return ExtractTimeRanges(strings.Join(slashOrBreak.Split(text, -1), " "))
}

// SplitTimeSegments 在紧跟数字的 "." 处切分
func SplitTimeSegments(text string) []string {
	var segments []string
	var cur strings.Builder
	for i := 0; i < len(text); i++ {
		ch := text[i]
		cur.WriteByte(ch)
		if ch == '.' && i+1 < len(text) && isDigit(text[i+1]) {
			if s := strings.TrimSpace(strings.TrimRight(cur.String(), ".")); s != "" {
				segments = append(segments, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		segments = append(segments, s)
	}
	if len(segments) == 0 {
		segments = []string{text}
	}
	return segments
}

func matchSegment(segment string) []TimeRange {
	for _, rule := range timeRules {
		var out []TimeRange
		for _, loc := range rule.re.FindAllStringSubmatchIndex(segment, -1) {
			if r, ok := rule.build(segment, loc); ok {
				out = append(out, r)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// ── 兜底：前两个时间记号按格式配对 ──

// clockLayout 单个时间记号的一种解读方式
type clockLayout struct {
	name  string
	parse func(token string) (Clock, bool)
}

var (
	reHMSpaceMeridiem = regexp.MustCompile(`^(\d{1,2}):(\d{2}) ([AP]M)$`)
	reHMeridiem       = regexp.MustCompile(`^(\d{1,2})([AP]M)$`)
	reHMMeridiem      = regexp.MustCompile(`^(\d{1,2}):(\d{2})([AP]M)$`)
	reHM24            = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	reCompact24       = regexp.MustCompile(`^(\d{2})(\d{2})$`)
)

var (
	layout12Minutes = clockLayout{"03:04 PM", func(t string) (Clock, bool) {
		g := reHMSpaceMeridiem.FindStringSubmatch(t)
		if g == nil {
			return 0, false
		}
		return clock12(g[1], g[2], g[3])
	}}
	layout12Hour = clockLayout{"3PM", func(t string) (Clock, bool) {
		g := reHMeridiem.FindStringSubmatch(t)
		if g == nil {
			return 0, false
		}
		return clock12(g[1], "", g[2])
	}}
	layout12Compact = clockLayout{"3:04PM", func(t string) (Clock, bool) {
		g := reHMMeridiem.FindStringSubmatch(t)
		if g == nil {
			return 0, false
		}
		return clock12(g[1], g[2], g[3])
	}}
	layout24Colon = clockLayout{"15:04", func(t string) (Clock, bool) {
		g := reHM24.FindStringSubmatch(t)
		if g == nil {
			return 0, false
		}
		return clock24(g[1], g[2])
	}}
	layout24Compact = clockLayout{"1504", func(t string) (Clock, bool) {
		g := reCompact24.FindStringSubmatch(t)
		if g == nil {
			return 0, false
		}
		return clock24(g[1], g[2])
	}}
)

// fallbackLayouts 兜底解读顺序
var fallbackLayouts = []clockLayout{layout12Minutes, layout12Hour, layout12Compact, layout24Colon, layout24Compact}

var (
	layouts24 = []clockLayout{layout24Compact, layout24Colon}
	layouts12 = []clockLayout{layout12Minutes, layout12Compact, layout12Hour}
)

func fallbackRange(text string) (TimeRange, bool) {
	tokens := timeToken.FindAllString(text, -1)
	if len(tokens) < 2 {
		return TimeRange{}, false
	}
	first := multiSpace.ReplaceAllString(strings.TrimSpace(tokens[0]), " ")
	second := multiSpace.ReplaceAllString(strings.TrimSpace(tokens[1]), " ")

	for _, layout := range fallbackLayouts {
		start, ok1 := layout.parse(first)
		end, ok2 := layout.parse(second)
		if ok1 && ok2 && end > start {
			return TimeRange{Start: start, End: end}, true
		}
	}

	// 混合：24 小时制 → 12 小时制，其次 12 小时制 → 24 小时制
	if r, ok := pairLayouts(first, second, layouts24, layouts12); ok {
		return r, true
	}
	return pairLayouts(first, second, layouts12, layouts24)
}

func pairLayouts(first, second string, startLayouts, endLayouts []clockLayout) (TimeRange, bool) {
	for _, sl := range startLayouts {
		start, ok := sl.parse(first)
		if !ok {
			continue
		}
		for _, el := range endLayouts {
			if end, ok := el.parse(second); ok && end > start {
				return TimeRange{Start: start, End: end}, true
			}
		}
	}
	return TimeRange{}, false
}

// ── 辅助函数 ──

func groups(text string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

func clock24(h, m string) (Clock, bool) {
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, false
	}
	minute := 0
	if m != "" {
		if minute, err = strconv.Atoi(m); err != nil {
			return 0, false
		}
	}
	return NewClock(hour, minute)
}

func clock12(h, m, meridiem string) (Clock, bool) {
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}
	minute := 0
	if m != "" {
		if minute, err = strconv.Atoi(m); err != nil {
			return 0, false
		}
	}
	hour %= 12
	if strings.HasPrefix(meridiem, "P") {
		hour += 12
	}
	return NewClock(hour, minute)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
