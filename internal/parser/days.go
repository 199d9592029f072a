package parser

import (
	"regexp"
	"strings"
)

// 规范星期名称
const (
	Monday    = "Monday"
	Tuesday   = "Tuesday"
	Wednesday = "Wednesday"
	Thursday  = "Thursday"
	Friday    = "Friday"
	Saturday  = "Saturday"
	Sunday    = "Sunday"
)

// Weekdays 周一在前的规范顺序（导出排序与展示共用）
var Weekdays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// DayIndex Monday=0 … Sunday=6，未知名称返回 7（排在最后）
func DayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return len(Weekdays)
}

// IsWeekday 是否为规范星期名称
func IsWeekday(day string) bool {
	return DayIndex(day) < len(Weekdays)
}

// ── 星期代码解析 ────────────────────────────────────────────
//
// 组合代码在原始大写串上匹配（保留 "-"、"/" 以区分 T-TH 与 M W F），
// 星期名与单字母在去掉非字母的工作副本上匹配，命中后从副本中删除。
// 输出按规则触发顺序排列并去重：组合代码（最长优先）→ 星期名
// （SUN 到 SAT 依次检查，TH 与 F 归入此阶段）→ 剩余单字母按出现顺序。
// 因此 "MF" 得到 [Friday Monday]，"W/TH" 得到 [Thursday Wednesday]。
// ─────────────────────────────────────────────────────────────

// DayRule 一条星期代码规则；Tokens 按长度降序，任一命中即触发
type DayRule struct {
	Tokens []string
	Days   []string
}

// DayComboRules 组合代码，按长度降序
var DayComboRules = []DayRule{
	{[]string{"T-TH"}, []string{Tuesday, Thursday}},
	{[]string{"T/TH"}, []string{Tuesday, Thursday}},
	{[]string{"MWF"}, []string{Monday, Wednesday, Friday}},
	{[]string{"TTH"}, []string{Tuesday, Thursday}},
	{[]string{"MTH"}, []string{Monday, Thursday}},
	{[]string{"MW"}, []string{Monday, Wednesday}},
	{[]string{"TR"}, []string{Tuesday, Thursday}},
	{[]string{"TF"}, []string{Tuesday, Friday}},
}

// DayNameRules 星期名，检查顺序即输出顺序
var DayNameRules = []DayRule{
	{[]string{"SUNDAY", "SUN"}, []string{Sunday}},
	{[]string{"MONDAY", "MON"}, []string{Monday}},
	{[]string{"TUESDAY", "TUES", "TUE"}, []string{Tuesday}},
	{[]string{"WEDNESDAY", "WED"}, []string{Wednesday}},
	{[]string{"THURSDAY", "THURS", "THU", "TH"}, []string{Thursday}},
	{[]string{"FRIDAY", "FRI", "F"}, []string{Friday}},
	{[]string{"SATURDAY", "SAT"}, []string{Saturday}},
}

// dayLetters 单字母映射；S 视为 Saturday
var dayLetters = map[rune]string{
	'M': Monday,
	'T': Tuesday,
	'W': Wednesday,
	'F': Friday,
	'S': Saturday,
}

var (
	dayDelimiters = regexp.MustCompile(`[/\n,;]+`)
	nonLetters    = regexp.MustCompile(`[^A-Z]`)
	dayTokenSplit = regexp.MustCompile(`[/\n.]+`)
)

// daySet 保持首次出现顺序的去重列表
type daySet struct {
	seen map[string]bool
	days []string
}

func newDaySet() *daySet {
	return &daySet{seen: make(map[string]bool, len(Weekdays)), days: []string{}}
}

func (s *daySet) add(days ...string) {
	for _, d := range days {
		if !s.seen[d] {
			s.seen[d] = true
			s.days = append(s.days, d)
		}
	}
}

// ParseDays 把星期代码展开为规范星期名称列表；无法识别时返回空切片
func ParseDays(raw string) []string {
	upper := strings.ToUpper(raw)
	if strings.TrimSpace(upper) == "" {
		return []string{}
	}

	set := newDaySet()
	letters := nonLetters.ReplaceAllString(upper, "")

	for _, rule := range DayComboRules {
		token := rule.Tokens[0]
		if strings.Contains(upper, token) {
			set.add(rule.Days...)
			letters = strings.ReplaceAll(letters, nonLetters.ReplaceAllString(token, ""), "")
		}
	}

	for _, rule := range DayNameRules {
		fired := false
		for _, token := range rule.Tokens {
			if strings.Contains(letters, token) {
				fired = true
				letters = strings.ReplaceAll(letters, token, "")
			}
		}
		if fired {
			set.add(rule.Days...)
		}
	}

	for _, ch := range letters {
		if day, ok := dayLetters[ch]; ok {
			set.add(day)
		}
	}

	if len(set.days) == 0 {
		parseDayTokens(upper, set)
	}
	return set.days
}

// SplitDayTokens 按 "/"、换行、"." 粗切星期单元格，不做解析
func SplitDayTokens(cell string) []string {
	var tokens []string
	for _, t := range dayTokenSplit.Split(cell, -1) {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 && strings.TrimSpace(cell) != "" {
		tokens = []string{cell}
	}
	return tokens
}

// parseDayTokens 兜底：按分隔符切分后逐个记号匹配，TH 先于单字母
func parseDayTokens(upper string, set *daySet) {
	for _, token := range dayDelimiters.Split(upper, -1) {
		letters := nonLetters.ReplaceAllString(token, "")
		if letters == "" {
			continue
		}
		if strings.Contains(letters, "TH") {
			set.add(Thursday)
			letters = strings.ReplaceAll(letters, "TH", "")
		}
		for _, ch := range letters {
			if day, ok := dayLetters[ch]; ok {
				set.add(day)
			}
		}
	}
}
