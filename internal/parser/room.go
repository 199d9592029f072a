package parser

import (
	"regexp"
	"strings"
)

// UnassignedRoom 无法确定房间时的哨兵值
const UnassignedRoom = "TBA"

var (
	virtualKeyword = regexp.MustCompile(`\b(?:VR|VIRTUAL|ONLINE|REMOTE|ZOOM)\b`)
	roomDelimiters = regexp.MustCompile(`[/,;\n]+`)
	buildingCode   = regexp.MustCompile(`^[A-Z]{2,}$`)
	dashRun        = regexp.MustCompile(`[-–—]+`)
	spacedDash     = regexp.MustCompile(`\s*-\s*`)
	spaceRun       = regexp.MustCompile(`\s{2,}`)

	// 房间单元格里混入的星期代码，复用星期解析的词表
	dayCodeInRoom = regexp.MustCompile(`\b(?:` +
		`MON(?:DAY)?|TUE(?:S(?:DAY)?)?|WED(?:NESDAY)?|THU(?:RS(?:DAY)?)?|TH|` +
		`FRI(?:DAY)?|SAT(?:URDAY)?|SUN(?:DAY)?|MTH|TF|MWF|MW|TR|M|T|W|F|S` +
		`)\b`)

	// 依次为：楼栋+房号 / ROOM|RM 房号 / 纯房号
	roomNumberPattern = regexp.MustCompile(
		`([A-Z]+)[-\s]*(\d+[A-Z]?(?:-[A-Z0-9]+)?)` +
			`|(?:ROOM|RM\.?)\s*(\d+[A-Z]?(?:-[A-Z0-9]+)?)` +
			`|(\d+[A-Z]?(?:-[A-Z0-9]+)?)`)
)

var virtualOnly = map[string]bool{
	"VR": true, "VIRTUAL": true, "ONLINE": true, "REMOTE": true, "TBA": true, "N/A": true,
}

// NormalizeRoom 把房间单元格清洗为 "BUILDING ROOM"，无法识别返回 UnassignedRoom
func NormalizeRoom(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return UnassignedRoom
	}
	if virtualKeyword.MatchString(s) && !hasDigit.MatchString(s) {
		return UnassignedRoom
	}
	if virtualOnly[s] {
		return UnassignedRoom
	}

	var tokens []string
	for _, t := range roomDelimiters.Split(s, -1) {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}

	for i, t := range tokens {
		g := roomNumberPattern.FindStringSubmatch(dayCodeInRoom.ReplaceAllString(t, ""))
		if g == nil {
			continue
		}
		switch {
		case g[1] != "":
			return g[1] + " " + g[2]
		case g[3] != "":
			if i > 0 && buildingCode.MatchString(tokens[i-1]) {
				return tokens[i-1] + " " + g[3]
			}
			return g[3]
		case g[4] != "":
			for j, other := range tokens {
				if j != i && buildingCode.MatchString(other) {
					return other + " " + g[4]
				}
			}
			return g[4]
		}
	}

	for _, t := range tokens {
		if !hasDigit.MatchString(t) {
			continue
		}
		cleaned := dayCodeInRoom.ReplaceAllString(t, "")
		cleaned = dashRun.ReplaceAllString(cleaned, "-")
		cleaned = spacedDash.ReplaceAllString(cleaned, "-")
		cleaned = strings.Trim(spaceRun.ReplaceAllString(cleaned, " "), " -:,.")
		if cleaned != "" {
			return cleaned
		}
	}

	for _, t := range tokens {
		if buildingCode.MatchString(t) && !dayCodeInRoom.MatchString(t) {
			return t
		}
	}
	return UnassignedRoom
}
