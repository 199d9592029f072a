// Package floorplan 从楼层 SVG 平面图中提取房间候选
package floorplan

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var ErrInvalidSVG = errors.New("SVG 文件无法解析")

// 房间类型标签
const (
	TypeFireExit       = "Fire Exit"
	TypeElevatorStairs = "Elevator/Stairs"
	TypeBoysBathroom   = "Boys Bathroom"
	TypeGirlsBathroom  = "Girls Bathroom"
)

// DefaultBuildingID 文件名与参数都未给出时的楼栋编号
const DefaultBuildingID = "10"

// colorTypes 填充色 → 房间类型，仅精确匹配（小写）
var colorTypes = map[string]string{
	"#ff8d4f": TypeFireExit, "#ff8847": TypeFireExit, "#ff7f50": TypeFireExit,
	"#ff6b35": TypeFireExit, "#ff9966": TypeFireExit, "#ffa500": TypeFireExit,
	"#ff8c00": TypeFireExit, "#e67e22": TypeFireExit, "#d35400": TypeFireExit,
	"#772c15": TypeFireExit, "#a0522d": TypeFireExit,

	"#68ec89": TypeElevatorStairs, "#1d4427": TypeElevatorStairs, "#2ecc71": TypeElevatorStairs,
	"#27ae60": TypeElevatorStairs, "#52be80": TypeElevatorStairs,

	"#c6cff8": TypeBoysBathroom, "#142b2c": TypeBoysBathroom, "#3498db": TypeBoysBathroom,
	"#2980b9": TypeBoysBathroom,

	"#a66dbe": TypeGirlsBathroom, "#9370db": TypeGirlsBathroom, "#ba55d3": TypeGirlsBathroom,
	"#8e44ad": TypeGirlsBathroom,
}

// rgb() 颜色里出现这些分量时按橙色（消防通道）处理
var orangeRGBComponents = []string{"255", "140", "142", "143", "144", "145"}

var (
	excludedIDs        = map[string]bool{"Rectangle 4": true, "Elevator_1": true, "path-73-inside-1_100_21": true}
	structuralPrefixes = []string{"rectangle", "path-", "mask", "g id"}
	structuralWords    = []string{"wall", "door", "background", "frame", "outline", "grid", "floor", "level", "section", "boundary", "hpsb"}
	specialWords       = []string{"fire", "exit", "elevator", "stairs", "bathroom"}

	floorInName = regexp.MustCompile(`HPSB(\d+)`)
	pathCommand = regexp.MustCompile(`[A-Za-z]`)
	coordSplit  = regexp.MustCompile(`[\s,]+`)
)

// NameLookup 房间名称参考表
type NameLookup interface {
	Lookup(key string) (string, bool)
}

// Shape 一个房间候选：元素 ID、形状、包围盒、颜色与推断的类型/名称
type Shape struct {
	ID       string  `json:"room_id"`
	Kind     string  `json:"shape_type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Color    string  `json:"color,omitempty"`
	RoomType string  `json:"room_type,omitempty"`
	RoomName string  `json:"room_name,omitempty"`
}

// CenterX 包围盒中心
func (s Shape) CenterX() float64 { return s.X + s.Width/2 }

// CenterY 包围盒中心
func (s Shape) CenterY() float64 { return s.Y + s.Height/2 }

// Coordinates 序列化为房间档案的坐标字段，保留两位小数
func (s Shape) Coordinates() map[string]interface{} {
	return map[string]interface{}{
		"shape_type": s.Kind,
		"x":          round2(s.X),
		"y":          round2(s.Y),
		"width":      round2(s.Width),
		"height":     round2(s.Height),
		"center_x":   round2(s.CenterX()),
		"center_y":   round2(s.CenterY()),
		"color":      s.Color,
	}
}

// Options 楼栋与楼层；为零值时从文件名推断
type Options struct {
	BuildingID string
	Floor      int
}

// ResolveOptions 从文件名 "HPSB{楼层}" 补全楼层，楼栋默认 DefaultBuildingID
func ResolveOptions(filename string, opts Options) Options {
	if opts.Floor == 0 {
		if m := floorInName.FindStringSubmatch(filepath.Base(filename)); m != nil {
			opts.Floor, _ = strconv.Atoi(m[1])
		}
	}
	if opts.BuildingID == "" {
		opts.BuildingID = DefaultBuildingID
	}
	return opts
}

// Extractor 带楼层上下文的提取器
type Extractor struct {
	opts  Options
	names NameLookup
}

// NewExtractor names 可为 nil
func NewExtractor(opts Options, names NameLookup) *Extractor {
	return &Extractor{opts: opts, names: names}
}

// Extract 遍历所有带 id 的元素，按纳入规则过滤后返回按 ID 排序的房间候选
func (e *Extractor) Extract(r io.Reader) ([]Shape, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var shapes []Shape
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSVG, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true

		attrs := attrMap(start.Attr)
		id := strings.TrimSpace(attrs["id"])
		if id == "" || !e.Accept(id) {
			continue
		}
		shape, ok := parseShape(start.Name.Local, attrs)
		if !ok {
			continue
		}
		shape.ID = id
		shape.Color = elementColor(attrs)
		shape.RoomType = RoomTypeForColor(shape.Color)
		shape.RoomName = e.RoomName(id)
		shapes = append(shapes, shape)
	}
	if !sawRoot {
		return nil, ErrInvalidSVG
	}

	sort.SliceStable(shapes, func(i, j int) bool { return shapes[i].ID < shapes[j].ID })
	return shapes, nil
}

// Accept 元素 ID 纳入规则，按顺序：
// 排除名单 → 参考表命中 → 1-24 数字（消防通道）→ 结构前缀/关键词 → 特殊房间关键词 → 编号格式校验
func (e *Extractor) Accept(id string) bool {
	if excludedIDs[id] {
		return false
	}
	lower := strings.ToLower(id)
	clean := firstWord(id)

	if e.lookup(clean) {
		return true
	}
	if n, ok := smallNumber(clean); ok && n >= 1 && n <= 24 {
		return true
	}
	for _, p := range structuralPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	for _, w := range structuralWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	for _, w := range specialWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	if e.opts.BuildingID != "" && e.opts.Floor > 0 && isDigits(clean) {
		prefix, length := e.idFormat()
		return len(clean) == length && strings.HasPrefix(clean, prefix)
	}
	return false
}

// idFormat 单位数楼层为 楼栋+楼层+2 位（共 5 位），两位数楼层为 楼栋+两位楼层+2 位（共 6 位）
func (e *Extractor) idFormat() (prefix string, length int) {
	if e.opts.Floor <= 9 {
		return e.opts.BuildingID + strconv.Itoa(e.opts.Floor), 5
	}
	return e.opts.BuildingID + fmt.Sprintf("%02d", e.opts.Floor), 6
}

// RoomName 由元素 ID 推断房间名称，无法推断时返回空串
func (e *Extractor) RoomName(id string) string {
	clean := firstWord(id)
	lower := strings.ToLower(id)

	if strings.Contains(lower, "fire") && strings.Contains(lower, "exit") {
		return TypeFireExit
	}
	if strings.Contains(lower, "elevator") || strings.Contains(lower, "stairs") {
		return TypeElevatorStairs
	}
	if !isDigits(clean) {
		return ""
	}

	if n, ok := smallNumber(clean); ok && n >= 1 && n <= 24 {
		if e.opts.Floor > 0 && e.names != nil {
			if name, ok := e.names.Lookup(strconv.Itoa(e.opts.Floor) + "_" + clean); ok {
				return name
			}
		}
		return TypeFireExit
	}

	if e.opts.Floor <= 0 || e.opts.BuildingID == "" || e.names == nil {
		return ""
	}
	digits := 4
	if e.opts.Floor <= 9 {
		digits = 3
	}
	if len(clean) < digits {
		return ""
	}
	name, _ := e.names.Lookup(clean[len(clean)-digits:])
	return name
}

func (e *Extractor) lookup(key string) bool {
	if e.names == nil {
		return false
	}
	_, ok := e.names.Lookup(key)
	return ok
}

// RoomTypeForColor 颜色 → 房间类型；rgb() 形式仅识别橙色
func RoomTypeForColor(color string) string {
	if color == "" {
		return ""
	}
	c := strings.ToLower(color)
	if t, ok := colorTypes[c]; ok {
		return t
	}
	if strings.Contains(c, "rgb") {
		for _, comp := range orangeRGBComponents {
			if strings.Contains(c, comp) {
				return TypeFireExit
			}
		}
	}
	return ""
}

// ── 形状解析 ────────────────────────────────────────────────

func parseShape(tag string, a map[string]string) (Shape, bool) {
	switch tag {
	case "rect":
		w, h := num(a["width"]), num(a["height"])
		if w > 0 && h > 0 {
			return Shape{Kind: tag, X: num(a["x"]), Y: num(a["y"]), Width: w, Height: h}, true
		}
	case "circle":
		cx, cy, r := num(a["cx"]), num(a["cy"]), num(a["r"])
		if r > 0 {
			return Shape{Kind: tag, X: cx - r, Y: cy - r, Width: 2 * r, Height: 2 * r}, true
		}
	case "ellipse":
		cx, cy, rx, ry := num(a["cx"]), num(a["cy"]), num(a["rx"]), num(a["ry"])
		if rx > 0 && ry > 0 {
			return Shape{Kind: tag, X: cx - rx, Y: cy - ry, Width: 2 * rx, Height: 2 * ry}, true
		}
	case "path":
		return boundingBox(tag, pathCommand.ReplaceAllString(a["d"], " "))
	case "polygon", "polyline":
		return boundingBox(tag, a["points"])
	}
	return Shape{}, false
}

// boundingBox 把坐标串按 (x, y) 成对读取，取最小外接矩形；宽或高为 0 时丢弃
func boundingBox(kind, coords string) (Shape, bool) {
	fields := coordSplit.Split(strings.TrimSpace(coords), -1)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	pairs := 0
	for i := 0; i+1 < len(fields); i += 2 {
		x, errX := strconv.ParseFloat(fields[i], 64)
		y, errY := strconv.ParseFloat(fields[i+1], 64)
		if errX != nil || errY != nil {
			continue
		}
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		pairs++
	}
	if pairs == 0 || maxX-minX <= 0 || maxY-minY <= 0 {
		return Shape{}, false
	}
	return Shape{Kind: kind, X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// elementColor fill 优先，其次 stroke；"none" 视为无色
func elementColor(a map[string]string) string {
	if fill := a["fill"]; fill != "" && fill != "none" {
		return strings.ToLower(fill)
	}
	if stroke := a["stroke"]; stroke != "" && stroke != "none" {
		return strings.ToLower(stroke)
	}
	return ""
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = a.Value
	}
	return m
}

func num(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "px")), 64)
	if err != nil {
		return 0
	}
	return v
}

func firstWord(id string) string {
	if f := strings.Fields(id); len(f) > 0 {
		return f[0]
	}
	return id
}

func smallNumber(s string) (int, bool) {
	if !isDigits(s) || len(s) > 2 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
