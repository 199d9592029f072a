package floorplan

import (
	"errors"
	"strings"
	"testing"
)

type mapLookup map[string]string

func (m mapLookup) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

const sampleSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="800" height="600">
  <g id="Floor 10">
    <rect id="101009" x="10" y="20" width="100" height="50" fill="#C6CFF8"/>
    <rect id="101010 Autoclave" x="120" y="20" width="80" height="50" fill="#A66DBE"/>
    <rect id="101099" x="0" y="0" width="0" height="50" fill="#C6CFF8"/>
    <path id="3" d="M 300,100 L 340,100 L 340,160 L 300,160 Z" fill="#FF8D4F"/>
    <circle id="Elevator A" cx="500" cy="300" r="20" fill="#68EC89"/>
    <ellipse id="Stairs North" cx="600" cy="300" rx="30" ry="10" stroke="#27AE60" fill="none"/>
    <polygon id="Bathroom West" points="10,400 60,400 60,450 10,450" fill="rgb(255, 140, 0)"/>
    <rect id="Wall_1" x="0" y="0" width="800" height="5" fill="#000000"/>
    <rect id="Rectangle 4" x="0" y="0" width="10" height="10"/>
    <rect id="99999" x="0" y="0" width="10" height="10"/>
    <rect id="Lobby" x="0" y="0" width="10" height="10"/>
  </g>
</svg>`

func newTestExtractor() *Extractor {
	names := mapLookup{
		"1009":  "Computer Lab",
		"10_3":  "Fire Exit 3 (East)",
		"Lobby": "Main Lobby",
	}
	return NewExtractor(ResolveOptions("uploads/HPSB10.svg", Options{}), names)
}

func TestExtract(t *testing.T) {
	shapes, err := newTestExtractor().Extract(strings.NewReader(sampleSVG))
	if err != nil {
		t.Fatalf("Extract 应成功: %v", err)
	}

	byID := make(map[string]Shape)
	var ids []string
	for _, s := range shapes {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	wantIDs := []string{"101009", "101010 Autoclave", "3", "Bathroom West", "Elevator A", "Lobby", "Stairs North"}
	if strings.Join(ids, "|") != strings.Join(wantIDs, "|") {
		t.Fatalf("期望 %v，实际 %v", wantIDs, ids)
	}

	rect := byID["101009"]
	if rect.Kind != "rect" || rect.X != 10 || rect.Y != 20 || rect.Width != 100 || rect.Height != 50 {
		t.Errorf("矩形包围盒不符: %+v", rect)
	}
	if rect.RoomType != TypeBoysBathroom {
		t.Errorf("期望类型 %s，实际 %s", TypeBoysBathroom, rect.RoomType)
	}
	if rect.RoomName != "Computer Lab" {
		t.Errorf("期望名称 Computer Lab，实际 %q", rect.RoomName)
	}

	path := byID["3"]
	if path.X != 300 || path.Y != 100 || path.Width != 40 || path.Height != 60 {
		t.Errorf("路径包围盒不符: %+v", path)
	}
	if path.RoomType != TypeFireExit || path.RoomName != "Fire Exit 3 (East)" {
		t.Errorf("消防通道识别错误: %+v", path)
	}

	circle := byID["Elevator A"]
	if circle.X != 480 || circle.Y != 280 || circle.Width != 40 || circle.RoomName != TypeElevatorStairs {
		t.Errorf("圆形解析错误: %+v", circle)
	}

	ellipse := byID["Stairs North"]
	if ellipse.Width != 60 || ellipse.Height != 20 || ellipse.Color != "#27ae60" || ellipse.RoomType != TypeElevatorStairs {
		t.Errorf("椭圆解析错误（应回退到 stroke 颜色）: %+v", ellipse)
	}

	poly := byID["Bathroom West"]
	if poly.Kind != "polygon" || poly.Width != 50 || poly.RoomType != TypeFireExit {
		t.Errorf("多边形解析错误: %+v", poly)
	}
}

func TestExtract_InvalidXML(t *testing.T) {
	_, err := newTestExtractor().Extract(strings.NewReader("not xml at all"))
	if !errors.Is(err, ErrInvalidSVG) {
		t.Errorf("期望 ErrInvalidSVG，实际: %v", err)
	}
}

func TestAccept(t *testing.T) {
	single := NewExtractor(Options{BuildingID: "10", Floor: 3}, nil)
	double := NewExtractor(Options{BuildingID: "10", Floor: 12}, nil)

	tests := []struct {
		name string
		e    *Extractor
		id   string
		want bool
	}{
		{"单位数楼层合法编号", single, "10305", true},
		{"单位数楼层前缀错误", single, "10405", false},
		{"单位数楼层长度错误", single, "103051", false},
		{"两位数楼层合法编号", double, "101201", true},
		{"两位数楼层长度错误", double, "10120", false},
		{"消防通道数字", single, "24", true},
		{"超出消防通道范围", single, "25", false},
		{"排除名单", single, "Elevator_1", false},
		{"结构前缀", single, "path-12", false},
		{"结构关键词", single, "Door 3A", false},
		{"楼层标签", single, "HPSB3 label", false},
		{"特殊房间", single, "Fire Exit East", true},
		{"未知名称", single, "Lobby", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Accept(tt.id); got != tt.want {
				t.Errorf("Accept(%q) 期望 %v，实际 %v", tt.id, tt.want, got)
			}
		})
	}
}

func TestRoomName_SingleDigitFloor(t *testing.T) {
	e := NewExtractor(Options{BuildingID: "10", Floor: 9}, mapLookup{"912": "Autoclave Room"})
	if got := e.RoomName("10912 Autoclave"); got != "Autoclave Room" {
		t.Errorf("期望 Autoclave Room，实际 %q", got)
	}
	if got := e.RoomName("7"); got != TypeFireExit {
		t.Errorf("未登记的消防通道期望 %s，实际 %q", TypeFireExit, got)
	}
}

func TestResolveOptions(t *testing.T) {
	opts := ResolveOptions("/tmp/HPSB7.svg", Options{})
	if opts.Floor != 7 || opts.BuildingID != DefaultBuildingID {
		t.Errorf("期望楼层 7 楼栋 %s，实际 %+v", DefaultBuildingID, opts)
	}
	opts = ResolveOptions("plan.svg", Options{Floor: 2, BuildingID: "20"})
	if opts.Floor != 2 || opts.BuildingID != "20" {
		t.Errorf("显式参数不应被覆盖: %+v", opts)
	}
}

func TestRoomTypeForColor(t *testing.T) {
	tests := map[string]string{
		"#FF8D4F":         TypeFireExit,
		"#2ecc71":         TypeElevatorStairs,
		"#8E44AD":         TypeGirlsBathroom,
		"rgb(255,140,0)":  TypeFireExit,
		"rgb(10, 20, 30)": "",
		"#123456":         "",
		"":                "",
	}
	for color, want := range tests {
		if got := RoomTypeForColor(color); got != want {
			t.Errorf("RoomTypeForColor(%q) 期望 %q，实际 %q", color, want, got)
		}
	}
}

func TestShape_Coordinates(t *testing.T) {
	s := Shape{Kind: "rect", X: 1.234, Y: 2, Width: 10, Height: 4.111}
	c := s.Coordinates()
	if c["x"] != 1.23 || c["center_x"] != 6.23 || c["height"] != 4.11 {
		t.Errorf("坐标序列化错误: %v", c)
	}
}
