package parser

import "testing"

func TestNormalizeRoom(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"去除虚拟与星期噪声", "HPSB - 1009/ VR-MON", "HPSB 1009"},
		{"纯线上课程", "ONLINE CLASS", UnassignedRoom},
		{"空单元格", "", UnassignedRoom},
		{"TBA", "tba", UnassignedRoom},
		{"N/A", "N/A", UnassignedRoom},
		{"仅虚拟教室", "/ VR-WED", UnassignedRoom},
		{"楼栋紧贴房号", "AS204/TTH", "AS 204"},
		{"小写输入", "hpsb 1009", "HPSB 1009"},
		{"纯房号借用相邻楼栋", "305/HPSB", "HPSB 305"},
		{"纯房号", "305", "305"},
		{"房号混入星期代码", "M 204", "204"},
		{"只有楼栋代码", "GYM", "GYM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeRoom(tt.input); got != tt.want {
				t.Errorf("NormalizeRoom(%q) 期望 %q，实际 %q", tt.input, tt.want, got)
			}
		})
	}
}
