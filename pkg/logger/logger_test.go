package logger

import (
	"testing"

	"umap/backend/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		wantErr bool
	}{
		{"json 格式", config.LogConfig{Level: "info", Format: "json"}, false},
		{"console 格式", config.LogConfig{Level: "debug", Format: "console"}, false},
		{"输出到 stderr", config.LogConfig{Level: "warn", Format: "console", Output: "stderr"}, false},
		{"无效级别", config.LogConfig{Level: "loud", Format: "json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("期望 wantErr=%v，实际 err=%v", tt.wantErr, err)
			}
			if err == nil && l == nil {
				t.Error("日志器不应为 nil")
			}
		})
	}
}
