package roomref

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

const sampleCSV = "\ufeffRoom Number,Room Nane,Level\n" +
	"1009,Computer Lab,10 Floor HPSB\n" +
	"912,Autoclave Room,9 Floor HPSB\n" +
	"3,Fire Exit 3,2 Floor HPSB\n" +
	",Orphan,1 Floor HPSB\n" +
	"1010,,10 Floor HPSB\n"

func TestParseCSV(t *testing.T) {
	names, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseCSV 应成功: %v", err)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"1009", "Computer Lab"},
		{"912", "Autoclave Room"},
		{"3", "Fire Exit 3"},
		{"2_3", "Fire Exit 3"},
	}
	for _, tt := range tests {
		if got := names[tt.key]; got != tt.want {
			t.Errorf("键 %s 期望 %q，实际 %q", tt.key, tt.want, got)
		}
	}
	if len(names) != 4 {
		t.Errorf("期望 4 个条目，实际 %d: %v", len(names), names)
	}
}

func TestParseCSV_Empty(t *testing.T) {
	names, err := ParseCSV(strings.NewReader(""))
	if err != nil || len(names) != 0 {
		t.Errorf("空输入期望空表，实际 %v, %v", names, err)
	}
}

func TestCSVLoader_Missing(t *testing.T) {
	_, err := CSVLoader{Path: filepath.Join(t.TempDir(), "none.csv")}.Load(context.Background())
	if !errors.Is(err, ErrSourceMissing) {
		t.Errorf("期望 ErrSourceMissing，实际: %v", err)
	}
}

func TestCSVLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	table := New(CSVLoader{Path: path}, zap.NewNop())
	if name, ok := table.FireExitName(2, "3"); !ok || name != "Fire Exit 3" {
		t.Errorf("期望 Fire Exit 3，实际 %q, %v", name, ok)
	}
}

func TestTable_LazyLoadAndInvalidate(t *testing.T) {
	calls := 0
	version := "Lab A"
	loader := LoaderFunc(func(ctx context.Context) (map[string]string, error) {
		calls++
		return map[string]string{"1009": version}, nil
	})
	table := New(loader, zap.NewNop())

	if calls != 0 {
		t.Fatal("构造时不应加载")
	}
	if name, _ := table.Lookup("1009"); name != "Lab A" {
		t.Errorf("期望 Lab A，实际 %q", name)
	}
	_ = table.Has("1009")
	if calls != 1 {
		t.Errorf("期望只加载 1 次，实际 %d", calls)
	}

	version = "Lab B"
	table.Invalidate()
	if name, _ := table.Lookup("1009"); name != "Lab B" {
		t.Errorf("Invalidate 后期望 Lab B，实际 %q", name)
	}
	if calls != 2 {
		t.Errorf("期望加载 2 次，实际 %d", calls)
	}
}

func TestTable_LoadErrorLeavesEmpty(t *testing.T) {
	calls := 0
	loader := LoaderFunc(func(ctx context.Context) (map[string]string, error) {
		calls++
		return nil, errors.New("boom")
	})
	table := New(loader, zap.NewNop())

	if _, ok := table.Lookup("1009"); ok {
		t.Error("加载失败时不应命中")
	}
	if table.Len() != 0 {
		t.Errorf("期望空表，实际 %d", table.Len())
	}
	// 失败后不重复加载，直到显式 Invalidate
	if calls != 1 {
		t.Errorf("期望加载 1 次，实际 %d", calls)
	}
}
