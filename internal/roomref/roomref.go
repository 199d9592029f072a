// Package roomref 房间号 → 房间名称的参考表
//
// 表由启动时显式构造并注入解析组件，数据源更新后调用 Invalidate，
// 下一次查询时重新加载。
package roomref

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var ErrSourceMissing = errors.New("房间名称参考表不存在")

// Loader 参考数据源
type Loader interface {
	Load(ctx context.Context) (map[string]string, error)
}

// LoaderFunc 函数适配器
type LoaderFunc func(ctx context.Context) (map[string]string, error)

func (f LoaderFunc) Load(ctx context.Context) (map[string]string, error) { return f(ctx) }

// Table 线程安全的参考表，首次查询或 Invalidate 之后按需加载
type Table struct {
	mu     sync.RWMutex
	loader Loader
	logger *zap.Logger
	names  map[string]string
	loaded bool
}

// New 构造参考表，不立即加载
func New(loader Loader, logger *zap.Logger) *Table {
	return &Table{loader: loader, logger: logger}
}

// Load 立即从数据源加载；失败时保留为空表并返回错误
func (t *Table) Load(ctx context.Context) error {
	names, err := t.loader.Load(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.loaded = true
	if err != nil {
		t.names = map[string]string{}
		return err
	}
	t.names = names
	t.logger.Info("房间名称参考表已加载", zap.Int("count", len(names)))
	return nil
}

// Invalidate 丢弃已加载的数据，下一次查询时重新加载
func (t *Table) Invalidate() {
	t.mu.Lock()
	t.names = nil
	t.loaded = false
	t.mu.Unlock()
}

func (t *Table) ensure() {
	t.mu.RLock()
	loaded := t.loaded
	t.mu.RUnlock()
	if loaded {
		return
	}
	if err := t.Load(context.Background()); err != nil {
		t.logger.Warn("加载房间名称参考表失败", zap.Error(err))
	}
}

// Lookup 按键查名称；键为房间号或 "{楼层}_{编号}" 形式的消防通道键
func (t *Table) Lookup(key string) (string, bool) {
	t.ensure()
	t.mu.RLock()
	defer t.mu.RUnlock()
	name, ok := t.names[key]
	return name, ok
}

// Has 是否存在该键
func (t *Table) Has(key string) bool {
	_, ok := t.Lookup(key)
	return ok
}

// FireExitName 按楼层查消防通道名称
func (t *Table) FireExitName(floor int, number string) (string, bool) {
	return t.Lookup(FireExitKey(floor, number))
}

// Len 当前条目数
func (t *Table) Len() int {
	t.ensure()
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names)
}

// FireExitKey 消防通道的楼层限定键
func FireExitKey(floor int, number string) string {
	return strconv.Itoa(floor) + "_" + number
}

// ── CSV 数据源 ──────────────────────────────────────────────

var levelFloor = regexp.MustCompile(`(\d+)\s+Floor`)

// CSVLoader 读取 "Room Number, Room Name, Level" 列的 CSV
type CSVLoader struct {
	Path string
}

func (l CSVLoader) Load(ctx context.Context) (map[string]string, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, l.Path)
		}
		return nil, err
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV 解析参考表 CSV；名称列兼容拼写错误的 "Room Nane"，
// 名称含 "Fire Exit" 且 Level 列可解析出楼层时额外登记楼层限定键
func ParseCSV(r io.Reader) (map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	get := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	names := make(map[string]string)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取 CSV 失败: %w", err)
		}

		number := get(rec, "Room Number")
		name := get(rec, "Room Name")
		if name == "" {
			name = get(rec, "Room Nane")
		}
		if number == "" || name == "" {
			continue
		}
		names[number] = name

		if strings.Contains(name, "Fire Exit") {
			if m := levelFloor.FindStringSubmatch(get(rec, "Level")); m != nil {
				names[m[1]+"_"+number] = name
			}
		}
	}
	return names, nil
}
