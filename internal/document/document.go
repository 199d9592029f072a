// Package document 把上传的课表文件拆成按页组织的原始单元格表格
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnsupportedFormat = errors.New("不支持的文件格式")
	ErrExtractTimeout    = errors.New("文档解析超时")
	ErrCorruptDocument   = errors.New("文档无法读取")
)

// Table 一张表格，行 × 列的原始单元格文本
type Table [][]string

// Strategy 表格提取策略
type Strategy string

const (
	StrategyRuling Strategy = "ruling" // 按框线切分单元格
	StrategyText   Strategy = "text"   // 按文字坐标聚类
	StrategySheet  Strategy = "sheet"  // 电子表格工作表
)

// Page 一页（或一个工作表）提取出的表格
type Page struct {
	Number   int
	Strategy Strategy
	Tables   []Table
}

// Extractor 单一文件格式的表格提取器
type Extractor interface {
	Extract(data []byte) ([]Page, error)
}

// Registry 扩展名 → 提取器
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry 注册内置的 PDF / XLSX / XLS 提取器
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	r.Register(".pdf", PDFExtractor{})
	r.Register(".xlsx", XLSXExtractor{})
	r.Register(".xls", XLSExtractor{})
	return r
}

// Register 注册或覆盖某扩展名的提取器
func (r *Registry) Register(ext string, e Extractor) {
	r.extractors[strings.ToLower(ext)] = e
}

// Supports 是否有对应扩展名的提取器
func (r *Registry) Supports(ext string) bool {
	_, ok := r.extractors[strings.ToLower(ext)]
	return ok
}

type extractResult struct {
	pages []Page
	err   error
}

// Extract 在 ctx 的期限内提取表格；超时返回 ErrExtractTimeout。
// 超时后后台提取仍会跑完，结果被丢弃。
func (r *Registry) Extract(ctx context.Context, ext string, data []byte) ([]Page, error) {
	e, ok := r.extractors[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	done := make(chan extractResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- extractResult{err: fmt.Errorf("%w: %v", ErrCorruptDocument, p)}
			}
		}()
		pages, err := e.Extract(data)
		done <- extractResult{pages: pages, err: err}
	}()

	select {
	case res := <-done:
		return res.pages, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrExtractTimeout
		}
		return nil, ctx.Err()
	}
}

// TableCount 所有页的表格总数
func TableCount(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += len(p.Tables)
	}
	return n
}

// cleanCell NFKC 归一化并压缩空白，保留换行
func cleanCell(s string) string {
	s = norm.NFKC.String(s)
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// trimTable 清洗单元格并去掉全空行
func trimTable(rows [][]string) Table {
	var t Table
	for _, row := range rows {
		cleaned := make([]string, len(row))
		empty := true
		for i, c := range row {
			cleaned[i] = cleanCell(c)
			if cleaned[i] != "" {
				empty = false
			}
		}
		if !empty {
			t = append(t, cleaned)
		}
	}
	return t
}
