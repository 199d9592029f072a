package document

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Glyph 页面上的一段文字及其基线坐标（PDF 坐标系，Y 轴向上）
type Glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// Rule 页面上的一个填充矩形，表格框线通常以细长矩形绘制
type Rule struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

const (
	edgeTolerance  = 2.0  // 框线坐标聚类容差
	lineThickness  = 3.0  // 视为线条的最大厚度
	lineTolerance  = 3.0  // 同一文本行的 Y 容差
	minCellGapRate = 1.2  // 相邻文字间距 ≥ 字号 × 此系数时视为新单元格
	wordGapRate    = 0.2  // 相邻文字间距 ≥ 字号 × 此系数时补空格
	columnSnap     = 6.0  // 单元格起点对齐到表头列的容差
	defaultFont    = 10.0 // 缺失字号时的估计值
)

// PDFExtractor 逐页提取表格：先按框线切分，无结果时退化为按文字坐标聚类
type PDFExtractor struct{}

func (PDFExtractor) Extract(data []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	var pages []Page
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		glyphs, rules, err := pageContent(p)
		if err != nil {
			// 单页损坏不影响其他页
			continue
		}
		pages = append(pages, PageTables(i, glyphs, rules))
	}
	return pages, nil
}

func pageContent(p pdf.Page) (glyphs []Glyph, rules []Rule, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCorruptDocument, r)
		}
	}()
	content := p.Content()
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	for _, r := range content.Rect {
		rules = append(rules, Rule{MinX: r.Min.X, MinY: r.Min.Y, MaxX: r.Max.X, MaxY: r.Max.Y})
	}
	return glyphs, rules, nil
}

// PageTables 对一页内容依次尝试框线策略和文字坐标策略
func PageTables(number int, glyphs []Glyph, rules []Rule) Page {
	if t := TableFromRules(glyphs, rules); len(t) > 1 {
		return Page{Number: number, Strategy: StrategyRuling, Tables: []Table{t}}
	}
	if t := TableFromText(glyphs); len(t) > 1 {
		return Page{Number: number, Strategy: StrategyText, Tables: []Table{t}}
	}
	return Page{Number: number}
}

// ── 框线策略 ────────────────────────────────────────────────

// TableFromRules 由框线围出网格，把文字落入对应单元格
func TableFromRules(glyphs []Glyph, rules []Rule) Table {
	var xs, ys []float64
	for _, r := range rules {
		w, h := r.MaxX-r.MinX, r.MaxY-r.MinY
		switch {
		case w <= lineThickness && h > lineThickness:
			xs = append(xs, (r.MinX+r.MaxX)/2)
		case h <= lineThickness && w > lineThickness:
			ys = append(ys, (r.MinY+r.MaxY)/2)
		case w > lineThickness && h > lineThickness:
			// 单元格边框整体绘制为矩形
			xs = append(xs, r.MinX, r.MaxX)
			ys = append(ys, r.MinY, r.MaxY)
		}
	}
	xs = clusterEdges(xs)
	ys = clusterEdges(ys)
	if len(xs) < 2 || len(ys) < 2 {
		return nil
	}
	// 表格自上而下
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))

	cells := make([][][]Glyph, len(ys)-1)
	for i := range cells {
		cells[i] = make([][]Glyph, len(xs)-1)
	}
	for _, g := range glyphs {
		col := bucket(xs, g.X+g.W/2, false)
		row := bucket(ys, g.Y, true)
		if col < 0 || row < 0 {
			continue
		}
		cells[row][col] = append(cells[row][col], g)
	}

	rows := make([][]string, len(cells))
	for i, r := range cells {
		rows[i] = make([]string, len(r))
		for j, gs := range r {
			rows[i][j] = joinLines(gs)
		}
	}
	return trimTable(rows)
}

func clusterEdges(vals []float64) []float64 {
	if len(vals) == 0 {
		return nil
	}
	sort.Float64s(vals)
	out := []float64{vals[0]}
	for _, v := range vals[1:] {
		if v-out[len(out)-1] > edgeTolerance {
			out = append(out, v)
		}
	}
	return out
}

// bucket 返回 v 所在的区间下标；desc 表示 edges 为降序
func bucket(edges []float64, v float64, desc bool) int {
	for i := 0; i+1 < len(edges); i++ {
		lo, hi := edges[i], edges[i+1]
		if desc {
			lo, hi = hi, lo
		}
		if v >= lo && v < hi {
			return i
		}
	}
	return -1
}

// joinLines 把单元格内的文字按行拼接，行间以换行分隔
func joinLines(gs []Glyph) string {
	lines := groupLines(gs)
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, joinWords(l))
	}
	return strings.Join(parts, "\n")
}

// ── 文字坐标策略 ────────────────────────────────────────────

type textCell struct {
	x    float64
	text string
}

// TableFromText 按 Y 聚成文本行、按间距切出单元格，再以表头行的单元格起点为列锚点对齐
func TableFromText(glyphs []Glyph) Table {
	lines := groupLines(glyphs)
	if len(lines) < 2 {
		return nil
	}

	cellLines := make([][]textCell, len(lines))
	for i, l := range lines {
		cellLines[i] = splitCells(l)
	}

	anchorIdx := headerLine(cellLines)
	anchors := make([]float64, len(cellLines[anchorIdx]))
	for i, c := range cellLines[anchorIdx] {
		anchors[i] = c.x
	}
	if len(anchors) < 2 {
		return nil
	}

	rows := make([][]string, 0, len(cellLines)-anchorIdx)
	for _, cl := range cellLines[anchorIdx:] {
		row := make([]string, len(anchors))
		for _, c := range cl {
			col := nearestAnchor(anchors, c.x)
			if row[col] == "" {
				row[col] = c.text
			} else {
				row[col] += " " + c.text
			}
		}
		rows = append(rows, row)
	}
	return trimTable(rows)
}

// groupLines 按基线 Y 聚类成行，自上而下，行内自左向右
func groupLines(gs []Glyph) [][]Glyph {
	sorted := make([]Glyph, len(gs))
	copy(sorted, gs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var lines [][]Glyph
	for _, g := range sorted {
		n := len(lines)
		if n > 0 && math.Abs(lines[n-1][0].Y-g.Y) <= lineTolerance {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []Glyph{g})
	}
	for _, l := range lines {
		sort.SliceStable(l, func(i, j int) bool { return l[i].X < l[j].X })
	}
	return lines
}

func splitCells(line []Glyph) []textCell {
	var cells []textCell
	var cur []Glyph
	flush := func() {
		if len(cur) > 0 {
			if text := joinWords(cur); strings.TrimSpace(text) != "" {
				cells = append(cells, textCell{x: cur[0].X, text: text})
			}
			cur = nil
		}
	}
	for _, g := range line {
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			if g.X-(prev.X+prev.W) >= fontSize(prev)*minCellGapRate {
				flush()
			}
		}
		cur = append(cur, g)
	}
	flush()
	return cells
}

func joinWords(gs []Glyph) string {
	var b strings.Builder
	for i, g := range gs {
		if i > 0 {
			prev := gs[i-1]
			if g.X-(prev.X+prev.W) >= fontSize(prev)*wordGapRate && !strings.HasPrefix(g.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return strings.TrimSpace(b.String())
}

// headerLine 优先取含表头关键词的行，否则取单元格最多的行
func headerLine(cellLines [][]textCell) int {
	for i, cl := range cellLines {
		var b strings.Builder
		for _, c := range cl {
			b.WriteString(strings.ToUpper(c.text))
			b.WriteByte(' ')
		}
		text := b.String()
		if len(cl) >= 2 && (strings.Contains(text, "COURSE") || strings.Contains(text, "SUBJECT") ||
			strings.Contains(text, "TIME") || strings.Contains(text, "ROOM")) {
			return i
		}
	}
	best := 0
	for i, cl := range cellLines {
		if len(cl) > len(cellLines[best]) {
			best = i
		}
	}
	return best
}

// nearestAnchor 取起点不晚于 x（含容差）的最右侧锚点
func nearestAnchor(anchors []float64, x float64) int {
	idx := 0
	for i, a := range anchors {
		if a <= x+columnSnap {
			idx = i
		}
	}
	return idx
}

func fontSize(g Glyph) float64 {
	if g.FontSize <= 0 {
		return defaultFont
	}
	return g.FontSize
}
