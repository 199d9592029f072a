package document

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// XLSXExtractor 每个工作表视为一页，整张工作表即一张表格
type XLSXExtractor struct{}

func (XLSXExtractor) Extract(data []byte) ([]Page, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	defer f.Close()

	var pages []Page
	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("读取工作表 %s 失败: %w", sheet, err)
		}
		page := Page{Number: i + 1, Strategy: StrategySheet}
		if t := trimTable(rows); len(t) > 0 {
			page.Tables = []Table{t}
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// xlsCharset BIFF5 及更早格式的字符串编码
const xlsCharset = "utf-8"

// XLSExtractor 旧版 Excel 97-2003 工作簿
type XLSExtractor struct{}

func (XLSExtractor) Extract(data []byte) ([]Page, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), xlsCharset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	var pages []Page
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}

		var rows [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}

		page := Page{Number: i + 1, Strategy: StrategySheet}
		if t := trimTable(rows); len(t) > 0 {
			page.Tables = []Table{t}
		}
		pages = append(pages, page)
	}
	return pages, nil
}
