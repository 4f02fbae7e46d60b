// Package export 将训练日志导出为 xlsx
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "훈련일지"

// Headers 表头，与远程日志表列顺序一致，末尾追加审批状态
var Headers = []string{"날짜", "날씨", "훈련직무", "담당자", "훈련생", "점수", "특이사항", "총평", "결재상태"}

// Row 一条评价
type Row struct {
	Date       string
	Weather    string
	Job        string
	Instructor string
	Trainee    string
	Score      int
	Note       string
	Summary    string
	Status     string
}

func (r Row) values() []interface{} {
	return []interface{}{r.Date, r.Weather, r.Job, r.Instructor, r.Trainee, r.Score, r.Note, r.Summary, r.Status}
}

// WriteXLSX 写入只有一个工作表的工作簿
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	// 1. 表头
	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("failed to set header: %w", err)
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(Headers), 1)
		_ = f.SetCellStyle(sheetName, "A1", last, style)
	}

	// 2. 数据行
	for r, row := range rows {
		for c, val := range row.values() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "G", "H", 40); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
