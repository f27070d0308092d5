package excel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
)

// ErrNoData 周期不存在或所选分组下没有记录
var ErrNoData = errors.New("所选周期与分组下没有可导出的数据")

// RecordSource 导出所需的数据读取接口
type RecordSource interface {
	PeriodByMonth(year, month int) (*model.PayrollPeriod, error)
	Records(periodID string, group model.DataGroup) ([]model.DataRow, error)
}

// Exporter 导出装配器
// 与导入模板共用表头词表，导出产物可直接重新导入（往返无损）。
type Exporter struct {
	src RecordSource
}

// NewExporter 创建导出装配器
func NewExporter(src RecordSource) *Exporter {
	return &Exporter{src: src}
}

// ExportOptions 导出选项
type ExportOptions struct {
	Year, Month int
	Groups      []model.DataGroup
	// IncludeZeroFields 为 false 时过滤所有记录都为零的金额列
	IncludeZeroFields bool
}

// Export 按周期与分组装配工作簿，每个分组一个工作表
func (e *Exporter) Export(opts ExportOptions) (*excelize.File, error) {
	groups := model.ExpandGroups(opts.Groups)
	if len(groups) == 0 {
		groups = model.ConcreteGroups()
	}

	period, err := e.src.PeriodByMonth(opts.Year, opts.Month)
	if err != nil {
		return nil, fmt.Errorf("查询薪资周期失败: %w", err)
	}
	if period == nil {
		return nil, ErrNoData
	}

	type sheetData struct {
		group   model.DataGroup
		records []model.DataRow
	}
	sheets := make([]sheetData, 0, len(groups))
	total := 0
	for _, g := range groups {
		records, err := e.src.Records(period.ID, g)
		if err != nil {
			return nil, fmt.Errorf("查询 %s 记录失败: %w", g.DisplayName(), err)
		}
		total += len(records)
		sheets = append(sheets, sheetData{group: g, records: records})
	}
	if total == 0 {
		return nil, ErrNoData
	}

	f := excelize.NewFile()
	for i, sd := range sheets {
		sheetName := sd.group.SheetName()
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheetName); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheetName); err != nil {
				return nil, fmt.Errorf("create sheet %s: %w", sheetName, err)
			}
		}

		headers := TemplateHeaders(sheetName)
		if !opts.IncludeZeroFields {
			headers = filterZeroColumns(headers, sd.records)
		}

		headerRow := make([]interface{}, len(headers))
		for j, h := range headers {
			headerRow[j] = h
		}
		if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
			return nil, fmt.Errorf("write headers for %s: %w", sheetName, err)
		}

		for rowIdx, record := range sd.records {
			values := make([]interface{}, len(headers))
			for j, h := range headers {
				values[j] = exportCellValue(&record, h)
			}
			cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
			if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
				return nil, fmt.Errorf("write row for %s: %w", sheetName, err)
			}
		}
	}

	return f, nil
}

// ExportFilename 导出文件名: 工资数据_YYYY-MM.xlsx
func ExportFilename(year, month int) string {
	return fmt.Sprintf("工资数据_%04d-%02d.xlsx", year, month)
}

// filterZeroColumns 去掉所有记录中都为零（或为空）的金额列，非金额列始终保留
func filterZeroColumns(headers []string, records []model.DataRow) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if !IsNumericColumn(h) {
			out = append(out, h)
			continue
		}
		hasNonZero := false
		for i := range records {
			if v := parseAmount(records[i].Cells[h]); v != 0 {
				hasNonZero = true
				break
			}
		}
		if hasNonZero {
			out = append(out, h)
		}
	}
	return out
}

// exportCellValue 单元格取值：金额列输出数值，其余输出文本
func exportCellValue(record *model.DataRow, header string) interface{} {
	value := record.Cells[header]
	if value == "" {
		switch header {
		case model.ColName:
			value = record.Name
		case model.ColEmployeeNo:
			value = record.EmployeeNo
		case model.ColIDNumber:
			value = record.IDNumber
		}
	}
	if value == "" {
		return ""
	}
	if IsNumericColumn(header) {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64); err == nil {
			return f
		}
	}
	return value
}

func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return f
}
