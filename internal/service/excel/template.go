package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
)

// 模板表头词表：导入与导出共用同一份，保证往返无损
var templateHeaders = map[string][]string{
	model.SheetBasicInfo: {
		"员工编号", "姓名", "身份证号", "部门名称", "职位名称", "人员类别", "入职日期", "员工状态",
	},
	model.SheetEarnings: {
		"员工编号", "姓名", "基本工资", "岗位工资", "级别工资", "绩效工资",
		"奖励性绩效工资", "基础性绩效工资", "津贴", "补助", "应发合计",
	},
	model.SheetContributionBases: {
		"员工编号", "姓名", "社保缴费基数", "养老保险缴费基数", "医疗保险缴费基数",
		"失业保险缴费基数", "住房公积金缴费基数", "职业年金缴费基数",
	},
	model.SheetCategory: {
		"员工编号", "姓名", "人员类别", "生效日期",
	},
	model.SheetJob: {
		"员工编号", "姓名", "部门名称", "职位名称", "任职开始日期",
	},
}

// 金额类列，导出时参与全零列过滤
var numericColumns = map[string]struct{}{
	"基本工资": {}, "岗位工资": {}, "级别工资": {}, "绩效工资": {},
	"奖励性绩效工资": {}, "基础性绩效工资": {}, "津贴": {}, "补助": {}, "应发合计": {},
	"社保缴费基数": {}, "养老保险缴费基数": {}, "医疗保险缴费基数": {},
	"失业保险缴费基数": {}, "住房公积金缴费基数": {}, "职业年金缴费基数": {},
}

var instructionLines = []string{
	"填表说明",
	"1. 请勿修改各工作表的表头，导入按表头匹配列。",
	"2. 每名员工至少填写 姓名、员工编号、身份证号 中的一项。",
	"3. 基本信息 为必备工作表，其余工作表按需填写。",
	"4. 金额单位为元，日期格式为 YYYY-MM-DD。",
	"5. 全空行会在导入时被自动过滤。",
}

// TemplateHeaders 指定工作表的模板表头
func TemplateHeaders(sheetName string) []string {
	headers, ok := templateHeaders[sheetName]
	if !ok {
		return nil
	}
	out := make([]string, len(headers))
	copy(out, headers)
	return out
}

// GroupHeaders 分组对应工作表的模板表头
func GroupHeaders(group model.DataGroup) []string {
	return TemplateHeaders(group.SheetName())
}

// IsNumericColumn 是否金额类列
func IsNumericColumn(header string) bool {
	_, ok := numericColumns[header]
	return ok
}

// BuildTemplate 生成导入模板工作簿：填表说明 + 全部期望工作表（仅表头）
func BuildTemplate() (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", model.SheetInstructions); err != nil {
		return nil, fmt.Errorf("rename instructions sheet: %w", err)
	}
	for i, line := range instructionLines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetCellValue(model.SheetInstructions, cell, line); err != nil {
			return nil, fmt.Errorf("write instructions: %w", err)
		}
	}

	for _, sheetName := range model.ExpectedSheets() {
		index, err := f.NewSheet(sheetName)
		if err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheetName, err)
		}
		headers := TemplateHeaders(sheetName)
		row := make([]interface{}, len(headers))
		for i, h := range headers {
			row[i] = h
		}
		if err := f.SetSheetRow(sheetName, "A1", &row); err != nil {
			return nil, fmt.Errorf("write headers for %s: %w", sheetName, err)
		}
		if sheetName == model.SheetBasicInfo {
			f.SetActiveSheet(index)
		}
	}

	return f, nil
}

// TemplateFilename 模板下载文件名
func TemplateFilename() string {
	return "工资数据导入模板.xlsx"
}
