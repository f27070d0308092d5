package excel

import (
	"fmt"
	"strings"

	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
)

const (
	// 员工缺席明细最多展示条数
	maxEmployeeGaps = 10
	// 重复标识警告最多点名个数
	maxDuplicateNames = 5
	// 空行数超过该阈值时建议清理源文件
	emptyRowWarnThreshold = 10
)

// Analyze 对解析产物做跨表一致性检查
// 纯函数：不修改元信息与行集，任何合法输入都不会失败。
func Analyze(metas []model.SheetMeta, rows []model.DataRow) *model.ParseResult {
	result := &model.ParseResult{
		Sheets:         metas,
		ExpectedSheets: model.ExpectedSheets(),
	}

	foundSet := make(map[string]struct{}, len(metas))
	for _, meta := range metas {
		result.FoundSheets = append(result.FoundSheets, meta.Name)
		foundSet[meta.Name] = struct{}{}
		result.EmptyRows += meta.EmptyRows
	}
	result.TotalRows = len(rows)

	expectedSet := make(map[string]struct{}, len(result.ExpectedSheets))
	for _, name := range result.ExpectedSheets {
		expectedSet[name] = struct{}{}
		if _, ok := foundSet[name]; !ok {
			result.MissingSheets = append(result.MissingSheets, name)
		}
	}
	for _, meta := range metas {
		if _, ok := expectedSet[meta.Name]; !ok {
			result.UnexpectedSheets = append(result.UnexpectedSheets, meta.Name)
		}
	}

	// 数据表：实际出现的期望工作表，一致性检查只看这部分
	dataSheets := make([]string, 0, len(result.ExpectedSheets))
	for _, name := range result.ExpectedSheets {
		if _, ok := foundSet[name]; ok {
			dataSheets = append(dataSheets, name)
		}
	}

	analyzeEmployees(result, rows, dataSheets)
	analyzeRowParity(result, metas, dataSheets)

	result.Warnings = buildWarnings(result)
	return result
}

// analyzeEmployees 员工标识维度的检查：重复标识与跨表缺席
func analyzeEmployees(result *model.ParseResult, rows []model.DataRow, dataSheets []string) {
	dataSheetSet := make(map[string]struct{}, len(dataSheets))
	for _, name := range dataSheets {
		dataSheetSet[name] = struct{}{}
	}

	// 出现次数按合并行集统计；首次出现顺序保证输出稳定
	counts := make(map[string]int)
	membership := make(map[string]map[string]struct{})
	order := make([]string, 0, len(rows))

	for i := range rows {
		row := &rows[i]
		key := row.IdentityKey()
		if key == "" {
			continue
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
			membership[key] = make(map[string]struct{}, len(dataSheets))
		}
		counts[key]++
		if _, ok := dataSheetSet[row.SheetName]; ok {
			membership[key][row.SheetName] = struct{}{}
		}
	}

	for _, key := range order {
		if counts[key] > 1 {
			result.Duplicates = append(result.Duplicates, key)
		}
	}

	if len(dataSheets) < 2 {
		return
	}
	for _, key := range order {
		present := membership[key]
		if len(present) == 0 {
			continue
		}
		var absent []string
		for _, name := range dataSheets {
			if _, ok := present[name]; !ok {
				absent = append(absent, name)
			}
		}
		if len(absent) > 0 {
			result.MissingInSheets = append(result.MissingInSheets, model.EmployeeGap{
				Employee: key,
				Sheets:   absent,
			})
			if len(result.MissingInSheets) >= maxEmployeeGaps {
				break
			}
		}
	}
}

// analyzeRowParity 数据表行数奇偶校验：所有非零行数必须一致
func analyzeRowParity(result *model.ParseResult, metas []model.SheetMeta, dataSheets []string) {
	dataSheetSet := make(map[string]struct{}, len(dataSheets))
	for _, name := range dataSheets {
		dataSheetSet[name] = struct{}{}
	}

	result.AllSheetsHaveSameRowCount = true
	seen := -1
	for _, meta := range metas {
		if _, ok := dataSheetSet[meta.Name]; !ok {
			continue
		}
		if meta.RowCount == 0 {
			continue
		}
		if seen == -1 {
			seen = meta.RowCount
			continue
		}
		if meta.RowCount != seen {
			result.AllSheetsHaveSameRowCount = false
			return
		}
	}
}

// buildWarnings 将诊断结论汇总成可读的警告文案
func buildWarnings(result *model.ParseResult) []string {
	var warnings []string

	if len(result.MissingSheets) > 0 {
		warnings = append(warnings, fmt.Sprintf("缺少期望的工作表: %s", strings.Join(result.MissingSheets, "、")))
	}
	if len(result.UnexpectedSheets) > 0 {
		warnings = append(warnings, fmt.Sprintf("发现未预期的工作表: %s", strings.Join(result.UnexpectedSheets, "、")))
	}
	if !result.AllSheetsHaveSameRowCount {
		warnings = append(warnings, "各工作表数据行数不一致，请检查是否有行遗漏")
	}
	if n := len(result.Duplicates); n > 0 {
		shown := result.Duplicates
		if n > maxDuplicateNames {
			shown = shown[:maxDuplicateNames]
			warnings = append(warnings, fmt.Sprintf("发现重复的员工记录: %s 等共 %d 个", strings.Join(shown, "、"), n))
		} else {
			warnings = append(warnings, fmt.Sprintf("发现重复的员工记录: %s", strings.Join(shown, "、")))
		}
	}
	if n := len(result.MissingInSheets); n > 0 {
		warnings = append(warnings, fmt.Sprintf("有 %d 名员工未出现在全部工作表中", n))
	}
	if result.EmptyRows > emptyRowWarnThreshold {
		warnings = append(warnings, fmt.Sprintf("过滤了 %d 个空行，建议清理源文件后重新上传", result.EmptyRows))
	}

	return warnings
}
