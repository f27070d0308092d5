package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
)

// BulkImport 对单个分组批量写入工资数据
// 按 ImportMode 逐行执行，行级失败只记入结果不中断；
// 返回 error 仅代表整组失败（如事务无法提交）。
func (s *Store) BulkImport(periodID string, group model.DataGroup, mode model.ImportMode, rows []model.DataRow) (*model.GroupOutcome, error) {
	outcome := &model.GroupOutcome{}
	if len(rows) == 0 {
		return outcome, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range rows {
		row := &rows[i]
		if err := s.importRow(tx, periodID, group, mode, row, outcome); err != nil {
			outcome.FailedCount++
			outcome.Errors = append(outcome.Errors, model.RowMessage{
				Row:     row.RowNumber,
				Message: err.Error(),
			})
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return outcome, nil
}

// importRow 单行写入；跳过计数在函数内处理，返回 error 表示该行失败
func (s *Store) importRow(tx *sql.Tx, periodID string, group model.DataGroup, mode model.ImportMode, row *model.DataRow, outcome *model.GroupOutcome) error {
	key := row.StorageKey()
	if key == "" {
		return errors.New("缺少员工标识（姓名/员工编号/身份证号 至少填写一项）")
	}

	var existingFields string
	err := tx.QueryRow(`
		SELECT fields FROM payroll_records
		WHERE period_id = ? AND data_group = ? AND employee_key = ?
	`, periodID, group, key).Scan(&existingFields)

	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return fmt.Errorf("查询已有记录失败: %v", err)
	}

	switch mode {
	case model.ModeCreate:
		if exists {
			outcome.SkippedCount++
			outcome.Warnings = append(outcome.Warnings, model.RowMessage{
				Row:     row.RowNumber,
				Message: fmt.Sprintf("员工 %s 已存在，已跳过", key),
			})
			return nil
		}
		if err := s.insertRecord(tx, periodID, group, key, row); err != nil {
			return err
		}
		outcome.SuccessCount++
		return nil

	case model.ModeUpdate:
		if !exists {
			outcome.SkippedCount++
			outcome.Warnings = append(outcome.Warnings, model.RowMessage{
				Row:     row.RowNumber,
				Message: fmt.Sprintf("员工 %s 不存在，已跳过", key),
			})
			return nil
		}
		merged, err := overlayFields(existingFields, row.Cells)
		if err != nil {
			return err
		}
		if err := s.updateRecord(tx, periodID, group, key, row, merged); err != nil {
			return err
		}
		outcome.SuccessCount++
		return nil

	case model.ModeUpsert:
		if exists {
			merged, err := overlayFields(existingFields, row.Cells)
			if err != nil {
				return err
			}
			if err := s.updateRecord(tx, periodID, group, key, row, merged); err != nil {
				return err
			}
		} else if err := s.insertRecord(tx, periodID, group, key, row); err != nil {
			return err
		}
		outcome.SuccessCount++
		return nil

	case model.ModeAppend:
		if !exists {
			if err := s.insertRecord(tx, periodID, group, key, row); err != nil {
				return err
			}
			outcome.SuccessCount++
			return nil
		}
		merged, err := mergeFields(existingFields, row.Cells)
		if err != nil {
			return err
		}
		if err := s.updateRecord(tx, periodID, group, key, row, merged); err != nil {
			return err
		}
		outcome.SuccessCount++
		return nil

	default:
		return fmt.Errorf("未知的导入模式: %q", mode)
	}
}

func (s *Store) insertRecord(tx *sql.Tx, periodID string, group model.DataGroup, key string, row *model.DataRow) error {
	fields, err := json.Marshal(row.Cells)
	if err != nil {
		return fmt.Errorf("序列化字段失败: %v", err)
	}
	_, err = tx.Exec(`
		INSERT INTO payroll_records (period_id, data_group, employee_key, employee_no, name, id_number, fields, source_sheet)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, periodID, group, key, row.EmployeeNo, row.Name, row.IDNumber, string(fields), row.SheetName)
	if err != nil {
		return fmt.Errorf("写入记录失败: %v", err)
	}
	return nil
}

func (s *Store) updateRecord(tx *sql.Tx, periodID string, group model.DataGroup, key string, row *model.DataRow, cells map[string]string) error {
	fields, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("序列化字段失败: %v", err)
	}
	_, err = tx.Exec(`
		UPDATE payroll_records
		SET employee_no = ?, name = ?, id_number = ?, fields = ?, source_sheet = ?, updated_at = datetime('now')
		WHERE period_id = ? AND data_group = ? AND employee_key = ?
	`, row.EmployeeNo, row.Name, row.IDNumber, string(fields), row.SheetName, periodID, group, key)
	if err != nil {
		return fmt.Errorf("更新记录失败: %v", err)
	}
	return nil
}

// overlayFields update/upsert 模式合并：同名字段取新值，未出现的已有字段保留
// 同一员工分散在多个工作表的行先后写入同一分组时，后写的行不会抹掉其它表的字段。
func overlayFields(existingJSON string, cells map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(cells))
	if err := json.Unmarshal([]byte(existingJSON), &merged); err != nil {
		return nil, fmt.Errorf("解析已有字段失败: %v", err)
	}
	for k, v := range cells {
		merged[k] = v
	}
	return merged, nil
}

// mergeFields append 模式合并：仅补充新键，已有值不覆盖
func mergeFields(existingJSON string, cells map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(cells))
	if err := json.Unmarshal([]byte(existingJSON), &merged); err != nil {
		return nil, fmt.Errorf("解析已有字段失败: %v", err)
	}
	for k, v := range cells {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return merged, nil
}

// Records 查询指定周期与分组的全部记录，按员工编号/姓名排序
// 行号按查询结果顺序重新分配（导出时的逻辑行号）。
func (s *Store) Records(periodID string, group model.DataGroup) ([]model.DataRow, error) {
	rows, err := s.db.Query(`
		SELECT employee_no, name, id_number, fields, source_sheet
		FROM payroll_records
		WHERE period_id = ? AND data_group = ?
		ORDER BY employee_no, name, id
	`, periodID, group)
	if err != nil {
		return nil, fmt.Errorf("query records failed: %w", err)
	}
	defer rows.Close()

	var out []model.DataRow
	for rows.Next() {
		var employeeNo, name, idNumber, fieldsJSON, sourceSheet string
		if err := rows.Scan(&employeeNo, &name, &idNumber, &fieldsJSON, &sourceSheet); err != nil {
			return nil, fmt.Errorf("scan record failed: %w", err)
		}
		cells := make(map[string]string)
		if err := json.Unmarshal([]byte(fieldsJSON), &cells); err != nil {
			return nil, fmt.Errorf("decode record fields failed: %w", err)
		}
		record := model.NewDataRow(len(out)+1, sourceSheet, cells)
		if record.EmployeeNo == "" {
			record.EmployeeNo = employeeNo
		}
		if record.Name == "" {
			record.Name = name
		}
		if record.IDNumber == "" {
			record.IDNumber = idNumber
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records failed: %w", err)
	}
	return out, nil
}

// CountRecords 指定周期的记录总数；periodID 为空时统计全库
func (s *Store) CountRecords(periodID string) (int, error) {
	var n int
	var err error
	if periodID == "" {
		err = s.db.QueryRow(`SELECT COUNT(1) FROM payroll_records`).Scan(&n)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(1) FROM payroll_records WHERE period_id = ?`, periodID).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count records failed: %w", err)
	}
	return n, nil
}

// GroupCounts 指定周期内各分组的记录数
func (s *Store) GroupCounts(periodID string) (map[model.DataGroup]int, error) {
	rows, err := s.db.Query(`
		SELECT data_group, COUNT(1)
		FROM payroll_records
		WHERE period_id = ?
		GROUP BY data_group
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("count groups failed: %w", err)
	}
	defer rows.Close()

	out := make(map[model.DataGroup]int)
	for rows.Next() {
		var group string
		var count int
		if err := rows.Scan(&group, &count); err != nil {
			return nil, fmt.Errorf("scan group count failed: %w", err)
		}
		out[model.DataGroup(group)] = count
	}
	return out, rows.Err()
}

// CategorySummary 按人员类别汇总薪资收入（人数、应发合计总额与均值）
// 类别取自人员类别分组，未匹配到的员工计入 "未分类"。
func (s *Store) CategorySummary(periodID string) ([]model.CategorySummary, error) {
	categories, err := s.Records(periodID, model.GroupCategoryAssignment)
	if err != nil {
		return nil, err
	}
	categoryByKey := make(map[string]string, len(categories))
	for i := range categories {
		record := &categories[i]
		if c := strings.TrimSpace(record.Cells["人员类别"]); c != "" {
			categoryByKey[record.StorageKey()] = c
		}
	}

	earnings, err := s.Records(periodID, model.GroupEarnings)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]*model.CategorySummary)
	for i := range earnings {
		record := &earnings[i]
		category, ok := categoryByKey[record.StorageKey()]
		if !ok {
			category = "未分类"
		}
		summary, ok := byCategory[category]
		if !ok {
			summary = &model.CategorySummary{Category: category}
			byCategory[category] = summary
		}
		summary.EmployeeCount++
		summary.TotalGross += parseAmountField(record.Cells["应发合计"])
	}

	out := make([]model.CategorySummary, 0, len(byCategory))
	for _, summary := range byCategory {
		if summary.EmployeeCount > 0 {
			summary.AvgGross = summary.TotalGross / float64(summary.EmployeeCount)
		}
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeCount != out[j].EmployeeCount {
			return out[i].EmployeeCount > out[j].EmployeeCount
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// LogImport 记录一次导入的汇总结果
func (s *Store) LogImport(periodID, filename string, mode model.ImportMode, result *model.ImportResult) error {
	_, err := s.db.Exec(`
		INSERT INTO import_logs (period_id, filename, mode, total_rows, success_count, failed_count, skipped_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, periodID, filename, mode, result.TotalRows, result.SuccessCount, result.FailedCount, result.SkippedCount)
	if err != nil {
		return fmt.Errorf("write import log failed: %w", err)
	}
	return nil
}

// LastImportTime 最近一次导入时间，无记录时返回空串
func (s *Store) LastImportTime() (string, error) {
	var t string
	err := s.db.QueryRow(`SELECT created_at FROM import_logs ORDER BY id DESC LIMIT 1`).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query last import time failed: %w", err)
	}
	return t, nil
}

func parseAmountField(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return f
}
