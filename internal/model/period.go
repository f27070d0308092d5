package model

import "fmt"

// PayrollPeriod 薪资周期（按自然月）
type PayrollPeriod struct {
	ID        string `json:"id"`
	Name      string `json:"name"` // 如 "2025年06月"
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	StartDate string `json:"startDate"` // YYYY-MM-DD
	EndDate   string `json:"endDate"`
	PayDate   string `json:"payDate"`
}

// MonthKey 周期的 YYYY-MM 标识
func (p *PayrollPeriod) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// PeriodName 年月对应的周期名称
func PeriodName(year, month int) string {
	return fmt.Sprintf("%d年%02d月", year, month)
}

// AvailableMonth 可用薪资月份（用于月份选择器）
type AvailableMonth struct {
	Month        string `json:"month"` // YYYY-MM
	PeriodID     string `json:"periodId"`
	PayrollCount int    `json:"payrollCount"`
}

// CategorySummary 按人员类别汇总的工资统计
type CategorySummary struct {
	Category      string  `json:"category"`
	EmployeeCount int     `json:"employeeCount"`
	TotalGross    float64 `json:"totalGross"` // 应发合计总额
	AvgGross      float64 `json:"avgGross"`
}
