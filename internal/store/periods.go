package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
)

// PeriodByMonth 查找指定年月的薪资周期，不存在时返回 (nil, nil)
func (s *Store) PeriodByMonth(year, month int) (*model.PayrollPeriod, error) {
	row := s.db.QueryRow(`
		SELECT id, name, year, month, start_date, end_date, pay_date
		FROM payroll_periods
		WHERE year = ? AND month = ?
	`, year, month)

	var p model.PayrollPeriod
	err := row.Scan(&p.ID, &p.Name, &p.Year, &p.Month, &p.StartDate, &p.EndDate, &p.PayDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query period failed: %w", err)
	}
	return &p, nil
}

// ResolvePeriod 查找或创建指定年月的薪资周期
// 周期边界为自然月，发放日取月末。
func (s *Store) ResolvePeriod(year, month int) (*model.PayrollPeriod, error) {
	if month < 1 || month > 12 || year <= 0 {
		return nil, fmt.Errorf("非法年月: %d-%d", year, month)
	}

	existing, err := s.PeriodByMonth(year, month)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	p := &model.PayrollPeriod{
		ID:        uuid.New().String(),
		Name:      model.PeriodName(year, month),
		Year:      year,
		Month:     month,
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		PayDate:   end.Format("2006-01-02"),
	}

	_, err = s.db.Exec(`
		INSERT INTO payroll_periods (id, name, year, month, start_date, end_date, pay_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Year, p.Month, p.StartDate, p.EndDate, p.PayDate)
	if err != nil {
		return nil, fmt.Errorf("create period failed: %w", err)
	}

	return p, nil
}

// ListAvailableMonths 列出已有数据的薪资月份（按年月倒序），用于月份选择器
func (s *Store) ListAvailableMonths() ([]model.AvailableMonth, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.year, p.month,
			(SELECT COUNT(1) FROM payroll_records r WHERE r.period_id = p.id) AS record_count
		FROM payroll_periods p
		ORDER BY p.year DESC, p.month DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query available months failed: %w", err)
	}
	defer rows.Close()

	var out []model.AvailableMonth
	for rows.Next() {
		var periodID string
		var year, month, count int
		if err := rows.Scan(&periodID, &year, &month, &count); err != nil {
			return nil, fmt.Errorf("scan available months failed: %w", err)
		}
		out = append(out, model.AvailableMonth{
			Month:        fmt.Sprintf("%04d-%02d", year, month),
			PeriodID:     periodID,
			PayrollCount: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate available months failed: %w", err)
	}
	return out, nil
}

// CountPeriods 周期总数
func (s *Store) CountPeriods() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM payroll_periods`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count periods failed: %w", err)
	}
	return n, nil
}
