package excel

import (
	"errors"
	"testing"

	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
)

type fakeSource struct {
	period  *model.PayrollPeriod
	records map[model.DataGroup][]model.DataRow
}

func (f *fakeSource) PeriodByMonth(year, month int) (*model.PayrollPeriod, error) {
	return f.period, nil
}

func (f *fakeSource) Records(periodID string, group model.DataGroup) ([]model.DataRow, error) {
	return f.records[group], nil
}

func earningsRecord(num int, employeeNo, name, base, total string) model.DataRow {
	return model.NewDataRow(num, model.SheetEarnings, map[string]string{
		"员工编号": employeeNo,
		"姓名":   name,
		"基本工资": base,
		"应发合计": total,
	})
}

func testPeriod() *model.PayrollPeriod {
	return &model.PayrollPeriod{ID: "p1", Year: 2026, Month: 1}
}

func TestExport_NoPeriod(t *testing.T) {
	t.Parallel()

	exp := NewExporter(&fakeSource{})
	_, err := exp.Export(ExportOptions{Year: 2026, Month: 1})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("want ErrNoData, got %v", err)
	}
}

func TestExport_NoRecords(t *testing.T) {
	t.Parallel()

	exp := NewExporter(&fakeSource{period: testPeriod()})
	_, err := exp.Export(ExportOptions{Year: 2026, Month: 1})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("want ErrNoData, got %v", err)
	}
}

func TestExport_FiltersZeroColumns(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		period: testPeriod(),
		records: map[model.DataGroup][]model.DataRow{
			model.GroupEarnings: {
				earningsRecord(1, "E001", "张三", "5000", "5000"),
				earningsRecord(2, "E002", "李四", "6000", "6000"),
			},
		},
	}

	file, err := NewExporter(src).Export(ExportOptions{
		Year: 2026, Month: 1,
		Groups: []model.DataGroup{model.GroupEarnings},
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows(model.SheetEarnings)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("unexpected row count: %d", len(rows))
	}

	headers := rows[0]
	for _, h := range headers {
		if h == "岗位工资" || h == "津贴" {
			t.Fatalf("all-zero column %s should be filtered: %v", h, headers)
		}
	}
	want := []string{"员工编号", "姓名", "基本工资", "应发合计"}
	if len(headers) != len(want) {
		t.Fatalf("headers: %v", headers)
	}
	for i, h := range want {
		if headers[i] != h {
			t.Fatalf("headers: %v", headers)
		}
	}
	if rows[1][0] != "E001" || rows[1][2] != "5000" {
		t.Fatalf("data row: %v", rows[1])
	}
}

func TestExport_IncludeZeroFieldsKeepsAllColumns(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		period: testPeriod(),
		records: map[model.DataGroup][]model.DataRow{
			model.GroupEarnings: {
				earningsRecord(1, "E001", "张三", "5000", "5000"),
			},
		},
	}

	file, err := NewExporter(src).Export(ExportOptions{
		Year: 2026, Month: 1,
		Groups:            []model.DataGroup{model.GroupEarnings},
		IncludeZeroFields: true,
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows(model.SheetEarnings)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows[0]) != len(TemplateHeaders(model.SheetEarnings)) {
		t.Fatalf("headers: %v", rows[0])
	}
}

func TestExport_RoundTripThroughParser(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		period: testPeriod(),
		records: map[model.DataGroup][]model.DataRow{
			model.GroupEarnings: {
				earningsRecord(1, "E001", "张三", "5000", "5000"),
			},
			model.GroupCategoryAssignment: {
				model.NewDataRow(1, model.SheetCategory, map[string]string{
					"员工编号": "E001",
					"姓名":   "张三",
					"人员类别": "在编",
				}),
			},
		},
	}

	file, err := NewExporter(src).Export(ExportOptions{Year: 2026, Month: 1})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer file.Close()

	buf, err := file.WriteToBuffer()
	if err != nil {
		t.Fatalf("write buffer: %v", err)
	}

	p := NewParser()
	if err := p.LoadFile(buf, ExportFilename(2026, 1)); err != nil {
		t.Fatalf("reload export: %v", err)
	}
	rows, metas, err := p.ParseWorkbook()
	if err != nil {
		t.Fatalf("reparse export: %v", err)
	}

	// 空分组也会生成空工作表，四个分组各占一个
	if len(metas) != 4 {
		t.Fatalf("meta count: %d", len(metas))
	}
	if len(rows) != 2 {
		t.Fatalf("row count: %d", len(rows))
	}
	if rows[0].Cells["基本工资"] != "5000" {
		t.Fatalf("earnings row: %v", rows[0].Cells)
	}
	if rows[1].Cells["人员类别"] != "在编" {
		t.Fatalf("category row: %v", rows[1].Cells)
	}
}

func TestExportFilename(t *testing.T) {
	t.Parallel()

	if got := ExportFilename(2026, 3); got != "工资数据_2026-03.xlsx" {
		t.Fatalf("filename: %s", got)
	}
}
