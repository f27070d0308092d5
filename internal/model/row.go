package model

import "strings"

// 员工标识列，按优先级探测
const (
	ColName       = "姓名"
	ColEmployeeNo = "员工编号"
	ColIDNumber   = "身份证号"
)

// DataRow 解析后的单行数据
// RowNumber 为全局行号（跨工作表连续递增，从 1 开始），
// 已知标识列提升为显式字段，其余列保留在 Cells 中。
type DataRow struct {
	RowNumber  int               `json:"rowNumber"`
	SheetName  string            `json:"sheetName"`
	Name       string            `json:"name"`
	EmployeeNo string            `json:"employeeNo"`
	IDNumber   string            `json:"idNumber"`
	Cells      map[string]string `json:"cells"`
}

// NewDataRow 从列名->值映射构建行，提取标识字段
func NewDataRow(rowNumber int, sheetName string, cells map[string]string) DataRow {
	return DataRow{
		RowNumber:  rowNumber,
		SheetName:  sheetName,
		Name:       strings.TrimSpace(cells[ColName]),
		EmployeeNo: strings.TrimSpace(cells[ColEmployeeNo]),
		IDNumber:   strings.TrimSpace(cells[ColIDNumber]),
		Cells:      cells,
	}
}

// IdentityKey 员工标识值：姓名优先，其次员工编号、身份证号
func (r *DataRow) IdentityKey() string {
	if r.Name != "" {
		return r.Name
	}
	if r.EmployeeNo != "" {
		return r.EmployeeNo
	}
	return r.IDNumber
}

// HasIdentity 是否存在任一员工标识
func (r *DataRow) HasIdentity() bool {
	return r.IdentityKey() != ""
}

// StorageKey 入库主键：员工编号优先（更稳定），其次身份证号、姓名
func (r *DataRow) StorageKey() string {
	if r.EmployeeNo != "" {
		return r.EmployeeNo
	}
	if r.IDNumber != "" {
		return r.IDNumber
	}
	return r.Name
}
