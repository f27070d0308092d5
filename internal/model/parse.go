package model

// SheetMeta 单个工作表的解析元信息
type SheetMeta struct {
	Name        string   `json:"name"`
	RowCount    int      `json:"rowCount"`    // 过滤空行后的数据行数
	ColumnCount int      `json:"columnCount"` // 表头原始列数
	Headers     []string `json:"headers"`     // 非空表头列表
	IsEmpty     bool     `json:"isEmpty"`     // 无数据行
	EmptyRows   int      `json:"emptyRows"`   // 被过滤的空行数
}

// EmployeeGap 某员工缺席的工作表列表
type EmployeeGap struct {
	Employee string   `json:"employee"`
	Sheets   []string `json:"sheets"`
}

// ParseResult 一次上传的解析诊断快照，重新上传时整体替换
type ParseResult struct {
	Sheets           []SheetMeta `json:"sheets"`
	ExpectedSheets   []string    `json:"expectedSheets"`
	FoundSheets      []string    `json:"foundSheets"`
	MissingSheets    []string    `json:"missingSheets"`
	UnexpectedSheets []string    `json:"unexpectedSheets"`

	TotalRows int `json:"totalRows"`
	EmptyRows int `json:"emptyRows"`

	Duplicates      []string      `json:"duplicates"`
	MissingInSheets []EmployeeGap `json:"missingInSheets"`

	AllSheetsHaveSameRowCount bool `json:"allSheetsHaveSameRowCount"`

	Warnings []string `json:"warnings"`
}
