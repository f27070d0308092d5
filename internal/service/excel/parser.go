package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
)

// ErrMalformedWorkbook 文件无法解码为电子表格
// 旧版 .xls 也会落入此错误，提示用户另存为 .xlsx 后重新上传。
var ErrMalformedWorkbook = errors.New("无法解析的工作簿文件")

// rawSheet 解码后的工作表原始内容
type rawSheet struct {
	name string
	rows [][]string
}

// Parser 工作簿解析器
// 将上传文件解码为规范化行序列：跨工作表连续的全局行号、来源工作表标记、
// 以及供一致性检查使用的每表元信息。
type Parser struct {
	fileID string
	sheets []rawSheet
}

// NewParser 创建解析器
func NewParser() *Parser {
	return &Parser{fileID: uuid.New().String()}
}

// FileID 本次上传的文件标识
func (p *Parser) FileID() string {
	return p.fileID
}

// LoadFile 按扩展名解码上传文件
// .xlsx 按工作簿读取；.csv 视为单个工作表（表名取文件名）。
func (p *Parser) LoadFile(reader io.Reader, filename string) error {
	if strings.ToLower(filepath.Ext(filename)) == ".csv" {
		return p.loadCSV(reader, filename)
	}
	return p.loadWorkbook(reader)
}

func (p *Parser) loadWorkbook(reader io.Reader) error {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedWorkbook, err)
	}
	defer file.Close()

	sheets := make([]rawSheet, 0, file.SheetCount)
	for _, name := range file.GetSheetList() {
		rows, err := file.GetRows(name)
		if err != nil {
			continue
		}
		sheets = append(sheets, rawSheet{name: name, rows: rows})
	}

	p.sheets = sheets
	return nil
}

func (p *Parser) loadCSV(reader io.Reader, filename string) error {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedWorkbook, err)
	}

	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		name = model.SheetBasicInfo
	}

	p.sheets = []rawSheet{{name: name, rows: rows}}
	return nil
}

// ParseWorkbook 扫描除填表说明外的所有工作表
// 首行作为表头，全空行被过滤；保留行获得跨整个工作簿严格递增的行号（从 1 开始），
// 并打上来源工作表标记。同时返回每表元信息供一致性分析使用。
func (p *Parser) ParseWorkbook() ([]model.DataRow, []model.SheetMeta, error) {
	if p.sheets == nil {
		return nil, nil, errors.New("no file loaded")
	}

	rows := make([]model.DataRow, 0, 64)
	metas := make([]model.SheetMeta, 0, len(p.sheets))
	rowNumber := 0

	for _, sheet := range p.sheets {
		if sheet.name == model.SheetInstructions {
			continue
		}

		meta := model.SheetMeta{Name: sheet.name}
		if len(sheet.rows) == 0 {
			meta.IsEmpty = true
			metas = append(metas, meta)
			continue
		}

		header := sheet.rows[0]
		meta.ColumnCount = len(header)
		// 空表头列不进入一致性检查的表头列表
		for _, h := range header {
			if v := strings.TrimSpace(h); v != "" {
				meta.Headers = append(meta.Headers, v)
			}
		}

		for _, raw := range sheet.rows[1:] {
			if isBlankRow(raw) {
				meta.EmptyRows++
				continue
			}

			rowNumber++
			cells := make(map[string]string, len(header))
			for i, cell := range raw {
				value := strings.TrimSpace(cell)
				if value == "" {
					continue
				}
				key := ""
				if i < len(header) {
					key = strings.TrimSpace(header[i])
				}
				if key == "" {
					// 表头为空的列仍合并进行数据，键使用电子表格列名
					key, _ = excelize.ColumnNumberToName(i + 1)
				}
				cells[key] = value
			}

			rows = append(rows, model.NewDataRow(rowNumber, sheet.name, cells))
			meta.RowCount++
		}

		meta.IsEmpty = meta.RowCount == 0
		metas = append(metas, meta)
	}

	return rows, metas, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
