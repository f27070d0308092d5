package model

import "fmt"

// ImportMode 导入模式，由存储层按行执行
type ImportMode string

const (
	ModeCreate ImportMode = "create" // 仅新增，已存在则跳过
	ModeUpdate ImportMode = "update" // 仅更新，不存在则跳过
	ModeUpsert ImportMode = "upsert" // 存在则更新，不存在则新增
	ModeAppend ImportMode = "append" // 仅补充新字段，不覆盖已有值
)

// ParseImportMode 解析导入模式
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case ModeCreate, ModeUpdate, ModeUpsert, ModeAppend:
		return ImportMode(s), nil
	default:
		return "", fmt.Errorf("未知的导入模式: %q", s)
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	ValidateBeforeImport bool `json:"validateBeforeImport"` // 提交前校验行标识
	SkipInvalidRows      bool `json:"skipInvalidRows"`      // 校验失败的行按跳过计，不计入失败
	BatchSize            int  `json:"batchSize"`            // 每批提交行数，0 表示使用配置默认值
}

// ImportConfig 一次导入会话的配置
type ImportConfig struct {
	Groups  []DataGroup   `json:"groups"`
	Mode    ImportMode    `json:"mode"`
	Month   string        `json:"month"` // YYYY-MM
	Options ImportOptions `json:"options"`
}

// RowMessage 行级错误/警告
type RowMessage struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// GroupOutcome 单个分组一次远端调用的结果
type GroupOutcome struct {
	SuccessCount int          `json:"successCount"`
	FailedCount  int          `json:"failedCount"`
	SkippedCount int          `json:"skippedCount"`
	Errors       []RowMessage `json:"errors"`
	Warnings     []RowMessage `json:"warnings"`
}

// ImportProgress 导入进度
// Current/Total 按 (分组, 行) 对计数：每个分组都是对同一行集的一次独立遍历。
type ImportProgress struct {
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	CurrentGroup string `json:"currentGroup"`
	Percentage   int    `json:"percentage"`
}

// ImportResult 导入结果汇总，部分失败时同样完整返回
type ImportResult struct {
	Success      bool         `json:"success"`
	SuccessCount int          `json:"successCount"`
	FailedCount  int          `json:"failedCount"`
	SkippedCount int          `json:"skippedCount"`
	TotalRows    int          `json:"totalRows"`
	Errors       []RowMessage `json:"errors"`
	Warnings     []RowMessage `json:"warnings"`
	FailedRows   []DataRow    `json:"failedRows,omitempty"`
}
