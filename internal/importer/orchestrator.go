package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
)

// DefaultBatchSize 默认每批提交行数
const DefaultBatchSize = 50

// Backend 导入编排器依赖的远端协作方
type Backend interface {
	// ResolvePeriod 查找或创建指定年月的薪资周期
	ResolvePeriod(year, month int) (*model.PayrollPeriod, error)
	// BulkImport 对单个分组批量写入，行级结果在 GroupOutcome 中返回
	BulkImport(periodID string, group model.DataGroup, mode model.ImportMode, rows []model.DataRow) (*model.GroupOutcome, error)
}

// Orchestrator 导入编排器
// 驱动多分组导入：解析周期、按选择顺序逐分组提交、聚合行级结果、
// 发布进度并收集失败行供重试。同一实例上的并发调用会被串行化。
type Orchestrator struct {
	backend    Backend
	batchSize  int
	batchDelay time.Duration

	mu         sync.Mutex
	failedRows []model.DataRow
}

// NewOrchestrator 创建编排器
// batchDelay 为批次间的人为停顿，仅用于进度可读性，可配置为 0。
func NewOrchestrator(backend Backend, batchSize int, batchDelay time.Duration) *Orchestrator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Orchestrator{
		backend:    backend,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// RunOptions 一次导入调用的参数
type RunOptions struct {
	Rows   []model.DataRow
	Groups []model.DataGroup
	Mode   model.ImportMode
	Year   int
	Month  int

	Options model.ImportOptions

	// Retry 为 true 时忽略 Rows，改为处理上一次调用收集的失败行
	Retry bool

	// Progress 进度回调，在批次边界同步调用
	Progress func(model.ImportProgress)
}

// FailedRows 上一次调用收集的失败行
func (o *Orchestrator) FailedRows() []model.DataRow {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]model.DataRow, len(o.failedRows))
	copy(out, o.failedRows)
	return out
}

// Run 执行一次导入
// 周期解析失败在任何分组处理前返回错误；分组级失败只将该组所有行计为失败，
// 继续处理后续分组。取消在批次边界生效，已提交的分组不回滚。
// 部分失败的运行同样返回完整的结果汇总。
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*model.ImportResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	rows := opts.Rows
	if opts.Retry {
		if len(o.failedRows) == 0 {
			return nil, errors.New("没有可重试的失败行")
		}
		rows = o.failedRows
	}

	groups := model.ExpandGroups(opts.Groups)
	if len(groups) == 0 {
		return nil, errors.New("未选择数据分组")
	}
	if len(rows) == 0 {
		return nil, errors.New("没有可导入的数据行")
	}

	period, err := o.backend.ResolvePeriod(opts.Year, opts.Month)
	if err != nil {
		return nil, fmt.Errorf("解析薪资周期失败: %w", err)
	}

	batchSize := opts.Options.BatchSize
	if batchSize <= 0 {
		batchSize = o.batchSize
	}

	result := &model.ImportResult{TotalRows: len(rows)}
	submit := rows
	if opts.Options.ValidateBeforeImport {
		submit = o.validateRows(rows, opts.Options.SkipInvalidRows, result)
	}

	failedSet := make(map[int]struct{})
	for _, msg := range result.Errors {
		failedSet[msg.Row] = struct{}{}
	}

	// 进度按 (分组, 行) 对计数：每个分组都是对同一行集的独立一遍
	total := len(groups) * len(submit)
	current := 0
	emit := func(group string) {
		if opts.Progress == nil {
			return
		}
		pct := 100
		if total > 0 {
			pct = current * 100 / total
		}
		opts.Progress(model.ImportProgress{
			Current:      current,
			Total:        total,
			CurrentGroup: group,
			Percentage:   pct,
		})
	}
	emit("")

	cancelled := false

groupLoop:
	for groupIdx, group := range groups {
		groupStart := current

		for batchStart := 0; batchStart < len(submit); batchStart += batchSize {
			if ctx.Err() != nil {
				cancelled = true
				break groupLoop
			}

			batchEnd := batchStart + batchSize
			if batchEnd > len(submit) {
				batchEnd = len(submit)
			}
			batch := submit[batchStart:batchEnd]

			outcome, err := o.backend.BulkImport(period.ID, group, opts.Mode, batch)
			if err != nil {
				// 整组失败：本批及剩余行全部计失败，继续下一分组
				msg := fmt.Sprintf("分组 %s 导入失败: %v", group.DisplayName(), err)
				for i := batchStart; i < len(submit); i++ {
					result.FailedCount++
					result.Errors = append(result.Errors, model.RowMessage{
						Row:     submit[i].RowNumber,
						Message: msg,
					})
					failedSet[submit[i].RowNumber] = struct{}{}
				}
				break
			}

			result.SuccessCount += outcome.SuccessCount
			result.FailedCount += outcome.FailedCount
			result.SkippedCount += outcome.SkippedCount
			result.Errors = append(result.Errors, outcome.Errors...)
			result.Warnings = append(result.Warnings, outcome.Warnings...)
			for _, msg := range outcome.Errors {
				failedSet[msg.Row] = struct{}{}
			}

			current += len(batch)
			emit(group.DisplayName())

			if o.batchDelay > 0 && batchEnd < len(submit) {
				if !sleepCtx(ctx, o.batchDelay) {
					cancelled = true
					break groupLoop
				}
			}
		}

		// 分组结束：进度推进到整组末尾（整组失败时失败行也计入已处理）
		current = groupStart + len(submit)
		emit(group.DisplayName())

		if o.batchDelay > 0 && groupIdx < len(groups)-1 {
			if !sleepCtx(ctx, o.batchDelay) {
				cancelled = true
				break groupLoop
			}
		}
	}

	// 失败行按原顺序收集，供重试复用
	result.FailedRows = nil
	for i := range rows {
		if _, ok := failedSet[rows[i].RowNumber]; ok {
			result.FailedRows = append(result.FailedRows, rows[i])
		}
	}
	o.failedRows = result.FailedRows

	if cancelled {
		result.Warnings = append(result.Warnings, model.RowMessage{
			Message: "导入已取消，已提交的分组保持导入状态",
		})
	}
	result.Success = !cancelled && result.FailedCount == 0

	return result, nil
}

// validateRows 提交前校验：缺少员工标识的行按配置计为跳过或失败
func (o *Orchestrator) validateRows(rows []model.DataRow, skipInvalid bool, result *model.ImportResult) []model.DataRow {
	valid := make([]model.DataRow, 0, len(rows))
	for i := range rows {
		row := rows[i]
		if row.HasIdentity() {
			valid = append(valid, row)
			continue
		}
		if skipInvalid {
			result.SkippedCount++
			result.Warnings = append(result.Warnings, model.RowMessage{
				Row:     row.RowNumber,
				Message: "行缺少员工标识，已跳过",
			})
		} else {
			result.FailedCount++
			result.Errors = append(result.Errors, model.RowMessage{
				Row:     row.RowNumber,
				Message: "行缺少员工标识（姓名/员工编号/身份证号 至少填写一项）",
			})
		}
	}
	return valid
}

// sleepCtx 可取消的停顿；返回 false 表示被取消
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
