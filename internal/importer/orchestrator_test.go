package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
)

type bulkCall struct {
	group model.DataGroup
	rows  []int
}

type fakeBackend struct {
	period    *model.PayrollPeriod
	periodErr error

	failGroups map[model.DataGroup]bool
	rowErrs    map[int]string

	calls []bulkCall
}

func (f *fakeBackend) ResolvePeriod(year, month int) (*model.PayrollPeriod, error) {
	if f.periodErr != nil {
		return nil, f.periodErr
	}
	if f.period != nil {
		return f.period, nil
	}
	return &model.PayrollPeriod{ID: "p1", Year: year, Month: month}, nil
}

func (f *fakeBackend) BulkImport(periodID string, group model.DataGroup, mode model.ImportMode, rows []model.DataRow) (*model.GroupOutcome, error) {
	nums := make([]int, len(rows))
	for i, r := range rows {
		nums[i] = r.RowNumber
	}
	f.calls = append(f.calls, bulkCall{group: group, rows: nums})

	if f.failGroups[group] {
		return nil, errors.New("storage unavailable")
	}

	outcome := &model.GroupOutcome{}
	for _, r := range rows {
		if msg, ok := f.rowErrs[r.RowNumber]; ok {
			outcome.FailedCount++
			outcome.Errors = append(outcome.Errors, model.RowMessage{Row: r.RowNumber, Message: msg})
			continue
		}
		outcome.SuccessCount++
	}
	return outcome, nil
}

func testRows(n int) []model.DataRow {
	rows := make([]model.DataRow, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, model.NewDataRow(i, model.SheetBasicInfo, map[string]string{
			model.ColName: "员工" + string(rune('A'+i-1)),
		}))
	}
	return rows
}

func TestRun_AllGroupsSucceed(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	orch := NewOrchestrator(backend, 2, 0)

	var progresses []model.ImportProgress
	result, err := orch.Run(context.Background(), RunOptions{
		Rows:   testRows(3),
		Groups: []model.DataGroup{model.GroupAll},
		Mode:   model.ModeUpsert,
		Year:   2026,
		Month:  1,
		Progress: func(p model.ImportProgress) {
			progresses = append(progresses, p)
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success: %+v", result)
	}
	// all 展开为 4 个分组，每组对同一行集独立一遍
	if result.SuccessCount != 12 {
		t.Fatalf("success count: %d", result.SuccessCount)
	}
	if result.TotalRows != 3 {
		t.Fatalf("total rows: %d", result.TotalRows)
	}
	if len(backend.calls) != 8 {
		t.Fatalf("bulk calls: %d", len(backend.calls))
	}

	last := -1
	for _, p := range progresses {
		if p.Total != 12 {
			t.Fatalf("progress total: %+v", p)
		}
		if p.Current < last {
			t.Fatalf("progress went backwards: %+v", progresses)
		}
		last = p.Current
	}
	if last != 12 {
		t.Fatalf("final progress: %d", last)
	}
	if progresses[len(progresses)-1].Percentage != 100 {
		t.Fatalf("final percentage: %+v", progresses[len(progresses)-1])
	}
}

func TestRun_GroupFailureIsolation(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		failGroups: map[model.DataGroup]bool{model.GroupContributionBases: true},
	}
	orch := NewOrchestrator(backend, 10, 0)

	result, err := orch.Run(context.Background(), RunOptions{
		Rows: testRows(3),
		Groups: []model.DataGroup{
			model.GroupEarnings,
			model.GroupContributionBases,
			model.GroupCategoryAssignment,
		},
		Mode:  model.ModeUpsert,
		Year:  2026,
		Month: 1,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Success {
		t.Fatalf("expected partial failure")
	}
	if result.SuccessCount != 6 || result.FailedCount != 3 {
		t.Fatalf("counts: success=%d failed=%d", result.SuccessCount, result.FailedCount)
	}
	if len(result.FailedRows) != 3 {
		t.Fatalf("failed rows: %d", len(result.FailedRows))
	}
	if len(result.Errors) != 3 {
		t.Fatalf("errors: %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Message, "缴费基数") {
		t.Fatalf("error message: %s", result.Errors[0].Message)
	}

	// 失败分组之后的分组仍被处理
	groups := make([]model.DataGroup, 0, len(backend.calls))
	for _, c := range backend.calls {
		groups = append(groups, c.group)
	}
	if groups[len(groups)-1] != model.GroupCategoryAssignment {
		t.Fatalf("groups processed: %v", groups)
	}
}

func TestRun_RetryUsesFailedRows(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		rowErrs: map[int]string{2: "字段格式错误"},
	}
	orch := NewOrchestrator(backend, 10, 0)

	result, err := orch.Run(context.Background(), RunOptions{
		Rows:   testRows(3),
		Groups: []model.DataGroup{model.GroupEarnings},
		Mode:   model.ModeUpsert,
		Year:   2026,
		Month:  1,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Success || len(result.FailedRows) != 1 || result.FailedRows[0].RowNumber != 2 {
		t.Fatalf("first run: %+v", result)
	}

	// 修复后重试，只提交失败行
	backend.rowErrs = nil
	backend.calls = nil

	retry, err := orch.Run(context.Background(), RunOptions{
		Groups: []model.DataGroup{model.GroupEarnings},
		Mode:   model.ModeUpsert,
		Year:   2026,
		Month:  1,
		Retry:  true,
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !retry.Success || retry.SuccessCount != 1 {
		t.Fatalf("retry result: %+v", retry)
	}
	if len(backend.calls) != 1 || len(backend.calls[0].rows) != 1 || backend.calls[0].rows[0] != 2 {
		t.Fatalf("retry calls: %+v", backend.calls)
	}

	// 重试成功后没有失败行可再重试
	if _, err := orch.Run(context.Background(), RunOptions{
		Groups: []model.DataGroup{model.GroupEarnings},
		Mode:   model.ModeUpsert,
		Year:   2026,
		Month:  1,
		Retry:  true,
	}); err == nil {
		t.Fatalf("expected no-retryable-rows error")
	}
}

func TestRun_PeriodResolveFailureIsFatal(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{periodErr: errors.New("db locked")}
	orch := NewOrchestrator(backend, 10, 0)

	_, err := orch.Run(context.Background(), RunOptions{
		Rows:   testRows(2),
		Groups: []model.DataGroup{model.GroupEarnings},
		Mode:   model.ModeUpsert,
		Year:   2026,
		Month:  1,
	})
	if err == nil {
		t.Fatalf("expected fatal error")
	}
	if len(backend.calls) != 0 {
		t.Fatalf("no group should be processed: %v", backend.calls)
	}
}

func TestRun_CancelAtBatchBoundary(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	orch := NewOrchestrator(backend, 1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	result, err := orch.Run(ctx, RunOptions{
		Rows:   testRows(5),
		Groups: []model.DataGroup{model.GroupEarnings, model.GroupCategoryAssignment},
		Mode:   model.ModeUpsert,
		Year:   2026,
		Month:  1,
		Progress: func(p model.ImportProgress) {
			if p.Current >= 2 {
				cancel()
			}
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Success {
		t.Fatalf("cancelled run should not be success")
	}
	cancelledWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w.Message, "导入已取消") {
			cancelledWarning = true
		}
	}
	if !cancelledWarning {
		t.Fatalf("want cancel warning: %v", result.Warnings)
	}
	// 已提交的批次保持导入状态
	if len(backend.calls) == 0 || len(backend.calls) >= 10 {
		t.Fatalf("calls: %d", len(backend.calls))
	}
}

func TestRun_ValidateBeforeImport(t *testing.T) {
	t.Parallel()

	rows := testRows(2)
	rows = append(rows, model.NewDataRow(3, model.SheetBasicInfo, map[string]string{"部门名称": "财务部"}))

	backend := &fakeBackend{}
	orch := NewOrchestrator(backend, 10, 0)

	result, err := orch.Run(context.Background(), RunOptions{
		Rows:   rows,
		Groups: []model.DataGroup{model.GroupEarnings},
		Mode:   model.ModeUpsert,
		Year:   2026,
		Month:  1,
		Options: model.ImportOptions{
			ValidateBeforeImport: true,
			SkipInvalidRows:      true,
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.SkippedCount != 1 || result.SuccessCount != 2 {
		t.Fatalf("counts: %+v", result)
	}
	if !result.Success {
		t.Fatalf("skipped rows should not fail the run")
	}
	if len(backend.calls[0].rows) != 2 {
		t.Fatalf("submitted rows: %v", backend.calls[0].rows)
	}

	// 不跳过时计为失败并进入失败行
	orch2 := NewOrchestrator(&fakeBackend{}, 10, 0)
	result, err = orch2.Run(context.Background(), RunOptions{
		Rows:   rows,
		Groups: []model.DataGroup{model.GroupEarnings},
		Mode:   model.ModeUpsert,
		Year:   2026,
		Month:  1,
		Options: model.ImportOptions{
			ValidateBeforeImport: true,
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Success || result.FailedCount != 1 {
		t.Fatalf("counts: %+v", result)
	}
	if len(result.FailedRows) != 1 || result.FailedRows[0].RowNumber != 3 {
		t.Fatalf("failed rows: %+v", result.FailedRows)
	}
}

func TestRun_InputValidation(t *testing.T) {
	t.Parallel()

	orch := NewOrchestrator(&fakeBackend{}, 10, 0)

	if _, err := orch.Run(context.Background(), RunOptions{
		Rows: testRows(1),
		Mode: model.ModeUpsert,
		Year: 2026, Month: 1,
	}); err == nil {
		t.Fatalf("expected error for empty groups")
	}

	if _, err := orch.Run(context.Background(), RunOptions{
		Groups: []model.DataGroup{model.GroupEarnings},
		Mode:   model.ModeUpsert,
		Year:   2026, Month: 1,
	}); err == nil {
		t.Fatalf("expected error for empty rows")
	}
}
