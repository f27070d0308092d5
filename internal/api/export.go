package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
	"github.com/vmxmy/salary-system-v3-sub007/internal/service/excel"
)

// ExportRequest 导出请求
type ExportRequest struct {
	Month  string   `json:"month"` // YYYY-MM
	Groups []string `json:"groups"`
	// IncludeZeroFields 为 nil 时使用配置默认值
	IncludeZeroFields *bool `json:"includeZeroFields"`
}

// Export 导出工资数据，返回一次性下载地址
// POST /api/export
func (h *Handler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	year, month, err := parseMonth(req.Month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	groups := make([]model.DataGroup, 0, len(req.Groups))
	for _, g := range req.Groups {
		group, err := model.ParseDataGroup(g)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		groups = append(groups, group)
	}

	includeZero := h.cfg.Export.IncludeZeroFields
	if req.IncludeZeroFields != nil {
		includeZero = *req.IncludeZeroFields
	}

	exp := excel.NewExporter(h.store)
	file, err := exp.Export(excel.ExportOptions{
		Year:              year,
		Month:             month,
		Groups:            groups,
		IncludeZeroFields: includeZero,
	})
	if err != nil {
		if errors.Is(err, excel.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败: " + err.Error()})
		return
	}
	defer file.Close()

	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("salarydesk_export_%d_%d.xlsx", time.Now().UnixNano(), os.Getpid()))
	if err := file.SaveAs(tempPath); err != nil {
		_ = os.Remove(tempPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "写入导出文件失败: " + err.Error()})
		return
	}

	filename := excel.ExportFilename(year, month)
	token := h.downloads.put(tempPath, filename, 10*time.Minute)

	c.JSON(http.StatusOK, gin.H{
		"downloadUrl": "/api/export/download/" + token,
		"filename":    filename,
	})
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", buildContentDisposition("payroll-export.xlsx", item.filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.File(item.filePath)

	h.downloads.delete(token)
	_ = os.Remove(item.filePath)
}

// ExportSummary 指定月份的导出汇总（各分组记录数与按人员类别的薪资统计）
// GET /api/export/summary?month=YYYY-MM
func (h *Handler) ExportSummary(c *gin.Context) {
	year, month, err := parseMonth(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	period, err := h.store.PeriodByMonth(year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if period == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "该月份没有数据"})
		return
	}

	groupCounts, err := h.store.GroupCounts(period.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	categories, err := h.store.CategorySummary(period.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	total := 0
	for _, n := range groupCounts {
		total += n
	}

	c.JSON(http.StatusOK, gin.H{
		"month":        period.MonthKey(),
		"period":       period,
		"totalRecords": total,
		"groupCounts":  groupCounts,
		"categories":   categories,
	})
}
