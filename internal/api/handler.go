package api

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vmxmy/salary-system-v3-sub007/internal/config"
	"github.com/vmxmy/salary-system-v3-sub007/internal/store"
)

// Handler API 处理器
type Handler struct {
	store     *store.Store
	cfg       *config.AppConfig
	sessions  *sessionStore
	downloads *exportDownloadStore
}

// NewHandler 创建 API 处理器
func NewHandler(store *store.Store, cfg *config.AppConfig) *Handler {
	return &Handler{
		store:     store,
		cfg:       cfg,
		sessions:  newSessionStore(),
		downloads: newExportDownloadStore(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	// 可用月份
	router.GET("/months", h.ListMonths)

	// 导入模板
	router.GET("/template", h.DownloadTemplate)

	// 数据导入：先上传解析，再流式导入
	router.POST("/upload", h.Upload)
	router.POST("/import", h.Import)
	router.POST("/import/retry", h.RetryImport)

	// 数据导出
	router.POST("/export", h.Export)
	router.GET("/export/download/:token", h.DownloadExport)
	router.GET("/export/summary", h.ExportSummary)
}

// parseMonth 解析 YYYY-MM 月份参数
func parseMonth(s string) (int, int, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("非法月份格式: %q，应为 YYYY-MM", s)
	}
	return t.Year(), int(t.Month()), nil
}

// buildContentDisposition 下载响应头：ASCII 回退名 + UTF-8 原始文件名
func buildContentDisposition(fallback, filename string) string {
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", fallback, url.PathEscape(filename))
}
