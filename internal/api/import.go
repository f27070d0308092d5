package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vmxmy/salary-system-v3-sub007/internal/importer"
	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
)

// ImportRequest 导入请求
type ImportRequest struct {
	FileID  string              `json:"fileId"`
	Groups  []string            `json:"groups"`
	Mode    string              `json:"mode"`
	Month   string              `json:"month"` // YYYY-MM
	Options model.ImportOptions `json:"options"`
}

type importEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Import 导入已上传的工资数据 (SSE 流式响应)
// POST /api/import
func (h *Handler) Import(c *gin.Context) {
	opts, sess, ok := h.bindImportRequest(c, false)
	if !ok {
		return
	}
	h.streamImport(c, sess, opts)
}

// RetryImport 重试上一次导入的失败行 (SSE 流式响应)
// POST /api/import/retry
func (h *Handler) RetryImport(c *gin.Context) {
	opts, sess, ok := h.bindImportRequest(c, true)
	if !ok {
		return
	}
	h.streamImport(c, sess, opts)
}

// bindImportRequest 解析并校验导入请求，失败时已写入错误响应
func (h *Handler) bindImportRequest(c *gin.Context, retry bool) (importer.RunOptions, *uploadSession, bool) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return importer.RunOptions{}, nil, false
	}

	sess, ok := h.sessions.get(req.FileID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "上传会话不存在或已过期，请重新上传文件"})
		return importer.RunOptions{}, nil, false
	}

	mode, err := model.ParseImportMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return importer.RunOptions{}, nil, false
	}

	groups := make([]model.DataGroup, 0, len(req.Groups))
	for _, g := range req.Groups {
		group, err := model.ParseDataGroup(g)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return importer.RunOptions{}, nil, false
		}
		groups = append(groups, group)
	}
	if len(groups) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未选择数据分组"})
		return importer.RunOptions{}, nil, false
	}

	year, month, err := parseMonth(req.Month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return importer.RunOptions{}, nil, false
	}

	return importer.RunOptions{
		Rows:    sess.rows,
		Groups:  groups,
		Mode:    mode,
		Year:    year,
		Month:   month,
		Options: req.Options,
		Retry:   retry,
	}, sess, true
}

// streamImport 以 SSE 推送导入进度与最终结果
// 客户端断开连接会取消导入（批次边界生效，已提交的分组不回滚）。
func (h *Handler) streamImport(c *gin.Context, sess *uploadSession, opts importer.RunOptions) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	events := make(chan importEvent, 64)

	opts.Progress = func(p model.ImportProgress) {
		select {
		case events <- importEvent{
			Type:      "progress",
			Message:   p.CurrentGroup,
			Data:      p,
			Timestamp: time.Now(),
		}:
		default:
			// 消费不及时时丢弃中间进度，最终结果不受影响
		}
	}

	go func() {
		defer close(events)

		events <- importEvent{
			Type:    "start",
			Message: "开始导入",
			Data: map[string]any{
				"filename": sess.filename,
				"year":     opts.Year,
				"month":    opts.Month,
			},
			Timestamp: time.Now(),
		}

		result, err := sess.orch.Run(c.Request.Context(), opts)
		if err != nil {
			events <- importEvent{
				Type:      "error",
				Message:   "导入失败: " + err.Error(),
				Data:      map[string]any{},
				Timestamp: time.Now(),
			}
			return
		}

		// 写入导入日志，失败不影响响应
		if period, perr := h.store.PeriodByMonth(opts.Year, opts.Month); perr == nil && period != nil {
			_ = h.store.LogImport(period.ID, sess.filename, opts.Mode, result)
		}

		events <- importEvent{
			Type:      "done",
			Message:   "导入完成",
			Data:      result,
			Timestamp: time.Now(),
		}
	}()

	for event := range events {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}
