package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized    bool   `json:"initialized"`    // 是否已初始化（有数据）
	PeriodCount    int    `json:"periodCount"`    // 薪资周期数
	RecordCount    int    `json:"recordCount"`    // 工资记录总数
	LastImportTime string `json:"lastImportTime"` // 最后导入时间
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	periodCount, err := h.store.CountPeriods()
	if err != nil {
		c.JSON(http.StatusOK, StatusResponse{
			Initialized: false,
		})
		return
	}

	recordCount, err := h.store.CountRecords("")
	if err != nil {
		recordCount = 0
	}

	lastImport, err := h.store.LastImportTime()
	if err != nil {
		lastImport = ""
	}

	c.JSON(http.StatusOK, StatusResponse{
		Initialized:    recordCount > 0,
		PeriodCount:    periodCount,
		RecordCount:    recordCount,
		LastImportTime: lastImport,
	})
}
