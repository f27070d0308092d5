package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
)

type monthsResponse struct {
	Items []model.AvailableMonth `json:"items"`
}

// ListMonths 获取已有数据的薪资月份列表（按年月倒序）
// GET /api/months
func (h *Handler) ListMonths(c *gin.Context) {
	items, err := h.store.ListAvailableMonths()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if items == nil {
		items = []model.AvailableMonth{}
	}

	c.JSON(http.StatusOK, monthsResponse{Items: items})
}
