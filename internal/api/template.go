package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vmxmy/salary-system-v3-sub007/internal/service/excel"
)

// DownloadTemplate 下载导入模板
// GET /api/template
func (h *Handler) DownloadTemplate(c *gin.Context) {
	file, err := excel.BuildTemplate()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成模板失败: " + err.Error()})
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", buildContentDisposition("payroll-template.xlsx", excel.TemplateFilename()))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := file.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "写入文件失败"})
		return
	}
}
