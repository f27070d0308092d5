package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vmxmy/salary-system-v3-sub007/internal/importer"
	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
	"github.com/vmxmy/salary-system-v3-sub007/internal/service/excel"
)

// UploadResponse 上传解析响应
type UploadResponse struct {
	FileID      string             `json:"fileId"`
	Filename    string             `json:"filename"`
	ParseResult *model.ParseResult `json:"parseResult"`
}

// Upload 上传工资表并解析
// POST /api/upload
// 解析成功后返回 fileId 与诊断快照，导入时凭 fileId 引用本次解析结果。
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer file.Close()

	parser := excel.NewParser()
	if err := parser.LoadFile(file, fileHeader.Filename); err != nil {
		if errors.Is(err, excel.ErrMalformedWorkbook) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "无法解析的工作簿文件，请将文件另存为 .xlsx 后重新上传",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取工作簿失败: " + err.Error()})
		return
	}

	rows, metas, err := parser.ParseWorkbook()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "解析工作簿失败: " + err.Error()})
		return
	}

	result := excel.Analyze(metas, rows)

	orch := importer.NewOrchestrator(
		h.store,
		h.cfg.Import.BatchSize,
		time.Duration(h.cfg.Import.BatchDelayMS)*time.Millisecond,
	)

	h.sessions.put(&uploadSession{
		fileID:   parser.FileID(),
		filename: fileHeader.Filename,
		rows:     rows,
		metas:    metas,
		parse:    result,
		orch:     orch,
	})

	c.JSON(http.StatusOK, UploadResponse{
		FileID:      parser.FileID(),
		Filename:    fileHeader.Filename,
		ParseResult: result,
	})
}
