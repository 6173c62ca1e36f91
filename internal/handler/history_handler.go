package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"adscan-go/internal/service"
	"adscan-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// HistoryHandler 负责处理评估历史与 PDF 下载的 API 请求。
type HistoryHandler struct {
	historyService service.HistoryService
}

// NewHistoryHandler 创建一个新的 HistoryHandler 实例。
func NewHistoryHandler(historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// ScanHistory 返回当前用户的全部评估记录摘要。
func (h *HistoryHandler) ScanHistory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return
	}

	summaries, err := h.historyService.ListScans(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询历史记录失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    summaries,
	})
}

// ScanDetails 返回一条评估记录的完整内容。
func (h *HistoryHandler) ScanDetails(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return
	}
	chatID, ok := pathID(c)
	if !ok {
		return
	}

	chat, err := h.historyService.GetScanDetails(user.ID, chatID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    chat,
	})
}

// DeleteScan 删除一条评估记录及其关联资源。
func (h *HistoryHandler) DeleteScan(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return
	}
	chatID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.historyService.DeleteScan(c.Request.Context(), user.ID, chatID); err != nil {
		if errors.Is(err, service.ErrChatNotOwned) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "删除成功",
		"data":    nil,
	})
}

// DownloadPDF 以 application/pdf 流式返回评估报告。
// 异步渲染尚未完成时服务层会同步补渲染。
func (h *HistoryHandler) DownloadPDF(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return
	}
	chatID, ok := pathID(c)
	if !ok {
		return
	}

	data, filename, err := h.historyService.DownloadPDF(c.Request.Context(), user.ID, chatID)
	if err != nil {
		if errors.Is(err, service.ErrChatNotOwned) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Errorf("DownloadPDF: 获取报告失败, chatID: %d, error: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成报告失败"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// pathID 解析路径参数 id，非法时直接写入 400 响应。
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的记录 ID"})
		return 0, false
	}
	return uint(id), true
}
