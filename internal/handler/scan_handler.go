package handler

import (
	"io"
	"net/http"

	"adscan-go/internal/service"
	"adscan-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ScanHandler 负责处理扫描图片上传与分类的 API 请求。
type ScanHandler struct {
	scanService service.ScanService
}

// NewScanHandler 创建一个新的 ScanHandler 实例。
func NewScanHandler(scanService service.ScanService) *ScanHandler {
	return &ScanHandler{scanService: scanService}
}

// Upload 接收一批 multipart 图片（字段名 images），逐张分类后返回扫描结果。
// 可选表单字段 skin_tone 作为肤色提示传给分类器。
func (h *ScanHandler) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 multipart 请求"})
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		// 兼容单文件字段名
		files = form.File["image"]
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传的图片"})
		return
	}
	if len(files) > service.MaxImagesPerUpload {
		c.JSON(http.StatusBadRequest, gin.H{"error": "单次最多上传 10 张图片"})
		return
	}

	images := make([]service.UploadedImage, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			log.Warnf("Upload: 打开上传文件失败: %s, error: %v", fh.Filename, err)
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			log.Warnf("Upload: 读取上传文件失败: %s, error: %v", fh.Filename, err)
			continue
		}
		images = append(images, service.UploadedImage{Filename: fh.Filename, Data: data})
	}

	toneHint := c.PostForm("skin_tone")
	results, err := h.scanService.ClassifyUpload(c.Request.Context(), user.ID, images, toneHint)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"results": results,
		},
	})
}
