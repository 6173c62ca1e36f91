package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"adscan-go/internal/assessment"
	"adscan-go/internal/config"
	"adscan-go/pkg/classifier"
	"adscan-go/pkg/log"
	"adscan-go/pkg/storage"
)

// 单次上传的图片数量与大小上限。
const (
	MaxImagesPerUpload = 10
	MaxImageSizeBytes  = 10 << 20 // 10MB
)

// UploadedImage 是一张待分类的上传图片。
type UploadedImage struct {
	Filename string
	Data     []byte
}

// ScanService 接口定义了扫描图片上传与分类的业务操作。
type ScanService interface {
	// ClassifyUpload 将图片写入对象存储并逐张调用分类服务，
	// 返回每张图片的规范化扫描结果。
	ClassifyUpload(ctx context.Context, userID uint, images []UploadedImage, toneHint string) ([]assessment.ScanResult, error)
}

type scanService struct {
	classifier classifier.Client
	bucket     string
}

// NewScanService 创建一个新的 ScanService 实例。
func NewScanService(cls classifier.Client) ScanService {
	return &scanService{
		classifier: cls,
		bucket:     config.Conf.MinIO.BucketName,
	}
}

// ClassifyUpload 处理一批上传图片：逐张存入 MinIO 后调用分类器。
// 单张图片分类失败不会中断整批处理，该图片将被跳过并记录日志；
// 所有图片都失败时返回错误。
func (s *scanService) ClassifyUpload(ctx context.Context, userID uint, images []UploadedImage, toneHint string) ([]assessment.ScanResult, error) {
	if len(images) == 0 {
		return nil, errors.New("至少需要上传一张图片")
	}
	if len(images) > MaxImagesPerUpload {
		return nil, fmt.Errorf("单次最多上传 %d 张图片", MaxImagesPerUpload)
	}

	tone := assessment.SkinToneLight
	if strings.EqualFold(strings.TrimSpace(toneHint), string(assessment.SkinToneDark)) {
		tone = assessment.SkinToneDark
	}

	results := make([]assessment.ScanResult, 0, len(images))
	for _, img := range images {
		if len(img.Data) == 0 {
			log.Warnf("[ScanService] 跳过空文件: %s", img.Filename)
			continue
		}
		if len(img.Data) > MaxImageSizeBytes {
			log.Warnf("[ScanService] 跳过超出大小限制的文件: %s (%d bytes)", img.Filename, len(img.Data))
			continue
		}
		if !isSupportedImage(img.Filename) {
			log.Warnf("[ScanService] 跳过不支持的文件类型: %s", img.Filename)
			continue
		}

		objectName := scanObjectName(userID, img.Filename)
		if err := storage.PutObject(ctx, s.bucket, objectName, bytes.NewReader(img.Data), int64(len(img.Data)), contentTypeFor(img.Filename)); err != nil {
			log.Errorf("[ScanService] 上传图片到对象存储失败: %s, error: %v", img.Filename, err)
			continue
		}

		pred, err := s.classifier.Classify(ctx, img.Data, img.Filename, tone)
		if err != nil {
			log.Errorf("[ScanService] 图片分类失败: %s, error: %v", img.Filename, err)
			continue
		}

		results = append(results, assessment.ScanResult{
			Filename:    img.Filename,
			Prediction:  pred,
			ImageObject: objectName,
		})
	}

	if len(results) == 0 {
		return nil, errors.New("所有图片均处理失败")
	}
	return results, nil
}

// scanObjectName 为上传图片生成对象键：scans/{userID}/{纳秒时间戳}-{文件名}。
func scanObjectName(userID uint, filename string) string {
	base := filepath.Base(filename)
	return fmt.Sprintf("scans/%d/%d-%s", userID, time.Now().UnixNano(), base)
}

// isSupportedImage 判断文件扩展名是否为支持的图片格式。
func isSupportedImage(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

// contentTypeFor 根据扩展名返回 MIME 类型。
func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
