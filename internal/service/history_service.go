package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"adscan-go/internal/assessment"
	"adscan-go/internal/config"
	"adscan-go/internal/model"
	"adscan-go/internal/report"
	"adscan-go/internal/repository"
	"adscan-go/pkg/es"
	"adscan-go/pkg/log"
	"adscan-go/pkg/storage"
)

// ErrChatNotOwned 表示请求的评估记录不属于当前用户。
var ErrChatNotOwned = errors.New("评估记录不存在或无权访问")

// ScanSummary 是历史列表中一条评估记录的摘要。
type ScanSummary struct {
	ID              uint            `json:"id"`
	Title           string          `json:"title"`
	AssessmentLevel string          `json:"assessment_level"`
	FinalConfidence float64         `json:"final_confidence"`
	ImagesAnalyzed  int             `json:"images_analyzed"`
	HasPDF          bool            `json:"has_pdf"`
	CreatedAt       model.LocalTime `json:"created_at"`
}

// HistoryService 接口定义了评估历史的查询、删除与 PDF 下载操作。
type HistoryService interface {
	ListScans(userID uint) ([]ScanSummary, error)
	GetScanDetails(userID, chatID uint) (*model.Chat, error)
	DeleteScan(ctx context.Context, userID, chatID uint) error
	// DownloadPDF 返回评估报告的 PDF 字节与建议的下载文件名。
	// 异步渲染尚未完成或失败时会同步补渲染。
	DownloadPDF(ctx context.Context, userID, chatID uint) ([]byte, string, error)
	// EnsurePDF 渲染并存储指定记录的 PDF（若尚不存在），返回对象键。
	EnsurePDF(ctx context.Context, chatID uint) (string, error)
	// IndexAssessment 把评估摘要写入分析索引，幂等（按文档 ID 覆盖写入）。
	IndexAssessment(ctx context.Context, chatID uint) error
}

type historyService struct {
	chatRepo repository.ChatRepository
	bucket   string
	esIndex  string
}

// NewHistoryService 创建一个新的 HistoryService 实例。
func NewHistoryService(chatRepo repository.ChatRepository) HistoryService {
	return &historyService{
		chatRepo: chatRepo,
		bucket:   config.Conf.MinIO.BucketName,
		esIndex:  config.Conf.Elasticsearch.IndexName,
	}
}

// ListScans 返回用户全部评估记录的摘要，按创建时间倒序。
func (s *historyService) ListScans(userID uint) ([]ScanSummary, error) {
	chats, err := s.chatRepo.FindByUser(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ScanSummary, 0, len(chats))
	for _, c := range chats {
		if c.Kind != model.ChatKindAssessment {
			continue
		}
		summary := ScanSummary{
			ID:        c.ID,
			Title:     c.Title,
			HasPDF:    c.PDFObject != "",
			CreatedAt: model.LocalTime(c.CreatedAt),
		}
		if rep, _, _, _, err := decodeAssessmentChat(&c); err == nil {
			summary.AssessmentLevel = rep.AssessmentLevel
			summary.FinalConfidence = rep.FinalConfidence
			summary.ImagesAnalyzed = rep.ImagesAnalyzed
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetScanDetails 返回一条评估记录的完整消息日志，校验归属。
func (s *historyService) GetScanDetails(userID, chatID uint) (*model.Chat, error) {
	return s.ownedChat(userID, chatID)
}

// DeleteScan 删除一条评估记录及其关联资源：扫描图片、PDF 与分析索引文档。
// 外部资源清理失败只记录日志，数据库记录仍会删除。
func (s *historyService) DeleteScan(ctx context.Context, userID, chatID uint) error {
	chat, err := s.ownedChat(userID, chatID)
	if err != nil {
		return err
	}

	if _, _, _, results, err := decodeAssessmentChat(chat); err == nil {
		for _, r := range results {
			if r.ImageObject == "" {
				continue
			}
			if err := storage.RemoveObject(ctx, s.bucket, r.ImageObject); err != nil {
				log.Errorf("[HistoryService] 删除扫描图片失败: %s, error: %v", r.ImageObject, err)
			}
		}
	}
	if chat.PDFObject != "" {
		if err := storage.RemoveObject(ctx, s.bucket, chat.PDFObject); err != nil {
			log.Errorf("[HistoryService] 删除报告 PDF 失败: %s, error: %v", chat.PDFObject, err)
		}
	}
	if err := es.DeleteAssessment(ctx, s.esIndex, assessmentDocID(chat.ID)); err != nil {
		log.Errorf("[HistoryService] 删除分析索引文档失败: chatID=%d, error: %v", chat.ID, err)
	}

	return s.chatRepo.Delete(chat.ID)
}

// DownloadPDF 返回报告 PDF。异步渲染完成时直接读取对象存储，
// 否则按需同步渲染一次。
func (s *historyService) DownloadPDF(ctx context.Context, userID, chatID uint) ([]byte, string, error) {
	chat, err := s.ownedChat(userID, chatID)
	if err != nil {
		return nil, "", err
	}

	objectName := chat.PDFObject
	if objectName == "" {
		objectName, err = s.EnsurePDF(ctx, chat.ID)
		if err != nil {
			return nil, "", err
		}
	}

	data, err := storage.GetObjectBytes(ctx, s.bucket, objectName)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("scan-report-%d.pdf", chat.ID), nil
}

// EnsurePDF 渲染指定评估记录的 PDF 并写入对象存储，幂等：
// 已渲染过的记录直接返回既有对象键。
func (s *historyService) EnsurePDF(ctx context.Context, chatID uint) (string, error) {
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		return "", err
	}
	if chat.PDFObject != "" {
		return chat.PDFObject, nil
	}

	rep, agg, answers, results, err := decodeAssessmentChat(chat)
	if err != nil {
		return "", err
	}

	pdfBytes, err := report.RenderPDF(ctx, rep, answers, results, agg, minioImageSource{bucket: s.bucket})
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("reports/chat-%d.pdf", chat.ID)
	if err := storage.PutObject(ctx, s.bucket, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		return "", err
	}

	chat.PDFObject = objectName
	if err := s.chatRepo.Update(chat); err != nil {
		return "", err
	}
	return objectName, nil
}

// IndexAssessment 解码评估记录并将摘要写入 Elasticsearch 分析索引。
func (s *historyService) IndexAssessment(ctx context.Context, chatID uint) error {
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		return err
	}
	rep, agg, _, _, err := decodeAssessmentChat(chat)
	if err != nil {
		return err
	}

	doc := es.AssessmentDoc{
		DocID:           assessmentDocID(chat.ID),
		ChatID:          chat.ID,
		UserID:          chat.UserID,
		UserType:        string(agg.UserType),
		AssessmentLevel: rep.AssessmentLevel,
		FinalConfidence: rep.FinalConfidence,
		SkinTone:        string(rep.SkinTone),
		ImagesAnalyzed:  rep.ImagesAnalyzed,
		CreatedAt:       chat.CreatedAt,
	}
	return es.IndexAssessment(ctx, s.esIndex, doc)
}

// ownedChat 读取评估记录并校验归属。
func (s *historyService) ownedChat(userID, chatID uint) (*model.Chat, error) {
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		return nil, ErrChatNotOwned
	}
	if chat.UserID != userID || chat.Kind != model.ChatKindAssessment {
		return nil, ErrChatNotOwned
	}
	return chat, nil
}

// minioImageSource 用 MinIO 实现 report.ImageSource。
type minioImageSource struct {
	bucket string
}

func (m minioImageSource) Fetch(ctx context.Context, objectKey string) ([]byte, error) {
	return storage.GetObjectBytes(ctx, m.bucket, objectKey)
}

// assessmentDocID 生成评估记录在分析索引中的文档 ID。
func assessmentDocID(chatID uint) string {
	return fmt.Sprintf("chat-%d", chatID)
}

// decodeAssessmentChat 从消息日志的 meta 中还原评估的结构化数据。
// 保存时 toJSONValue 已把结构体降级为通用 JSON 值，这里做反向转换。
func decodeAssessmentChat(chat *model.Chat) (assessment.Report, assessment.Assessment, map[string]interface{}, []assessment.ScanResult, error) {
	var (
		rep     assessment.Report
		agg     assessment.Assessment
		answers map[string]interface{}
		results []assessment.ScanResult
	)

	for _, msg := range chat.Messages {
		switch msg.Sender {
		case "user":
			if raw, ok := msg.Meta["answers"].(map[string]interface{}); ok {
				answers = raw
			}
		case "ai":
			if err := remarshal(msg.Meta["report"], &rep); err != nil {
				return rep, agg, nil, nil, fmt.Errorf("解析报告数据失败: %w", err)
			}
			if err := remarshal(msg.Meta["assessment"], &agg); err != nil {
				return rep, agg, nil, nil, fmt.Errorf("解析评估数据失败: %w", err)
			}
			if err := remarshal(msg.Meta["scan_results"], &results); err != nil {
				return rep, agg, nil, nil, fmt.Errorf("解析扫描结果失败: %w", err)
			}
		}
	}

	if rep.ReportType == "" {
		return rep, agg, nil, nil, errors.New("记录中缺少评估报告数据")
	}
	return rep, agg, answers, results, nil
}

// remarshal 把通用 JSON 值重新序列化到目标结构体。
func remarshal(v interface{}, target interface{}) error {
	if v == nil {
		return errors.New("字段不存在")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
