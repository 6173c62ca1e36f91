// Package pipeline 定义了评估报告的异步渲染流程。
package pipeline

import (
	"context"

	"adscan-go/internal/service"
	"adscan-go/pkg/log"
	"adscan-go/pkg/tasks"
)

// Renderer 消费渲染任务：把评估记录渲染为 PDF 存入对象存储，
// 并把评估摘要写入分析索引。实现 kafka.TaskProcessor。
type Renderer struct {
	history service.HistoryService
}

// NewRenderer 创建一个新的 Renderer 实例。
func NewRenderer(history service.HistoryService) *Renderer {
	return &Renderer{history: history}
}

// Process 处理一个渲染任务。PDF 渲染与索引写入都是幂等的，
// 任务重投不会产生重复数据。
func (r *Renderer) Process(ctx context.Context, task tasks.ReportRenderTask) error {
	log.Infof("[Renderer] 开始渲染评估报告, chatID: %d, userID: %d", task.ChatID, task.UserID)

	objectName, err := r.history.EnsurePDF(ctx, task.ChatID)
	if err != nil {
		log.Errorf("[Renderer] 渲染 PDF 失败, chatID: %d, error: %v", task.ChatID, err)
		return err
	}
	log.Infof("[Renderer] PDF 已写入对象存储: %s", objectName)

	if err := r.history.IndexAssessment(ctx, task.ChatID); err != nil {
		log.Errorf("[Renderer] 写入分析索引失败, chatID: %d, error: %v", task.ChatID, err)
		return err
	}

	log.Infof("[Renderer] 渲染任务完成, chatID: %d", task.ChatID)
	return nil
}
