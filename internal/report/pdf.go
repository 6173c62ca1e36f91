// Package report 将评估报告、扫描图片与原始问答渲染为分页的 PDF 文档。
package report

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"adscan-go/internal/assessment"
	"adscan-go/pkg/log"

	"github.com/jung-kurt/gofpdf"
)

// ImageSource 抽象了按对象键读取已存储扫描图片的能力。
// 生产环境由 MinIO 实现，测试中使用内存实现。
type ImageSource interface {
	Fetch(ctx context.Context, objectKey string) ([]byte, error)
}

// A4 页面（pt）与布局常量。光标从页顶边距开始向下推进，每行前进
// fontSize+2；越过底部边距阈值时换页并复位到页顶边距。
const (
	pageWidth    = 595.28
	pageHeight   = 841.89
	marginLeft   = 50.0
	marginTop    = 50.0
	marginBottom = 50.0

	fontBody   = 12.0
	fontHeader = 14.0
	fontTitle  = 16.0

	imageSize = 100.0 // 图片固定 100x100 嵌入
)

// RenderPDF 将完整的评估结果渲染为单个 PDF 字节缓冲。
// 单张图片嵌入失败只产生一行占位文本，绝不中断其余部分的渲染。
func RenderPDF(ctx context.Context, rep assessment.Report, answers map[string]interface{}, results []assessment.ScanResult, agg assessment.Assessment, images ImageSource) ([]byte, error) {
	doc := build(ctx, rep, answers, results, agg, images)

	var buf bytes.Buffer
	if err := doc.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output failed: %w", err)
	}
	return buf.Bytes(), nil
}

// document 持有渲染状态：PDF 对象与当前的纵向光标。
type document struct {
	pdf *gofpdf.Fpdf
	y   float64
	seq int // 已注册图片的序号，保证注册名唯一
}

func build(ctx context.Context, rep assessment.Report, answers map[string]interface{}, results []assessment.ScanResult, agg assessment.Assessment, images ImageSource) *document {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	d := &document{pdf: pdf, y: marginTop}

	// (1) 标题与摘要
	d.line(rep.Title, fontTitle, true)
	d.wrapped(rep.Summary, fontBody, false)
	d.gap()

	// (2) 逐张扫描图片
	if len(results) > 0 {
		d.line("Analyzed Images", fontHeader, true)
		for _, r := range results {
			d.image(ctx, r, images)
		}
		d.gap()
	}

	// (3) 原始预测结果
	if len(results) > 0 {
		d.line("Prediction Results", fontHeader, true)
		for _, r := range results {
			d.wrapped(fmt.Sprintf("%s: %s (score %.2f, model: %s)",
				r.Filename, r.Prediction.Label, r.Prediction.Score, r.Prediction.ModelUsed), fontBody, false)
		}
		d.gap()
	}

	// (4) 症状问答原文
	if len(answers) > 0 {
		d.line("Symptom Responses", fontHeader, true)
		for _, key := range orderedAnswerKeys(answers) {
			d.wrapped(fmt.Sprintf("%s: %v", key, answers[key]), fontBody, false)
		}
		d.gap()
	}

	// (5) 评估详情
	d.line("Assessment Details", fontHeader, true)
	d.line(fmt.Sprintf("Assessment level: %s", rep.AssessmentLevel), fontBody, false)
	d.line(fmt.Sprintf("Final confidence: %.2f", agg.FinalConfidence), fontBody, false)
	d.line(fmt.Sprintf("Skin tone considered: %s", agg.SkinToneConsidered), fontBody, false)
	for _, item := range rep.Breakdown {
		d.wrapped(fmt.Sprintf("%s: %s", item.Label, item.Value), fontBody, false)
	}
	d.bullets(rep.KeyFindings)
	d.bullets(rep.Recommendations)
	if rep.WhatThisMeans != "" {
		d.wrapped(rep.WhatThisMeans, fontBody, false)
	}
	d.bullets(rep.NextSteps)
	d.gap()

	// (6) 最终结果摘要
	d.line("Final Result", fontHeader, true)
	d.line(fmt.Sprintf("Confidence: %.0f%%", rep.FinalConfidence*100), fontBody, false)
	d.line(fmt.Sprintf("Urgency: %s", rep.Urgency), fontBody, false)
	d.line(fmt.Sprintf("Generated: %s", rep.Timestamp.Format("2006-01-02 15:04:05")), fontBody, false)

	return d
}

// ensure 保证当前页还有 h 的纵向空间，否则换页并复位光标。
func (d *document) ensure(h float64) {
	if d.y+h > pageHeight-marginBottom {
		d.pdf.AddPage()
		d.y = marginTop
	}
}

// line 输出一行文字并推进光标。
func (d *document) line(text string, size float64, bold bool) {
	d.ensure(size + 2)
	style := ""
	if bold {
		style = "B"
	}
	d.pdf.SetFont("Helvetica", style, size)
	d.pdf.Text(marginLeft, d.y+size, text)
	d.y += size + 2
}

// wrapped 按可用宽度拆行后逐行输出。
func (d *document) wrapped(text string, size float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	d.pdf.SetFont("Helvetica", style, size)
	lines := d.pdf.SplitText(text, pageWidth-2*marginLeft)
	for _, l := range lines {
		d.line(l, size, bold)
	}
}

// bullets 仅在列表非空时渲染项目符号行。
func (d *document) bullets(items []string) {
	for _, item := range items {
		d.wrapped("- "+item, fontBody, false)
	}
}

// gap 在节之间留出一行空白。
func (d *document) gap() {
	d.ensure(fontBody + 2)
	d.y += fontBody + 2
}

// image 嵌入一张 100x100 的扫描图片；获取或注册失败时降级为占位文本行。
func (d *document) image(ctx context.Context, r assessment.ScanResult, images ImageSource) {
	d.wrapped(fmt.Sprintf("Image: %s", r.Filename), fontBody, false)

	if images == nil || r.ImageObject == "" {
		d.line(fmt.Sprintf("[image not available: %s]", r.Filename), fontBody, false)
		return
	}

	data, err := images.Fetch(ctx, r.ImageObject)
	if err != nil {
		log.Warnf("[Report] 获取扫描图片失败, object: %s, error: %v", r.ImageObject, err)
		d.line(fmt.Sprintf("[image not available: %s]", r.Filename), fontBody, false)
		return
	}

	imgType := imageType(r.Filename)
	d.seq++
	name := fmt.Sprintf("scan-%d", d.seq)
	opts := gofpdf.ImageOptions{ImageType: imgType, ReadDpi: true}
	info := d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if info == nil || d.pdf.Err() {
		// 注册失败会污染 pdf 的错误状态，必须清除后继续渲染其余内容
		log.Warnf("[Report] 注册图片失败, object: %s, error: %v", r.ImageObject, d.pdf.Error())
		d.pdf.ClearError()
		d.line(fmt.Sprintf("[image could not be embedded: %s]", r.Filename), fontBody, false)
		return
	}

	d.ensure(imageSize + 4)
	d.pdf.ImageOptions(name, marginLeft, d.y, imageSize, imageSize, false, opts, 0, "")
	if d.pdf.Err() {
		log.Warnf("[Report] 嵌入图片失败, object: %s, error: %v", r.ImageObject, d.pdf.Error())
		d.pdf.ClearError()
		d.line(fmt.Sprintf("[image could not be embedded: %s]", r.Filename), fontBody, false)
		return
	}
	d.y += imageSize + 4
}

// imageType 按文件扩展名推断 gofpdf 的图片类型标识。
func imageType(filename string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".png"):
		return "PNG"
	case strings.HasSuffix(strings.ToLower(filename), ".gif"):
		return "GIF"
	default:
		return "JPG"
	}
}

// orderedAnswerKeys 先按问卷固定顺序返回已知问题，再按字典序附加其余键，
// 保证同样的输入总是渲染出同样的文档。
func orderedAnswerKeys(answers map[string]interface{}) []string {
	known := []string{
		assessment.QuestionDuration,
		assessment.QuestionItching,
		assessment.QuestionTexture,
		assessment.QuestionLocation,
		assessment.QuestionPigmentation,
	}

	keys := make([]string, 0, len(answers))
	seen := make(map[string]struct{}, len(answers))
	for _, k := range known {
		if _, ok := answers[k]; ok {
			keys = append(keys, k)
			seen[k] = struct{}{}
		}
	}

	rest := make([]string, 0, len(answers))
	for k := range answers {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
