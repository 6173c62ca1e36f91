package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
	"time"

	"adscan-go/internal/assessment"
	"adscan-go/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

// fakeImageSource 以内存 map 模拟对象存储。
type fakeImageSource struct {
	objects map[string][]byte
}

func (f *fakeImageSource) Fetch(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleInputs() (assessment.Report, map[string]interface{}, []assessment.ScanResult, assessment.Assessment) {
	answers := map[string]interface{}{
		assessment.QuestionDuration: 2,
		assessment.QuestionItching:  3,
	}
	results := []assessment.ScanResult{
		{Filename: "scan1.png", Prediction: assessment.Prediction{Label: assessment.LabelAD, Score: 0.8, ModelUsed: "general model"}, ImageObject: "scans/scan1.png"},
	}
	rep, agg := assessment.Assess(answers, results, assessment.UserTypePatient, "")
	rep.Timestamp = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return rep, answers, results, agg
}

func TestRenderPDFProducesDocument(t *testing.T) {
	rep, answers, results, agg := sampleInputs()
	src := &fakeImageSource{objects: map[string][]byte{"scans/scan1.png": tinyPNG(t)}}

	data, err := RenderPDF(context.Background(), rep, answers, results, agg, src)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

// 图片缺失或损坏时必须降级为占位行，渲染仍然成功。
func TestRenderPDFNeverFailsOnImages(t *testing.T) {
	rep, answers, results, agg := sampleInputs()
	results = append(results, assessment.ScanResult{
		Filename:    "broken.jpg",
		Prediction:  assessment.Prediction{Label: assessment.LabelNotAD, Score: 0.3, ModelUsed: "light skin model"},
		ImageObject: "scans/missing.jpg",
	})

	tests := []struct {
		name   string
		source ImageSource
	}{
		{"nil image source", nil},
		{"fetch errors", &fakeImageSource{objects: map[string][]byte{}}},
		{"corrupt image bytes", &fakeImageSource{objects: map[string][]byte{
			"scans/scan1.png":   []byte("not an image"),
			"scans/missing.jpg": []byte("also not an image"),
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := RenderPDF(context.Background(), rep, answers, results, agg, tt.source)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
		})
	}
}

// 输入量足够大时必须触发分页：剩余纵向空间低于底部边距阈值即换页。
func TestRenderPDFPaginates(t *testing.T) {
	rep, _, _, agg := sampleInputs()

	answers := make(map[string]interface{}, 80)
	for i := 0; i < 80; i++ {
		answers[fmt.Sprintf("extra_question_%02d", i)] = i % 4
	}
	var results []assessment.ScanResult
	for i := 0; i < 6; i++ {
		results = append(results, assessment.ScanResult{
			Filename:   fmt.Sprintf("scan%d.jpg", i),
			Prediction: assessment.Prediction{Label: assessment.LabelAD, Score: 0.8, ModelUsed: "general model"},
		})
	}

	doc := build(context.Background(), rep, answers, results, agg, nil)
	assert.GreaterOrEqual(t, doc.pdf.PageCount(), 2)

	// 小输入保持单页
	small := build(context.Background(), rep, map[string]interface{}{assessment.QuestionItching: 1}, nil, agg, nil)
	assert.Equal(t, 1, small.pdf.PageCount())
}
