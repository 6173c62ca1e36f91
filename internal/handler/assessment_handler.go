package handler

import (
	"net/http"

	"adscan-go/internal/assessment"
	"adscan-go/internal/service"
	"adscan-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AssessmentHandler 负责处理评估提交的 API 请求。
type AssessmentHandler struct {
	assessmentService service.AssessmentService
}

// NewAssessmentHandler 创建一个新的 AssessmentHandler 实例。
func NewAssessmentHandler(assessmentService service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService}
}

// UniversalAssessmentRequest 定义了评估提交 API 的请求体结构。
// scan_results 是上传接口返回的结果原样回传；user_type 可选，
// 缺省时按账号角色决定权重。
type UniversalAssessmentRequest struct {
	SymptomAnswers   map[string]interface{}  `json:"symptom_answers" binding:"required"`
	ScanResults      []assessment.ScanResult `json:"scan_results" binding:"required"`
	UserType         string                  `json:"user_type"`
	DetectedSkinTone string                  `json:"detected_skin_tone"`
}

// UniversalAssessment 执行一次完整评估：打分、合成报告、持久化记录
// 并异步触发 PDF 渲染。
func (h *AssessmentHandler) UniversalAssessment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return
	}

	var req UniversalAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：symptom_answers 与 scan_results 均不能为空"})
		return
	}

	report, chatID, err := h.assessmentService.Assess(c.Request.Context(), user, req.SymptomAnswers, req.ScanResults, req.UserType, req.DetectedSkinTone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log.Infof("评估完成: userID=%d, chatID=%d, level=%s", user.ID, chatID, report.AssessmentLevel)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"chatId": chatID,
			"report": report,
		},
	})
}
