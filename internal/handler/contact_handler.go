package handler

import (
	"net/http"

	"adscan-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ContactHandler 负责处理联系表单的 API 请求。
type ContactHandler struct {
	contactService service.ContactService
}

// NewContactHandler 创建一个新的 ContactHandler 实例。
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// SubmitRequest 定义了联系表单的请求体结构。
type SubmitRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

// Submit 保存一条留言。登录用户会关联其账号 ID，匿名提交也允许。
func (h *ContactHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}

	var userID uint
	if user, ok := currentUser(c); ok {
		userID = user.ID
	}

	msg, err := h.contactService.Submit(userID, req.Name, req.Email, req.Subject, req.Message)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "留言已提交",
		"data":    msg,
	})
}
