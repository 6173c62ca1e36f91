package handler

import (
	"net/http"
	"strconv"

	"adscan-go/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler 负责处理管理端的 API 请求。
// 所有路由都要求 AuthMiddleware + AdminAuthMiddleware。
type AdminHandler struct {
	adminService   service.AdminService
	contactService service.ContactService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService, contactService service.ContactService) *AdminHandler {
	return &AdminHandler{adminService: adminService, contactService: contactService}
}

// ListUsers 分页返回用户列表。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	users, total, err := h.adminService.ListUsers(page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询用户列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"users": users,
			"total": total,
		},
	})
}

// UpdateUserRequest 定义了管理端更新用户的请求体结构。
type UpdateUserRequest struct {
	Role     string `json:"role"`
	IsActive *bool  `json:"isActive"`
}

// UpdateUser 更新指定用户的角色或启用状态。
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}

	user, err := h.adminService.UpdateUser(userID, req.Role, req.IsActive)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "用户更新成功",
		"data":    user,
	})
}

// DeleteUser 删除指定用户。
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}

	// 管理员不能删除自己
	if admin, exists := currentUser(c); exists && admin.ID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不能删除当前登录的管理员账号"})
		return
	}

	if err := h.adminService.DeleteUser(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除用户失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "用户已删除",
		"data":    nil,
	})
}

// Analytics 返回管理端统计面板数据。
func (h *AdminHandler) Analytics(c *gin.Context) {
	analytics, err := h.adminService.GetAnalytics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询统计数据失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    analytics,
	})
}

// ListMessages 返回全部联系表单留言。
func (h *AdminHandler) ListMessages(c *gin.Context) {
	msgs, err := h.contactService.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询留言失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    msgs,
	})
}

// DeleteMessage 删除一条联系表单留言。
func (h *AdminHandler) DeleteMessage(c *gin.Context) {
	msgID, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.contactService.Delete(msgID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除留言失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "留言已删除",
		"data":    nil,
	})
}
