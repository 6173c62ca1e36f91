package handler

import (
	"net/http"
	"strings"
	"time"

	"adscan-go/internal/repository"
	"adscan-go/internal/service"
	"adscan-go/pkg/log"
	"adscan-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// wsTicketTTL 是 WebSocket 一次性连接票据的有效期。
const wsTicketTTL = time.Minute

// ChatHandler 负责随访助手的 WebSocket 会话。
// 浏览器的 WebSocket API 无法携带 Authorization 头，因此连接分两步：
// 先通过认证后的 REST 接口换取一次性票据，再用票据建立 WebSocket。
type ChatHandler struct {
	chatService service.ChatService
	verifyRepo  repository.VerificationRepository
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService, verifyRepo repository.VerificationRepository) *ChatHandler {
	return &ChatHandler{chatService: chatService, verifyRepo: verifyRepo}
}

// GetWSTicket 为当前登录用户签发一次性 WebSocket 连接票据。
func (h *ChatHandler) GetWSTicket(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return
	}

	ticket := token.GenerateRandomString(32)
	if err := h.verifyRepo.StoreWSTicket(c.Request.Context(), ticket, user.ID, wsTicketTTL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "签发票据失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"ticket": ticket},
	})
}

// History 返回助手会话的完整消息日志。
func (h *ChatHandler) History(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return
	}

	chat, err := h.chatService.AssistantChat(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取会话失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    chat,
	})
}

// Handle 处理一个传入的 WebSocket 连接。票据一次性有效，消费后即失效。
func (h *ChatHandler) Handle(c *gin.Context) {
	ticket := c.Param("ticket")
	userID, err := h.verifyRepo.ConsumeWSTicket(c.Request.Context(), ticket)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无效或已过期的连接票据"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立, userID: %d", userID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		reply, err := h.chatService.Reply(userID, string(message))
		if err != nil {
			if werr := conn.WriteJSON(gin.H{"type": "error", "text": err.Error()}); werr != nil {
				break
			}
			continue
		}

		// 按词分块发送，前端可以边收边渲染
		if err := streamReply(conn, reply); err != nil {
			log.Warnf("向 WebSocket 写入消息失败: %v", err)
			break
		}
	}
}

// streamReply 把回复按词分块写入连接，最后发送 done 帧。
func streamReply(conn *websocket.Conn, reply string) error {
	words := strings.Fields(reply)
	var chunk strings.Builder
	for i, w := range words {
		chunk.WriteString(w)
		chunk.WriteString(" ")
		// 每 8 个词或最后一个词发送一帧
		if (i+1)%8 == 0 || i == len(words)-1 {
			if err := conn.WriteJSON(gin.H{"type": "chunk", "text": chunk.String()}); err != nil {
				return err
			}
			chunk.Reset()
		}
	}
	return conn.WriteJSON(gin.H{"type": "done"})
}
