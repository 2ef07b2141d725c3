package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"spamguard/backend/internal/auth/jwt"
	"spamguard/backend/internal/domain"
)

// upgraderFactory 创建带有 Origin 验证的 WebSocket 升级器
func upgraderFactory(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			for _, origin := range allowedOrigins {
				if origin == "*" {
					return true
				}
			}

			requestOrigin := r.Header.Get("Origin")
			if requestOrigin == "" {
				// 同源请求没有 Origin 头
				return true
			}

			for _, origin := range allowedOrigins {
				if requestOrigin == origin {
					return true
				}
			}

			return false
		},
	}
}

// MessageType 定义WebSocket消息类型
type MessageType string

const (
	MessageTypeClassification MessageType = "classification"
	MessageTypeFeedback       MessageType = "feedback"
	MessageTypePing           MessageType = "ping"
	MessageTypePong           MessageType = "pong"
)

// Message 定义WebSocket消息结构
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Client 代表一个WebSocket客户端连接
//
// 每个客户端在认证后只接收本账号（Email）的分类事件。
type Client struct {
	ID    string
	Email string
	conn  *websocket.Conn
	send  chan []byte
	hub   *Hub
	log   *zap.Logger
}

// Hub 管理所有WebSocket连接，按用户邮箱分组广播
type Hub struct {
	clients        map[string]*Client            // clientID -> Client
	emails         map[string]map[string]*Client // email -> clientID -> Client
	register       chan *Client
	unregister     chan *Client
	broadcast      chan *broadcastMessage
	mu             sync.RWMutex
	log            *zap.Logger
	allowedOrigins []string
	tokens         *jwt.Manager
}

type broadcastMessage struct {
	Email   string
	Message *Message
}

// NewHub 创建WebSocket Hub
func NewHub(allowedOrigins []string, tokens *jwt.Manager, log *zap.Logger) *Hub {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Hub{
		clients:        make(map[string]*Client),
		emails:         make(map[string]map[string]*Client),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan *broadcastMessage, 256),
		log:            log,
		allowedOrigins: allowedOrigins,
		tokens:         tokens,
	}
}

// Run 启动Hub
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("websocket hub stopped")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			if h.emails[client.Email] == nil {
				h.emails[client.Email] = make(map[string]*Client)
			}
			h.emails[client.Email][client.ID] = client
			h.mu.Unlock()
			h.log.Info("client registered",
				zap.String("id", client.ID),
				zap.String("email", client.Email))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				if clients, exists := h.emails[client.Email]; exists {
					delete(clients, client.ID)
					if len(clients) == 0 {
						delete(h.emails, client.Email)
					}
				}
				delete(h.clients, client.ID)
				close(client.send)
				h.log.Info("client unregistered", zap.String("id", client.ID))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.broadcastToEmail(msg.Email, msg.Message)

		case <-ticker.C:
			h.pingAllClients()
		}
	}
}

// ClassificationData 分类事件通知数据
type ClassificationData struct {
	RecordID   string  `json:"recordId"`
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	CreatedAt  string  `json:"createdAt"`
}

// NotifyClassification 通知用户的新分类结果
func (h *Hub) NotifyClassification(record *domain.ClassificationRecord) {
	preview := record.Message
	if runes := []rune(preview); len(runes) > 100 {
		preview = string(runes[:100])
	}

	data, err := json.Marshal(ClassificationData{
		RecordID:   record.ID,
		Text:       preview,
		Label:      string(record.Label),
		Confidence: record.Confidence,
		CreatedAt:  record.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		h.log.Error("failed to marshal classification data", zap.Error(err))
		return
	}

	h.broadcast <- &broadcastMessage{
		Email: strings.ToLower(record.Email),
		Message: &Message{
			Type:      MessageTypeClassification,
			Data:      data,
			Timestamp: time.Now(),
		},
	}
}

// FeedbackData 反馈事件通知数据
type FeedbackData struct {
	RecordID string `json:"recordId"`
	Correct  bool   `json:"correct"`
}

// NotifyFeedback 通知用户提交的反馈已生效
func (h *Hub) NotifyFeedback(email, recordID string, correct bool) {
	data, err := json.Marshal(FeedbackData{RecordID: recordID, Correct: correct})
	if err != nil {
		return
	}

	h.broadcast <- &broadcastMessage{
		Email: strings.ToLower(email),
		Message: &Message{
			Type:      MessageTypeFeedback,
			Data:      data,
			Timestamp: time.Now(),
		},
	}
}

// broadcastToEmail 向指定用户的所有连接广播消息
func (h *Hub) broadcastToEmail(email string, msg *Message) {
	h.mu.RLock()
	clients := h.emails[email]
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal message", zap.Error(err))
		return
	}

	for _, client := range clients {
		select {
		case client.send <- data:
		default:
			// 客户端阻塞，跳过
			h.log.Warn("client channel blocked, skipping", zap.String("clientID", client.ID))
		}
	}
}

// pingAllClients 向所有客户端发送ping
func (h *Hub) pingAllClients() {
	msg := &Message{
		Type:      MessageTypePing,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

// closeAllClients 关闭所有客户端连接
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[string]*Client)
	h.emails = make(map[string]map[string]*Client)
}

// authenticateClient 认证客户端
//
// Token 可以来自 URL 参数或 Authorization 头。
func (h *Hub) authenticateClient(c *gin.Context) (*Client, error) {
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
	}

	if token == "" {
		return nil, errors.New("missing authentication token")
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		return nil, errors.New("invalid authentication token")
	}

	return &Client{
		ID:    uuid.New().String(),
		Email: strings.ToLower(claims.Email),
		log:   h.log,
	}, nil
}

// HandleWebSocket 处理WebSocket连接
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	upgrader := upgraderFactory(hub.allowedOrigins)

	return func(c *gin.Context) {
		client, err := hub.authenticateClient(c)
		if err != nil {
			hub.log.Warn("websocket authentication failed",
				zap.Error(err),
				zap.String("remote_addr", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Error("failed to upgrade connection",
				zap.Error(err),
				zap.String("origin", c.Request.Header.Get("Origin")),
				zap.String("remote_addr", c.ClientIP()))
			return
		}

		client.conn = conn
		client.hub = hub
		client.send = make(chan []byte, 256)

		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

// readPump 处理客户端消息
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error("websocket error", zap.Error(err))
			}
			break
		}

		if msg.Type == MessageTypePong {
			c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		}
	}
}

// writePump 发送消息给客户端
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
