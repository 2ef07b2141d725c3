package httptransport

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"spamguard/backend/internal/domain"
	"spamguard/backend/internal/middleware"
	"spamguard/backend/internal/service"
	"spamguard/backend/internal/storage"
)

// ClassifyHandler 处理文本分类相关的 HTTP 请求
type ClassifyHandler struct {
	classifications *service.ClassificationService
	log             *zap.Logger
}

// NewClassifyHandler 创建分类处理器实例
func NewClassifyHandler(classifications *service.ClassificationService, log *zap.Logger) *ClassifyHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClassifyHandler{
		classifications: classifications,
		log:             log,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type recordResponse struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	CreatedAt  string  `json:"createdAt"`
	IsCorrect  *bool   `json:"isClassificationCorrect,omitempty"`
}

type feedbackRequest struct {
	ID        string `json:"id"`
	IsCorrect *bool  `json:"is_correct"`
}

// callerEmail 读取认证中间件注入的调用者邮箱
func callerEmail(c *gin.Context) string {
	email, _ := c.Get(middleware.ContextKeyEmail)
	s, _ := email.(string)
	return s
}

// Protected 认证探测端点
// @Summary 认证探测
// @Description 返回问候语，验证令牌有效性
// @Tags 分类
// @Produce json
// @Success 200 {object} Response "认证通过"
// @Failure 401 {object} Response "未认证"
// @Router /protected [get]
func (h *ClassifyHandler) Protected(c *gin.Context) {
	email := callerEmail(c)
	Success(c, gin.H{
		"message": fmt.Sprintf("Hello, %s! You are authenticated.", email),
	})
}

// Classify 处理文本分类请求
// @Summary 文本分类
// @Description 对文本执行垃圾分类并保存记录
// @Tags 分类
// @Accept json
// @Produce json
// @Param request body classifyRequest true "待分类文本"
// @Success 200 {object} Response "分类成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未认证"
// @Failure 500 {object} Response "服务器内部错误"
// @Router /classify [post]
func (h *ClassifyHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	record, err := h.classifications.Classify(c.Request.Context(), callerEmail(c), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMessageEmpty),
			errors.Is(err, domain.ErrMessageTooLong):
			BadRequest(c, GetErrorMessage(err))
		case errors.Is(err, service.ErrClassifierUnavailable):
			InternalError(c, GetErrorMessage(service.ErrClassifierUnavailable))
		default:
			h.log.Error("failed to classify text", zap.Error(err))
			InternalError(c, MsgClassifyFailed)
		}
		return
	}

	Success(c, classifyResponse{
		ID:         record.ID,
		Text:       record.Message,
		Label:      string(record.Label),
		Confidence: record.Confidence,
	})
}

// History 返回调用者的分类历史
// @Summary 分类历史
// @Description 返回调用者的全部分类记录（按时间倒序）
// @Tags 分类
// @Produce json
// @Success 200 {object} Response "查询成功"
// @Failure 401 {object} Response "未认证"
// @Failure 404 {object} Response "暂无分类记录"
// @Failure 500 {object} Response "服务器内部错误"
// @Router /history [get]
func (h *ClassifyHandler) History(c *gin.Context) {
	records, err := h.classifications.History(c.Request.Context(), callerEmail(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoRecords):
			NotFound(c, GetErrorMessage(service.ErrNoRecords))
		default:
			h.log.Error("failed to fetch classification history", zap.Error(err))
			InternalError(c, MsgHistoryFailed)
		}
		return
	}

	items := make([]recordResponse, 0, len(records))
	for _, r := range records {
		items = append(items, recordResponse{
			ID:         r.ID,
			Text:       r.Message,
			Label:      string(r.Label),
			Confidence: r.Confidence,
			CreatedAt:  r.CreatedAt.Format(time.RFC3339),
			IsCorrect:  r.IsClassificationCorrect,
		})
	}

	Success(c, items)
}

// Feedback 处理分类正确性反馈
// @Summary 分类反馈
// @Description 标记某条分类记录的结果是否正确
// @Tags 分类
// @Accept json
// @Produce json
// @Param request body feedbackRequest true "反馈信息"
// @Success 200 {object} Response "反馈成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未认证"
// @Failure 404 {object} Response "记录不存在"
// @Failure 500 {object} Response "服务器内部错误"
// @Router /feedback [post]
func (h *ClassifyHandler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}
	if req.ID == "" || req.IsCorrect == nil {
		BadRequest(c, "缺少记录ID或正确性标记")
		return
	}

	err := h.classifications.Feedback(c.Request.Context(), callerEmail(c), req.ID, *req.IsCorrect)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrRecordNotFound):
			NotFound(c, GetErrorMessage(storage.ErrRecordNotFound))
		default:
			h.log.Error("failed to record feedback", zap.Error(err))
			InternalError(c, MsgFeedbackFailed)
		}
		return
	}

	SuccessWithMsg(c, "反馈已记录", gin.H{"id": req.ID})
}
