package httptransport

import (
	"spamguard/backend/internal/domain"
	"spamguard/backend/internal/identity"
	"spamguard/backend/internal/service"
	"spamguard/backend/internal/storage"
)

// 错误消息映射表（业务错误 -> 中文消息）
var errorMessages = map[error]string{
	// 验证错误
	domain.ErrInvalidEmail:     "邮箱格式无效",
	domain.ErrEmailTooLong:     "邮箱长度超出限制",
	domain.ErrPasswordTooShort: "密码长度不足",
	domain.ErrPasswordTooLong:  "密码长度超出限制",
	domain.ErrMessageEmpty:     "待分类文本不能为空",
	domain.ErrMessageTooLong:   "待分类文本超出长度限制",

	// 身份认证错误
	identity.ErrEmailExists:        "该邮箱已被注册",
	identity.ErrInvalidCredentials: "用户名或密码错误",
	identity.ErrInvalidEmail:       "邮箱格式无效",
	identity.ErrWeakPassword:       "密码强度不足",

	// 分类错误
	service.ErrClassifierUnavailable: "分类服务暂时不可用",
	service.ErrNoRecords:             "暂无分类记录",
	storage.ErrRecordNotFound:        "分类记录不存在",
}

// GetErrorMessage 获取错误的中文消息
func GetErrorMessage(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	return err.Error()
}

// 通用错误消息
const (
	MsgInvalidRequest   = "请求参数格式错误"
	MsgRequestBodyEmpty = "请求体不能为空"

	MsgAuthRequired       = "需要登录认证"
	MsgInvalidCredentials = "用户名或密码错误"
	MsgTokenExpired       = "登录已过期，请重新登录"
	MsgTokenInvalid       = "无效的访问令牌"

	MsgSignupFailed   = "注册失败，请稍后重试"
	MsgLoginFailed    = "登录失败，请稍后重试"
	MsgClassifyFailed = "分类失败，请稍后重试"
	MsgHistoryFailed  = "获取分类历史失败"
	MsgFeedbackFailed = "提交反馈失败"

	MsgInternalError = "服务器内部错误，请稍后重试"
)
