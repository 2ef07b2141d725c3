package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"spamguard/backend/internal/identity"
	"spamguard/backend/internal/service"
)

// AuthHandler 处理认证相关的 HTTP 请求
type AuthHandler struct {
	auth *service.AuthService
	log  *zap.Logger
}

// NewAuthHandler 创建新的认证处理器实例
func NewAuthHandler(auth *service.AuthService, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		auth: auth,
		log:  log,
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	Email string `json:"email"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// Signup 处理用户注册请求
// @Summary 用户注册
// @Description 注册新账号，凭证托管在身份服务
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body signupRequest true "注册信息"
// @Success 201 {object} Response "注册成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "邮箱已存在"
// @Failure 500 {object} Response "服务器内部错误"
// @Router /signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		BadRequest(c, "邮箱和密码不能为空")
		return
	}

	ident, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailExists):
			Conflict(c, GetErrorMessage(identity.ErrEmailExists))
		case errors.Is(err, identity.ErrInvalidEmail),
			errors.Is(err, identity.ErrWeakPassword):
			BadRequest(c, GetErrorMessage(err))
		case errors.Is(err, identity.ErrUnavailable):
			h.log.Error("identity provider unavailable", zap.Error(err))
			InternalError(c, MsgSignupFailed)
		default:
			h.log.Error("failed to sign up user", zap.Error(err))
			InternalError(c, MsgSignupFailed)
		}
		return
	}

	Created(c, signupResponse{Email: ident.Email})
}

// Login 处理用户登录请求
// @Summary 用户登录
// @Description 校验凭证并签发访问令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} Response "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "凭证无效"
// @Failure 500 {object} Response "服务器内部错误"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		BadRequest(c, "邮箱和密码不能为空")
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			Unauthorized(c, MsgInvalidCredentials)
		case errors.Is(err, identity.ErrUnavailable):
			h.log.Error("identity provider unavailable", zap.Error(err))
			InternalError(c, MsgLoginFailed)
		default:
			h.log.Error("failed to log in user", zap.Error(err))
			InternalError(c, MsgLoginFailed)
		}
		return
	}

	Success(c, loginResponse{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   token.ExpiresIn,
	})
}
