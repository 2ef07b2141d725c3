package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"spamguard/backend/internal/config"
	"spamguard/backend/internal/identity"
)

// Client 外部身份服务的 HTTP 客户端
//
// 对接 GoTrue 风格的认证 API：
//   - POST {base}/auth/v1/signup
//   - POST {base}/auth/v1/token?grant_type=password
//
// 服务密钥通过 apikey 请求头传递。不在本层做重试，
// 失败直接映射为哨兵错误向上传递。
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	log        *zap.Logger
}

// New 创建身份服务客户端
func New(cfg *config.IdentityConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identityResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`

	// /token 响应把用户对象嵌在 user 字段下
	User *struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"user"`
}

type errorResponse struct {
	Message   string `json:"msg"`
	ErrorCode string `json:"error_code"`
}

// Register 在身份服务上注册新用户
func (c *Client) Register(ctx context.Context, email, password string) (*identity.Identity, error) {
	resp, status, err := c.post(ctx, "/auth/v1/signup", credentialsRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		return toIdentity(resp), nil
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return nil, identity.ErrEmailExists
	case status == http.StatusBadRequest:
		return nil, identity.ErrWeakPassword
	default:
		c.log.Error("identity service signup failed",
			zap.Int("status", status),
		)
		return nil, fmt.Errorf("%w: signup returned status %d", identity.ErrUnavailable, status)
	}
}

// Authenticate 用密码换取身份服务会话
//
// 身份服务自身的会话对象在这里被丢弃：本系统只关心认证是否
// 成功，之后自行签发本地令牌。
func (c *Client) Authenticate(ctx context.Context, email, password string) (*identity.Identity, error) {
	resp, status, err := c.post(ctx, "/auth/v1/token?grant_type=password", credentialsRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		return toIdentity(resp), nil
	case status == http.StatusUnauthorized || status == http.StatusBadRequest:
		return nil, identity.ErrInvalidCredentials
	default:
		c.log.Error("identity service token exchange failed",
			zap.Int("status", status),
		)
		return nil, fmt.Errorf("%w: token exchange returned status %d", identity.ErrUnavailable, status)
	}
}

// post 发送 JSON 请求并解析响应体
func (c *Client) post(ctx context.Context, path string, body interface{}) (*identityResponse, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: failed to read response: %v", identity.ErrUnavailable, err)
	}

	var parsed identityResponse
	if len(data) > 0 {
		// 错误响应体解析失败不致命，状态码已经足够定性
		_ = json.Unmarshal(data, &parsed)
	}

	return &parsed, resp.StatusCode, nil
}

// toIdentity 转换响应体为身份实体
func toIdentity(resp *identityResponse) *identity.Identity {
	if resp.User != nil {
		return &identity.Identity{
			Subject:   resp.User.ID,
			Email:     resp.User.Email,
			CreatedAt: resp.User.CreatedAt,
		}
	}
	return &identity.Identity{
		Subject:   resp.ID,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt,
	}
}
