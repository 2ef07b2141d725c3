package smtp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/mail"
	"strings"

	gosmtp "github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"spamguard/backend/internal/service"
	"spamguard/backend/internal/storage"
)

// Backend 实现 go-smtp 的 Backend 接口。
//
// 这是一个只接收邮件的 SMTP 入口：投递到已注册用户地址的邮件
// 会被自动分类并写入该用户的分类历史。收件人必须是已注册账号，
// 域名受配置约束，不做任何转发。
type Backend struct {
	classifications *service.ClassificationService
	users           storage.UserRepository
	domain          string // 可接收的收件域名，空表示不限制
	log             *zap.Logger
}

// NewBackend 创建 SMTP Backend。
func NewBackend(
	classifications *service.ClassificationService,
	users storage.UserRepository,
	domain string,
	log *zap.Logger,
) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{
		classifications: classifications,
		users:           users,
		domain:          strings.ToLower(domain),
		log:             log,
	}
}

// NewSession 创建新的 SMTP 会话。
func (b *Backend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	return &session{backend: b}, nil
}

type session struct {
	backend     *Backend
	fromAddress string
	recipients  []string
}

// Mail 处理 MAIL 命令。
func (s *session) Mail(from string, opts *gosmtp.MailOptions) error {
	s.fromAddress = from
	return nil
}

// Rcpt 处理 RCPT 命令。
//
// 只接受投递给已注册用户的邮件，其他地址一律返回 550 拒绝，
// 确保服务器不会被用作邮件中继。
func (s *session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	addr := normalizeAddress(to)

	parts := strings.Split(addr, "@")
	if len(parts) != 2 {
		return &gosmtp.SMTPError{
			Code:         501,
			EnhancedCode: gosmtp.EnhancedCode{5, 1, 3},
			Message:      "invalid recipient address",
		}
	}

	if s.backend.domain != "" && !strings.EqualFold(parts[1], s.backend.domain) {
		return &gosmtp.SMTPError{
			Code:         550,
			EnhancedCode: gosmtp.EnhancedCode{5, 7, 1},
			Message:      "relay access denied - domain not managed by this server",
		}
	}

	if _, err := s.backend.users.GetUserByEmail(context.Background(), addr); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return &gosmtp.SMTPError{
				Code:         550,
				EnhancedCode: gosmtp.EnhancedCode{5, 1, 1},
				Message:      "recipient not registered",
			}
		}
		return err
	}

	s.recipients = append(s.recipients, addr)
	return nil
}

// Data 处理邮件内容：解析正文并为每个收件人执行分类。
func (s *session) Data(r io.Reader) error {
	rawBytes, err := io.ReadAll(io.LimitReader(r, 1<<20)) // 1MB
	if err != nil {
		return err
	}

	subject, body, err := parseMessage(rawBytes)
	if err != nil {
		return fmt.Errorf("parse message: %w", err)
	}

	text := strings.TrimSpace(subject + "\n" + body)

	for _, rcpt := range s.recipients {
		record, err := s.backend.classifications.Classify(context.Background(), rcpt, text)
		if err != nil {
			s.backend.log.Warn("failed to classify inbound mail",
				zap.String("recipient", rcpt),
				zap.String("from", s.fromAddress),
				zap.Error(err))
			continue
		}

		s.backend.log.Info("inbound mail classified",
			zap.String("recipient", rcpt),
			zap.String("from", s.fromAddress),
			zap.String("label", string(record.Label)),
			zap.Float64("confidence", record.Confidence))
	}

	return nil
}

// AuthPlain 处理 PLAIN 认证（此处允许匿名）。
func (s *session) AuthPlain(username, password string) error {
	return nil
}

// Reset 重置状态。
func (s *session) Reset() {
	s.fromAddress = ""
	s.recipients = nil
}

// Logout 会话结束。
func (s *session) Logout() error {
	return nil
}

// parseMessage 提取邮件主题和纯文本正文
func parseMessage(raw []byte) (subject, body string, err error) {
	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		return "", "", err
	}

	subject = decodeHeader(msg.Header.Get("Subject"))

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		return subject, "", nil
	}

	return subject, string(bodyBytes), nil
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.Trim(addr, "<>")
	return strings.ToLower(addr)
}

func decodeHeader(value string) string {
	if value == "" {
		return value
	}
	decoder := new(mime.WordDecoder)
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
