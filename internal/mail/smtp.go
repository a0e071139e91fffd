package mail

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPConfig はSMTP送信の設定。
type SMTPConfig struct {
	// Host はSMTPサーバーのホスト名。
	Host string
	// Port はSMTPサーバーのポート番号。
	Port int
	// Username は認証ユーザー名。
	Username string
	// Password は認証パスワード。
	Password string
	// From は送信元アドレス。
	From string
}

// dialer はgomail.Dialerのうち送信に使うメソッド。テストで差し替える。
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender はSMTPサーバー経由で送信するSender。
type SMTPSender struct {
	dialer dialer
	from   string
}

// NewSMTPSender はSMTP経由のSenderを生成する。
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: SMTP_HOST é obrigatório", ErrInvalidConfig)
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("%w: SMTP_PORT inválido", ErrInvalidConfig)
	}
	if !ValidAddress(cfg.From) {
		return nil, fmt.Errorf("%w: remetente %q inválido", ErrInvalidConfig, cfg.From)
	}

	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

// Send はSMTPでメールを送信する。
// gomailはコンテキストに対応していないため、送信は別ゴルーチンで行い、
// ctxの期限が先に来た場合は完了を待たずに失敗として返す。
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrFailedToSend, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return errors.Join(ErrFailedToSend, err)
		}
		return nil
	case <-ctx.Done():
		return errors.Join(ErrFailedToSend, ctx.Err())
	}
}
