package mail

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrFailedToSend はメール送信に失敗したことを表す。
	ErrFailedToSend = errors.New("falha no envio de email")
	// ErrInvalidConfig は送信設定が不正であることを表す。
	ErrInvalidConfig = errors.New("configuração de email inválida")
	// ErrInvalidMessage はメッセージの必須項目が不足していることを表す。
	ErrInvalidMessage = errors.New("mensagem de email inválida")
)

// emailRegex はメールアドレスの簡易検証に使う正規表現。
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Sender はメール送信のインターフェース。
type Sender interface {
	// Send はメッセージを1通送信する。
	Send(ctx context.Context, msg Message) error
}

// Message は送信するメールの内容。
type Message struct {
	// To は宛先のメールアドレス。
	To string `json:"to"`
	// Subject は件名。
	Subject string `json:"subject"`
	// HTML はHTML形式の本文。
	HTML string `json:"html"`
	// Tag は配信分析用のタグ。任意。
	Tag string `json:"tag,omitempty"`
}

// Validate は宛先・件名・本文が揃っているかを検証する。
func (m Message) Validate() error {
	if !emailRegex.MatchString(m.To) {
		return fmt.Errorf("%w: destinatário %q", ErrInvalidMessage, m.To)
	}
	if m.Subject == "" {
		return fmt.Errorf("%w: assunto vazio", ErrInvalidMessage)
	}
	if m.HTML == "" {
		return fmt.Errorf("%w: corpo vazio", ErrInvalidMessage)
	}
	return nil
}

// ValidAddress はメールアドレスの形式が正しいかを返す。
func ValidAddress(addr string) bool {
	return emailRegex.MatchString(addr)
}
