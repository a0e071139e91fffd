package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkConfig はPostmark送信の設定。
type PostmarkConfig struct {
	// ServerToken はPostmarkのサーバートークン。
	ServerToken string
	// AccountToken はPostmarkのアカウントトークン。
	AccountToken string
	// From は送信元アドレス。
	From string
}

// PostmarkSender はPostmarkのトランザクションメールAPIで送信するSender。
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender はPostmark経由のSenderを生成する。
func NewPostmarkSender(cfg PostmarkConfig) (*PostmarkSender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: POSTMARK_SERVER_TOKEN é obrigatório", ErrInvalidConfig)
	}
	if !ValidAddress(cfg.From) {
		return nil, fmt.Errorf("%w: remetente %q inválido", ErrInvalidConfig, cfg.From)
	}

	return &PostmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:   cfg.From,
	}, nil
}

// Send はPostmarkにメールを送信する。APIがエラーコードを返した場合も失敗として扱う。
func (p *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:       p.from,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTML,
		TrackOpens: false,
	})
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrFailedToSend,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}
