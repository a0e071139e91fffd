package notification

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrDeliveryFailed はプロバイダへの送信に失敗したことを表す。
var ErrDeliveryFailed = errors.New("falha no envio da notificação")

// Sender は1台の端末へ通知を送信する。
type Sender interface {
	Send(ctx context.Context, token string, msg Message) error
}

// LogSender は送信せずに内容をログに出力する。ローカル開発用。
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender はLogSenderを生成する。
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send は通知の内容をInfoレベルで出力する。
func (l *LogSender) Send(ctx context.Context, token string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.logger.Info("プッシュ通知（ログ出力のみ）",
		zap.String("token", maskToken(token)),
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
		zap.Any("data", msg.Data),
	)
	return nil
}

// maskToken はログ出力用にトークンの末尾4文字以外を伏せる。
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
