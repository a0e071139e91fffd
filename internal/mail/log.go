package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogSender は実際には送信せず、内容をログに出力する開発用のSender。
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender はログ出力のみを行うSenderを生成する。
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send はメッセージの宛先と件名をログに出力する。
func (l *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	l.logger.Info("メール送信（ログのみ）",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("tag", msg.Tag),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}
