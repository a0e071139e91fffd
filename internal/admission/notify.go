package admission

import (
	"context"

	"go.uber.org/zap"

	"github.com/nao1215/inscricoes/internal/mail"
)

// NotificationStatus はサマリーメール送信の集計結果。
type NotificationStatus string

const (
	// NotificationSent はすべての宛先に送信できたことを表す。
	NotificationSent NotificationStatus = "enviado"
	// NotificationPartial は一部の宛先への送信に失敗したことを表す。
	NotificationPartial NotificationStatus = "parcial"
	// NotificationFailed はすべての宛先への送信に失敗したことを表す。
	NotificationFailed NotificationStatus = "falhou"
	// NotificationDisabled はメール送信が設定されていないことを表す。
	NotificationDisabled NotificationStatus = "desativado"
)

// RecipientOutcome は宛先ごとの送信結果。
type RecipientOutcome struct {
	// Recipient は宛先種別。
	Recipient mail.Recipient `json:"destinatario"`
	// Status は送信結果（enviado または falhou）。
	Status NotificationStatus `json:"estado"`
	// Error は失敗時のエラー内容。
	Error string `json:"erro,omitempty"`
}

// Advisory は受講申込に付随するメール送信の結果。
type Advisory struct {
	// Status は全体の結果。
	Status NotificationStatus `json:"estado"`
	// Recipients は宛先ごとの結果。
	Recipients []RecipientOutcome `json:"destinatarios,omitempty"`
}

// notify はサマリーメールを送信し結果を集計する。失敗はログに残すのみで呼び出し元には返さない。
func (c *Controller) notify(ctx context.Context, summary mail.EnrollmentSummary) Advisory {
	if c.mailer == nil {
		return Advisory{Status: NotificationDisabled}
	}

	messages, err := summary.Messages(ctx, c.adminEmail)
	if err != nil {
		c.logger.Error("サマリーメールの生成に失敗しました",
			zap.String("enrollment_id", summary.EnrollmentID),
			zap.Error(err),
		)
		return Advisory{Status: NotificationFailed}
	}

	advisory := Advisory{Recipients: make([]RecipientOutcome, 0, len(messages))}
	failed := 0
	for _, m := range messages {
		outcome := RecipientOutcome{Recipient: m.Recipient, Status: NotificationSent}
		if err := c.send(ctx, m.Message); err != nil {
			failed++
			outcome.Status = NotificationFailed
			outcome.Error = err.Error()
			c.logger.Warn("サマリーメールの送信に失敗しました",
				zap.String("enrollment_id", summary.EnrollmentID),
				zap.String("recipient", string(m.Recipient)),
				zap.Error(err),
			)
		}
		advisory.Recipients = append(advisory.Recipients, outcome)
	}

	switch {
	case failed == 0:
		advisory.Status = NotificationSent
	case failed == len(messages):
		advisory.Status = NotificationFailed
	default:
		advisory.Status = NotificationPartial
	}
	return advisory
}

// send はタイムアウト付きでメールを1通送信する。
func (c *Controller) send(ctx context.Context, msg mail.Message) error {
	ctx, cancel := context.WithTimeout(ctx, c.mailTimeout)
	defer cancel()
	return c.mailer.Send(ctx, msg)
}
