// 受講登録サービスのエントリポイント。
// 受講申込の受付判定、申込サマリーメール、コース変更時のプッシュ通知配信を担当する。
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/nao1215/inscricoes/internal/admission"
	"github.com/nao1215/inscricoes/internal/api"
	"github.com/nao1215/inscricoes/internal/config"
	"github.com/nao1215/inscricoes/internal/mail"
	"github.com/nao1215/inscricoes/internal/notification"
	"github.com/nao1215/inscricoes/internal/store"
	"github.com/nao1215/inscricoes/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("受講登録サービスの起動に失敗", zap.Error(err))
	}
}

// run は依存コンポーネントを組み立ててHTTPサーバーを起動する。ctxがキャンセルされるまで戻らない。
func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("データディレクトリの作成に失敗: %w", err)
	}
	s, err := store.Open(ctx, cfg.DatabasePath, zl.Named("store"))
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	pushSender, err := newPushSender(ctx, cfg.Push, zl.Named("push"))
	if err != nil {
		return err
	}
	dispatcher := notification.NewDispatcher(
		notification.NewResolver(s), s, pushSender,
		notification.WithDeliveryTimeout(cfg.Push.Timeout),
		notification.WithConcurrency(cfg.Push.Concurrency),
		notification.WithDispatchLogger(zl.Named("dispatch")),
	)

	opts := []admission.Option{
		admission.WithLogger(zl.Named("admission")),
		admission.WithMailTimeout(cfg.Email.Timeout),
	}
	mailer, err := newMailSender(cfg.Email, zl.Named("mail"))
	if err != nil {
		return err
	}
	if mailer != nil {
		opts = append(opts, admission.WithMailer(mailer, cfg.AdminEmail))
	}

	server, err := api.NewServer(cfg.Port, api.Deps{
		Catalog:        s,
		Admission:      admission.NewController(s, opts...),
		Dispatcher:     dispatcher,
		Hook:           notification.NewDiffHook(dispatcher, zl.Named("diffhook")),
		Logger:         zl,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("サーバーの初期化に失敗: %w", err)
	}

	zl.Info("受講登録サービスを起動します",
		zap.String("port", cfg.Port),
		zap.String("push_provider", cfg.Push.Provider),
		zap.String("email_provider", cfg.Email.Provider),
	)
	return server.Run(ctx, cfg.ShutdownTimeout)
}

// newPushSender は設定に応じたプッシュ通知のSenderを生成する。
func newPushSender(ctx context.Context, cfg config.PushConfig, zl *zap.Logger) (notification.Sender, error) {
	switch cfg.Provider {
	case config.PushProviderFCM:
		credentials, err := os.ReadFile(cfg.FCMCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("FCM認証情報の読み込みに失敗: %w", err)
		}
		client, err := notification.NewFCMClient(ctx, cfg.FCMBaseURL, credentials, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return notification.NewFCMSender(client, cfg.FCMProjectID), nil
	default:
		return notification.NewLogSender(zl), nil
	}
}

// newMailSender は設定に応じたメールのSenderを生成する。none の場合はnilを返す。
func newMailSender(cfg config.EmailConfig, zl *zap.Logger) (mail.Sender, error) {
	switch cfg.Provider {
	case config.EmailProviderPostmark:
		return mail.NewPostmarkSender(mail.PostmarkConfig{
			ServerToken:  cfg.PostmarkServerToken,
			AccountToken: cfg.PostmarkAccountToken,
			From:         cfg.SenderEmail,
		})
	case config.EmailProviderSMTP:
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SenderEmail,
		})
	case config.EmailProviderNone:
		return nil, nil
	default:
		return mail.NewLogSender(zl), nil
	}
}
