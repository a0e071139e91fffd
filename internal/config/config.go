// Package config は環境変数から受講登録サービスの設定を読み込む。
//
// 起動時にカレントディレクトリの .env を読み込み（存在しなければ無視）、
// その後に環境変数を構造体へパースして検証する。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig は設定値の検証に失敗したことを示す。
var ErrInvalidConfig = errors.New("設定値が不正です")

// プッシュ通知の送信方式。
const (
	PushProviderFCM = "fcm"
	PushProviderLog = "log"
)

// メール送信方式。
const (
	EmailProviderPostmark = "postmark"
	EmailProviderSMTP     = "smtp"
	EmailProviderLog      = "log"
	EmailProviderNone     = "none"
)

// Config はサービス全体の設定。
type Config struct {
	// Port はHTTPサーバーの待ち受けポート。
	Port string `env:"PORT" envDefault:"8087"`
	// DatabasePath はSQLiteデータベースファイルのパス。
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/inscricoes.db"`
	// JWTSecret はBearerトークンの検証に使う共有シークレット。
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	// AdminEmail は受講申込サマリーを受け取る管理者のアドレス。空なら送らない。
	AdminEmail string `env:"ADMIN_EMAIL"`
	// ShutdownTimeout はグレースフルシャットダウンの待ち時間。
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// LogLevel はzapのログレベル。
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFormat はログ形式（json または console）。
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Push  PushConfig
	Email EmailConfig
}

// PushConfig はプッシュ通知配信の設定。
type PushConfig struct {
	// Provider は送信方式（fcm または log）。
	Provider string `env:"PUSH_PROVIDER" envDefault:"log"`
	// FCMProjectID はFirebaseプロジェクトID。
	FCMProjectID string `env:"FCM_PROJECT_ID"`
	// FCMCredentialsFile はサービスアカウントJSONのパス。
	FCMCredentialsFile string `env:"FCM_CREDENTIALS_FILE"`
	// FCMBaseURL はFCM HTTP v1 APIのベースURL。
	FCMBaseURL string `env:"FCM_BASE_URL" envDefault:"https://fcm.googleapis.com"`
	// Timeout は学習者1人あたりの送信タイムアウト。
	Timeout time.Duration `env:"PUSH_TIMEOUT" envDefault:"5s"`
	// Concurrency は同時に送信する最大数。
	Concurrency int `env:"PUSH_CONCURRENCY" envDefault:"8"`
}

// EmailConfig はサマリーメール送信の設定。
type EmailConfig struct {
	// Provider は送信方式（postmark、smtp、log、none）。
	Provider string `env:"EMAIL_PROVIDER" envDefault:"log"`
	// SenderEmail は送信元アドレス。
	SenderEmail string `env:"SENDER_EMAIL" envDefault:"no-reply@inscricoes.local"`
	// PostmarkServerToken はPostmarkのサーバートークン。
	PostmarkServerToken string `env:"POSTMARK_SERVER_TOKEN"`
	// PostmarkAccountToken はPostmarkのアカウントトークン。
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	// SMTPHost はSMTPサーバーのホスト名。
	SMTPHost string `env:"SMTP_HOST"`
	// SMTPPort はSMTPサーバーのポート。
	SMTPPort int `env:"SMTP_PORT" envDefault:"587"`
	// SMTPUsername はSMTP認証のユーザー名。
	SMTPUsername string `env:"SMTP_USERNAME"`
	// SMTPPassword はSMTP認証のパスワード。
	SMTPPassword string `env:"SMTP_PASSWORD"`
	// Timeout はメール1通あたりの送信タイムアウト。
	Timeout time.Duration `env:"EMAIL_TIMEOUT" envDefault:"10s"`
}

// Load は .env と環境変数から設定を読み込み検証する。
func Load() (*Config, error) {
	// .env が無いのは正常
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	cfg.Push.Provider = strings.ToLower(strings.TrimSpace(cfg.Push.Provider))
	cfg.Email.Provider = strings.ToLower(strings.TrimSpace(cfg.Email.Provider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は設定値の組み合わせを検証する。
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET は必須です"))
	}

	switch c.Push.Provider {
	case PushProviderLog:
	case PushProviderFCM:
		if c.Push.FCMProjectID == "" {
			errs = append(errs, errors.New("PUSH_PROVIDER=fcm には FCM_PROJECT_ID が必要です"))
		}
		if c.Push.FCMCredentialsFile == "" {
			errs = append(errs, errors.New("PUSH_PROVIDER=fcm には FCM_CREDENTIALS_FILE が必要です"))
		}
	default:
		errs = append(errs, fmt.Errorf("PUSH_PROVIDER %q は未対応です", c.Push.Provider))
	}
	if c.Push.Timeout <= 0 {
		errs = append(errs, errors.New("PUSH_TIMEOUT は正の値が必要です"))
	}
	if c.Push.Concurrency <= 0 {
		errs = append(errs, errors.New("PUSH_CONCURRENCY は1以上が必要です"))
	}

	switch c.Email.Provider {
	case EmailProviderLog, EmailProviderNone:
	case EmailProviderPostmark:
		if c.Email.PostmarkServerToken == "" {
			errs = append(errs, errors.New("EMAIL_PROVIDER=postmark には POSTMARK_SERVER_TOKEN が必要です"))
		}
	case EmailProviderSMTP:
		if c.Email.SMTPHost == "" {
			errs = append(errs, errors.New("EMAIL_PROVIDER=smtp には SMTP_HOST が必要です"))
		}
	default:
		errs = append(errs, fmt.Errorf("EMAIL_PROVIDER %q は未対応です", c.Email.Provider))
	}
	if c.Email.Timeout <= 0 {
		errs = append(errs, errors.New("EMAIL_TIMEOUT は正の値が必要です"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
