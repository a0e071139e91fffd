// Package mail は受講申込時に送るメール通知の送信インターフェースと実装を提供する。
//
// 送信経路は Postmark、SMTP、ログ出力（開発用）の3種類で、設定により切り替える。
// メール送信は受講登録の成否に影響しないベストエフォートの副作用として扱う。
package mail
