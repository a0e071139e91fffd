// Package httpclient は外部サービスとJSONで通信するHTTPクライアントを提供する。
//
// プッシュ通知プロバイダ（FCM）への送信などで使用する。
// タイムアウトと下位のhttp.Clientはオプションで差し替えられる。
package httpclient
