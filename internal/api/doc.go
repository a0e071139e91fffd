// Package api は受講登録サービスのHTTPサーバーを提供する。
//
// 受講申込・空き状況・デバイストークン登録の公開エンドポイントと、
// コースカタログ側から呼ばれるコース更新・コンテンツ通知の内部エンドポイントを持つ。
// ハンドラはドメインのエラー分類（course パッケージ）をHTTPステータスに変換するだけで、
// 判定ロジックは admission と notification パッケージに置く。
package api
