// Package notification はコースの変更を受講者の端末へプッシュ通知する。
//
// Resolver が受講中の学習者を毎回データベースから解決し、Dispatcher が
// イベント種別ごとのテンプレートで本文を組み立てて学習者ごとに独立して送信する。
// DiffHook はコース更新前後のスナップショットを比較し、変更された項目ごとに
// Dispatcher を呼び出す。送信の失敗は結果として返すのみで、呼び出し元の
// 変更操作を失敗させない。
package notification
