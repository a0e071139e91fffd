// Package event はコース変更通知で使う一時的なイベントの型を提供する。
//
// イベントは永続化されず、変更操作ごとに生成されてすぐに通知配信で消費される。
// イベント種別ごとに固定のペイロード構造体を持ち、DecodeData で取り出す。
package event
