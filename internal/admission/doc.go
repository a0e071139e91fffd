// Package admission は受講申込の受付判定を行う。
//
// 学習者とコースの存在確認、受付状態、過去の登録有無、定員の4つの前提条件を
// 順番に確認し、すべて満たした場合のみ受講登録を1件挿入する。
// 登録後のサマリーメール送信はベストエフォートで行い、結果は参考情報として返す。
//
// 前提条件の確認と挿入の間にロックは取らないため、同時に申し込まれた場合は
// 定員を超えて登録されることがある。
package admission
