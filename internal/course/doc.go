// Package course は受講申込とコース変更通知で共有するドメインモデルを提供する。
//
// 学習者（Learner）、コース（Course）、受講登録（Enrollment）の型と、
// コースのライフサイクル状態の正規化、HTTPステータスに対応付けるための
// エラー分類を含む。永続化の詳細は store パッケージが担う。
package course
