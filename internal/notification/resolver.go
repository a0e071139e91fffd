package notification

import (
	"context"
	"fmt"
)

// SubscriberStore は受講中の学習者を取得する永続化操作。
type SubscriberStore interface {
	ListActiveSubscribers(ctx context.Context, courseID int64) ([]int64, error)
}

// Resolver はコースの通知先となる学習者を解決する。
// 受講者の増減を即時に反映するため結果はキャッシュしない。
type Resolver struct {
	store SubscriberStore
}

// NewResolver はResolverを生成する。
func NewResolver(store SubscriberStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveActiveSubscribers はコースを受講中の学習者IDを昇順で返す。
// 受講者がいない場合は空のスライスを返す。
func (r *Resolver) ResolveActiveSubscribers(ctx context.Context, courseID int64) ([]int64, error) {
	ids, err := r.store.ListActiveSubscribers(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("通知先の解決に失敗: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}
