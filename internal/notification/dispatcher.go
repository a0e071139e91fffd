package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/inscricoes/internal/course"
	"github.com/nao1215/inscricoes/pkg/event"
)

// 送信のデフォルト設定。
const (
	DefaultDeliveryTimeout = 5 * time.Second
	DefaultConcurrency     = 8
)

// LearnerStore は学習者の端末トークンを取得する永続化操作。
type LearnerStore interface {
	GetLearner(ctx context.Context, id int64) (*course.Learner, error)
}

// Outcome は学習者1人への送信結果。
type Outcome string

const (
	// OutcomeDelivered はプロバイダが通知を受け付けたことを表す。
	OutcomeDelivered Outcome = "entregue"
	// OutcomeFailed は送信に失敗したことを表す。再送はしない。
	OutcomeFailed Outcome = "falhou"
	// OutcomeSkipped は端末トークンが未登録のため送信しなかったことを表す。
	OutcomeSkipped Outcome = "ignorado"
)

// DeliveryResult は学習者ごとの送信結果。
type DeliveryResult struct {
	// LearnerID は学習者ID。
	LearnerID int64 `json:"idutilizador"`
	// Outcome は送信結果。
	Outcome Outcome `json:"resultado"`
	// Error は失敗時のエラー内容。
	Error string `json:"erro,omitempty"`
}

// Dispatcher はイベントを受講中の全学習者へ送信する。
type Dispatcher struct {
	resolver    *Resolver
	learners    LearnerStore
	sender      Sender
	logger      *zap.Logger
	timeout     time.Duration
	concurrency int
}

// DispatcherOption はDispatcherの設定を変更する。
type DispatcherOption func(*Dispatcher)

// WithDeliveryTimeout は学習者1人あたりの送信タイムアウトを設定する。
func WithDeliveryTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithConcurrency は同時送信数の上限を設定する。
func WithConcurrency(n int) DispatcherOption {
	return func(disp *Dispatcher) {
		if n > 0 {
			disp.concurrency = n
		}
	}
}

// WithDispatchLogger はロガーを設定する。
func WithDispatchLogger(logger *zap.Logger) DispatcherOption {
	return func(disp *Dispatcher) {
		if logger != nil {
			disp.logger = logger
		}
	}
}

// NewDispatcher はDispatcherを生成する。
func NewDispatcher(resolver *Resolver, learners LearnerStore, sender Sender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		resolver:    resolver,
		learners:    learners,
		sender:      sender,
		logger:      zap.NewNop(),
		timeout:     DefaultDeliveryTimeout,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch はイベントを組み立ててコースの受講者全員へ送信する。
//
// 種別やペイロードが不正な場合は誰にも送信せず course.ErrValidation を返す。
// 受講者がいない場合は空の結果を返す。送信は学習者ごとに独立しており、
// 1人の失敗が他の学習者への送信を妨げることはない。結果は学習者ID順に並ぶ。
func (d *Dispatcher) Dispatch(ctx context.Context, eventType event.Type, courseID int64, payload any) ([]DeliveryResult, error) {
	e, err := event.New(courseID, eventType, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", course.ErrValidation, err)
	}
	msg, err := Render(e)
	if err != nil {
		return nil, err
	}

	subscribers, err := d.resolver.ResolveActiveSubscribers(ctx, courseID)
	if err != nil {
		return nil, err
	}
	results := make([]DeliveryResult, len(subscribers))
	if len(subscribers) == 0 {
		return results, nil
	}

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, learnerID := range subscribers {
		g.Go(func() error {
			results[i] = d.deliver(ctx, learnerID, msg)
			return nil
		})
	}
	_ = g.Wait()

	counts := Summarize(results)
	d.logger.Info("通知を配信しました",
		zap.String("event_id", e.ID),
		zap.String("event_type", string(eventType)),
		zap.Int64("course_id", courseID),
		zap.Int("delivered", counts.Delivered),
		zap.Int("failed", counts.Failed),
		zap.Int("skipped", counts.Skipped),
	)
	return results, nil
}

// deliver は学習者1人へ送信する。エラーは結果に記録し、呼び出し元へは返さない。
func (d *Dispatcher) deliver(ctx context.Context, learnerID int64, msg Message) DeliveryResult {
	result := DeliveryResult{LearnerID: learnerID}

	learner, err := d.learners.GetLearner(ctx, learnerID)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		d.logger.Warn("通知先の学習者の取得に失敗しました", zap.Int64("learner_id", learnerID), zap.Error(err))
		return result
	}
	if !learner.HasDeviceToken() {
		result.Outcome = OutcomeSkipped
		return result
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, *learner.DeviceToken, msg); err != nil {
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		d.logger.Warn("プッシュ通知の送信に失敗しました", zap.Int64("learner_id", learnerID), zap.Error(err))
		return result
	}
	result.Outcome = OutcomeDelivered
	return result
}

// Counts は送信結果の件数。
type Counts struct {
	// Delivered は送信できた件数。
	Delivered int `json:"entregues"`
	// Failed は失敗した件数。
	Failed int `json:"falhados"`
	// Skipped はトークン未登録で送信しなかった件数。
	Skipped int `json:"ignorados"`
}

// Summarize は送信結果を集計する。
func Summarize(results []DeliveryResult) Counts {
	var c Counts
	for _, r := range results {
		switch r.Outcome {
		case OutcomeDelivered:
			c.Delivered++
		case OutcomeFailed:
			c.Failed++
		case OutcomeSkipped:
			c.Skipped++
		}
	}
	return c
}
