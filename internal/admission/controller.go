package admission

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nao1215/inscricoes/internal/course"
	"github.com/nao1215/inscricoes/internal/mail"
)

// MaxObjectivesLength は目標欄の最大文字数（ルーン数）。
const MaxObjectivesLength = 2000

// DefaultMailTimeout はサマリーメール1通あたりの送信タイムアウトのデフォルト値。
const DefaultMailTimeout = 10 * time.Second

// Repository は受付判定に必要な永続化操作。
type Repository interface {
	GetLearner(ctx context.Context, id int64) (*course.Learner, error)
	GetCourse(ctx context.Context, id int64) (*course.Course, error)
	FindHistoricalEnrollment(ctx context.Context, learnerID, courseID int64) (*course.Enrollment, bool, error)
	CountActiveEnrollments(ctx context.Context, courseID int64) (int, error)
	InsertEnrollment(ctx context.Context, e course.Enrollment) error
	ListActiveEnrollments(ctx context.Context, learnerID int64) ([]course.EnrollmentWithCourse, error)
}

// Result は受講申込の結果。
type Result struct {
	// EnrollmentID は作成された受講登録のID。
	EnrollmentID string
	// Vacancies は登録後の残り枠。定員制限の無いコースではnil。
	Vacancies *int
	// Notification はサマリーメール送信の結果。参考情報であり申込の成否には影響しない。
	Notification Advisory
}

// VacancyReport はコースの空き状況。
type VacancyReport struct {
	// CourseID はコースID。
	CourseID int64
	// Total は定員。定員制限の無いコースではnil。
	Total *int
	// Current は受講中の人数。
	Current int
	// Available は残り枠。定員制限の無いコースではnil。
	Available *int
	// Full は満員かどうか。
	Full bool
}

// Controller は受講申込の受付判定を行う。
type Controller struct {
	repo        Repository
	mailer      mail.Sender
	adminEmail  string
	logger      *zap.Logger
	mailTimeout time.Duration
	now         func() time.Time
	newID       func() string
}

// Option はControllerの設定を変更する。
type Option func(*Controller)

// WithMailer はサマリーメールの送信先を設定する。未設定の場合メールは送らない。
func WithMailer(sender mail.Sender, adminEmail string) Option {
	return func(c *Controller) {
		c.mailer = sender
		c.adminEmail = adminEmail
	}
}

// WithMailTimeout はサマリーメール1通あたりの送信タイムアウトを設定する。0以下は無視する。
func WithMailTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.mailTimeout = d
		}
	}
}

// WithLogger はロガーを設定する。
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock は登録日時に使う時計を差し替える。
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController はControllerを生成する。
func NewController(repo Repository, opts ...Option) *Controller {
	c := &Controller{
		repo:        repo,
		logger:      zap.NewNop(),
		mailTimeout: DefaultMailTimeout,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enroll は学習者をコースに登録する。
//
// 前提条件は次の順に1つずつ確認し、最初に満たさなかったもののエラーを返す。
//  1. 学習者が存在する（course.ErrNotFound）
//  2. コースが存在し受付中である（course.ErrNotFound）
//  3. 同じコースへの登録が過去に一度も無い（course.ErrConflict）
//  4. 定員制限のあるコースでは受講中の人数が定員未満である（course.ErrCapacityExceeded）
func (c *Controller) Enroll(ctx context.Context, learnerID, courseID int64, objectives string) (*Result, error) {
	if learnerID <= 0 {
		return nil, course.ErrUnauthenticated
	}
	if courseID <= 0 {
		return nil, fmt.Errorf("%w: idcurso deve ser positivo", course.ErrValidation)
	}
	objectives = strings.TrimSpace(objectives)
	if utf8.RuneCountInString(objectives) > MaxObjectivesLength {
		return nil, fmt.Errorf("%w: objetivos excedem %d caracteres", course.ErrValidation, MaxObjectivesLength)
	}

	learner, err := c.repo.GetLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	crs, err := c.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !crs.AcceptsEnrollment() {
		return nil, fmt.Errorf("%w: o curso não está a aceitar inscrições", course.ErrNotFound)
	}

	if _, found, err := c.repo.FindHistoricalEnrollment(ctx, learnerID, courseID); err != nil {
		return nil, err
	} else if found {
		return nil, fmt.Errorf("%w: já frequentou este curso", course.ErrConflict)
	}

	active := 0
	if crs.HasCapacityLimit() {
		if active, err = c.repo.CountActiveEnrollments(ctx, courseID); err != nil {
			return nil, err
		}
		if active >= *crs.Capacity {
			return nil, fmt.Errorf("%w: o curso atingiu o limite de %d formandos", course.ErrCapacityExceeded, *crs.Capacity)
		}
	}

	enrollment := course.Enrollment{
		ID:         c.newID(),
		LearnerID:  learnerID,
		CourseID:   courseID,
		Active:     true,
		Objectives: objectives,
		CreatedAt:  c.now(),
	}
	if err := c.repo.InsertEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}

	vacancies := c.remainingAfterInsert(ctx, crs, active)
	c.logger.Info("受講登録を作成しました",
		zap.String("enrollment_id", enrollment.ID),
		zap.Int64("learner_id", learnerID),
		zap.Int64("course_id", courseID),
	)

	summary := mail.EnrollmentSummary{
		EnrollmentID: enrollment.ID,
		Learner:      *learner,
		Course:       *crs,
		Objectives:   objectives,
		Vacancies:    vacancies,
		EnrolledAt:   enrollment.CreatedAt,
	}
	return &Result{
		EnrollmentID: enrollment.ID,
		Vacancies:    vacancies,
		Notification: c.notify(ctx, summary),
	}, nil
}

// remainingAfterInsert は挿入後の受講者数から残り枠を求める。
// 再集計に失敗した場合は挿入前の人数に1を加えて計算する。
func (c *Controller) remainingAfterInsert(ctx context.Context, crs *course.Course, before int) *int {
	if !crs.HasCapacityLimit() {
		return nil
	}
	after, err := c.repo.CountActiveEnrollments(ctx, crs.ID)
	if err != nil {
		c.logger.Warn("登録後の受講者数の再集計に失敗しました",
			zap.Int64("course_id", crs.ID),
			zap.Error(err),
		)
		after = before + 1
	}
	return crs.Remaining(after)
}

// Vacancies はコースの空き状況を返す。
func (c *Controller) Vacancies(ctx context.Context, courseID int64) (*VacancyReport, error) {
	if courseID <= 0 {
		return nil, fmt.Errorf("%w: idcurso deve ser positivo", course.ErrValidation)
	}
	crs, err := c.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	active, err := c.repo.CountActiveEnrollments(ctx, courseID)
	if err != nil {
		return nil, err
	}

	report := &VacancyReport{CourseID: courseID, Current: active}
	if crs.HasCapacityLimit() {
		total := *crs.Capacity
		report.Total = &total
		report.Available = crs.Remaining(active)
		report.Full = *report.Available == 0
	}
	return report, nil
}

// ListActive は学習者の受講中の登録をコース概要付きで返す。
func (c *Controller) ListActive(ctx context.Context, learnerID int64) ([]course.EnrollmentWithCourse, error) {
	if learnerID <= 0 {
		return nil, course.ErrUnauthenticated
	}
	list, err := c.repo.ListActiveEnrollments(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []course.EnrollmentWithCourse{}
	}
	return list, nil
}
