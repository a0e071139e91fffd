package course

import (
	"fmt"
	"time"
)

// DateLayout はコースの開始日・終了日の保存およびAPI入出力に使う日付形式。
const DateLayout = "2006-01-02"

// ScheduleMode はコースの実施形態を表す。
type ScheduleMode string

const (
	// ScheduleSynchronous は定員と共通の日程を持つ同期コース。
	ScheduleSynchronous ScheduleMode = "sincrono"
	// ScheduleAsynchronous は定員を持たない非同期コース。
	ScheduleAsynchronous ScheduleMode = "assincrono"
)

// ParseScheduleMode は文字列から実施形態を取得する。
func ParseScheduleMode(s string) (ScheduleMode, error) {
	switch ScheduleMode(Fold(s)) {
	case ScheduleSynchronous:
		return ScheduleSynchronous, nil
	case ScheduleAsynchronous:
		return ScheduleAsynchronous, nil
	}
	return "", fmt.Errorf("%w: modo de curso desconhecido %q", ErrValidation, s)
}

// Course はコースカタログが管理するコースのうち、受講申込と通知に必要な項目。
type Course struct {
	// ID はコースの識別子。
	ID int64
	// Title はコース名。
	Title string
	// Description はコースの説明。
	Description string
	// Difficulty は難易度（自由記述）。
	Difficulty string
	// Points は修了時に付与されるポイント。
	Points int
	// Theme はコースのテーマ。
	Theme string
	// ScheduleMode は同期/非同期の区別。
	ScheduleMode ScheduleMode
	// Capacity は同期コースの定員。非同期コースやNULLの場合はnil。
	Capacity *int
	// Lifecycle はコースのライフサイクル状態。
	Lifecycle Lifecycle
	// StartDate はコースの開始日。
	StartDate time.Time
	// EndDate はコースの終了日。
	EndDate time.Time
	// Instructor は講師の表示名。
	Instructor string
	// InstructorEmail は講師の連絡先。未登録なら空文字列。
	InstructorEmail string
	// UpdatedAt は最終更新日時。
	UpdatedAt time.Time
}

// IsSynchronous は定員制限の対象となる同期コースかどうかを返す。
func (c *Course) IsSynchronous() bool {
	return c.ScheduleMode == ScheduleSynchronous
}

// AcceptsEnrollment は新規の受講登録を受け付ける状態かどうかを返す。
func (c *Course) AcceptsEnrollment() bool {
	return c.Lifecycle == LifecycleUpcoming
}

// HasCapacityLimit は定員による受付制限が有効かどうかを返す。
// 同期コースでも定員がNULLの場合は制限しない。
func (c *Course) HasCapacityLimit() bool {
	return c.IsSynchronous() && c.Capacity != nil
}

// Remaining は現在の受講者数から残り枠を計算する。定員制限が無い場合はnil。
func (c *Course) Remaining(active int) *int {
	if !c.HasCapacityLimit() {
		return nil
	}
	left := max(*c.Capacity-active, 0)
	return &left
}

// Learner はIdentityサービスが管理する学習者のうち、本サービスが参照する項目。
type Learner struct {
	// ID は学習者の識別子。
	ID int64
	// Name は表示名。メール本文にのみ使う。
	Name string
	// Email はメールアドレス。
	Email string
	// DeviceToken は最後に登録されたプッシュ通知用デバイストークン。ログアウト後はnil。
	DeviceToken *string
}

// HasDeviceToken はプッシュ通知の宛先が登録されているかどうかを返す。
func (l *Learner) HasDeviceToken() bool {
	return l.DeviceToken != nil && *l.DeviceToken != ""
}

// Enrollment は学習者とコースの受講登録。同じ組み合わせは生涯で1件のみ存在する。
type Enrollment struct {
	// ID は受講登録の識別子（UUID）。
	ID string
	// LearnerID は学習者の識別子。
	LearnerID int64
	// CourseID はコースの識別子。
	CourseID int64
	// Active は受講中かどうか。管理者操作でのみfalseになり、再びtrueにはならない。
	Active bool
	// Objectives は学習者が申込時に記入した目標。
	Objectives string
	// CreatedAt は登録日時。
	CreatedAt time.Time
}

// EnrollmentWithCourse は受講登録とコース概要の組。受講中一覧のレスポンスに使う。
type EnrollmentWithCourse struct {
	Enrollment
	// Course は登録先コースの内容。
	Course Course
}
