package mail

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/nao1215/inscricoes/internal/course"
)

// Recipient は受講申込サマリーの宛先種別。
type Recipient string

const (
	// RecipientLearner は申込した学習者。
	RecipientLearner Recipient = "formando"
	// RecipientInstructor はコースの講師。
	RecipientInstructor Recipient = "formador"
	// RecipientAdmin は運営管理者。
	RecipientAdmin Recipient = "administrador"
)

// EnrollmentSummary は受講申込完了時に送るサマリーメールの元データ。
type EnrollmentSummary struct {
	// EnrollmentID は受講登録の識別子。
	EnrollmentID string
	// Learner は申込した学習者。
	Learner course.Learner
	// Course は申込先のコース。
	Course course.Course
	// Objectives は学習者が記入した目標。
	Objectives string
	// Vacancies は登録後の残り枠。非同期コースではnil。
	Vacancies *int
	// EnrolledAt は登録日時。
	EnrolledAt time.Time
}

// Addressed は宛先種別付きのメッセージ。
type Addressed struct {
	// Recipient は宛先種別。
	Recipient Recipient
	// Message は送信内容。
	Message Message
}

// summaryBodies は宛先種別ごとの本文コンポーネント。
var summaryBodies = map[Recipient]func(EnrollmentSummary) templ.Component{
	RecipientLearner:    learnerBody,
	RecipientInstructor: instructorBody,
	RecipientAdmin:      adminBody,
}

func learnerBody(s EnrollmentSummary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, "<p>Olá %s,</p>\n", esc(s.Learner.Name))
		fmt.Fprintf(&b, "<p>A sua inscrição no curso <strong>%s</strong> foi confirmada.</p>\n", esc(s.Course.Title))
		b.WriteString("<ul>\n")
		fmt.Fprintf(&b, "<li>Início: %s</li>\n", s.Course.StartDate.Format("02/01/2006"))
		fmt.Fprintf(&b, "<li>Fim: %s</li>\n", s.Course.EndDate.Format("02/01/2006"))
		fmt.Fprintf(&b, "<li>Formador: %s</li>\n", esc(s.Course.Instructor))
		b.WriteString("</ul>\n")
		if s.Objectives != "" {
			fmt.Fprintf(&b, "<p>Objetivos: %s</p>\n", esc(s.Objectives))
		}
		fmt.Fprintf(&b, "<p>Referência: %s</p>", esc(s.EnrollmentID))
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func instructorBody(s EnrollmentSummary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, "<p>Olá %s,</p>\n", esc(s.Course.Instructor))
		fmt.Fprintf(&b, "<p>%s (%s) inscreveu-se no curso <strong>%s</strong>.</p>\n",
			esc(s.Learner.Name), esc(s.Learner.Email), esc(s.Course.Title))
		if s.Objectives != "" {
			fmt.Fprintf(&b, "<p>Objetivos do formando: %s</p>\n", esc(s.Objectives))
		}
		if s.Vacancies != nil {
			fmt.Fprintf(&b, "<p>Vagas disponíveis: %d</p>", *s.Vacancies)
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func adminBody(s EnrollmentSummary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<p>Nova inscrição registada.</p>\n<ul>\n")
		fmt.Fprintf(&b, "<li>Curso: %s (#%d)</li>\n", esc(s.Course.Title), s.Course.ID)
		fmt.Fprintf(&b, "<li>Formando: %s (%s)</li>\n", esc(s.Learner.Name), esc(s.Learner.Email))
		fmt.Fprintf(&b, "<li>Data: %s</li>\n", s.EnrolledAt.Format("02/01/2006 15:04"))
		if s.Vacancies != nil {
			fmt.Fprintf(&b, "<li>Vagas disponíveis: %d</li>\n", *s.Vacancies)
		}
		b.WriteString("</ul>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func esc(s string) string { return templ.EscapeString(s) }

// render はコンポーネントを文字列に描画する。
func render(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Messages は学習者・講師・管理者向けのサマリーメールを組み立てる。
// 講師と管理者はメールアドレスが未設定または不正な場合は宛先から除外する。
func (s EnrollmentSummary) Messages(ctx context.Context, adminEmail string) ([]Addressed, error) {
	targets := []struct {
		recipient Recipient
		to        string
		subject   string
	}{
		{RecipientLearner, s.Learner.Email, fmt.Sprintf("Inscrição confirmada: %s", s.Course.Title)},
		{RecipientInstructor, s.Course.InstructorEmail, fmt.Sprintf("Nova inscrição no curso %s", s.Course.Title)},
		{RecipientAdmin, adminEmail, fmt.Sprintf("[Inscrições] %s", s.Course.Title)},
	}

	out := make([]Addressed, 0, len(targets))
	for _, target := range targets {
		if target.recipient != RecipientLearner && !ValidAddress(target.to) {
			continue
		}

		body, err := render(ctx, summaryBodies[target.recipient](s))
		if err != nil {
			return nil, fmt.Errorf("%s向けメール本文の生成に失敗: %w", target.recipient, err)
		}
		out = append(out, Addressed{
			Recipient: target.recipient,
			Message: Message{
				To:      target.to,
				Subject: target.subject,
				HTML:    body,
				Tag:     "inscricao-" + string(target.recipient),
			},
		})
	}
	return out, nil
}
