package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/inscricoes/internal/course"
	"github.com/nao1215/inscricoes/internal/notification"
	"github.com/nao1215/inscricoes/pkg/event"
)

// courseUpdateRequest はコース更新のリクエストボディ。省略した項目は変更しない。
type courseUpdateRequest struct {
	Title           *string `json:"titulo"`
	Description     *string `json:"descricao"`
	Difficulty      *string `json:"dificuldade"`
	Points          *int    `json:"pontos"`
	Theme           *string `json:"tema"`
	ScheduleMode    *string `json:"modo"`
	Capacity        *int    `json:"vagas"`
	StartDate       *string `json:"data_inicio"`
	EndDate         *string `json:"data_fim"`
	Instructor      *string `json:"formador"`
	InstructorEmail *string `json:"email_formador"`
	// Lifecycle は旧形式の真偽値と自由記述の文字列のどちらも受け付ける。
	Lifecycle any `json:"estado"`
}

// courseUpdateResponse はコース更新のレスポンス。
type courseUpdateResponse struct {
	Course        courseResponse      `json:"curso"`
	Notifications notification.Report `json:"notificacoes"`
}

// contentRequest はコンテンツ変更通知のリクエストボディ。
type contentRequest struct {
	// Type は通知の種別。
	Type event.Type `json:"tipo"`
	// Data は種別ごとのペイロード。
	Data json.RawMessage `json:"dados"`
}

// contentResponse はコンテンツ変更通知のレスポンス。
type contentResponse struct {
	Type       event.Type                    `json:"tipo"`
	Deliveries []notification.DeliveryResult `json:"entregas"`
	Summary    notification.Counts           `json:"resumo"`
}

// contentTypes はコースのコンテンツ操作から直接送る通知の種別。
// コース項目の変更による通知は更新エンドポイントの差分検知でのみ送る。
var contentTypes = map[event.Type]bool{
	event.TypeNewMaterial:     true,
	event.TypeNewLesson:       true,
	event.TypeLessonRemoved:   true,
	event.TypeMaterialRemoved: true,
	event.TypeNewLink:         true,
	event.TypeLinkRemoved:     true,
	event.TypeReport:          true,
	event.TypeForumReply:      true,
}

// apply は更新内容を既存のコースに適用した新しいコースを返す。
func (r courseUpdateRequest) apply(c course.Course) (course.Course, error) {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return c, fmt.Errorf("%w: titulo não pode ser vazio", course.ErrValidation)
		}
		c.Title = title
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.Difficulty != nil {
		c.Difficulty = *r.Difficulty
	}
	if r.Points != nil {
		if *r.Points < 0 {
			return c, fmt.Errorf("%w: pontos não pode ser negativo", course.ErrValidation)
		}
		c.Points = *r.Points
	}
	if r.Theme != nil {
		c.Theme = *r.Theme
	}
	if r.ScheduleMode != nil {
		mode, err := course.ParseScheduleMode(*r.ScheduleMode)
		if err != nil {
			return c, err
		}
		c.ScheduleMode = mode
	}
	if r.Capacity != nil {
		if *r.Capacity < 0 {
			return c, fmt.Errorf("%w: vagas não pode ser negativo", course.ErrValidation)
		}
		capacity := *r.Capacity
		c.Capacity = &capacity
	}
	if r.StartDate != nil {
		d, err := time.Parse(course.DateLayout, *r.StartDate)
		if err != nil {
			return c, fmt.Errorf("%w: data_inicio inválida %q", course.ErrValidation, *r.StartDate)
		}
		c.StartDate = d
	}
	if r.EndDate != nil {
		d, err := time.Parse(course.DateLayout, *r.EndDate)
		if err != nil {
			return c, fmt.Errorf("%w: data_fim inválida %q", course.ErrValidation, *r.EndDate)
		}
		c.EndDate = d
	}
	if c.EndDate.Before(c.StartDate) {
		return c, fmt.Errorf("%w: data_fim anterior a data_inicio", course.ErrValidation)
	}
	if r.Instructor != nil {
		c.Instructor = *r.Instructor
	}
	if r.InstructorEmail != nil {
		c.InstructorEmail = strings.TrimSpace(*r.InstructorEmail)
	}
	if r.Lifecycle != nil {
		state, err := course.ParseLifecycle(r.Lifecycle)
		if err != nil {
			return c, err
		}
		c.Lifecycle = state
	}
	return c, nil
}

// handleUpdateCourse はコース更新のハンドラを返す。
// 更新を保存してから変更項目ごとに受講者へ通知し、その結果をレスポンスに含める。
// 通知の失敗は更新の成否に影響しない。
func (s *Server) handleUpdateCourse() gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, ok := s.pathID(c, "id")
		if !ok {
			return
		}

		var req courseUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "corpo do pedido inválido"})
			return
		}

		ctx := c.Request.Context()
		old, err := s.catalog.GetCourse(ctx, courseID)
		if err != nil {
			s.writeError(c, err)
			return
		}

		updated, err := req.apply(*old)
		if err != nil {
			s.writeError(c, err)
			return
		}
		updated.UpdatedAt = time.Now()

		if err := s.catalog.UpdateCourse(ctx, updated); err != nil {
			s.writeError(c, err)
			return
		}

		// 状態は正規化前の値で比較・通知する
		after := notification.SnapshotOf(updated)
		after.Lifecycle = req.Lifecycle
		report := s.hook.NotifyCourseChanged(ctx, courseID, notification.SnapshotOf(*old), after)

		c.JSON(http.StatusOK, courseUpdateResponse{
			Course:        toCourseResponse(updated),
			Notifications: report,
		})
	}
}

// handleNotifyContent は教材・授業・リンク・通報・フォーラム返信の通知を送るハンドラを返す。
func (s *Server) handleNotifyContent() gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, ok := s.pathID(c, "id")
		if !ok {
			return
		}

		var req contentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "corpo do pedido inválido"})
			return
		}
		if !contentTypes[req.Type] {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("tipo de notificação não suportado: %q", req.Type)})
			return
		}

		ctx := c.Request.Context()
		if _, err := s.catalog.GetCourse(ctx, courseID); err != nil {
			s.writeError(c, err)
			return
		}

		var payload any = req.Data
		if len(req.Data) == 0 {
			payload = map[string]any{}
		}
		results, err := s.dispatcher.Dispatch(ctx, req.Type, courseID, payload)
		if err != nil {
			s.writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, contentResponse{
			Type:       req.Type,
			Deliveries: results,
			Summary:    notification.Summarize(results),
		})
	}
}
