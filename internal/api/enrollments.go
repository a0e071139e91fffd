package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/inscricoes/internal/admission"
	"github.com/nao1215/inscricoes/internal/course"
	"github.com/nao1215/inscricoes/pkg/middleware"
)

// enrollRequest は受講申込のリクエストボディ。
type enrollRequest struct {
	// CourseID は申込先のコースID。
	CourseID int64 `json:"idcurso"`
	// Objectives は学習者の目標（任意）。
	Objectives string `json:"objetivos"`
}

// enrollResponse は受講申込成功時のレスポンス。
type enrollResponse struct {
	EnrollmentID string             `json:"idinscricao"`
	Vacancies    *int               `json:"vagas_disponiveis"`
	Notification admission.Advisory `json:"notificacao"`
}

// courseResponse はコース概要のレスポンス表現。
type courseResponse struct {
	ID           int64  `json:"idcurso"`
	Title        string `json:"titulo"`
	Description  string `json:"descricao"`
	Difficulty   string `json:"dificuldade"`
	Points       int    `json:"pontos"`
	Theme        string `json:"tema"`
	ScheduleMode string `json:"modo"`
	Capacity     *int   `json:"vagas"`
	Lifecycle    string `json:"estado"`
	StartDate    string `json:"data_inicio"`
	EndDate      string `json:"data_fim"`
	Instructor   string `json:"formador"`
}

// enrollmentResponse は受講中一覧の1件分。
type enrollmentResponse struct {
	EnrollmentID string         `json:"idinscricao"`
	Objectives   string         `json:"objetivos"`
	EnrolledAt   string         `json:"data_inscricao"`
	Course       courseResponse `json:"curso"`
}

// vacancyResponse は空き状況のレスポンス。定員制限の無いコースでは枠の項目がnullになる。
type vacancyResponse struct {
	Total     *int `json:"vagas_totais"`
	Current   int  `json:"inscritos_atuais"`
	Available *int `json:"vagas_disponiveis"`
	Full      bool `json:"curso_lotado"`
}

func toCourseResponse(c course.Course) courseResponse {
	return courseResponse{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		Difficulty:   c.Difficulty,
		Points:       c.Points,
		Theme:        c.Theme,
		ScheduleMode: string(c.ScheduleMode),
		Capacity:     c.Capacity,
		Lifecycle:    string(c.Lifecycle),
		StartDate:    c.StartDate.Format(course.DateLayout),
		EndDate:      c.EndDate.Format(course.DateLayout),
		Instructor:   c.Instructor,
	}
}

// handleEnroll は受講申込のハンドラを返す。
// 学習者IDはリクエストボディではなくJWTから取得する。
func (s *Server) handleEnroll() gin.HandlerFunc {
	return func(c *gin.Context) {
		learnerID, ok := middleware.LearnerID(c)
		if !ok {
			s.writeError(c, course.ErrUnauthenticated)
			return
		}

		var req enrollRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "corpo do pedido inválido"})
			return
		}

		result, err := s.admission.Enroll(c.Request.Context(), learnerID, req.CourseID, req.Objectives)
		if err != nil {
			s.writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, enrollResponse{
			EnrollmentID: result.EnrollmentID,
			Vacancies:    result.Vacancies,
			Notification: result.Notification,
		})
	}
}

// handleListEnrollments は認証済み学習者の受講中一覧を返すハンドラを返す。
func (s *Server) handleListEnrollments() gin.HandlerFunc {
	return func(c *gin.Context) {
		learnerID, ok := middleware.LearnerID(c)
		if !ok {
			s.writeError(c, course.ErrUnauthenticated)
			return
		}

		list, err := s.admission.ListActive(c.Request.Context(), learnerID)
		if err != nil {
			s.writeError(c, err)
			return
		}

		out := make([]enrollmentResponse, 0, len(list))
		for _, e := range list {
			out = append(out, enrollmentResponse{
				EnrollmentID: e.ID,
				Objectives:   e.Objectives,
				EnrolledAt:   e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
				Course:       toCourseResponse(e.Course),
			})
		}
		c.JSON(http.StatusOK, gin.H{"inscricoes": out})
	}
}

// handleVacancies はコースの空き状況を返すハンドラを返す。
func (s *Server) handleVacancies() gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, ok := s.pathID(c, "id")
		if !ok {
			return
		}

		report, err := s.admission.Vacancies(c.Request.Context(), courseID)
		if err != nil {
			s.writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, vacancyResponse{
			Total:     report.Total,
			Current:   report.Current,
			Available: report.Available,
			Full:      report.Full,
		})
	}
}

// pathID はパスパラメータを正の整数IDとして取り出す。不正な場合は400を返してfalseを返す。
func (s *Server) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identificador inválido: " + c.Param(name)})
		return 0, false
	}
	return id, true
}
