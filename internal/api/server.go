package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/inscricoes/internal/admission"
	"github.com/nao1215/inscricoes/internal/course"
	"github.com/nao1215/inscricoes/internal/notification"
	"github.com/nao1215/inscricoes/pkg/middleware"
)

// Catalog はハンドラが直接使う永続化操作。
type Catalog interface {
	GetCourse(ctx context.Context, id int64) (*course.Course, error)
	UpdateCourse(ctx context.Context, c course.Course) error
	SetDeviceToken(ctx context.Context, learnerID int64, token *string) error
	Ping(ctx context.Context) error
}

// Deps はサーバーが依存するコンポーネント。
type Deps struct {
	// Catalog はコースとデバイストークンの永続化。
	Catalog Catalog
	// Admission は受講申込の受付判定。
	Admission *admission.Controller
	// Dispatcher はコンテンツ通知の配信。
	Dispatcher notification.EventDispatcher
	// Hook はコース更新後の差分通知。
	Hook *notification.DiffHook
	// Logger はアクセスログとエラーログの出力先。
	Logger *zap.Logger
	// JWTSecret はBearerトークン検証用の共有シークレット。
	JWTSecret string
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string
}

// Server は受講登録サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// catalog はコースとデバイストークンの永続化。
	catalog Catalog
	// admission は受講申込の受付判定。
	admission *admission.Controller
	// dispatcher はコンテンツ通知の配信。
	dispatcher notification.EventDispatcher
	// hook はコース更新後の差分通知。
	hook *notification.DiffHook
	// logger はエラーログの出力先。
	logger *zap.Logger
	// jwtSecret はJWT検証用の秘密鍵。
	jwtSecret string
}

// NewServer は新しいサーバーを生成する。
func NewServer(port string, deps Deps) (*Server, error) {
	if deps.Catalog == nil || deps.Admission == nil || deps.Dispatcher == nil || deps.Hook == nil {
		return nil, errors.New("依存コンポーネントが不足しています")
	}
	if deps.JWTSecret == "" {
		return nil, errors.New("JWTシークレットが未設定です")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(deps.AllowedOrigins))

	s := &Server{
		router:     router,
		port:       port,
		catalog:    deps.Catalog,
		admission:  deps.Admission,
		dispatcher: deps.Dispatcher,
		hook:       deps.Hook,
		logger:     logger,
		jwtSecret:  deps.JWTSecret,
	}
	s.setupRoutes()

	return s, nil
}

// Handler はルーティング済みのハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルに停止する。
// 停止時は処理中のリクエストを shutdownTimeout まで待つ。
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("HTTPサーバーを起動しました", zap.String("port", s.port))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗: %w", err)
	}
	s.logger.Info("HTTPサーバーを停止しました")

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	auth := middleware.JWTAuth(s.jwtSecret)

	// 受講申込（認証必須）
	enrollments := s.router.Group("/inscricoes")
	enrollments.Use(auth)
	{
		enrollments.POST("", s.handleEnroll())
		enrollments.GET("", s.handleListEnrollments())
	}

	// 空き状況（認証不要）
	s.router.GET("/cursos/:id/vagas", s.handleVacancies())

	// デバイストークン（モバイルアプリのログイン・ログアウト時に呼ばれる）
	s.router.POST("/fcm-token", s.handleRegisterToken())
	s.router.DELETE("/fcm-token/:idutilizador", s.handleClearToken())

	// コースカタログからの内部呼び出し
	internal := s.router.Group("/internal/cursos")
	internal.Use(auth)
	{
		internal.PUT("/:id", s.handleUpdateCourse())
		internal.POST("/:id/notificacoes", s.handleNotifyContent())
	}

	s.router.GET("/health", s.handleHealth())
}

// handleHealth はDB疎通を含むヘルスチェックのハンドラを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.catalog.Ping(c.Request.Context()); err != nil {
			s.logger.Warn("ヘルスチェックでDB疎通に失敗しました", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "indisponivel", "service": "inscricoes"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "inscricoes"})
	}
}

// writeError はドメインエラーをHTTPステータスに変換して返す。
// 5xxの詳細はログにのみ出力し、クライアントには汎用メッセージを返す。
func (s *Server) writeError(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("リクエスト処理に失敗しました",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "erro interno do servidor"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusOf はエラー分類に対応するHTTPステータスを返す。
func statusOf(err error) int {
	switch {
	case errors.Is(err, course.ErrValidation), errors.Is(err, course.ErrCapacityExceeded):
		return http.StatusBadRequest
	case errors.Is(err, course.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, course.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, course.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
