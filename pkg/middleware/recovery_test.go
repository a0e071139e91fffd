package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestRecovery はRecoveryミドルウェアを検証する。
func TestRecovery(t *testing.T) {
	t.Parallel()

	t.Run("パニックを500に変換しログに記録すること", func(t *testing.T) {
		t.Parallel()

		core, logs := observer.New(zap.ErrorLevel)
		router := gin.New()
		router.Use(Recovery(zap.New(core)))
		router.POST("/inscricoes", func(_ *gin.Context) {
			panic("falha inesperada")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/inscricoes", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}
		if got := errorBody(t, w); got != "erro interno do servidor" {
			t.Errorf("error = %q, want %q", got, "erro interno do servidor")
		}

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("ログ件数 = %d, want %d", len(entries), 1)
		}
		fields := entries[0].ContextMap()
		if fields["path"] != "/inscricoes" {
			t.Errorf("path = %v, want %q", fields["path"], "/inscricoes")
		}
		if fields["panic"] != "falha inesperada" {
			t.Errorf("panic = %v, want %q", fields["panic"], "falha inesperada")
		}
	})

	t.Run("loggerがnilでもパニックから回復すること", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Recovery(nil))
		router.GET("/panic", func(_ *gin.Context) {
			panic(42)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})

	t.Run("パニックが無い場合は何も記録しないこと", func(t *testing.T) {
		t.Parallel()

		core, logs := observer.New(zap.DebugLevel)
		router := gin.New()
		router.Use(Recovery(zap.New(core)))
		router.GET("/health", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if logs.Len() != 0 {
			t.Errorf("ログ件数 = %d, want 0", logs.Len())
		}
	})
}
