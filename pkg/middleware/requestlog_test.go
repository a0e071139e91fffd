package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestRequestLogger はRequestLoggerミドルウェアを検証する。
func TestRequestLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
	}{
		{name: "2xxはInfoで記録されること", status: http.StatusCreated, wantLevel: zapcore.InfoLevel},
		{name: "4xxはWarnで記録されること", status: http.StatusConflict, wantLevel: zapcore.WarnLevel},
		{name: "5xxはErrorで記録されること", status: http.StatusInternalServerError, wantLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.DebugLevel)
			router := gin.New()
			router.Use(RequestLogger(zap.New(core)))
			router.POST("/inscricoes", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/inscricoes", nil))

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("ログ件数 = %d, want %d", len(entries), 1)
			}
			if entries[0].Level != tt.wantLevel {
				t.Errorf("Level = %v, want %v", entries[0].Level, tt.wantLevel)
			}
			fields := entries[0].ContextMap()
			if fields["path"] != "/inscricoes" {
				t.Errorf("path = %v, want %q", fields["path"], "/inscricoes")
			}
			if fields["status"] != int64(tt.status) {
				t.Errorf("status = %v, want %d", fields["status"], tt.status)
			}
		})
	}

	t.Run("認証済みの場合は学習者IDが記録されること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, 99, "", 0)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		core, logs := observer.New(zap.DebugLevel)
		router := gin.New()
		router.Use(RequestLogger(zap.New(core)))
		router.GET("/inscricoes", JWTAuth(testSecret), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/inscricoes", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		router.ServeHTTP(httptest.NewRecorder(), req)

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("ログ件数 = %d, want %d", len(entries), 1)
		}
		if got := entries[0].ContextMap()["idutilizador"]; got != int64(99) {
			t.Errorf("idutilizador = %v, want %d", got, 99)
		}
	})

	t.Run("未登録のパスは実際のURLで記録されること", func(t *testing.T) {
		t.Parallel()

		core, logs := observer.New(zap.DebugLevel)
		router := gin.New()
		router.Use(RequestLogger(zap.New(core)))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nao-existe", nil))

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("ログ件数 = %d, want %d", len(entries), 1)
		}
		if got := entries[0].ContextMap()["path"]; got != "/nao-existe" {
			t.Errorf("path = %v, want %q", got, "/nao-existe")
		}
	})
}
