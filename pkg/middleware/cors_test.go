package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestCORS はCORSミドルウェアを検証する。
func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
		wantCalled bool
	}{
		{
			name:       "許可されたオリジンにヘッダーが付与されること",
			allowed:    []string{"https://app.example.com"},
			method:     http.MethodGet,
			origin:     "https://app.example.com",
			wantStatus: http.StatusOK,
			wantOrigin: "https://app.example.com",
			wantCalled: true,
		},
		{
			name:       "前後の空白は無視されること",
			allowed:    []string{" https://app.example.com "},
			method:     http.MethodGet,
			origin:     "https://app.example.com",
			wantStatus: http.StatusOK,
			wantOrigin: "https://app.example.com",
			wantCalled: true,
		},
		{
			name:       "許可されていないオリジンにはヘッダーが付与されないこと",
			allowed:    []string{"https://app.example.com"},
			method:     http.MethodGet,
			origin:     "https://evil.example.com",
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "ワイルドカードで任意のオリジンを許可すること",
			allowed:    []string{"*"},
			method:     http.MethodGet,
			origin:     "https://qualquer.example.com",
			wantStatus: http.StatusOK,
			wantOrigin: "https://qualquer.example.com",
			wantCalled: true,
		},
		{
			name:       "ワイルドカードでもOriginが無ければヘッダーを付与しないこと",
			allowed:    []string{"*"},
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "プリフライトは204で中断されること",
			allowed:    []string{"https://app.example.com"},
			method:     http.MethodOptions,
			origin:     "https://app.example.com",
			wantStatus: http.StatusNoContent,
			wantOrigin: "https://app.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			router := gin.New()
			router.Use(CORS(tt.allowed))
			router.Handle(tt.method, "/cursos/:id/vagas", func(c *gin.Context) {
				called = true
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, "/cursos/1/vagas", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if called != tt.wantCalled {
				t.Errorf("ハンドラー呼び出し = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantOrigin != "" {
				if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
					t.Errorf("Access-Control-Allow-Methods = %q", got)
				}
			}
		})
	}
}
