package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// tokenRequest はデバイストークン登録のリクエストボディ。
type tokenRequest struct {
	// LearnerID は学習者ID。
	LearnerID int64 `json:"idutilizador"`
	// Token はFCMのデバイストークン。
	Token string `json:"fcm_token"`
}

// handleRegisterToken はログイン時にデバイストークンを上書き登録するハンドラを返す。
// 学習者ごとに保持するトークンは最後に登録された1件のみ。
func (s *Server) handleRegisterToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "corpo do pedido inválido"})
			return
		}
		token := strings.TrimSpace(req.Token)
		if req.LearnerID <= 0 || token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "idutilizador e fcm_token são obrigatórios"})
			return
		}

		if err := s.catalog.SetDeviceToken(c.Request.Context(), req.LearnerID, &token); err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"mensagem": "token registado"})
	}
}

// handleClearToken はログアウト時にデバイストークンを削除するハンドラを返す。
func (s *Server) handleClearToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		learnerID, ok := s.pathID(c, "idutilizador")
		if !ok {
			return
		}

		if err := s.catalog.SetDeviceToken(c.Request.Context(), learnerID, nil); err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"mensagem": "token removido"})
	}
}
