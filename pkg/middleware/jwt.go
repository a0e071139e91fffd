package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer はこのサービスが発行・受理するトークンの発行者名。
const Issuer = "inscricoes-auth"

// DefaultTokenTTL はGenerateJWTで有効期限を省略した場合の有効期間。
const DefaultTokenTTL = 24 * time.Hour

// contextKeyLearnerID は認証済み学習者IDを格納するGinコンテキストのキー。
const contextKeyLearnerID = "idutilizador"

// contextKeyEmail は認証済み学習者のメールアドレスを格納するキー。
const contextKeyEmail = "email"

// Claims はJWTトークンのクレームを表す。
type Claims struct {
	jwt.RegisteredClaims
	// LearnerID は認証済み学習者のID。
	LearnerID int64 `json:"idutilizador"`
	// Email は学習者のメールアドレス。
	Email string `json:"email"`
}

// GenerateJWT は学習者IDからHS256署名済みトークンを生成する。
// ttlが0以下の場合はDefaultTokenTTLを使う。
func GenerateJWT(secret string, learnerID int64, email string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", learnerID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
		LearnerID: learnerID,
		Email:     email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// JWTAuth はBearerトークンを検証するGinミドルウェアを返す。
// HS256以外の署名方式と発行者の異なるトークンは拒否する。
func JWTAuth(secret string) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "cabeçalho Authorization em falta",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "formato de token Bearer inválido",
			})
			return
		}

		claims := &Claims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.LearnerID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "token inválido ou expirado",
			})
			return
		}

		c.Set(contextKeyLearnerID, claims.LearnerID)
		c.Set(contextKeyEmail, claims.Email)
		c.Next()
	}
}

// LearnerID はGinコンテキストから認証済み学習者IDを取得する。
// JWTAuthを通過していない場合はfalseを返す。
func LearnerID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(contextKeyLearnerID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}
