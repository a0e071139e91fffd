package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/nao1215/inscricoes/pkg/httpclient"
)

// fcmScope はFCM HTTP v1 APIの送信に必要なOAuth2スコープ。
const fcmScope = "https://www.googleapis.com/auth/firebase.messaging"

// ErrUnregisteredToken は端末トークンが無効または登録解除済みであることを表す。
var ErrUnregisteredToken = errors.New("token do dispositivo inválido ou não registado")

// NewFCMClient はサービスアカウントの認証情報でFCM用のHTTPクライアントを生成する。
// アクセストークンの取得と更新はoauth2のトランスポートが行う。timeoutが0以下の場合は無制限。
func NewFCMClient(ctx context.Context, baseURL string, credentialsJSON []byte, timeout time.Duration) (*httpclient.Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, fcmScope)
	if err != nil {
		return nil, fmt.Errorf("FCM認証情報の読み込みに失敗: %w", err)
	}

	hc := oauth2.NewClient(ctx, creds.TokenSource)
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return httpclient.New(baseURL, httpclient.WithHTTPClient(hc)), nil
}

// FCMSender はFirebase Cloud Messaging HTTP v1 APIで通知を送信する。
type FCMSender struct {
	client    *httpclient.Client
	projectID string
}

// NewFCMSender はFCMSenderを生成する。clientには認証済みのクライアントを渡す。
func NewFCMSender(client *httpclient.Client, projectID string) *FCMSender {
	return &FCMSender{client: client, projectID: projectID}
}

// fcmRequest はmessages:sendのリクエストボディ。
type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// fcmResponse はmessages:sendの成功レスポンス。
type fcmResponse struct {
	Name string `json:"name"`
}

// Send は1台の端末へ通知を送信する。
// トークンが無効な場合（404、または400でUNREGISTERED）は ErrUnregisteredToken を返す。
func (f *FCMSender) Send(ctx context.Context, token string, msg Message) error {
	req := fcmRequest{Message: fcmMessage{
		Token:        token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	}}

	var resp fcmResponse
	path := fmt.Sprintf("/v1/projects/%s/messages:send", f.projectID)
	if err := f.client.PostJSON(ctx, path, req, &resp); err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && isUnregistered(se) {
			return fmt.Errorf("%w: %w", ErrUnregisteredToken, err)
		}
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}

// isUnregistered はFCMのエラー応答がトークン無効を示すかどうかを判定する。
func isUnregistered(se *httpclient.StatusError) bool {
	if se.StatusCode == http.StatusNotFound {
		return true
	}
	return se.StatusCode == http.StatusBadRequest && strings.Contains(se.Body, "UNREGISTERED")
}
