package event

import (
	"encoding/json"
	"time"
)

// Type は通知イベントの種類を表す。値はモバイルアプリと共有する識別子。
type Type string

const (
	// TypeNewMaterial は教材が追加されたことを表す。
	TypeNewMaterial Type = "novo_material"
	// TypeNewLesson は授業が追加されたことを表す。
	TypeNewLesson Type = "nova_aula"
	// TypeLessonRemoved は授業が削除されたことを表す。
	TypeLessonRemoved Type = "aula_removida"
	// TypeMaterialRemoved は教材が削除されたことを表す。
	TypeMaterialRemoved Type = "material_removido"
	// TypeNewLink はリンクが追加されたことを表す。
	TypeNewLink Type = "novo_link"
	// TypeLinkRemoved はリンクが削除されたことを表す。
	TypeLinkRemoved Type = "link_removido"
	// TypeInstructorChanged は講師が変更されたことを表す。
	TypeInstructorChanged Type = "alteracao_formador"
	// TypeDatesChanged は開始日または終了日が変更されたことを表す。
	TypeDatesChanged Type = "alteracao_datas"
	// TypeStateChanged はコースの状態が変更されたことを表す。
	TypeStateChanged Type = "alteracao_estado"
	// TypeInfoChanged はコースの説明項目が変更されたことを表す。
	TypeInfoChanged Type = "alteracao_informacoes"
	// TypeReport はコンテンツが通報されたことを表す。
	TypeReport Type = "denuncia"
	// TypeForumReply はフォーラムに返信があったことを表す。
	TypeForumReply Type = "resposta_forum"
)

// Types は定義済みのすべてのイベント種別。
var Types = []Type{
	TypeNewMaterial, TypeNewLesson, TypeLessonRemoved, TypeMaterialRemoved,
	TypeNewLink, TypeLinkRemoved, TypeInstructorChanged, TypeDatesChanged,
	TypeStateChanged, TypeInfoChanged, TypeReport, TypeForumReply,
}

// Valid は定義済みの種別かどうかを返す。
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Event は1回の変更操作に対応する通知イベント。
type Event struct {
	// ID はイベントの一意識別子（UUID）。ログの突き合わせに使う。
	ID string `json:"id"`
	// Type はイベントの種類。
	Type Type `json:"event_type"`
	// CourseID は対象コースの識別子。
	CourseID int64 `json:"course_id"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが生成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// MaterialData は novo_material / material_removido のデータ。
type MaterialData struct {
	// Title は教材名。
	Title string `json:"titulo_material"`
}

// LessonData は nova_aula / aula_removida のデータ。
type LessonData struct {
	// Title は授業名。
	Title string `json:"titulo_aula"`
}

// LinkData は novo_link / link_removido のデータ。
type LinkData struct {
	// Title はリンクの表示名。
	Title string `json:"titulo_link"`
	// URL はリンク先。任意。
	URL string `json:"url,omitempty"`
}

// InstructorChangedData は alteracao_formador のデータ。
type InstructorChangedData struct {
	// New は新しい講師名。
	New string `json:"formador_novo"`
	// Old は以前の講師名。未設定だった場合は空。
	Old string `json:"formador_antigo,omitempty"`
}

// DatesChangedData は alteracao_datas のデータ。片方のみ変更された場合も両方を含める。
type DatesChangedData struct {
	// Start は開始日（YYYY-MM-DD）。
	Start string `json:"data_inicio"`
	// End は終了日（YYYY-MM-DD）。
	End string `json:"data_fim"`
}

// StateChangedData は alteracao_estado のデータ。
// State は旧形式の真偽値または自由記述の文字列のどちらでも届く。
type StateChangedData struct {
	// State は新しい状態。bool または string。
	State any `json:"estado"`
}

// InfoChangedData は alteracao_informacoes のデータ。変更された項目ごとに1件生成する。
type InfoChangedData struct {
	// Field は変更された項目名（titulo, descricao, dificuldade, tema）。
	Field string `json:"campo"`
	// Old は変更前の値。
	Old string `json:"valor_antigo,omitempty"`
	// New は変更後の値。
	New string `json:"valor_novo,omitempty"`
}

// ReportData は denuncia のデータ。
type ReportData struct {
	// Reason は通報理由。
	Reason string `json:"motivo"`
	// ContentType は通報されたコンテンツの種類。任意。
	ContentType string `json:"tipo_conteudo,omitempty"`
}

// ForumReplyData は resposta_forum のデータ。
type ForumReplyData struct {
	// Author は返信者の表示名。
	Author string `json:"autor"`
	// Topic は返信先のトピック名。
	Topic string `json:"titulo_topico"`
}
