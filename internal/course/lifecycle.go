package course

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lifecycle はコースのライフサイクル状態。取り得る値は4つに限定される。
type Lifecycle string

const (
	// LifecycleUpcoming は開始前で受講申込を受け付けている状態。
	LifecycleUpcoming Lifecycle = "upcoming"
	// LifecycleOngoing は開講中の状態。
	LifecycleOngoing Lifecycle = "ongoing"
	// LifecycleFinished は終了した状態。
	LifecycleFinished Lifecycle = "finished"
	// LifecycleCancelled は中止された状態。
	LifecycleCancelled Lifecycle = "cancelled"
)

// Valid は定義済みの状態かどうかを返す。
func (l Lifecycle) Valid() bool {
	switch l {
	case LifecycleUpcoming, LifecycleOngoing, LifecycleFinished, LifecycleCancelled:
		return true
	}
	return false
}

// lifecycleTokens は旧データやクライアントから届く自由記述の状態名と正規化後の状態の対応表。
// キーは Fold 済みの文字列。
var lifecycleTokens = map[string]Lifecycle{
	"upcoming":    LifecycleUpcoming,
	"em breve":    LifecycleUpcoming,
	"brevemente":  LifecycleUpcoming,
	"por iniciar": LifecycleUpcoming,
	"agendado":    LifecycleUpcoming,

	"ongoing":      LifecycleOngoing,
	"em curso":     LifecycleOngoing,
	"a decorrer":   LifecycleOngoing,
	"em andamento": LifecycleOngoing,
	"iniciado":     LifecycleOngoing,
	"ativo":        LifecycleOngoing,
	"true":         LifecycleOngoing,

	"finished":   LifecycleFinished,
	"concluido":  LifecycleFinished,
	"terminado":  LifecycleFinished,
	"finalizado": LifecycleFinished,
	"encerrado":  LifecycleFinished,
	"inativo":    LifecycleFinished,
	"false":      LifecycleFinished,

	"cancelled": LifecycleCancelled,
	"canceled":  LifecycleCancelled,
	"cancelado": LifecycleCancelled,
	"anulado":   LifecycleCancelled,
}

// ParseLifecycle は取り込み境界で状態を正規化する。
// 旧形式の真偽値（true=有効, false=無効）と自由記述の文字列の両方を受け付け、
// 未知の値はエラーとして拒否する。
func ParseLifecycle(v any) (Lifecycle, error) {
	switch raw := v.(type) {
	case Lifecycle:
		if raw.Valid() {
			return raw, nil
		}
		return "", fmt.Errorf("%w: estado de curso desconhecido %q", ErrValidation, string(raw))
	case bool:
		if raw {
			return LifecycleOngoing, nil
		}
		return LifecycleFinished, nil
	case *bool:
		if raw == nil {
			break
		}
		return ParseLifecycle(*raw)
	case string:
		if l, ok := lifecycleTokens[Fold(raw)]; ok {
			return l, nil
		}
		return "", fmt.Errorf("%w: estado de curso desconhecido %q", ErrValidation, raw)
	}
	return "", fmt.Errorf("%w: estado de curso em formato não suportado (%T)", ErrValidation, v)
}

// Fold は比較用に文字列を正規化する。
// アクセント記号を除去し、小文字化し、区切り文字（_ や -）と連続空白を1つの空白にまとめる。
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = strings.NewReplacer("_", " ", "-", " ").Replace(folded)
	return strings.Join(strings.Fields(folded), " ")
}
