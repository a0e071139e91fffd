package notification

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nao1215/inscricoes/internal/course"
	"github.com/nao1215/inscricoes/pkg/event"
)

// Message は端末に表示する通知の内容。
type Message struct {
	// Title は通知のタイトル。
	Title string `json:"titulo"`
	// Body は通知の本文。
	Body string `json:"corpo"`
	// Data はアプリが画面遷移に使う付加情報。
	Data map[string]string `json:"dados"`
}

// 状態変更のメッセージ。
const (
	stateUpcomingBody  = "O curso voltou a estar disponível para inscrições."
	stateOngoingBody   = "O curso já começou."
	stateFinishedBody  = "O curso foi concluído."
	stateCancelledBody = "O curso foi cancelado."
	stateGenericBody   = "O curso foi atualizado."
)

// maxInlineValue は本文に埋め込む変更後の値の最大文字数。超える場合は値を省略する。
const maxInlineValue = 80

// infoFieldLabels は alteracao_informacoes の項目名と表示名の対応表。
var infoFieldLabels = map[string]string{
	"titulo":      "título",
	"descricao":   "descrição",
	"dificuldade": "dificuldade",
	"tema":        "tema",
}

type renderFunc func(e *event.Event) (Message, error)

// templates はイベント種別ごとの組み立て処理。
var templates = map[event.Type]renderFunc{
	event.TypeNewMaterial:       renderMaterial("Novo material", "Foi adicionado o material \"%s\"."),
	event.TypeMaterialRemoved:   renderMaterial("Material removido", "O material \"%s\" foi removido."),
	event.TypeNewLesson:         renderLesson("Nova aula", "Foi adicionada a aula \"%s\"."),
	event.TypeLessonRemoved:     renderLesson("Aula removida", "A aula \"%s\" foi removida."),
	event.TypeNewLink:           renderLink("Novo link", "Foi adicionado o link \"%s\"."),
	event.TypeLinkRemoved:       renderLink("Link removido", "O link \"%s\" foi removido."),
	event.TypeInstructorChanged: renderInstructor,
	event.TypeDatesChanged:      renderDates,
	event.TypeStateChanged:      renderState,
	event.TypeInfoChanged:       renderInfo,
	event.TypeReport:            renderReport,
	event.TypeForumReply:        renderForumReply,
}

// Render はイベントから通知の内容を組み立てる。
// 未知の種別や必須項目の欠けたデータは course.ErrValidation を返す。
func Render(e *event.Event) (Message, error) {
	render, ok := templates[e.Type]
	if !ok {
		return Message{}, fmt.Errorf("%w: %w: %q", course.ErrValidation, event.ErrUnknownType, e.Type)
	}
	msg, err := render(e)
	if err != nil {
		return Message{}, err
	}

	data := map[string]string{
		"tipo":     string(e.Type),
		"idcurso":  strconv.FormatInt(e.CourseID, 10),
		"idevento": e.ID,
	}
	for k, v := range msg.Data {
		data[k] = v
	}
	msg.Data = data
	return msg, nil
}

// decode はペイロードを型付きの構造体に変換する。変換できない場合は course.ErrValidation を返す。
func decode[T any](e *event.Event) (*T, error) {
	data, err := event.DecodeData[T](e)
	if err != nil {
		return nil, fmt.Errorf("%w: dados de %s inválidos: %w", course.ErrValidation, e.Type, err)
	}
	return data, nil
}

// missing は必須項目が空であることを表すエラーを返す。
func missing(t event.Type, field string) error {
	return fmt.Errorf("%w: %s requer o campo %q", course.ErrValidation, t, field)
}

func renderMaterial(title, body string) renderFunc {
	return func(e *event.Event) (Message, error) {
		d, err := decode[event.MaterialData](e)
		if err != nil {
			return Message{}, err
		}
		if strings.TrimSpace(d.Title) == "" {
			return Message{}, missing(e.Type, "titulo_material")
		}
		return Message{
			Title: title,
			Body:  fmt.Sprintf(body, d.Title),
			Data:  map[string]string{"titulo_material": d.Title},
		}, nil
	}
}

func renderLesson(title, body string) renderFunc {
	return func(e *event.Event) (Message, error) {
		d, err := decode[event.LessonData](e)
		if err != nil {
			return Message{}, err
		}
		if strings.TrimSpace(d.Title) == "" {
			return Message{}, missing(e.Type, "titulo_aula")
		}
		return Message{
			Title: title,
			Body:  fmt.Sprintf(body, d.Title),
			Data:  map[string]string{"titulo_aula": d.Title},
		}, nil
	}
}

func renderLink(title, body string) renderFunc {
	return func(e *event.Event) (Message, error) {
		d, err := decode[event.LinkData](e)
		if err != nil {
			return Message{}, err
		}
		if strings.TrimSpace(d.Title) == "" {
			return Message{}, missing(e.Type, "titulo_link")
		}
		data := map[string]string{"titulo_link": d.Title}
		if d.URL != "" {
			data["url"] = d.URL
		}
		return Message{Title: title, Body: fmt.Sprintf(body, d.Title), Data: data}, nil
	}
}

func renderInstructor(e *event.Event) (Message, error) {
	d, err := decode[event.InstructorChangedData](e)
	if err != nil {
		return Message{}, err
	}
	if strings.TrimSpace(d.New) == "" {
		if strings.TrimSpace(d.Old) == "" {
			return Message{}, missing(e.Type, "formador_novo")
		}
		// 講師が外され未定になった場合
		return Message{
			Title: "Alteração de formador",
			Body:  fmt.Sprintf("O formador %s deixou de ministrar o curso.", d.Old),
			Data:  map[string]string{"formador_antigo": d.Old},
		}, nil
	}

	body := fmt.Sprintf("O curso passa a ser ministrado por %s.", d.New)
	data := map[string]string{"formador_novo": d.New}
	if d.Old != "" {
		body = fmt.Sprintf("O formador %s foi substituído por %s.", d.Old, d.New)
		data["formador_antigo"] = d.Old
	}
	return Message{Title: "Alteração de formador", Body: body, Data: data}, nil
}

func renderDates(e *event.Event) (Message, error) {
	d, err := decode[event.DatesChangedData](e)
	if err != nil {
		return Message{}, err
	}
	if d.Start == "" {
		return Message{}, missing(e.Type, "data_inicio")
	}
	if d.End == "" {
		return Message{}, missing(e.Type, "data_fim")
	}
	start, err := time.Parse(course.DateLayout, d.Start)
	if err != nil {
		return Message{}, fmt.Errorf("%w: data_inicio %q inválida", course.ErrValidation, d.Start)
	}
	end, err := time.Parse(course.DateLayout, d.End)
	if err != nil {
		return Message{}, fmt.Errorf("%w: data_fim %q inválida", course.ErrValidation, d.End)
	}

	return Message{
		Title: "Alteração de datas",
		Body: fmt.Sprintf("O curso decorre agora de %s a %s.",
			start.Format("02/01/2006"), end.Format("02/01/2006")),
		Data: map[string]string{"data_inicio": d.Start, "data_fim": d.End},
	}, nil
}

// renderState は真偽値・文字列のどちらで届いた状態も正規化してから本文を選ぶ。
// 解釈できない値は汎用のメッセージにする。
func renderState(e *event.Event) (Message, error) {
	d, err := decode[event.StateChangedData](e)
	if err != nil {
		return Message{}, err
	}
	if d.State == nil {
		return Message{}, missing(e.Type, "estado")
	}

	body, state := stateGenericBody, ""
	if l, err := course.ParseLifecycle(d.State); err == nil {
		state = string(l)
		switch l {
		case course.LifecycleUpcoming:
			body = stateUpcomingBody
		case course.LifecycleOngoing:
			body = stateOngoingBody
		case course.LifecycleFinished:
			body = stateFinishedBody
		case course.LifecycleCancelled:
			body = stateCancelledBody
		}
	}

	data := map[string]string{}
	if state != "" {
		data["estado"] = state
	}
	return Message{Title: "Alteração de estado", Body: body, Data: data}, nil
}

func renderInfo(e *event.Event) (Message, error) {
	d, err := decode[event.InfoChangedData](e)
	if err != nil {
		return Message{}, err
	}
	if strings.TrimSpace(d.Field) == "" {
		return Message{}, missing(e.Type, "campo")
	}

	label, ok := infoFieldLabels[d.Field]
	if !ok {
		label = d.Field
	}
	body := fmt.Sprintf("O campo %s do curso foi alterado.", label)
	if d.New != "" && utf8.RuneCountInString(d.New) <= maxInlineValue {
		body = fmt.Sprintf("O campo %s do curso foi alterado para \"%s\".", label, d.New)
	}
	return Message{
		Title: "Informações do curso atualizadas",
		Body:  body,
		Data:  map[string]string{"campo": d.Field},
	}, nil
}

func renderReport(e *event.Event) (Message, error) {
	d, err := decode[event.ReportData](e)
	if err != nil {
		return Message{}, err
	}
	if strings.TrimSpace(d.Reason) == "" {
		return Message{}, missing(e.Type, "motivo")
	}

	body := fmt.Sprintf("Foi registada uma denúncia: %s.", d.Reason)
	data := map[string]string{"motivo": d.Reason}
	if d.ContentType != "" {
		body = fmt.Sprintf("Foi registada uma denúncia sobre um(a) %s: %s.", d.ContentType, d.Reason)
		data["tipo_conteudo"] = d.ContentType
	}
	return Message{Title: "Nova denúncia", Body: body, Data: data}, nil
}

func renderForumReply(e *event.Event) (Message, error) {
	d, err := decode[event.ForumReplyData](e)
	if err != nil {
		return Message{}, err
	}
	if strings.TrimSpace(d.Author) == "" {
		return Message{}, missing(e.Type, "autor")
	}
	if strings.TrimSpace(d.Topic) == "" {
		return Message{}, missing(e.Type, "titulo_topico")
	}
	return Message{
		Title: "Nova resposta no fórum",
		Body:  fmt.Sprintf("%s respondeu ao tópico \"%s\".", d.Author, d.Topic),
		Data:  map[string]string{"autor": d.Author, "titulo_topico": d.Topic},
	}, nil
}
