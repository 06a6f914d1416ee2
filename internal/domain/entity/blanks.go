package entity

import "strings"

const (
	blankOpen  = "[["
	blankClose = "]]"
)

// TextSegment — фрагмент текста вопроса: либо литерал, либо пропуск
type TextSegment struct {
	Text    string `json:"text,omitempty"`
	BlankID string `json:"blank_id,omitempty"`
	IsBlank bool   `json:"is_blank"`
}

// ParseBlankMarkers возвращает имена маркеров [[name]] в порядке слева направо.
// Незакрытый маркер считается обычным текстом.
func ParseBlankMarkers(text string) []string {
	var markers []string
	rest := text
	for {
		start := strings.Index(rest, blankOpen)
		if start < 0 {
			return markers
		}
		end := strings.Index(rest[start+len(blankOpen):], blankClose)
		if end < 0 {
			return markers
		}
		name := rest[start+len(blankOpen) : start+len(blankOpen)+end]
		markers = append(markers, strings.TrimSpace(name))
		rest = rest[start+len(blankOpen)+end+len(blankClose):]
	}
}

// MarkersMatchBlanks проверяет, что количество маркеров в тексте совпадает с количеством пропусков
func (q *FillInBlanksQuestion) MarkersMatchBlanks() bool {
	return len(ParseBlankMarkers(q.Text)) == len(q.Blanks)
}

// SplitBlankText разбивает текст на литералы и пропуски. BlankID пропуска — имя маркера.
func SplitBlankText(text string) []TextSegment {
	var segments []TextSegment
	rest := text
	for {
		start := strings.Index(rest, blankOpen)
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+len(blankOpen):], blankClose)
		if end < 0 {
			break
		}
		if start > 0 {
			segments = append(segments, TextSegment{Text: rest[:start]})
		}
		name := rest[start+len(blankOpen) : start+len(blankOpen)+end]
		segments = append(segments, TextSegment{IsBlank: true, BlankID: strings.TrimSpace(name)})
		rest = rest[start+len(blankOpen)+end+len(blankClose):]
	}
	if rest != "" {
		segments = append(segments, TextSegment{Text: rest})
	}
	return segments
}

// Segments разбивает текст вопроса на фрагменты для отображения кандидату.
// N-й пропуск получает ID N-го элемента Blanks; лишние маркеры остаются без ID.
func (q *FillInBlanksQuestion) Segments() []TextSegment {
	segments := SplitBlankText(q.Text)
	idx := 0
	for i := range segments {
		if !segments[i].IsBlank {
			continue
		}
		segments[i].BlankID = ""
		if idx < len(q.Blanks) {
			segments[i].BlankID = q.Blanks[idx].ID
		}
		idx++
	}
	return segments
}

// BlankPlaceholder заменяет маркер в тексте, показываемом кандидату
const BlankPlaceholder = "____"

// DisplayText возвращает текст вопроса с маркерами, замененными на BlankPlaceholder
func (q *FillInBlanksQuestion) DisplayText() string {
	var b strings.Builder
	for _, s := range SplitBlankText(q.Text) {
		if s.IsBlank {
			b.WriteString(BlankPlaceholder)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
