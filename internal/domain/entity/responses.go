package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// MCQResponse — выбранный вариант на один вопрос
type MCQResponse struct {
	QuestionID       string `json:"question_id"`
	SelectedOptionID string `json:"selected_option_id"`
}

// FillInBlanksResponse — ответы на пропуски одного вопроса, ключ — ID пропуска
type FillInBlanksResponse struct {
	QuestionID string            `json:"question_id"`
	Answers    map[string]string `json:"answers"`
}

// VideoResponse — ссылка на записанное видео (содержимое хранится во внешнем сервисе).
// Отметки времени записи передает клиент, они необязательны.
type VideoResponse struct {
	QuestionID         string     `json:"question_id"`
	VideoURL           string     `json:"video_url"`
	RecordingStartedAt *time.Time `json:"recording_started_at,omitempty"`
	RecordedAt         *time.Time `json:"recorded_at,omitempty"`
}

// Responses — размеченное объединение ответов кандидата.
// Type совпадает с типом теста; нулевое значение означает «ответов нет».
type Responses struct {
	Type         AssessmentType         `json:"type"`
	MCQ          []MCQResponse          `json:"mcq,omitempty"`
	FillInBlanks []FillInBlanksResponse `json:"fill_in_blanks,omitempty"`
	Video        []VideoResponse        `json:"video,omitempty"`
}

// NewMCQResponses оборачивает MCQ-ответы
func NewMCQResponses(items []MCQResponse) Responses {
	return Responses{Type: AssessmentTypeMCQ, MCQ: items}
}

// NewFillInBlanksResponses оборачивает ответы на пропуски
func NewFillInBlanksResponses(items []FillInBlanksResponse) Responses {
	return Responses{Type: AssessmentTypeFillInBlanks, FillInBlanks: items}
}

// NewVideoResponses оборачивает видеоответы
func NewVideoResponses(items []VideoResponse) Responses {
	return Responses{Type: AssessmentTypeVideo, Video: items}
}

// IsEmpty сообщает, что ответы еще не сданы
func (r Responses) IsEmpty() bool {
	return r.Type == ""
}

// Scan реализует интерфейс sql.Scanner для Responses.
// NULL в базе превращается в пустые ответы.
func (r *Responses) Scan(value interface{}) error {
	if value == nil {
		*r = Responses{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB responses: unexpected type")
	}

	if len(bytes) == 0 {
		*r = Responses{}
		return nil
	}

	return json.Unmarshal(bytes, r)
}

// Value реализует интерфейс driver.Valuer для Responses.
// Пустые ответы записываются как NULL, а не как пустой объект.
func (r Responses) Value() (driver.Value, error) {
	if r.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(r)
}

// GormDataType сообщает GORM тип колонки
func (Responses) GormDataType() string {
	return "jsonb"
}
