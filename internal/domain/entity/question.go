package entity

// Option представляет вариант ответа MCQ-вопроса
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MCQQuestion представляет вопрос с выбором одного варианта
type MCQQuestion struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Options         []Option `json:"options"`
	CorrectOptionID string   `json:"correct_option_id"`
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *MCQQuestion) IsCorrect(selectedOptionID string) bool {
	return selectedOptionID == q.CorrectOptionID
}

// HasOption проверяет, есть ли у вопроса вариант с указанным ID
func (q *MCQQuestion) HasOption(optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// Blank представляет один пропуск в вопросе
type Blank struct {
	ID            string `json:"id"`
	CorrectAnswer string `json:"correct_answer"`
}

// FillInBlanksQuestion представляет вопрос с пропусками.
// N-й маркер [[...]] в Text соответствует N-му элементу Blanks.
type FillInBlanksQuestion struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Blanks []Blank `json:"blanks"`
}

// VideoQuestion представляет вопрос с записью видеоответа.
// TimeLimitSec — лимит на запись одного ответа, не связан с лимитом всего теста.
type VideoQuestion struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	TimeLimitSec int    `json:"time_limit"`
}
