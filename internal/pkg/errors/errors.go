package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется, когда кандидат пытается работать с чужим назначением.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (например, повторное назначение того же теста).
	ErrConflict = errors.New("resource state conflict")

	// ErrInvalidTransition означает, что назначение не находится в исходном статусе,
	// который требуется операции жизненного цикла (start, submit, review).
	ErrInvalidTransition = errors.New("invalid assignment status transition")

	// ErrTypeMismatch означает, что тип ответов не совпадает с типом теста.
	ErrTypeMismatch = errors.New("responses do not match assessment type")

	// ErrInvalidAssessment означает, что определение теста некорректно (например, нет вопросов)
	// и подсчет баллов невозможен. Это ошибка авторинга, а не runtime-состояние.
	ErrInvalidAssessment = errors.New("invalid assessment definition")
)
