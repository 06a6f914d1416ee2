package repository

import "errors"

var (
	// ErrStatusChanged означает, что статус назначения изменился между чтением и записью
	// (конкурентный запрос уже выполнил переход).
	ErrStatusChanged = errors.New("assignment status changed concurrently")
	// ErrDuplicateAssignment означает, что кандидату уже назначен этот тест.
	ErrDuplicateAssignment = errors.New("assignment for candidate and assessment already exists")
)
