package handler

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yourusername/assessment-api/internal/domain/entity"
)

// RegisterValidators добавляет собственные правила в валидатор gin
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("assessment_type", validateAssessmentType)
}

// validateAssessmentType — правило assessment_type: mcq | fill-in-blanks | video
func validateAssessmentType(fl validator.FieldLevel) bool {
	_, err := entity.ParseAssessmentType(fl.Field().String())
	return err == nil
}
