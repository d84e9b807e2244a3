package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/thoas/go-funk"

	"github.com/jarvis-platform/orchestrator/internal/store/model"
)

var languageTagRegex = regexp.MustCompile(`^[a-zA-Z]{2,3}(-[a-zA-Z0-9]{2,8})*$`)

func agentTypeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(model.AgentType)
	if !ok {
		return false
	}
	return funk.Contains(model.AgentTypes, val)
}

func languageTagValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return languageTagRegex.MatchString(val)
}
