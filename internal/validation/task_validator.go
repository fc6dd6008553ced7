package validation

import (
	"task-list/internal/config"
	"task-list/internal/domain"
)

// TaskValidator provides validation for Task-related operations
type TaskValidator struct {
	validator *Validator
}

// NewTaskValidator creates a new task validator
func NewTaskValidator() *TaskValidator {
	return &TaskValidator{
		validator: NewValidator(),
	}
}

// NewTaskValidatorWithConfig creates a task validator using configured limits.
func NewTaskValidatorWithConfig(cfg *config.Config) *TaskValidator {
	return &TaskValidator{
		validator: NewValidatorWithConfig(cfg),
	}
}

// ValidateTaskName validates a task name. Empty and whitespace-only names
// are rejected; any other text, including newlines, is a valid name.
func (tv *TaskValidator) ValidateTaskName(name string) error {
	validationError := NewValidationError()

	trimmedName := tv.validator.TrimAndValidateString(name)

	if !tv.validator.IsNonEmptyString(trimmedName) {
		validationError.AddRequiredError("name")
		return validationError
	}

	if max := tv.validator.taskNameMaxLength(); !tv.validator.IsWithinLength(trimmedName, max) {
		validationError.AddInvalidLengthError("name", trimmedName, max)
	}

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

// ValidateDescription validates the optional free-form description.
func (tv *TaskValidator) ValidateDescription(description string) error {
	max := tv.validator.descriptionMaxLength()
	if tv.validator.IsWithinLength(tv.validator.TrimAndValidateString(description), max) {
		return nil
	}
	validationError := NewValidationError()
	validationError.AddInvalidLengthError("description", description, max)
	return validationError
}

// ValidateCandidate validates a task about to be created. The image
// reference is whatever the picker returned and is not inspected.
func (tv *TaskValidator) ValidateCandidate(candidate domain.TaskCandidate) error {
	validationError := NewValidationError()

	validationError.Merge(tv.ValidateTaskName(candidate.Name))
	validationError.Merge(tv.ValidateDescription(candidate.Description))

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

// ValidateTaskID validates a task id supplied by a caller.
func (tv *TaskValidator) ValidateTaskID(id string) error {
	if tv.validator.IsNonEmptyString(id) {
		return nil
	}
	validationError := NewValidationError()
	validationError.AddRequiredError("id")
	return validationError
}

// CleanCandidate returns the candidate with trimmed name and description.
func (tv *TaskValidator) CleanCandidate(candidate domain.TaskCandidate) domain.TaskCandidate {
	candidate.Name = tv.validator.TrimAndValidateString(candidate.Name)
	candidate.Description = tv.validator.TrimAndValidateString(candidate.Description)
	return candidate
}
