package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeAcquisition   ErrorType = "ACQUISITION"
	TypeDiscovery     ErrorType = "DISCOVERY"
	TypeRule          ErrorType = "RULE"
	TypeEvaluator     ErrorType = "EVALUATOR"
	TypeParse         ErrorType = "PARSE"
	TypePersistence   ErrorType = "PERSISTENCE"
	TypeCriteria      ErrorType = "CRITERIA"
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeInternal      ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if stderr, ok := e.Context["stderr"].(string); ok && stderr != "" {
			msg += fmt.Sprintf(" - %s", stderr)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the same kind of error, so copies made with
// WithError or WithContext still match the package sentinels.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsFatal reports whether err prevents a grade from being produced.
func IsFatal(err error) bool {
	return IsType(err, TypeAcquisition) ||
		IsType(err, TypeDiscovery) ||
		IsType(err, TypeCriteria) ||
		IsType(err, TypeConfiguration)
}

// Acquisition errors
var (
	ErrClone = NewAppError(TypeAcquisition, "Failed to clone repository", nil).
			WithSuggestion("Check the repository URL and that the token can read it")

	ErrCloneTimeout = NewAppError(TypeAcquisition, "Repository clone timeout", nil).
			WithSuggestion("Increase repository.clone_timeout or try again later")

	ErrInvalidRepoURL = NewAppError(TypeAcquisition, "Invalid repository URL", nil).
				WithSuggestion("Use an https URL such as https://github.com/<owner>/<repo>")

	ErrRepoNotFound = NewAppError(TypeAcquisition, "Repository content not found", nil).
			WithSuggestion("Check repository URL and access permissions")

	ErrRepoForbidden = NewAppError(TypeAcquisition, "Access forbidden", nil).
				WithSuggestion("Check if the repository is private and the token is valid")

	ErrRepoNetwork = NewAppError(TypeAcquisition, "Network request failed", nil).
			WithSuggestion("Check your network connection")

	ErrWorkspace = NewAppError(TypeAcquisition, "Failed to prepare working directory", nil)
)

// Discovery errors
var (
	ErrAssignmentFolderNotFound = NewAppError(TypeDiscovery, "Assignment folder not found in the repository", nil).
					WithSuggestion("The repository must contain a folder named after the assignment")

	ErrNoSourceFiles = NewAppError(TypeDiscovery, "No source files found in the assignment folder", nil).
				WithSuggestion("Check collector.extension in the configuration")
)

// Rule and parse errors. Both are recovered where they happen.
var (
	ErrInvalidRulePattern = NewAppError(TypeRule, "Invalid regex pattern", nil).
				WithSuggestion("Rules use RE2 syntax: look-around and backreferences are not supported")

	ErrInvalidRule = NewAppError(TypeRule, "Incomplete or negative regex rule", nil)

	ErrDeductionPoints = NewAppError(TypeParse, "Deduction points out of range", nil)

	ErrEmptyDeduction = NewAppError(TypeParse, "Deduction without description", nil)
)

// Evaluator errors. The pipeline degrades to rule-only grading on any of them.
var (
	ErrEvaluatorAuth = NewAppError(TypeEvaluator, "AI API key is invalid", nil).
				WithSuggestion("Check the evaluator API key")

	ErrEvaluatorQuota = NewAppError(TypeEvaluator, "AI quota exceeded or rate limited", nil).
				WithSuggestion("Wait a few minutes and try again, or check your API quota")

	ErrEvaluatorNetwork = NewAppError(TypeEvaluator, "AI request failed", nil)

	ErrEvaluatorTimeout = NewAppError(TypeEvaluator, "AI request timed out", nil).
				WithSuggestion("Increase ai.timeout in the configuration")

	ErrEvaluatorResponse = NewAppError(TypeEvaluator, "Malformed AI response", nil)

	ErrAPIKeyMissing = NewAppError(TypeEvaluator, "AI API key is missing", nil).
				WithSuggestion("Pass --api-key or set MATEGRADE_GEMINI_API_KEY")

	ErrProviderNotFound = NewAppError(TypeEvaluator, "AI provider not registered", nil)
)

// Criteria errors
var (
	ErrCriteriaNotFound = NewAppError(TypeCriteria, "Grading criteria not found", nil).
				WithSuggestion("Upload criteria first: mate-grade criteria set --assignment <name> <file>")

	ErrAssignmentExists = NewAppError(TypeCriteria, "Assignment already exists", nil)

	ErrAssignmentNotFound = NewAppError(TypeCriteria, "Assignment not found", nil)

	ErrUnsupportedCriteriaFormat = NewAppError(TypeCriteria, "Invalid file type", nil).
					WithSuggestion("Only .txt, .docx, .json, .yaml and .yml files are allowed")

	ErrInvalidCriteria = NewAppError(TypeCriteria, "Invalid criteria file", nil)

	ErrRubricMissing = NewAppError(TypeCriteria, "Criteria must contain 'natural_language_rubric'", nil)
)

// Persistence errors
var (
	ErrSaveResult = NewAppError(TypePersistence, "Failed to save grading result", nil).
			WithSuggestion("The grade was computed; save it again once storage is available")

	ErrStorage = NewAppError(TypePersistence, "Storage operation failed", nil)
)

// Configuration errors
var (
	ErrConfigInvalid = NewAppError(TypeConfiguration, "Configuration is invalid", nil).
				WithSuggestion("Review ~/.mate-grade/config.toml or run: mate-grade config init")

	ErrMissingArgument = NewAppError(TypeConfiguration, "Missing required argument", nil)
)
