package criteria

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"gopkg.in/yaml.v3"
)

// Document is the structured criteria file format shared by JSON and YAML.
type Document struct {
	Rubric *string            `json:"natural_language_rubric" yaml:"natural_language_rubric"`
	Rules  []models.RegexRule `json:"regex_checks" yaml:"regex_checks"`
}

type decodeFunc func(data []byte) (rubric string, rules []models.RegexRule, err error)

var decoders = map[string]decodeFunc{
	".txt":  decodeText,
	".json": decodeJSON,
	".yaml": decodeYAML,
	".yml":  decodeYAML,
	".docx": decodeDocx,
}

// SupportedExtensions lists the accepted criteria file extensions.
func SupportedExtensions() []string {
	return []string{".txt", ".json", ".yaml", ".yml", ".docx"}
}

// Load parses a criteria file. The format is chosen by the file extension.
// Plain text and docx files become the rubric as a whole and carry no rules.
func Load(assignmentName, filename string, data []byte) (models.Criteria, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	decode, ok := decoders[ext]
	if !ok {
		return models.Criteria{}, domainErrors.ErrUnsupportedCriteriaFormat.WithContext("file", filename)
	}

	rubric, rules, err := decode(data)
	if err != nil {
		var appErr *domainErrors.AppError
		if errors.As(err, &appErr) {
			return models.Criteria{}, appErr.WithContext("file", filename)
		}
		return models.Criteria{}, domainErrors.ErrInvalidCriteria.WithError(err).WithContext("file", filename)
	}
	if strings.TrimSpace(rubric) == "" {
		return models.Criteria{}, domainErrors.ErrRubricMissing.WithContext("file", filename)
	}

	return models.Criteria{
		AssignmentName: assignmentName,
		Rubric:         rubric,
		Rules:          rules,
	}, nil
}

func decodeText(data []byte) (string, []models.RegexRule, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", nil, errors.New("file is not valid UTF-8")
	}
	return string(data), nil, nil
}

func decodeJSON(data []byte) (string, []models.RegexRule, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("invalid JSON format: %w", err)
	}
	return fromDocument(doc)
}

func decodeYAML(data []byte) (string, []models.RegexRule, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("invalid YAML format: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc Document) (string, []models.RegexRule, error) {
	if doc.Rubric == nil {
		return "", nil, domainErrors.ErrRubricMissing
	}
	return *doc.Rubric, doc.Rules, nil
}
