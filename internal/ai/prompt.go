package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/Tomas-vilte/MateGrade/internal/models"
)

const (
	DefaultMaxPromptChars = 20000

	fileSeparatorWidth = 60
	truncationMarker   = "\n[... Additional files truncated due to length ...]"
)

// PromptData holds the parameters for template rendering
type PromptData struct {
	Rubric string
	Code   string
}

const gradingPromptTemplate = `You are a university teaching assistant grading a Java programming assignment.
Your task is to evaluate the student's code based on the following grading rubric and provide detailed feedback.

GRADING RUBRIC:
{{.Rubric}}

STUDENT'S CODE:
{{.Code}}

INSTRUCTIONS:
1. Evaluate the code against the rubric criteria
2. Focus on design patterns, code structure, architecture, and best practices
3. Provide specific deductions with point values (e.g., "-5 points: ...")
4. Each deduction should be on a new line starting with the point deduction
5. Be constructive but thorough
6. Start your response directly with deductions and feedback
7. Format each deduction as: [-X points] Description of issue

Provide your grading feedback now:`

// RenderPrompt renders a prompt template with the provided data
func RenderPrompt(name, tmplStr string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("error parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing template %s: %w", name, err)
	}

	return buf.String(), nil
}

// BuildCodeContext renders files as delimited blocks in the given order.
// maxChars bounds headers plus contents, counted in runes. The first file
// that does not fit is replaced by a truncation marker and nothing after it
// is included; files are never cut in half.
func BuildCodeContext(files []models.SourceFile, maxChars int) (string, bool) {
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}

	separator := strings.Repeat("=", fileSeparatorWidth)
	parts := make([]string, 0, len(files)*2)
	total := 0
	truncated := false

	for _, f := range files {
		header := fmt.Sprintf("\n%s\nFILE: %s\n%s\n", separator, f.Path, separator)
		size := utf8.RuneCountInString(header) + utf8.RuneCountInString(f.Content)
		if total+size > maxChars {
			parts = append(parts, truncationMarker)
			truncated = true
			break
		}
		parts = append(parts, header, f.Content)
		total += size
	}

	return strings.Join(parts, "\n"), truncated
}

// BuildGradingPrompt assembles the full evaluator prompt.
func BuildGradingPrompt(rubric string, files []models.SourceFile, maxChars int) (string, bool, error) {
	code, truncated := BuildCodeContext(files, maxChars)
	prompt, err := RenderPrompt("grading", gradingPromptTemplate, PromptData{
		Rubric: rubric,
		Code:   code,
	})
	if err != nil {
		return "", truncated, err
	}
	return prompt, truncated, nil
}
