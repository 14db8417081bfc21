package rules

import (
	"context"
	"regexp"
	"strings"

	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/logger"
	"github.com/Tomas-vilte/MateGrade/internal/models"
)

// RuleIssue records a rule that was not applied and why.
type RuleIssue struct {
	Rule   models.RegexRule
	Reason error
}

type Outcome struct {
	Deductions []models.DeductionEntry
	Subtotal   int
	Skipped    []RuleIssue
}

// Engine applies regex rules to source files. It holds no state and is safe
// for concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs every rule against every file. A rule fires at most once per
// file, at the first matching line. Deductions are ordered rule-then-file.
func (e *Engine) Evaluate(ctx context.Context, files []models.SourceFile, rules []models.RegexRule) Outcome {
	var out Outcome

	split := make([][]string, len(files))
	for i, f := range files {
		split[i] = lines(f.Content)
	}

	for _, rule := range rules {
		re, err := compile(rule)
		if err != nil {
			logger.Warn(ctx, "skipping regex rule",
				"pattern", rule.Pattern,
				"error", err)
			out.Skipped = append(out.Skipped, RuleIssue{Rule: rule, Reason: err})
			continue
		}

		for i, f := range files {
			line, ok := firstMatch(re, split[i])
			if !ok {
				continue
			}
			out.Deductions = append(out.Deductions, models.DeductionEntry{
				Points:      rule.Deduction,
				Description: rule.Message,
				Origin:      models.OriginRule,
				Location:    &models.Location{File: f.Path, Line: line},
			})
			out.Subtotal = models.AddPoints(out.Subtotal, rule.Deduction)
		}
	}

	logger.Debug(ctx, "regex rules applied",
		"count", len(out.Deductions),
		"subtotal", out.Subtotal,
		"skipped", len(out.Skipped))
	return out
}

func compile(rule models.RegexRule) (*regexp.Regexp, error) {
	if strings.TrimSpace(rule.Pattern) == "" || strings.TrimSpace(rule.Message) == "" {
		return nil, domainErrors.ErrInvalidRule.WithContext("pattern", rule.Pattern)
	}
	if rule.Deduction < 0 {
		return nil, domainErrors.ErrInvalidRule.
			WithContext("pattern", rule.Pattern).
			WithContext("deduction", rule.Deduction)
	}
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return nil, domainErrors.ErrInvalidRulePattern.WithError(err).WithContext("pattern", rule.Pattern)
	}
	return re, nil
}

func firstMatch(re *regexp.Regexp, lines []string) (int, bool) {
	for i, line := range lines {
		if re.MatchString(line) {
			return i + 1, true
		}
	}
	return 0, false
}

func lines(content string) []string {
	parts := strings.Split(content, "\n")
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}

// Validate reports the problems Evaluate would skip, without touching any file.
func Validate(rules []models.RegexRule) []RuleIssue {
	var issues []RuleIssue
	for _, rule := range rules {
		if _, err := compile(rule); err != nil {
			issues = append(issues, RuleIssue{Rule: rule, Reason: err})
		}
	}
	return issues
}
