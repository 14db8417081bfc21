package feedback

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/logger"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/Tomas-vilte/MateGrade/internal/regex"
)

// grammarRow is one accepted shape of a deduction line. Group 1 of pattern
// is the point value and group 2 the description.
type grammarRow struct {
	name    string
	pattern *regexp.Regexp
}

// grammar is tried in order; the first row that matches a line wins.
var grammar = []grammarRow{
	{name: "bracketed", pattern: regex.BracketedDeduction},
	{name: "inline", pattern: regex.InlineDeduction},
}

type Outcome struct {
	Deductions []models.DeductionEntry
	Subtotal   int
	Skipped    int
}

// Parser extracts point deductions from free-form evaluator feedback.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads text line by line. Lines that match no grammar row are
// narrative and ignored. Deductions keep the order they appear in.
func (p *Parser) Parse(ctx context.Context, text string) Outcome {
	var out Outcome

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		entry, row, err := matchLine(line)
		if row == "" {
			continue
		}
		if err != nil {
			logger.Warn(ctx, "skipping deduction line", "grammar", row, "line", line, "error", err)
			out.Skipped++
			continue
		}

		out.Deductions = append(out.Deductions, entry)
		out.Subtotal = models.AddPoints(out.Subtotal, entry.Points)
	}

	logger.Debug(ctx, "evaluator feedback parsed",
		"count", len(out.Deductions),
		"subtotal", out.Subtotal,
		"skipped", out.Skipped)
	return out
}

func matchLine(line string) (models.DeductionEntry, string, error) {
	for _, row := range grammar {
		m := row.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		points, err := strconv.Atoi(m[1])
		if err != nil {
			return models.DeductionEntry{}, row.name, domainErrors.ErrDeductionPoints.WithError(err)
		}
		description := strings.TrimSpace(strings.TrimRight(m[2], "* \t"))
		if description == "" {
			return models.DeductionEntry{}, row.name, domainErrors.ErrEmptyDeduction
		}

		return models.DeductionEntry{
			Points:      points,
			Description: description,
			Origin:      models.OriginModel,
		}, row.name, nil
	}
	return models.DeductionEntry{}, "", nil
}
