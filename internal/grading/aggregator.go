package grading

import (
	"fmt"
	"strings"

	"github.com/Tomas-vilte/MateGrade/internal/ai"
	"github.com/Tomas-vilte/MateGrade/internal/feedback"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/Tomas-vilte/MateGrade/internal/rules"
)

const MaxGrade = models.MaxGrade

const (
	sectionWidth  = 50
	noDeductions  = "  No deductions - Excellent work!"
	noFeedbackMsg = "No detailed feedback available."
	truncatedNote = "[Note: some files did not fit the AI prompt budget and were not evaluated by the model.]"
)

// Report is the combined outcome of one grading run.
type Report struct {
	Grade         int
	Deductions    []models.DeductionEntry
	RuleSubtotal  int
	ModelSubtotal int
	Feedback      string
}

// Aggregator combines rule and model deductions into a grade and the
// feedback report.
type Aggregator struct {
	// maxModelDeduction caps each model deduction; 0 disables the cap.
	maxModelDeduction int
}

func NewAggregator(maxModelDeduction int) *Aggregator {
	if maxModelDeduction < 0 {
		maxModelDeduction = 0
	}
	return &Aggregator{maxModelDeduction: maxModelDeduction}
}

// Aggregate computes max(0, 100 - rule subtotal - model subtotal). Model
// deductions only count when the evaluation was available.
func (a *Aggregator) Aggregate(ruleOutcome rules.Outcome, parsed feedback.Outcome, evaluation ai.Evaluation) Report {
	deductions := make([]models.DeductionEntry, 0, len(ruleOutcome.Deductions)+len(parsed.Deductions))
	deductions = append(deductions, ruleOutcome.Deductions...)

	var model []models.DeductionEntry
	if evaluation.Available {
		for _, d := range parsed.Deductions {
			if a.maxModelDeduction > 0 && d.Points > a.maxModelDeduction {
				d.Points = a.maxModelDeduction
			}
			model = append(model, d)
		}
	}
	deductions = append(deductions, model...)

	ruleSubtotal := models.SumPoints(ruleOutcome.Deductions)
	modelSubtotal := models.SumPoints(model)
	grade := clampGrade(MaxGrade - models.AddPoints(ruleSubtotal, modelSubtotal))

	return Report{
		Grade:         grade,
		Deductions:    deductions,
		RuleSubtotal:  ruleSubtotal,
		ModelSubtotal: modelSubtotal,
		Feedback:      RenderFeedback(grade, deductions, detailedFeedback(evaluation)),
	}
}

func detailedFeedback(evaluation ai.Evaluation) string {
	if evaluation.Available && evaluation.Truncated {
		return evaluation.Feedback + "\n\n" + truncatedNote
	}
	return evaluation.Feedback
}

func clampGrade(grade int) int {
	return max(0, min(grade, MaxGrade))
}

// RenderFeedback renders the fixed-layout feedback report.
func RenderFeedback(grade int, deductions []models.DeductionEntry, detail string) string {
	separator := strings.Repeat("=", sectionWidth)

	parts := []string{
		fmt.Sprintf("GRADE: %d/%d\n", grade, MaxGrade),
		separator,
		"\nDEDUCTIONS:",
	}
	if len(deductions) == 0 {
		parts = append(parts, noDeductions)
	}
	for _, d := range deductions {
		parts = append(parts, "  "+d.String())
	}

	if detail == "" {
		detail = noFeedbackMsg
	}
	parts = append(parts,
		"\n"+separator,
		"\nDETAILED FEEDBACK:",
		detail,
	)

	return strings.Join(parts, "\n")
}
