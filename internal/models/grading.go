package models

import (
	"fmt"
	"time"
)

// MaxGrade is the grade of a submission without deductions.
const MaxGrade = 100

// UnknownStudent is used when no student can be derived from the repository URL.
const UnknownStudent = "unknown_student"

type Origin string

const (
	OriginRule  Origin = "rule"
	OriginModel Origin = "model"
)

type (
	// SourceFile lives only for the duration of one grading run.
	SourceFile struct {
		Path    string
		Content string
	}

	Location struct {
		File string
		Line int
	}

	DeductionEntry struct {
		Points      int
		Description string
		Origin      Origin
		Location    *Location
	}

	// GradingResult is immutable once saved. Re-grading appends a new one.
	GradingResult struct {
		ID             string    `json:"id"`
		AssignmentName string    `json:"assignment_name"`
		StudentID      string    `json:"student_id"`
		Grade          int       `json:"grade"`
		Feedback       string    `json:"feedback"`
		CreatedAt      time.Time `json:"created_at"`
	}

	// ResultFilter selects results; empty fields match everything.
	ResultFilter struct {
		AssignmentName string
		StudentID      string
	}

	GradeRequest struct {
		AssignmentName  string
		RepoURL         string
		Credential      string
		EvaluatorAPIKey string
	}
)

// String renders the entry the way it appears in the feedback report.
func (d DeductionEntry) String() string {
	if d.Location != nil {
		return fmt.Sprintf("[-%d points] %s (in %s:%d)", d.Points, d.Description, d.Location.File, d.Location.Line)
	}
	return fmt.Sprintf("[-%d points] %s", d.Points, d.Description)
}

// AddPoints adds a deduction to a subtotal, saturating at MaxGrade. Anything
// past MaxGrade already yields a grade of zero, and arbitrary model output
// must not overflow the sum.
func AddPoints(total, points int) int {
	if points < 0 {
		points = 0
	}
	if total >= MaxGrade || points >= MaxGrade-total {
		return MaxGrade
	}
	return total + points
}

// SumPoints returns the saturated subtotal of the given deductions.
func SumPoints(entries []DeductionEntry) int {
	total := 0
	for _, e := range entries {
		total = AddPoints(total, e.Points)
	}
	return total
}
