package models

import "time"

type (
	// Assignment is identified by its unique name and owns its criteria and results.
	Assignment struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Criteria is the grading configuration of one assignment.
	Criteria struct {
		AssignmentName string      `json:"assignment_name"`
		Rubric         string      `json:"natural_language_rubric" yaml:"natural_language_rubric"`
		Rules          []RegexRule `json:"regex_checks" yaml:"regex_checks"`
		UpdatedAt      time.Time   `json:"updated_at"`
	}

	// RegexRule deducts Deduction points from a file whose line matches Pattern.
	RegexRule struct {
		Pattern   string `json:"pattern" yaml:"pattern"`
		Deduction int    `json:"deduction" yaml:"deduction"`
		Message   string `json:"message" yaml:"message"`
	}
)
