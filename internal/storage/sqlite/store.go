package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	_ ports.ResultStore   = (*Store)(nil)
	_ ports.CriteriaStore = (*Store)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS assignments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS criteria (
	assignment_id INTEGER PRIMARY KEY REFERENCES assignments(id),
	rubric TEXT NOT NULL,
	regex_checks TEXT NOT NULL DEFAULT '[]',
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS grading_results (
	id TEXT PRIMARY KEY,
	assignment_id INTEGER NOT NULL REFERENCES assignments(id),
	student_id TEXT NOT NULL,
	grade INTEGER NOT NULL CHECK (grade BETWEEN 0 AND 100),
	feedback TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_assignment ON grading_results(assignment_id);
CREATE INDEX IF NOT EXISTS idx_results_student ON grading_results(student_id);
`

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists assignments, criteria and grading results in SQLite.
// Writes go through a single connection, so concurrent callers are
// serialised by database/sql.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, domainErrors.ErrStorage.WithError(fmt.Errorf("failed to create directory: %w", err))
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, domainErrors.ErrStorage.WithError(fmt.Errorf("failed to open database: %w", err))
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, domainErrors.ErrStorage.WithError(fmt.Errorf("failed to create schema: %w", err))
	}

	return &Store{
		db:   db,
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateAssignment(ctx context.Context, name string) (*models.Assignment, error) {
	createdAt := s.now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, createdAt.UTC().Format(timeLayout))
	if err != nil {
		return nil, domainErrors.ErrStorage.WithError(err).WithContext("assignment", name)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, domainErrors.ErrStorage.WithError(err)
	}
	if affected == 0 {
		return nil, domainErrors.ErrAssignmentExists.WithContext("assignment", name)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, domainErrors.ErrStorage.WithError(err)
	}
	return &models.Assignment{ID: id, Name: name, CreatedAt: createdAt}, nil
}

func (s *Store) GetAssignment(ctx context.Context, name string) (*models.Assignment, error) {
	var (
		a         models.Assignment
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM assignments WHERE name = ?`, name).
		Scan(&a.ID, &a.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainErrors.ErrAssignmentNotFound.WithContext("assignment", name)
	}
	if err != nil {
		return nil, domainErrors.ErrStorage.WithError(err).WithContext("assignment", name)
	}

	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveCriteria creates the assignment on first use and overwrites any
// criteria already stored for it.
func (s *Store) SaveCriteria(ctx context.Context, c models.Criteria) error {
	rules := c.Rules
	if rules == nil {
		rules = []models.RegexRule{}
	}
	encoded, err := json.Marshal(rules)
	if err != nil {
		return domainErrors.ErrStorage.WithError(err)
	}

	now := s.now()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domainErrors.ErrStorage.WithError(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO assignments (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		c.AssignmentName, now.UTC().Format(timeLayout)); err != nil {
		return domainErrors.ErrStorage.WithError(err).WithContext("assignment", c.AssignmentName)
	}

	var assignmentID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM assignments WHERE name = ?`, c.AssignmentName).Scan(&assignmentID); err != nil {
		return domainErrors.ErrStorage.WithError(err).WithContext("assignment", c.AssignmentName)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO criteria (assignment_id, rubric, regex_checks, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(assignment_id) DO UPDATE SET
			rubric = excluded.rubric,
			regex_checks = excluded.regex_checks,
			updated_at = excluded.updated_at`,
		assignmentID, c.Rubric, string(encoded), c.UpdatedAt.UTC().Format(timeLayout)); err != nil {
		return domainErrors.ErrStorage.WithError(err).WithContext("assignment", c.AssignmentName)
	}

	if err := tx.Commit(); err != nil {
		return domainErrors.ErrStorage.WithError(err)
	}
	return nil
}

func (s *Store) GetCriteria(ctx context.Context, assignmentName string) (*models.Criteria, error) {
	var (
		c         models.Criteria
		rules     string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT a.name, c.rubric, c.regex_checks, c.updated_at
		FROM criteria c
		JOIN assignments a ON a.id = c.assignment_id
		WHERE a.name = ?`, assignmentName).
		Scan(&c.AssignmentName, &c.Rubric, &rules, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainErrors.ErrCriteriaNotFound.WithContext("assignment", assignmentName)
	}
	if err != nil {
		return nil, domainErrors.ErrStorage.WithError(err).WithContext("assignment", assignmentName)
	}

	if err := json.Unmarshal([]byte(rules), &c.Rules); err != nil {
		return nil, domainErrors.ErrStorage.WithError(fmt.Errorf("corrupt regex_checks: %w", err))
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save appends a grading result. Results are never updated; an empty ID is
// filled with a new UUID and a zero CreatedAt with the current time.
func (s *Store) Save(ctx context.Context, result *models.GradingResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = s.now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO grading_results (id, assignment_id, student_id, grade, feedback, created_at)
		SELECT ?, id, ?, ?, ?, ? FROM assignments WHERE name = ?`,
		result.ID, result.StudentID, result.Grade, result.Feedback,
		result.CreatedAt.UTC().Format(timeLayout), result.AssignmentName)
	if err != nil {
		return domainErrors.ErrSaveResult.WithError(err).WithContext("assignment", result.AssignmentName)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domainErrors.ErrSaveResult.WithError(err)
	}
	if affected == 0 {
		return domainErrors.ErrSaveResult.
			WithError(domainErrors.ErrAssignmentNotFound).
			WithContext("assignment", result.AssignmentName)
	}
	return nil
}

func (s *Store) ListResults(ctx context.Context, filter models.ResultFilter) ([]models.GradingResult, error) {
	query := `
		SELECT r.id, a.name, r.student_id, r.grade, r.feedback, r.created_at
		FROM grading_results r
		JOIN assignments a ON a.id = r.assignment_id`

	var (
		where []string
		args  []any
	)
	if filter.AssignmentName != "" {
		where = append(where, "a.name = ?")
		args = append(args, filter.AssignmentName)
	}
	if filter.StudentID != "" {
		where = append(where, "r.student_id = ?")
		args = append(args, filter.StudentID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.created_at, r.rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domainErrors.ErrStorage.WithError(err)
	}
	defer rows.Close()

	var results []models.GradingResult
	for rows.Next() {
		var (
			r         models.GradingResult
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.AssignmentName, &r.StudentID, &r.Grade, &r.Feedback, &createdAt); err != nil {
			return nil, domainErrors.ErrStorage.WithError(err)
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, domainErrors.ErrStorage.WithError(err)
	}
	return results, nil
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, domainErrors.ErrStorage.WithError(fmt.Errorf("invalid timestamp %q: %w", value, err))
	}
	return t, nil
}
