package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "grades.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Assignments(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.CreateAssignment(ctx, "strategy")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = store.CreateAssignment(ctx, "strategy")
	assert.True(t, errors.Is(err, domainErrors.ErrAssignmentExists))

	got, err := store.GetAssignment(ctx, "strategy")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Millisecond)

	_, err = store.GetAssignment(ctx, "observer")
	assert.True(t, errors.Is(err, domainErrors.ErrAssignmentNotFound))
}

func TestStore_Criteria(t *testing.T) {
	ctx := context.Background()

	t.Run("save creates the assignment and get returns the rules", func(t *testing.T) {
		store := newTestStore(t)
		criteria := models.Criteria{
			AssignmentName: "strategy",
			Rubric:         "Use the Strategy pattern.",
			Rules: []models.RegexRule{
				{Pattern: `System\.out\.println`, Deduction: 5, Message: "debug print"},
			},
		}

		require.NoError(t, store.SaveCriteria(ctx, criteria))

		got, err := store.GetCriteria(ctx, "strategy")
		require.NoError(t, err)
		assert.Equal(t, "Use the Strategy pattern.", got.Rubric)
		if diff := cmp.Diff(criteria.Rules, got.Rules); diff != "" {
			t.Errorf("rules mismatch (-want +got):\n%s", diff)
		}

		_, err = store.GetAssignment(ctx, "strategy")
		assert.NoError(t, err)
	})

	t.Run("saving again overwrites in place", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SaveCriteria(ctx, models.Criteria{
			AssignmentName: "strategy",
			Rubric:         "first",
			Rules:          []models.RegexRule{{Pattern: "a", Deduction: 1, Message: "a"}},
		}))
		require.NoError(t, store.SaveCriteria(ctx, models.Criteria{
			AssignmentName: "strategy",
			Rubric:         "second",
		}))

		got, err := store.GetCriteria(ctx, "strategy")
		require.NoError(t, err)
		assert.Equal(t, "second", got.Rubric)
		assert.Empty(t, got.Rules)

		var count int
		require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM criteria`).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("missing criteria", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.CreateAssignment(ctx, "strategy")
		require.NoError(t, err)

		_, err = store.GetCriteria(ctx, "strategy")
		assert.True(t, errors.Is(err, domainErrors.ErrCriteriaNotFound))
	})
}

func TestStore_Results(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveCriteria(ctx, models.Criteria{AssignmentName: "strategy", Rubric: "r"}))
	require.NoError(t, store.SaveCriteria(ctx, models.Criteria{AssignmentName: "observer", Rubric: "r"}))

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	results := []*models.GradingResult{
		{AssignmentName: "strategy", StudentID: "alice", Grade: 80, Feedback: "GRADE: 80/100", CreatedAt: base},
		{AssignmentName: "strategy", StudentID: "bob", Grade: 95, Feedback: "GRADE: 95/100", CreatedAt: base.Add(time.Second)},
		{AssignmentName: "observer", StudentID: "alice", Grade: 70, Feedback: "GRADE: 70/100", CreatedAt: base.Add(500 * time.Millisecond)},
		{AssignmentName: "strategy", StudentID: "alice", Grade: 90, Feedback: "GRADE: 90/100", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, r := range results {
		require.NoError(t, store.Save(ctx, r))
		assert.NotEmpty(t, r.ID)
	}

	t.Run("all results ordered by creation time", func(t *testing.T) {
		all, err := store.ListResults(ctx, models.ResultFilter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, []int{80, 70, 95, 90}, []int{all[0].Grade, all[1].Grade, all[2].Grade, all[3].Grade})
	})

	t.Run("re-grading appends", func(t *testing.T) {
		got, err := store.ListResults(ctx, models.ResultFilter{AssignmentName: "strategy", StudentID: "alice"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 80, got[0].Grade)
		assert.Equal(t, 90, got[1].Grade)
		assert.NotEqual(t, got[0].ID, got[1].ID)
	})

	t.Run("filter by student", func(t *testing.T) {
		got, err := store.ListResults(ctx, models.ResultFilter{StudentID: "alice"})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("round trips every field", func(t *testing.T) {
		got, err := store.ListResults(ctx, models.ResultFilter{AssignmentName: "observer"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		if diff := cmp.Diff(*results[2], got[0]); diff != "" {
			t.Errorf("result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown assignment cannot be saved", func(t *testing.T) {
		err := store.Save(ctx, &models.GradingResult{AssignmentName: "missing", StudentID: "x", Grade: 50, Feedback: "f"})
		assert.True(t, errors.Is(err, domainErrors.ErrSaveResult))
	})
}

func TestStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveCriteria(ctx, models.Criteria{AssignmentName: "strategy", Rubric: "r"}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Save(ctx, &models.GradingResult{
				AssignmentName: "strategy",
				StudentID:      "student",
				Grade:          i * 10,
				Feedback:       "f",
			}))
		}(i)
	}
	wg.Wait()

	got, err := store.ListResults(ctx, models.ResultFilter{AssignmentName: "strategy"})
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "grades.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveCriteria(ctx, models.Criteria{AssignmentName: "strategy", Rubric: "r"}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetCriteria(ctx, "strategy")
	require.NoError(t, err)
	assert.Equal(t, "r", got.Rubric)
}
