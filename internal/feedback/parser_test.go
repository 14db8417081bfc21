package feedback

import (
	"context"
	"math"
	"testing"

	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func model(points int, description string) models.DeductionEntry {
	return models.DeductionEntry{Points: points, Description: description, Origin: models.OriginModel}
}

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     []models.DeductionEntry
		subtotal int
		skipped  int
	}{
		{
			name:     "bracketed lines",
			text:     "[-10 points] Missing error handling\n[-5 points] No documentation",
			want:     []models.DeductionEntry{model(10, "Missing error handling"), model(5, "No documentation")},
			subtotal: 15,
		},
		{
			name: "narrative lines are ignored",
			text: "Overall the Strategy pattern is well applied.\n\n" +
				"[-3 points] Concrete strategies share duplicated code\n" +
				"Good use of interfaces. Total deduction: 3 points.",
			want:     []models.DeductionEntry{model(3, "Concrete strategies share duplicated code")},
			subtotal: 3,
		},
		{
			name:     "singular point and case",
			text:     "[-1 Point] Typo in class name\n[ - 2 POINTS ]: Inconsistent naming",
			want:     []models.DeductionEntry{model(1, "Typo in class name"), model(2, "Inconsistent naming")},
			subtotal: 3,
		},
		{
			name:     "inline form",
			text:     "-4 points: Context class exposes its strategy\n- 6 points Missing tests",
			want:     []models.DeductionEntry{model(4, "Context class exposes its strategy"), model(6, "Missing tests")},
			subtotal: 10,
		},
		{
			name:     "markdown emphasis and bullets",
			text:     "* **[-5 points]** Uses `Object` instead of generics\n1. [-2 points] Long method",
			want:     []models.DeductionEntry{model(5, "Uses `Object` instead of generics"), model(2, "Long method")},
			subtotal: 7,
		},
		{
			name:     "description is kept verbatim",
			text:     "__[-3 points]__ a*b and snake_case are mixed**",
			want:     []models.DeductionEntry{model(3, "a*b and snake_case are mixed")},
			subtotal: 3,
		},
		{
			name: "huge point values saturate the subtotal",
			text: "[-9223372036854775807 points] a\n[-9223372036854775807 points] b",
			want: []models.DeductionEntry{
				model(math.MaxInt64, "a"),
				model(math.MaxInt64, "b"),
			},
			subtotal: models.MaxGrade,
		},
		{
			name:     "duplicates are kept",
			text:     "[-5 points] No documentation\n[-5 points] No documentation",
			want:     []models.DeductionEntry{model(5, "No documentation"), model(5, "No documentation")},
			subtotal: 10,
		},
		{
			name:     "overflowing points and blank descriptions are skipped",
			text:     "[-99999999999999999999999 points] Too much\n[-5 points]   \n[-2 points] Kept",
			want:     []models.DeductionEntry{model(2, "Kept")},
			subtotal: 2,
			skipped:  2,
		},
		{
			name: "no deductions",
			text: "Excellent work, nothing to deduct.",
		},
		{
			name: "empty text",
			text: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewParser().Parse(context.Background(), tt.text)

			if diff := cmp.Diff(tt.want, out.Deductions); diff != "" {
				t.Errorf("Parse() deductions mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.subtotal, out.Subtotal)
			assert.Equal(t, tt.skipped, out.Skipped)
		})
	}
}

func TestParser_RendersLikeTheReport(t *testing.T) {
	out := NewParser().Parse(context.Background(), "[-10 points] Missing error handling")
	assert.Equal(t, "[-10 points] Missing error handling", out.Deductions[0].String())
}
