package rules

import (
	"context"
	"errors"
	"math"
	"testing"

	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var debugPrint = models.RegexRule{Pattern: `System\.out\.println`, Deduction: 5, Message: "debug print"}

func TestEngine_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("fires once per file at the first matching line", func(t *testing.T) {
		files := []models.SourceFile{
			{Path: "Main.java", Content: "class Main {\n  void a() {}\n  System.out.println(1);\n  System.out.println(2);\n}"},
		}

		out := NewEngine().Evaluate(ctx, files, []models.RegexRule{debugPrint})

		want := []models.DeductionEntry{
			{Points: 5, Description: "debug print", Origin: models.OriginRule, Location: &models.Location{File: "Main.java", Line: 3}},
		}
		if diff := cmp.Diff(want, out.Deductions); diff != "" {
			t.Errorf("Deductions mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, 5, out.Subtotal)
		assert.Empty(t, out.Skipped)
	})

	t.Run("fires independently across files in rule-then-file order", func(t *testing.T) {
		files := []models.SourceFile{
			{Path: "A.java", Content: "System.out.println(\"a\");\n// TODO fix"},
			{Path: "B.java", Content: "int x;\r\nSystem.out.println(\"b\");\r\n"},
		}
		todo := models.RegexRule{Pattern: `TODO`, Deduction: 2, Message: "leftover TODO"}

		out := NewEngine().Evaluate(ctx, files, []models.RegexRule{debugPrint, todo})

		require.Len(t, out.Deductions, 3)
		assert.Equal(t, "[-5 points] debug print (in A.java:1)", out.Deductions[0].String())
		assert.Equal(t, "[-5 points] debug print (in B.java:2)", out.Deductions[1].String())
		assert.Equal(t, "[-2 points] leftover TODO (in A.java:2)", out.Deductions[2].String())
		assert.Equal(t, 12, out.Subtotal)
	})

	t.Run("invalid rules are skipped and the rest still apply", func(t *testing.T) {
		files := []models.SourceFile{{Path: "A.java", Content: "System.out.println(1);"}}
		rules := []models.RegexRule{
			{Pattern: `(?<=x)y`, Deduction: 3, Message: "look-behind"},
			{Pattern: "", Deduction: 3, Message: "empty"},
			{Pattern: `println`, Deduction: -4, Message: "negative"},
			debugPrint,
		}

		out := NewEngine().Evaluate(ctx, files, rules)

		assert.Equal(t, 5, out.Subtotal)
		require.Len(t, out.Skipped, 3)
		assert.True(t, errors.Is(out.Skipped[0].Reason, domainErrors.ErrInvalidRulePattern))
		assert.True(t, errors.Is(out.Skipped[1].Reason, domainErrors.ErrInvalidRule))
		assert.True(t, errors.Is(out.Skipped[2].Reason, domainErrors.ErrInvalidRule))
	})

	t.Run("zero point rules are reported", func(t *testing.T) {
		files := []models.SourceFile{{Path: "A.java", Content: "@SuppressWarnings(\"all\")"}}
		rule := models.RegexRule{Pattern: `@SuppressWarnings`, Deduction: 0, Message: "suppressed warnings"}

		out := NewEngine().Evaluate(ctx, files, []models.RegexRule{rule})

		require.Len(t, out.Deductions, 1)
		assert.Equal(t, 0, out.Subtotal)
	})

	t.Run("no rules", func(t *testing.T) {
		out := NewEngine().Evaluate(ctx, []models.SourceFile{{Path: "A.java", Content: "x"}}, nil)
		assert.Empty(t, out.Deductions)
		assert.Zero(t, out.Subtotal)
	})
}

func TestEngine_SubtotalIndependentOfOrder(t *testing.T) {
	files := []models.SourceFile{
		{Path: "A.java", Content: "System.out.println(1);\nint unused;"},
		{Path: "B.java", Content: "catch (Exception e) {}"},
		{Path: "C.java", Content: "System.out.println(2);\ncatch (Exception e) {}"},
	}
	rules := []models.RegexRule{
		debugPrint,
		{Pattern: `catch \(Exception`, Deduction: 7, Message: "generic catch"},
		{Pattern: `unused`, Deduction: 1, Message: "unused variable"},
	}

	forward := NewEngine().Evaluate(context.Background(), files, rules)

	reversedFiles := []models.SourceFile{files[2], files[1], files[0]}
	reversedRules := []models.RegexRule{rules[2], rules[1], rules[0]}
	backward := NewEngine().Evaluate(context.Background(), reversedFiles, reversedRules)

	assert.Equal(t, 25, forward.Subtotal)
	assert.Equal(t, forward.Subtotal, backward.Subtotal)
	assert.Equal(t, len(forward.Deductions), len(backward.Deductions))
	assert.Equal(t, models.SumPoints(forward.Deductions), forward.Subtotal)
}

func TestEngine_SubtotalSaturates(t *testing.T) {
	files := []models.SourceFile{
		{Path: "A.java", Content: "System.out.println(1);"},
		{Path: "B.java", Content: "System.out.println(2);"},
	}
	huge := models.RegexRule{Pattern: `println`, Deduction: math.MaxInt64, Message: "no printing"}

	out := NewEngine().Evaluate(context.Background(), files, []models.RegexRule{huge})

	require.Len(t, out.Deductions, 2)
	assert.Equal(t, models.MaxGrade, out.Subtotal)
}

func TestValidate(t *testing.T) {
	issues := Validate([]models.RegexRule{
		debugPrint,
		{Pattern: `([a-z]+`, Deduction: 1, Message: "broken"},
	})
	require.Len(t, issues, 1)
	assert.Equal(t, `([a-z]+`, issues[0].Rule.Pattern)
}
