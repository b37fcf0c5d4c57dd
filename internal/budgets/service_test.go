package budgets

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/shared"
)

func TestCreateRejectsDuplicatePair(t *testing.T) {
	repo := newMemoryRepo()
	cache := &countingCache{}
	svc := NewService(repo, lookups.Static{}, cache, nil)
	ctx := context.Background()

	stage := int64(2)
	_, err := svc.Create(ctx, Budget{CategoryID: 1, StageID: &stage, PlannedValue: decimal.NewFromInt(5000)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Budget{CategoryID: 1, PlannedValue: decimal.NewFromInt(1000)})
	require.NoError(t, err)

	_, err = svc.Create(ctx, Budget{CategoryID: 1, StageID: &stage, PlannedValue: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, "Já existe orçamento para esta categoria e etapa", shared.FormErrors(err)["category_id"])
	assert.Equal(t, 2, cache.bumps)
}

func TestCreateValidatesValue(t *testing.T) {
	svc := NewService(newMemoryRepo(), lookups.Static{}, nil, nil)
	_, err := svc.Create(context.Background(), Budget{CategoryID: 1, PlannedValue: decimal.NewFromInt(-1)})
	assert.Contains(t, shared.FormErrors(err), "planned_value")

	_, err = svc.Create(context.Background(), Budget{PlannedValue: decimal.NewFromInt(1)})
	assert.Equal(t, "Selecione a categoria", shared.FormErrors(err)["category_id"])
}

func TestReportUsesSpentPerPair(t *testing.T) {
	repo := newMemoryRepo()
	stage := int64(4)
	repo.rows[1] = Budget{ID: 1, CategoryID: 1, StageID: &stage, PlannedValue: decimal.NewFromInt(2000)}
	repo.rows[2] = Budget{ID: 2, CategoryID: 1, PlannedValue: decimal.NewFromInt(500)}
	repo.spent[pair{category: 1, stage: 4}] = decimal.NewFromInt(500)
	repo.spent[pair{category: 1}] = decimal.NewFromInt(600)

	report, err := NewService(repo, lookups.Static{}, nil, nil).Report(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Lines, 2)
	assert.Equal(t, 25, report.Lines[0].UsedPercent)
	assert.True(t, report.Lines[1].Over())
	assert.Equal(t, "1100.00", report.Spent.StringFixed(2))
	assert.Equal(t, 44, report.UsedPercent)
}
