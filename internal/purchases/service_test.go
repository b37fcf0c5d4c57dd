package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/shared"
)

func validPurchase() Purchase {
	return Purchase{
		SupplierID:   1,
		Description:  "Cimento CP-II 50kg",
		Quantity:     decimal.NewFromInt(40),
		Unit:         "saco",
		TotalValue:   decimal.RequireFromString("1480.00"),
		PurchaseDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateDefaultsAndActor(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, lookups.Static{})

	p := validPurchase()
	p.Unit = ""
	created, err := svc.Create(context.Background(), p, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, "un", created.Unit)
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, int64(7), *created.CreatedBy)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), lookups.Static{})
	ctx := context.Background()

	p := validPurchase()
	p.SupplierID = 0
	p.Description = ""
	_, err := svc.Create(ctx, p, 1)
	require.ErrorIs(t, err, shared.ErrValidation)
	fields := shared.FormErrors(err)
	assert.Equal(t, "Selecione o fornecedor", fields["supplier_id"])
	assert.Contains(t, fields, "description")

	p = validPurchase()
	p.Quantity = decimal.Zero
	_, err = svc.Create(ctx, p, 1)
	assert.Equal(t, "Quantidade deve ser maior que zero", shared.FormErrors(err)["quantity"])

	p = validPurchase()
	early := p.PurchaseDate.AddDate(0, 0, -2)
	p.DeliveryDate = &early
	_, err = svc.Create(ctx, p, 1)
	assert.Contains(t, shared.FormErrors(err), "delivery_date")
}

func TestMarkDelivered(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, lookups.Static{})
	fixed := time.Date(2025, 4, 2, 15, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	created, err := svc.Create(ctx, validPurchase(), 1)
	require.NoError(t, err)
	require.NoError(t, svc.MarkDelivered(ctx, created.ID))
	got := repo.rows[created.ID]
	assert.Equal(t, StatusDelivered, got.Status)
	require.NotNil(t, got.DeliveryDate)
	assert.Equal(t, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), *got.DeliveryDate)

	cancelled := validPurchase()
	cancelled.Status = StatusCancelled
	c, err := svc.Create(ctx, cancelled, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.MarkDelivered(ctx, c.ID), shared.ErrValidation)

	assert.ErrorIs(t, svc.MarkDelivered(ctx, 404), shared.ErrNotFound)
}

func TestUnitPrice(t *testing.T) {
	p := validPurchase()
	assert.Equal(t, "37.00", p.UnitPrice().StringFixed(2))
	p.Quantity = decimal.Zero
	assert.True(t, p.UnitPrice().IsZero())
}
