package categories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]Category
	nextID int64
}

func (m *memoryRepo) List(ctx context.Context) ([]Category, error) {
	out := make([]Category, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Category, error) {
	c, ok := m.rows[id]
	if !ok {
		return Category{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) Create(ctx context.Context, c Category) (Category, error) {
	for _, existing := range m.rows {
		if existing.Name == c.Name {
			return Category{}, shared.ErrDuplicate
		}
	}
	m.nextID++
	c.ID = m.nextID
	m.rows[c.ID] = c
	return c, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, c Category) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	c.ID = id
	m.rows[id] = c
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	delete(m.rows, id)
	return nil
}

type countingInvalidator struct{ bumps int }

func (c *countingInvalidator) Bump(context.Context) error {
	c.bumps++
	return nil
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc := NewService(&memoryRepo{rows: map[int64]Category{}}, nil, nil)

	_, err := svc.Create(context.Background(), Category{Name: "Material"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Category{Name: " Material "})
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, "Já existe uma categoria com esse nome", shared.FormErrors(err)["name"])
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(&memoryRepo{rows: map[int64]Category{}}, nil, nil)
	_, err := svc.Create(context.Background(), Category{Name: ""})
	assert.Equal(t, "Nome da categoria é obrigatório", shared.FormErrors(err)["name"])
}

func TestMutationsBumpFinanceCache(t *testing.T) {
	cache := &countingInvalidator{}
	repo := &memoryRepo{rows: map[int64]Category{}}
	svc := NewService(repo, cache, nil)

	c, err := svc.Create(context.Background(), Category{Name: "Elétrica"})
	require.NoError(t, err)
	require.NoError(t, svc.Update(context.Background(), c.ID, Category{Name: "Instalações elétricas"}))
	require.NoError(t, svc.Delete(context.Background(), c.ID))
	assert.Equal(t, 2, cache.bumps)
}
