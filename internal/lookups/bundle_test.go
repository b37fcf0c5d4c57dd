package lookups

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/shared"
)

func TestLoadBundle(t *testing.T) {
	src := Static{
		SupplierOptions: []shared.Option{{ID: 1, Name: "Casa do Construtor"}},
		CategoryOptions: []shared.Option{{ID: 2, Name: "Material"}},
		StageOptions:    []shared.Option{{ID: 3, Name: "Fundação"}},
	}
	b, err := Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, src.SupplierOptions, b.Suppliers)
	assert.Equal(t, src.CategoryOptions, b.Categories)
	assert.Equal(t, src.StageOptions, b.Stages)
}

func TestLoadBundleError(t *testing.T) {
	_, err := Load(context.Background(), Static{Err: errors.New("down")})
	assert.EqualError(t, err, "down")
}
